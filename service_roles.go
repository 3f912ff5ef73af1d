package accesskit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// ROLE STORE
// ============================================================================

// CreateSystemRoles bootstraps the three system roles for a new
// organization: owner (priority 0), admin (priority 1) and the default
// member role (priority 100). It must be called exactly once per
// organization, at organization creation; the store does not deduplicate.
//
// Returns the roles in authority order: [owner, admin, member].
func (s *Service) CreateSystemRoles(ctx context.Context, organizationID string) ([]*Role, error) {
	roles := []*Role{
		NewOwnerRole(organizationID),
		NewAdminRole(organizationID),
		NewMemberRole(organizationID),
	}

	result, err := s.db.NewInsert().Model(&roles).Exec(ctx)
	err = dbkit.WithErr(result, err, "CreateSystemRoles").Err()
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to create system roles").
			WithOrganization(organizationID)
	}

	audit := GetAuditContext(ctx)
	_ = s.logAudit(ctx, &AuditEntry{
		ActorID:        audit.ActorID,
		Action:         AuditActionSystemRolesCreated,
		OrganizationID: organizationID,
		IPAddress:      audit.IPAddress,
		UserAgent:      audit.UserAgent,
		RequestID:      audit.RequestID,
		Metadata: map[string]any{
			"owner_role_id":  roles[0].ID,
			"admin_role_id":  roles[1].ID,
			"member_role_id": roles[2].ID,
		},
	})

	return roles, nil
}

// CreateRole creates a custom role in an organization. Pass priority 0 to
// let the store pick the next free slot (see GetNextPriority); explicit
// priorities must be greater than 1.
//
// GetNextPriority followed by the insert is a read-then-write pair with no
// cross-role atomicity: two concurrent creations can land on the same
// priority. Wrap the call in Transaction when that matters.
func (s *Service) CreateRole(ctx context.Context, organizationID, name, color string, priority int, perms PermissionSet) (*Role, error) {
	actorID, err := s.assertActor(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	if priority == 0 {
		priority, err = s.GetNextPriority(ctx, organizationID)
		if err != nil {
			return nil, err
		}
	}

	role, err := NewCustomRole(organizationID, name, color, priority, perms)
	if err != nil {
		return nil, err
	}

	result, err := s.db.NewInsert().Model(role).Exec(ctx)
	err = dbkit.WithErr(result, err, "CreateRole").Err()
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to create role").
			WithOrganization(organizationID).
			WithActor(actorID)
	}

	s.auditRole(ctx, AuditActionRoleCreated, role, role.Priority, role.Permissions)

	return role, nil
}

// GetRole retrieves one role by ID. Implements RoleSource for the Evaluator.
func (s *Service) GetRole(ctx context.Context, roleID string) (*Role, error) {
	role := new(Role)
	err := dbkit.WithErr1(s.db.NewSelect().Model(role).Where("id = ?", roleID).Limit(1).Scan(ctx), "GetRole").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrRoleNotFound, "no role with this id").WithRole(roleID)
		}
		return nil, err
	}
	return role, nil
}

// GetByOrganization returns every role of an organization sorted by
// authority, most authoritative first. Priority ties among custom roles are
// permitted; created_at then id break them so the order is stable.
func (s *Service) GetByOrganization(ctx context.Context, organizationID string) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&roles).
		Where("organization_id = ?", organizationID).
		Order("priority ASC", "created_at ASC", "id ASC").
		Scan(ctx), "GetByOrganization").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// GetOwnerRole returns the organization's system owner role (priority 0).
func (s *Service) GetOwnerRole(ctx context.Context, organizationID string) (*Role, error) {
	return s.getOneRole(ctx, organizationID, "GetOwnerRole", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("is_system = TRUE AND priority = ?", OwnerPriority)
	})
}

// GetDefaultRole returns the role assigned to new members absent an
// explicit assignment. Exactly one role per organization carries the flag.
func (s *Service) GetDefaultRole(ctx context.Context, organizationID string) (*Role, error) {
	return s.getOneRole(ctx, organizationID, "GetDefaultRole", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("is_default = TRUE")
	})
}

// GetSystemRoles returns the organization's system roles in authority order.
func (s *Service) GetSystemRoles(ctx context.Context, organizationID string) ([]Role, error) {
	return s.listRoles(ctx, organizationID, "GetSystemRoles", true)
}

// GetCustomRoles returns the organization's custom roles in authority order.
func (s *Service) GetCustomRoles(ctx context.Context, organizationID string) ([]Role, error) {
	return s.listRoles(ctx, organizationID, "GetCustomRoles", false)
}

// GetNextPriority returns the next free priority slot for a custom role:
// max(custom priorities) + 1, or 2 (just below admin) when the organization
// has no custom roles yet. Monotonically increasing against committed state;
// it does not guard against two concurrent callers computing the same slot.
func (s *Service) GetNextPriority(ctx context.Context, organizationID string) (int, error) {
	var maxPriority int
	err := dbkit.WithErr1(s.db.NewSelect().Model((*Role)(nil)).
		ColumnExpr("COALESCE(MAX(priority), ?)", AdminPriority).
		Where("organization_id = ? AND is_system = FALSE", organizationID).
		Scan(ctx, &maxPriority), "GetNextPriority").Err()
	if err != nil {
		return 0, err
	}
	return maxPriority + 1, nil
}

// ============================================================================
// ROLE MUTATIONS
// ============================================================================

// UpdateRoleName renames a custom role. System roles cannot be renamed.
func (s *Service) UpdateRoleName(ctx context.Context, roleID, name string) (*Role, error) {
	return s.mutateRole(ctx, roleID, "UpdateRoleName", func(role *Role) error {
		return role.Rename(name)
	})
}

// UpdateRoleColor recolors a custom role. System roles keep their colors.
func (s *Service) UpdateRoleColor(ctx context.Context, roleID, color string) (*Role, error) {
	return s.mutateRole(ctx, roleID, "UpdateRoleColor", func(role *Role) error {
		return role.SetColor(color)
	})
}

// UpdateRolePermissions replaces a role's permission set. The owner's set is
// immutable.
func (s *Service) UpdateRolePermissions(ctx context.Context, roleID string, perms PermissionSet) (*Role, error) {
	return s.mutateRole(ctx, roleID, "UpdateRolePermissions", func(role *Role) error {
		return role.SetPermissions(perms)
	})
}

// AddRolePermission grants one permission to a role. Idempotent; a no-op on
// the owner role, whose set already holds the full snapshot.
func (s *Service) AddRolePermission(ctx context.Context, roleID string, p Permission) (*Role, error) {
	return s.mutateRole(ctx, roleID, "AddRolePermission", func(role *Role) error {
		role.AddPermission(p)
		return nil
	})
}

// RemoveRolePermission revokes one permission from a role. The owner's set
// is immutable.
func (s *Service) RemoveRolePermission(ctx context.Context, roleID string, p Permission) (*Role, error) {
	return s.mutateRole(ctx, roleID, "RemoveRolePermission", func(role *Role) error {
		return role.RemovePermission(p)
	})
}

// UpdateRolePriority moves one custom role in the hierarchy. System role
// priorities are fixed, and custom roles stay strictly below the admin role.
func (s *Service) UpdateRolePriority(ctx context.Context, roleID string, priority int) (*Role, error) {
	return s.mutateRole(ctx, roleID, "UpdateRolePriority", func(role *Role) error {
		return role.SetPriority(priority)
	})
}

// ReorderRoles updates the priorities of the custom roles named in the map.
// Entries referring to system roles are filtered out before the update, even
// when targeted explicitly; entries for unknown role IDs are ignored. Ties
// among custom roles are permitted.
//
// The updates are independent per-role writes with no all-or-nothing
// guarantee: a concurrent reader can observe a partial reorder. Callers that
// need atomicity wrap the call in Transaction.
//
// Returns the organization's roles re-read in authority order.
func (s *Service) ReorderRoles(ctx context.Context, organizationID string, priorities map[string]int) ([]Role, error) {
	actorID, err := s.assertActor(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	roles, err := s.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	reordered := map[string]any{}
	for i := range roles {
		role := &roles[i]
		priority, ok := priorities[role.ID]
		if !ok || role.IsSystem {
			continue
		}
		previous := role.Priority
		if err := role.SetPriority(priority); err != nil {
			return nil, err
		}
		result, err := s.db.NewUpdate().Model(role).
			Column("priority", "updated_at").
			WherePK().
			Exec(ctx)
		err = dbkit.WithErr(result, err, "ReorderRoles").Err()
		if err != nil {
			return nil, NewError(ErrDatabaseError, "failed to reorder role").
				WithOrganization(organizationID).
				WithRole(role.ID).
				WithActor(actorID)
		}
		reordered[role.ID] = map[string]any{"from": previous, "to": priority}
	}

	if len(reordered) > 0 {
		audit := GetAuditContext(ctx)
		_ = s.logAudit(ctx, &AuditEntry{
			ActorID:        audit.ActorID,
			Action:         AuditActionRolesReordered,
			OrganizationID: organizationID,
			IPAddress:      audit.IPAddress,
			UserAgent:      audit.UserAgent,
			RequestID:      audit.RequestID,
			Metadata:       reordered,
		})
	}

	return s.GetByOrganization(ctx, organizationID)
}

// DeleteRole hard-deletes one role. Deleting a role still referenced by
// live memberships is a precondition violation the caller must prevent by
// reassigning those members first.
func (s *Service) DeleteRole(ctx context.Context, roleID string) error {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if _, err := s.assertActor(ctx, role.OrganizationID); err != nil {
		return err
	}

	result, err := s.db.NewDelete().Model((*Role)(nil)).Where("id = ?", roleID).Exec(ctx)
	err = dbkit.WithErr(result, err, "DeleteRole").Err()
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrRoleNotFound, "no role with this id").WithRole(roleID)
	}

	s.auditRole(ctx, AuditActionRoleDeleted, role, role.Priority, role.Permissions)

	return nil
}

// DeleteByOrganization hard-deletes every role of an organization, system
// roles included. Used when the organization itself is torn down.
func (s *Service) DeleteByOrganization(ctx context.Context, organizationID string) error {
	if _, err := s.assertActor(ctx, organizationID); err != nil {
		return err
	}

	result, err := s.db.NewDelete().Model((*Role)(nil)).Where("organization_id = ?", organizationID).Exec(ctx)
	err = dbkit.WithErr(result, err, "DeleteByOrganization").Err()
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()

	audit := GetAuditContext(ctx)
	_ = s.logAudit(ctx, &AuditEntry{
		ActorID:        audit.ActorID,
		Action:         AuditActionRoleDeleted,
		OrganizationID: organizationID,
		IPAddress:      audit.IPAddress,
		UserAgent:      audit.UserAgent,
		RequestID:      audit.RequestID,
		Metadata:       map[string]any{"deleted_roles": rows},
	})

	return nil
}

// ============================================================================
// QUERY HELPERS
// ============================================================================

// RoleExists checks whether a role exists without loading it.
func (s *Service) RoleExists(ctx context.Context, roleID string) bool {
	exists, err := dbkit.Exists[Role](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", roleID)
	})
	if err != nil {
		return false
	}
	return exists
}

// CountRoles returns the number of roles in an organization.
func (s *Service) CountRoles(ctx context.Context, organizationID string) (int, error) {
	return dbkit.Count[Role](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("organization_id = ?", organizationID)
	})
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// assertActor enforces the optional actor guard. Without a wired evaluator
// the mutation proceeds and enforcement stays with the caller; with one, the
// actor must be present in context and hold roles.manage in the
// organization.
func (s *Service) assertActor(ctx context.Context, organizationID string) (string, error) {
	actorID := GetActorID(ctx)
	if s.evaluator == nil {
		return actorID, nil
	}
	if actorID == "" {
		return "", NewError(ErrNoActorID, "actor ID required for role mutation").
			WithOrganization(organizationID)
	}
	err := s.evaluator.Assert(ctx, actorID, organizationID, NewPermissionSet(PermissionManageRoles), RequireAll)
	if err != nil {
		return "", err
	}
	return actorID, nil
}

// mutateRole is the common fetch-apply-persist-audit path for single-role
// mutations. When apply leaves the role unchanged (idempotent no-op) nothing
// is written and nothing is audited.
func (s *Service) mutateRole(ctx context.Context, roleID, op string, apply func(*Role) error) (*Role, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	actorID, err := s.assertActor(ctx, role.OrganizationID)
	if err != nil {
		return nil, err
	}

	previousPriority := role.Priority
	previousPerms := role.Permissions
	previousName := role.Name
	previousColor := role.Color

	if err := apply(role); err != nil {
		return nil, err
	}

	if role.Priority == previousPriority && role.Permissions == previousPerms &&
		role.Name == previousName && role.Color == previousColor {
		return role, nil
	}

	result, err := s.db.NewUpdate().Model(role).WherePK().Exec(ctx)
	err = dbkit.WithErr(result, err, op).Err()
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to update role").
			WithOrganization(role.OrganizationID).
			WithRole(role.ID).
			WithActor(actorID)
	}

	audit := GetAuditContext(ctx)
	_ = s.logAudit(ctx, &AuditEntry{
		ActorID:             audit.ActorID,
		Action:              AuditActionRoleUpdated,
		OrganizationID:      role.OrganizationID,
		RoleID:              role.ID,
		RoleName:            role.Name,
		PreviousPriority:    previousPriority,
		NewPriority:         role.Priority,
		PreviousPermissions: previousPerms,
		NewPermissions:      role.Permissions,
		IPAddress:           audit.IPAddress,
		UserAgent:           audit.UserAgent,
		RequestID:           audit.RequestID,
	})

	return role, nil
}

// auditRole writes a single-role audit entry with identical previous/new
// snapshots (creation and deletion records).
func (s *Service) auditRole(ctx context.Context, action AuditAction, role *Role, priority int, perms PermissionSet) {
	audit := GetAuditContext(ctx)
	_ = s.logAudit(ctx, &AuditEntry{
		ActorID:             audit.ActorID,
		Action:              action,
		OrganizationID:      role.OrganizationID,
		RoleID:              role.ID,
		RoleName:            role.Name,
		PreviousPriority:    priority,
		NewPriority:         priority,
		PreviousPermissions: perms,
		NewPermissions:      perms,
		IPAddress:           audit.IPAddress,
		UserAgent:           audit.UserAgent,
		RequestID:           audit.RequestID,
	})
}

func (s *Service) getOneRole(ctx context.Context, organizationID, op string, where func(*bun.SelectQuery) *bun.SelectQuery) (*Role, error) {
	role := new(Role)
	q := s.db.NewSelect().Model(role).Where("organization_id = ?", organizationID)
	q = where(q)
	err := dbkit.WithErr1(q.Limit(1).Scan(ctx), op).Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrRoleNotFound, "organization has no such role").
				WithOrganization(organizationID)
		}
		return nil, err
	}
	return role, nil
}

func (s *Service) listRoles(ctx context.Context, organizationID, op string, system bool) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&roles).
		Where("organization_id = ? AND is_system = ?", organizationID, system).
		Order("priority ASC", "created_at ASC", "id ASC").
		Scan(ctx), op).Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}
