package accesskit

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Priorities reserved for the system roles. Every custom role sits strictly
// below the admin role, so its priority is always > AdminPriority.
const (
	OwnerPriority  = 0
	AdminPriority  = 1
	MemberPriority = 100
)

// Display names of the system roles.
const (
	OwnerRoleName  = "Владелец"
	AdminRoleName  = "Администратор"
	MemberRoleName = "Сотрудник"
)

// Default colors of the system roles.
const (
	OwnerRoleColor  = "#F5A623"
	AdminRoleColor  = "#4A90D9"
	MemberRoleColor = "#9B9B9B"
)

const maxRoleNameLength = 64

// Role is a named, prioritized bundle of permissions scoped to exactly one
// organization. Lower priority = more authority; 0 and 1 are reserved for
// the system owner and admin roles.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID             string        `bun:"id,pk,type:uuid"`
	OrganizationID string        `bun:"organization_id,notnull"`
	Name           string        `bun:"name,notnull"`
	Color          string        `bun:"color,notnull"`
	Priority       int           `bun:"priority,notnull"`
	Permissions    PermissionSet `bun:"permissions,notnull"`
	IsSystem       bool          `bun:"is_system,notnull"`
	IsDefault      bool          `bun:"is_default,notnull"`
	CreatedAt      time.Time     `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time     `bun:"updated_at,notnull,default:current_timestamp"`
}

// NewOwnerRole builds the system owner role for an organization: priority 0,
// full permission set. The set is a snapshot of the enumeration at call
// time; permissions added to the enumeration later require an explicit
// migration (see MissingPermissions).
func NewOwnerRole(organizationID string) *Role {
	return newSystemRole(organizationID, OwnerRoleName, OwnerRoleColor, OwnerPriority, AllPermissions(), false)
}

// NewAdminRole builds the system admin role for an organization: priority 1,
// everything except deleting the organization.
func NewAdminRole(organizationID string) *Role {
	perms := AllPermissions().Remove(PermissionDeleteOrganization)
	return newSystemRole(organizationID, AdminRoleName, AdminRoleColor, AdminPriority, perms, false)
}

// NewMemberRole builds the system member role for an organization: priority
// 100, the minimal self-service set. It is the default role assigned to new
// members absent an explicit assignment.
func NewMemberRole(organizationID string) *Role {
	perms := NewPermissionSet(
		PermissionEditOwnCard,
		PermissionViewCards,
		PermissionViewMembers,
		PermissionViewRoles,
		PermissionViewTags,
		PermissionViewStructure,
	)
	return newSystemRole(organizationID, MemberRoleName, MemberRoleColor, MemberPriority, perms, true)
}

func newSystemRole(organizationID, name, color string, priority int, perms PermissionSet, isDefault bool) *Role {
	now := time.Now()
	return &Role{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           name,
		Color:          color,
		Priority:       priority,
		Permissions:    perms,
		IsSystem:       true,
		IsDefault:      isDefault,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewCustomRole builds a custom role. Priority must be strictly below the
// admin role (> 1); name and color are validated.
func NewCustomRole(organizationID, name, color string, priority int, perms PermissionSet) (*Role, error) {
	if err := ValidateRoleName(name); err != nil {
		return nil, err
	}
	if err := ValidateRoleColor(color); err != nil {
		return nil, err
	}
	if priority <= AdminPriority {
		return nil, NewError(ErrRoleHierarchyViolation, "custom role priority must be greater than 1").
			WithOrganization(organizationID)
	}
	now := time.Now()
	return &Role{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           name,
		Color:          color,
		Priority:       priority,
		Permissions:    perms,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsOwner reports whether this is the system owner role.
func (r *Role) IsOwner() bool {
	return r.IsSystem && r.Priority == OwnerPriority
}

// HasPermission reports whether the role grants p.
func (r *Role) HasPermission(p Permission) bool {
	return r.Permissions.Has(p)
}

// HasAnyPermission reports whether the role grants at least one permission
// of required.
func (r *Role) HasAnyPermission(required PermissionSet) bool {
	return r.Permissions.HasAny(required)
}

// HasAllPermissions reports whether the role grants every permission of
// required.
func (r *Role) HasAllPermissions(required PermissionSet) bool {
	return r.Permissions.HasAll(required)
}

// AddPermission grants p to the role. Idempotent. On the owner role this is
// a no-op: the owner set already holds every permission known when the role
// was created, and drift is closed by migration, not ad-hoc grants.
func (r *Role) AddPermission(p Permission) {
	if r.IsOwner() {
		return
	}
	r.Permissions = r.Permissions.Add(p)
	r.UpdatedAt = time.Now()
}

// RemovePermission revokes p from the role. The owner's set is immutable.
func (r *Role) RemovePermission(p Permission) error {
	if r.IsOwner() {
		return NewError(ErrSystemRoleModification, "owner permissions are immutable").
			WithRole(r.ID).
			WithOrganization(r.OrganizationID)
	}
	r.Permissions = r.Permissions.Remove(p)
	r.UpdatedAt = time.Now()
	return nil
}

// SetPermissions replaces the role's permission set. The owner's set is
// immutable.
func (r *Role) SetPermissions(perms PermissionSet) error {
	if r.IsOwner() {
		return NewError(ErrSystemRoleModification, "owner permissions are immutable").
			WithRole(r.ID).
			WithOrganization(r.OrganizationID)
	}
	r.Permissions = perms
	r.UpdatedAt = time.Now()
	return nil
}

// Rename changes the role's display name. System roles cannot be renamed.
func (r *Role) Rename(name string) error {
	if r.IsSystem {
		return NewError(ErrSystemRoleModification, "system roles cannot be renamed").
			WithRole(r.ID).
			WithOrganization(r.OrganizationID)
	}
	if err := ValidateRoleName(name); err != nil {
		return err
	}
	r.Name = name
	r.UpdatedAt = time.Now()
	return nil
}

// SetColor changes the role's display color. System roles keep their fixed
// colors.
func (r *Role) SetColor(color string) error {
	if r.IsSystem {
		return NewError(ErrSystemRoleModification, "system roles cannot be recolored").
			WithRole(r.ID).
			WithOrganization(r.OrganizationID)
	}
	if err := ValidateRoleColor(color); err != nil {
		return err
	}
	r.Color = color
	r.UpdatedAt = time.Now()
	return nil
}

// SetPriority moves the role in the hierarchy. System role priorities are
// fixed; custom roles must stay strictly below the admin role.
func (r *Role) SetPriority(priority int) error {
	if r.IsSystem {
		return NewError(ErrSystemRoleModification, "system role priorities are fixed").
			WithRole(r.ID).
			WithOrganization(r.OrganizationID)
	}
	if priority <= AdminPriority {
		return NewError(ErrRoleHierarchyViolation, "custom role priority must be greater than 1").
			WithRole(r.ID).
			WithOrganization(r.OrganizationID)
	}
	r.Priority = priority
	r.UpdatedAt = time.Now()
	return nil
}

// IsHigherThan reports whether this role outranks other. Lower priority
// value = more authority.
func (r *Role) IsHigherThan(other *Role) bool {
	return r.Priority < other.Priority
}

// MissingPermissions returns the enumeration values the role does not hold.
// For owner roles this surfaces snapshot drift after the enumeration grew,
// so a migration can close it explicitly.
func (r *Role) MissingPermissions() []Permission {
	var missing []Permission
	for _, p := range Permissions() {
		if !r.Permissions.Has(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// ValidateRoleName checks the display-name rules: non-empty, at most 64
// runes, no surrounding whitespace.
func ValidateRoleName(name string) error {
	if name == "" {
		return NewError(ErrInvalidRoleName, "name cannot be empty")
	}
	if strings.TrimSpace(name) != name {
		return NewError(ErrInvalidRoleName, "name cannot have surrounding whitespace")
	}
	if utf8.RuneCountInString(name) > maxRoleNameLength {
		return NewError(ErrInvalidRoleName, "name exceeds 64 characters")
	}
	return nil
}

// ValidateRoleColor checks that color is a #RRGGBB hex string.
func ValidateRoleColor(color string) error {
	if len(color) != 7 || color[0] != '#' {
		return NewError(ErrInvalidRoleColor, "color must be #RRGGBB")
	}
	for _, c := range color[1:] {
		if !isHexDigit(c) {
			return NewError(ErrInvalidRoleColor, "color must be #RRGGBB")
		}
	}
	return nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'f') ||
		(c >= 'A' && c <= 'F')
}

// RoleAuditLog records all role structure changes for compliance and
// debugging.
type RoleAuditLog struct {
	bun.BaseModel `bun:"table:role_audit_log,alias:ral"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action
	ActorID string `bun:"actor_id,notnull"`

	// What action was performed
	Action string `bun:"action,notnull"`

	// Target of the action
	OrganizationID string `bun:"organization_id,notnull"`
	RoleID         string `bun:"role_id"`
	RoleName       string `bun:"role_name"`

	// State snapshots for forensics
	PreviousPriority    int   `bun:"previous_priority"`
	NewPriority         int   `bun:"new_priority"`
	PreviousPermissions int64 `bun:"previous_permissions"`
	NewPermissions      int64 `bun:"new_permissions"`

	// Request metadata
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	// Additional context (JSON)
	Metadata map[string]any `bun:"metadata,type:jsonb"`
}

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditActionSystemRolesCreated AuditAction = "system_roles_created"
	AuditActionRoleCreated        AuditAction = "role_created"
	AuditActionRoleUpdated        AuditAction = "role_updated"
	AuditActionRolesReordered     AuditAction = "roles_reordered"
	AuditActionRoleDeleted        AuditAction = "role_deleted"
)

// AuditEntry is used to create new audit log entries.
type AuditEntry struct {
	ActorID             string
	Action              AuditAction
	OrganizationID      string
	RoleID              string
	RoleName            string
	PreviousPriority    int
	NewPriority         int
	PreviousPermissions PermissionSet
	NewPermissions      PermissionSet
	IPAddress           string
	UserAgent           string
	RequestID           string
	Metadata            map[string]any
}

// ToModel converts an AuditEntry to a RoleAuditLog model.
func (e *AuditEntry) ToModel() *RoleAuditLog {
	return &RoleAuditLog{
		ActorID:             e.ActorID,
		Action:              string(e.Action),
		OrganizationID:      e.OrganizationID,
		RoleID:              e.RoleID,
		RoleName:            e.RoleName,
		PreviousPriority:    e.PreviousPriority,
		NewPriority:         e.NewPriority,
		PreviousPermissions: int64(e.PreviousPermissions),
		NewPermissions:      int64(e.NewPermissions),
		IPAddress:           e.IPAddress,
		UserAgent:           e.UserAgent,
		RequestID:           e.RequestID,
		Metadata:            e.Metadata,
		Timestamp:           time.Now(),
	}
}
