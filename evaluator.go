package accesskit

import "context"

// CheckMode selects how a multi-permission requirement is tested against a
// role's permission set.
type CheckMode int

const (
	// RequireAny passes when the role holds at least one required permission.
	RequireAny CheckMode = iota
	// RequireAll passes only when the role holds every required permission.
	RequireAll
)

// Evaluator resolves a user's membership in an organization to their role
// and tests required permissions against the role's set.
//
// There is no owner bypass branch: the owner role passes every check because
// its permission set holds the full enumeration snapshot taken when the role
// was created.
type Evaluator struct {
	memberships MembershipLookup
	roles       RoleSource
}

// NewEvaluator creates an Evaluator over the membership collaborator and a
// role source (typically the *Service).
func NewEvaluator(memberships MembershipLookup, roles RoleSource) *Evaluator {
	return &Evaluator{
		memberships: memberships,
		roles:       roles,
	}
}

// Evaluate checks required permissions on the hot authorization path.
// It fails closed: no membership, no assigned role, a missing role document,
// or any lookup error all yield false. Denial is an expected, frequent
// outcome, so this path never surfaces an error.
//
// Example:
//
//	required := accesskit.NewPermissionSet(accesskit.PermissionManageTags, accesskit.PermissionAssignTags)
//	if evaluator.Evaluate(ctx, userID, orgID, required, accesskit.RequireAny) {
//	    // user may touch tags
//	}
func (e *Evaluator) Evaluate(ctx context.Context, userID, organizationID string, required PermissionSet, mode CheckMode) bool {
	role, _, err := e.resolveRole(ctx, userID, organizationID)
	if err != nil || role == nil {
		return false
	}
	if mode == RequireAll {
		return role.HasAllPermissions(required)
	}
	return role.HasAnyPermission(required)
}

// HasPermission checks a single permission on the hot path.
func (e *Evaluator) HasPermission(ctx context.Context, userID, organizationID string, p Permission) bool {
	return e.Evaluate(ctx, userID, organizationID, NewPermissionSet(p), RequireAll)
}

// Assert is the administrative counterpart of Evaluate, used by role and
// member management endpoints that want to short-circuit. It distinguishes
// "no such member" (ErrMemberNotFound) from "member without rights"
// (ErrPermissionDenied); a member whose role document is gone is treated as
// a member without rights.
func (e *Evaluator) Assert(ctx context.Context, userID, organizationID string, required PermissionSet, mode CheckMode) error {
	role, member, err := e.resolveRole(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	if member == nil {
		return NewError(ErrMemberNotFound, "user has no membership in organization").
			WithUser(userID).
			WithOrganization(organizationID)
	}
	denied := NewError(ErrPermissionDenied, "role lacks required permissions").
		WithUser(userID).
		WithOrganization(organizationID)
	if role == nil {
		return denied
	}
	if mode == RequireAll {
		if !role.HasAllPermissions(required) {
			return denied.WithRole(role.ID)
		}
	} else if !role.HasAnyPermission(required) {
		return denied.WithRole(role.ID)
	}
	return nil
}

// resolveRole fetches the membership and, when one with a role exists, the
// role document. A missing role document resolves to (nil, member, nil): the
// membership may outlive a deleted role, and both paths treat that as "no
// rights" rather than a failure.
func (e *Evaluator) resolveRole(ctx context.Context, userID, organizationID string) (*Role, *Membership, error) {
	member, err := e.memberships.Get(ctx, userID, organizationID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, nil
	}
	if member.RoleID == "" {
		return nil, member, nil
	}
	role, err := e.roles.GetRole(ctx, member.RoleID)
	if err != nil {
		if IsRoleNotFound(err) {
			return nil, member, nil
		}
		return nil, member, err
	}
	return role, member, nil
}
