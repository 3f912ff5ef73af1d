package accesskit

import (
	"errors"
	"fmt"
)

// Sentinel errors for accesskit operations.
//
// None of these is transient: every failure is either malformed input, a
// caller bug against protected structure, a missing entity, or a legitimate
// "no". Nothing here is worth retrying.
var (
	// ErrInvalidRoleName is returned when a role name fails validation.
	ErrInvalidRoleName = errors.New("accesskit: invalid role name")

	// ErrInvalidRoleColor is returned when a role color is not #RRGGBB hex.
	ErrInvalidRoleColor = errors.New("accesskit: invalid role color")

	// ErrInvalidPermission is returned when a permission name or value is
	// outside the closed enumeration.
	ErrInvalidPermission = errors.New("accesskit: invalid permission")

	// ErrSystemRoleModification is returned on any attempt to mutate the
	// protected structure of a system role (rename, re-prioritize, or alter
	// the owner's permission set).
	ErrSystemRoleModification = errors.New("accesskit: system role cannot be modified")

	// ErrRoleHierarchyViolation is returned when a custom role would end up
	// at priority 1 or above, i.e. at or above the system admin role.
	ErrRoleHierarchyViolation = errors.New("accesskit: role hierarchy violation")

	// ErrRoleNotFound is returned when a role does not exist.
	ErrRoleNotFound = errors.New("accesskit: role not found")

	// ErrMemberNotFound is returned by the asserting path when the user has
	// no membership in the organization at all.
	ErrMemberNotFound = errors.New("accesskit: member not found")

	// ErrPermissionDenied is returned by the asserting path when the member
	// exists but their role lacks the required permissions. The boolean hot
	// path never surfaces this; it returns false.
	ErrPermissionDenied = errors.New("accesskit: permission denied")

	// ErrNoActorID is returned when a guarded mutation runs without an actor
	// ID in context.
	ErrNoActorID = errors.New("accesskit: no actor ID in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("accesskit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err            error  // Underlying sentinel error
	Message        string // Additional context
	OrganizationID string // Organization involved (if applicable)
	RoleID         string // Role involved (if applicable)
	UserID         string // User involved (if applicable)
	ActorID        string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithOrganization adds organization information to the error.
func (e *Error) WithOrganization(organizationID string) *Error {
	e.OrganizationID = organizationID
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(roleID string) *Error {
	e.RoleID = roleID
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsPermissionDenied checks if an error is a permission denial.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsMemberNotFound checks if an error is due to a missing membership.
func IsMemberNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}

// IsRoleNotFound checks if an error is due to a missing role.
func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}

// IsSystemRoleModification checks if an error is a protected-structure
// mutation attempt.
func IsSystemRoleModification(err error) bool {
	return errors.Is(err, ErrSystemRoleModification)
}

// IsHierarchyViolation checks if an error is a role hierarchy violation.
func IsHierarchyViolation(err error) bool {
	return errors.Is(err, ErrRoleHierarchyViolation)
}
