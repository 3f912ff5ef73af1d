package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// Membership links a user to an organization and, optionally, a role. It is
// owned by the organization-management subsystem and consumed here
// read-only.
type Membership struct {
	UserID         string
	OrganizationID string
	RoleID         string // empty when no role is assigned
}

// MembershipLookup resolves a user's membership in an organization.
// Implementations return (nil, nil) when the user is not a member.
type MembershipLookup interface {
	Get(ctx context.Context, userID, organizationID string) (*Membership, error)
}

// RoleSource fetches roles by ID. *Service implements it; the indirection
// keeps the Evaluator testable without a database.
type RoleSource interface {
	GetRole(ctx context.Context, roleID string) (*Role, error)
}

// ContactLookup exposes the directed contact graph owned by the contacts
// subsystem. The relation is asymmetric: Exists(owner, candidate) asks
// whether owner has saved candidate, never the reverse.
type ContactLookup interface {
	// ContactsOf returns at most limit user IDs from the owner's address
	// book. The privacy checker only ever asks for the first page.
	ContactsOf(ctx context.Context, ownerID string, limit int) ([]string, error)

	// Exists reports whether candidate is in owner's address book.
	Exists(ctx context.Context, ownerID, candidateID string) (bool, error)
}

// OrganizationLookup resolves the organizations a user belongs to.
type OrganizationLookup interface {
	OrganizationsOf(ctx context.Context, userID string) ([]string, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}
