package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Service is the role store: it owns the persisted role catalog of every
// organization and the role audit log, backed by dbkit.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. Domain failures surface as
// accesskit sentinel errors:
//
//	role, err := service.CreateRole(ctx, orgID, "QA Lead", "#00AA55", 50, perms)
//	if err != nil {
//	    if accesskit.IsHierarchyViolation(err) {
//	        // priority collided with the system tier
//	    }
//	    if accesskit.IsPermissionDenied(err) {
//	        // actor guard rejected the mutation
//	    }
//	}
//
// Concurrency: every read is a pure function of persisted state and every
// write is an independent per-row update. The store provides no cross-role
// atomicity; GetNextPriority followed by CreateRole can race under
// concurrent creation and produce a priority tie, which the design accepts.
// Callers that want all-or-nothing batches wrap them in Transaction.
type Service struct {
	db        dbkit.IDB
	evaluator *Evaluator
	txMonitor *transactionMonitor
}

// NewService creates a new accesskit service.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := accesskit.NewService(db)
func NewService(db dbkit.IDB) *Service {
	return &Service{
		db:        db,
		txMonitor: newTransactionMonitor(),
	}
}

// SetEvaluator wires the actor guard: once set, mutating role operations
// require an actor ID in context and assert roles.manage for that actor
// before touching anything. Without it, enforcement stays with the caller.
// CreateSystemRoles is bootstrap and is never guarded.
func (s *Service) SetEvaluator(evaluator *Evaluator) {
	s.evaluator = evaluator
}

// ============================================================================
// AUDIT LOG
// ============================================================================

// GetAuditLog retrieves audit log entries with optional filters.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]RoleAuditLog, error) {
	var logs []RoleAuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.RoleID != "" {
		q = q.Where("role_id = ?", filter.RoleID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// logAudit writes one audit row. Best effort: callers ignore the error so an
// audit failure never fails the mutation it records.
func (s *Service) logAudit(ctx context.Context, entry *AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx)
	return dbkit.WithErr1(err, "LogAudit").Err()
}
