package accesskit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// Transaction executes a function within a database transaction with
// automatic commit/rollback. If the function returns an error, the
// transaction is rolled back. Otherwise, it's committed.
//
// The store itself never requires a transaction: every role write is an
// independent per-row update. This is the optional strengthening for
// callers that want read-then-write pairs (GetNextPriority + CreateRole) or
// a whole reorder batch to be atomic.
//
// Example:
//
//	err := service.Transaction(ctx, func(ctx context.Context) error {
//	    priority, err := service.GetNextPriority(ctx, orgID)
//	    if err != nil {
//	        return err // This will cause a rollback
//	    }
//	    _, err = service.CreateRole(ctx, orgID, "QA Lead", "#00AA55", priority, perms)
//	    return err // nil will cause a commit
//	})
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	var err error

	// Check if we're already in a transaction by casting to dbkit.Tx
	if tx, ok := s.db.(*dbkit.Tx); ok {
		// We're already in a transaction, use savepoint
		err = tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	} else if db, ok := s.db.(*dbkit.DBKit); ok {
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	} else {
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	// Record transaction metrics
	duration := time.Since(start)
	s.txMonitor.recordTransaction(duration, err == nil)

	return err
}

// TransactionWithOptions executes a function within a database transaction
// with custom options. Supports read-only transactions, isolation levels,
// and other transaction parameters.
//
// Example:
//
//	err := service.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), func(ctx context.Context) error {
//	    // High isolation level operations
//	    _, err := service.ReorderRoles(ctx, orgID, priorities)
//	    return err
//	})
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error {
	start := time.Now()
	var err error

	if tx, ok := s.db.(*dbkit.Tx); ok {
		// Already in a transaction, use savepoint (no options support in
		// nested transactions)
		err = tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	} else if db, ok := s.db.(*dbkit.DBKit); ok {
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	} else {
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	duration := time.Since(start)
	s.txMonitor.recordTransaction(duration, err == nil)

	return err
}

// ReadOnlyTransaction executes a function within a read-only database
// transaction. Useful for multi-read consistency, e.g. reading the full
// ordered role list together with the audit log.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

// GetTransactionMetrics returns the current transaction performance metrics.
func (s *Service) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.getMetrics()
}

// ResetTransactionMetrics resets all transaction metrics.
func (s *Service) ResetTransactionMetrics() {
	s.txMonitor.reset()
}

// IsTransactionHealthy checks if transaction performance is within
// acceptable thresholds.
func (s *Service) IsTransactionHealthy() bool {
	metrics := s.txMonitor.getMetrics()

	// If we have very few transactions, consider it healthy
	if metrics.TotalTransactions < 10 {
		return true
	}

	// Check failure rate (should be less than 5%)
	failureRate := float64(metrics.FailedTransactions) / float64(metrics.TotalTransactions)
	if failureRate > 0.05 {
		return false
	}

	// Check average duration (should be less than 1 second)
	if metrics.AverageDuration > time.Second {
		return false
	}

	return true
}
