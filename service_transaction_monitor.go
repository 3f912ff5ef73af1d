package accesskit

import (
	"sync"
	"time"
)

// TransactionMetrics provides transaction performance and failure
// statistics.
type TransactionMetrics struct {
	TotalTransactions      int64         `json:"total_transactions"`
	SuccessfulTransactions int64         `json:"successful_transactions"`
	FailedTransactions     int64         `json:"failed_transactions"`
	AverageDuration        time.Duration `json:"average_duration"`
	MaxDuration            time.Duration `json:"max_duration"`
	MinDuration            time.Duration `json:"min_duration"`
	LastReset              time.Time     `json:"last_reset"`
}

// transactionMonitor holds the internal transaction monitoring state
type transactionMonitor struct {
	mu            sync.RWMutex
	totalCount    int64
	successCount  int64
	failureCount  int64
	totalDuration int64 // nanoseconds
	maxDuration   int64 // nanoseconds
	minDuration   int64 // nanoseconds
	lastReset     time.Time
}

// newTransactionMonitor creates a new transaction monitor
func newTransactionMonitor() *transactionMonitor {
	return &transactionMonitor{
		minDuration: int64(time.Hour), // Initialize to a large value
		lastReset:   time.Now(),
	}
}

// recordTransaction records a transaction completion with its duration and
// success status
func (tm *transactionMonitor) recordTransaction(duration time.Duration, success bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.totalCount++
	tm.totalDuration += int64(duration)

	if success {
		tm.successCount++
	} else {
		tm.failureCount++
	}

	durationNs := int64(duration)
	if durationNs > tm.maxDuration {
		tm.maxDuration = durationNs
	}
	if durationNs < tm.minDuration {
		tm.minDuration = durationNs
	}
}

// getMetrics returns the current transaction metrics
func (tm *transactionMonitor) getMetrics() TransactionMetrics {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	var avgDuration time.Duration
	if tm.totalCount > 0 {
		avgDuration = time.Duration(tm.totalDuration / tm.totalCount)
	}

	return TransactionMetrics{
		TotalTransactions:      tm.totalCount,
		SuccessfulTransactions: tm.successCount,
		FailedTransactions:     tm.failureCount,
		AverageDuration:        avgDuration,
		MaxDuration:            time.Duration(tm.maxDuration),
		MinDuration:            time.Duration(tm.minDuration),
		LastReset:              tm.lastReset,
	}
}

// reset resets all metrics
func (tm *transactionMonitor) reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.totalCount = 0
	tm.successCount = 0
	tm.failureCount = 0
	tm.totalDuration = 0
	tm.maxDuration = 0
	tm.minDuration = int64(time.Hour)
	tm.lastReset = time.Now()
}
