package accesskit

import (
	"fmt"
	"log"
	"time"

	"github.com/fernandezvara/dbkit"
)

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConnections    int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
	ConnectionMaxIdleTime time.Duration
}

// DefaultPoolConfig returns conservative pool defaults suitable for a
// library embedded in a request-serving process.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    25,
		MaxIdleConnections:    5,
		ConnectionMaxLifetime: 30 * time.Minute,
		ConnectionMaxIdleTime: 5 * time.Minute,
	}
}

// PoolService provides connection pool management functionality as an
// extension to Service
type PoolService struct {
	*Service
}

// NewPoolService creates a new pool service extension
func NewPoolService(service *Service) *PoolService {
	return &PoolService{Service: service}
}

// ConfigureConnectionPool updates the database connection pool settings.
func (ps *PoolService) ConfigureConnectionPool(config PoolConfig) error {
	if db, ok := ps.db.(*dbkit.DBKit); ok {
		bunDB := db.Bun()
		if bunDB == nil {
			return fmt.Errorf("database instance not available")
		}

		bunDB.SetMaxOpenConns(config.MaxOpenConnections)
		bunDB.SetMaxIdleConns(config.MaxIdleConnections)
		bunDB.SetConnMaxLifetime(config.ConnectionMaxLifetime)
		bunDB.SetConnMaxIdleTime(config.ConnectionMaxIdleTime)

		log.Printf("Connection pool configured: MaxOpen=%d, MaxIdle=%d, MaxLifetime=%v, MaxIdleTime=%v",
			config.MaxOpenConnections, config.MaxIdleConnections,
			config.ConnectionMaxLifetime, config.ConnectionMaxIdleTime)

		return nil
	}

	return fmt.Errorf("connection pool configuration requires a dbkit.DBKit instance")
}

// GetConnectionPoolConfig returns the current connection pool configuration.
func (ps *PoolService) GetConnectionPoolConfig() (*PoolConfig, error) {
	if db, ok := ps.db.(*dbkit.DBKit); ok {
		bunDB := db.Bun()
		if bunDB == nil {
			return nil, fmt.Errorf("database instance not available")
		}

		stats := bunDB.Stats()
		return &PoolConfig{
			MaxOpenConnections: stats.MaxOpenConnections,
			MaxIdleConnections: stats.MaxOpenConnections,
		}, nil
	}

	return nil, fmt.Errorf("connection pool configuration requires a dbkit.DBKit instance")
}

// ResetConnectionPool resets the connection pool to default settings.
func (ps *PoolService) ResetConnectionPool() error {
	return ps.ConfigureConnectionPool(DefaultPoolConfig())
}
