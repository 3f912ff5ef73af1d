package accesskit

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required for accesskit.
// Use dbkit.Migrate(ctx, service.Migrations()) to run migrations.
// Use dbkit.MigrationStatus(ctx, service.Migrations()) to check status.
//
// Priorities are deliberately NOT unique-constrained: ties among custom
// roles are permitted, and ordered reads break them by created_at then id.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "accesskit-001",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id UUID PRIMARY KEY,
                    organization_id TEXT NOT NULL,
                    name TEXT NOT NULL,
                    color TEXT NOT NULL,
                    priority INTEGER NOT NULL,
                    permissions BIGINT NOT NULL DEFAULT 0,
                    is_system BOOLEAN NOT NULL DEFAULT FALSE,
                    is_default BOOLEAN NOT NULL DEFAULT FALSE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "accesskit-002",
			Description: "Index roles by organization and priority",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_roles_org_priority
                    ON roles (organization_id, priority)`,
		},
		{
			ID:          "accesskit-003",
			Description: "Create role_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL DEFAULT '',
                    action TEXT NOT NULL,
                    organization_id TEXT NOT NULL,
                    role_id TEXT,
                    role_name TEXT,
                    previous_priority INTEGER,
                    new_priority INTEGER,
                    previous_permissions BIGINT,
                    new_permissions BIGINT,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                )`,
		},
	}
}
