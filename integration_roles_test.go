package accesskit

import (
	"context"
	"testing"
)

// TestSystemRoleBootstrap tests organization bootstrap with real database
func TestSystemRoleBootstrap(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}

	orgID := UniqueID("org-bootstrap")

	roles, err := service.CreateSystemRoles(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to create system roles: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("Expected 3 system roles, got %d", len(roles))
	}

	owner, err := service.GetOwnerRole(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to get owner role: %v", err)
	}
	if owner.Priority != OwnerPriority {
		t.Errorf("Owner priority should be %d, got %d", OwnerPriority, owner.Priority)
	}
	if owner.Name != OwnerRoleName {
		t.Errorf("Owner name should be %q, got %q", OwnerRoleName, owner.Name)
	}
	if owner.Permissions != AllPermissions() {
		t.Error("Owner should hold the full permission set")
	}

	def, err := service.GetDefaultRole(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to get default role: %v", err)
	}
	if def.Name != MemberRoleName {
		t.Errorf("Default role should be %q, got %q", MemberRoleName, def.Name)
	}
	if def.Priority != MemberPriority {
		t.Errorf("Default role priority should be %d, got %d", MemberPriority, def.Priority)
	}

	system, err := service.GetSystemRoles(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to get system roles: %v", err)
	}
	if len(system) != 3 {
		t.Errorf("Expected 3 system roles, got %d", len(system))
	}

	// Bootstrap leaves an audit trail
	logs, err := service.GetAuditLog(ctx, NewAuditLogFilter().
		WithOrganization(orgID).
		WithAction(AuditActionSystemRolesCreated))
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected 1 bootstrap audit entry, got %d", len(logs))
	}
}

// TestCustomRoleLifecycle tests creating, updating and deleting custom roles
func TestCustomRoleLifecycle(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}

	orgID := UniqueID("org-lifecycle")
	if _, err := service.CreateSystemRoles(ctx, orgID); err != nil {
		t.Fatalf("Failed to create system roles: %v", err)
	}

	// Explicit priority
	lead, err := service.CreateRole(ctx, orgID, "QA Lead", "#00AA55", 50,
		NewPermissionSet(PermissionViewCards, PermissionAssignTags))
	if err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	if lead.Priority != 50 {
		t.Errorf("Expected priority 50, got %d", lead.Priority)
	}

	// Auto-priority lands just below the lowest custom role
	next, err := service.GetNextPriority(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to get next priority: %v", err)
	}
	if next != 51 {
		t.Errorf("Expected next priority 51, got %d", next)
	}

	auto, err := service.CreateRole(ctx, orgID, "Auto", "#123456", 0, NewPermissionSet(PermissionViewCards))
	if err != nil {
		t.Fatalf("Failed to create auto-priority role: %v", err)
	}
	if auto.Priority != 51 {
		t.Errorf("Expected auto priority 51, got %d", auto.Priority)
	}

	// Colliding with the system tier is rejected
	if _, err := service.CreateRole(ctx, orgID, "Sneaky", "#123456", 1, NewPermissionSet()); !IsHierarchyViolation(err) {
		t.Errorf("Expected hierarchy violation, got %v", err)
	}

	// Mutations
	if _, err := service.UpdateRoleName(ctx, lead.ID, "QA Manager"); err != nil {
		t.Errorf("Failed to rename role: %v", err)
	}
	if _, err := service.UpdateRoleColor(ctx, lead.ID, "#FFFFFF"); err != nil {
		t.Errorf("Failed to recolor role: %v", err)
	}
	if _, err := service.AddRolePermission(ctx, lead.ID, PermissionManageTags); err != nil {
		t.Errorf("Failed to add permission: %v", err)
	}
	updated, err := service.GetRole(ctx, lead.ID)
	if err != nil {
		t.Fatalf("Failed to re-read role: %v", err)
	}
	if updated.Name != "QA Manager" || updated.Color != "#FFFFFF" {
		t.Errorf("Mutations not persisted: %+v", updated)
	}
	if !updated.HasPermission(PermissionManageTags) {
		t.Error("Added permission not persisted")
	}

	// System role structure stays protected through the store too
	owner, err := service.GetOwnerRole(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to get owner role: %v", err)
	}
	if _, err := service.UpdateRoleName(ctx, owner.ID, "Boss"); !IsSystemRoleModification(err) {
		t.Errorf("Expected system role modification error, got %v", err)
	}
	if _, err := service.RemoveRolePermission(ctx, owner.ID, PermissionManageRoles); !IsSystemRoleModification(err) {
		t.Errorf("Expected system role modification error, got %v", err)
	}

	// Counting and existence
	count, err := service.CountRoles(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to count roles: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 roles, got %d", count)
	}
	if !service.RoleExists(ctx, lead.ID) {
		t.Error("RoleExists should report true for a live role")
	}

	// Deletion
	if err := service.DeleteRole(ctx, auto.ID); err != nil {
		t.Fatalf("Failed to delete role: %v", err)
	}
	if service.RoleExists(ctx, auto.ID) {
		t.Error("RoleExists should report false after deletion")
	}
	if _, err := service.GetRole(ctx, auto.ID); !IsRoleNotFound(err) {
		t.Errorf("Expected role not found, got %v", err)
	}
	if err := service.DeleteRole(ctx, auto.ID); !IsRoleNotFound(err) {
		t.Errorf("Deleting a deleted role should report not found, got %v", err)
	}
}

// TestRoleOrdering tests the stable authority ordering of organization reads
func TestRoleOrdering(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}

	orgID := UniqueID("org-ordering")
	if _, err := service.CreateSystemRoles(ctx, orgID); err != nil {
		t.Fatalf("Failed to create system roles: %v", err)
	}

	// Two custom roles sharing a priority: ties are allowed
	first, err := service.CreateRole(ctx, orgID, "First", "#111111", 10, NewPermissionSet())
	if err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	second, err := service.CreateRole(ctx, orgID, "Second", "#222222", 10, NewPermissionSet())
	if err != nil {
		t.Fatalf("Failed to create tied role: %v", err)
	}

	roles, err := service.GetByOrganization(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to list roles: %v", err)
	}
	if len(roles) != 5 {
		t.Fatalf("Expected 5 roles, got %d", len(roles))
	}

	// Owner, admin, then the tied pair (creation order), then the default role
	if roles[0].Priority != OwnerPriority || roles[1].Priority != AdminPriority {
		t.Errorf("System roles should lead the ordering: %d, %d", roles[0].Priority, roles[1].Priority)
	}
	if roles[2].ID != first.ID || roles[3].ID != second.ID {
		t.Error("Tied roles should keep creation order")
	}
	if roles[4].Priority != MemberPriority {
		t.Errorf("Default member role should trail, got priority %d", roles[4].Priority)
	}

	custom, err := service.GetCustomRoles(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to list custom roles: %v", err)
	}
	if len(custom) != 2 {
		t.Errorf("Expected 2 custom roles, got %d", len(custom))
	}
}

// TestReorderRoles tests bulk reordering with real database
func TestReorderRoles(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}

	orgID := UniqueID("org-reorder")
	if _, err := service.CreateSystemRoles(ctx, orgID); err != nil {
		t.Fatalf("Failed to create system roles: %v", err)
	}

	a, err := service.CreateRole(ctx, orgID, "Alpha", "#111111", 10, NewPermissionSet())
	if err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	b, err := service.CreateRole(ctx, orgID, "Beta", "#222222", 20, NewPermissionSet())
	if err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	owner, err := service.GetOwnerRole(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to get owner role: %v", err)
	}

	// Swap the custom roles; the owner entry is filtered out, not an error
	roles, err := service.ReorderRoles(ctx, orgID, map[string]int{
		a.ID:            20,
		b.ID:            10,
		owner.ID:        5,
		"unknown-role-": 30,
	})
	if err != nil {
		t.Fatalf("Failed to reorder roles: %v", err)
	}

	byID := make(map[string]Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	if byID[a.ID].Priority != 20 {
		t.Errorf("Alpha should be at 20, got %d", byID[a.ID].Priority)
	}
	if byID[b.ID].Priority != 10 {
		t.Errorf("Beta should be at 10, got %d", byID[b.ID].Priority)
	}
	if byID[owner.ID].Priority != OwnerPriority {
		t.Errorf("Owner must stay at %d, got %d", OwnerPriority, byID[owner.ID].Priority)
	}

	// One audit entry for the whole batch
	logs, err := service.GetAuditLog(ctx, NewAuditLogFilter().
		WithOrganization(orgID).
		WithAction(AuditActionRolesReordered))
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected 1 reorder audit entry, got %d", len(logs))
	}
}

// TestRoleAuditTrail tests audit log filtering with real database
func TestRoleAuditTrail(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := WithAuditContext(context.Background(), AuditContext{
		ActorID:   "auditor-" + UniqueID("a"),
		IPAddress: "10.0.0.1",
		UserAgent: "accesskit-test",
		RequestID: UniqueID("req"),
	})

	service, err := SetupTestDatabase(ctx)
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}

	orgID := UniqueID("org-audit")
	if _, err := service.CreateSystemRoles(ctx, orgID); err != nil {
		t.Fatalf("Failed to create system roles: %v", err)
	}
	role, err := service.CreateRole(ctx, orgID, "QA Lead", "#00AA55", 50, NewPermissionSet(PermissionViewCards))
	if err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	if _, err := service.UpdateRolePriority(ctx, role.ID, 7); err != nil {
		t.Fatalf("Failed to update priority: %v", err)
	}

	// No-op mutation writes no audit row
	if _, err := service.UpdateRolePriority(ctx, role.ID, 7); err != nil {
		t.Fatalf("Idempotent update failed: %v", err)
	}

	logs, err := service.GetAuditLog(ctx, NewAuditLogFilter().
		WithOrganization(orgID).
		WithRole(role.ID))
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("Expected 2 audit entries (create + update), got %d", len(logs))
	}

	// Newest first
	if logs[0].Action != string(AuditActionRoleUpdated) {
		t.Errorf("Expected role_updated first, got %s", logs[0].Action)
	}
	if logs[0].PreviousPriority != 50 || logs[0].NewPriority != 7 {
		t.Errorf("Priority transition should be 50 -> 7, got %d -> %d",
			logs[0].PreviousPriority, logs[0].NewPriority)
	}
	if logs[0].ActorID != GetActorID(ctx) {
		t.Errorf("Audit entry should carry the actor from context")
	}
	if logs[0].IPAddress != "10.0.0.1" || logs[0].UserAgent != "accesskit-test" {
		t.Error("Audit entry should carry IP and user agent from context")
	}
}

// TestActorGuard tests guarded mutations backed by the evaluator
func TestActorGuard(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}

	orgID := UniqueID("org-guard")
	roles, err := service.CreateSystemRoles(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to create system roles: %v", err)
	}
	admin, member := roles[1], roles[2]

	memberships := NewInMemoryMemberships()
	memberships.Add("admin-user", orgID, admin.ID)
	memberships.Add("plain-user", orgID, member.ID)

	// The service itself is the role source for the guard
	service.SetEvaluator(NewEvaluator(memberships, service))

	// No actor in context
	if _, err := service.CreateRole(ctx, orgID, "Blocked", "#111111", 50, NewPermissionSet()); err == nil {
		t.Error("Guarded mutation without actor should fail")
	}

	// Actor without roles.manage
	plainCtx := WithActorID(ctx, "plain-user")
	if _, err := service.CreateRole(plainCtx, orgID, "Blocked", "#111111", 50, NewPermissionSet()); !IsPermissionDenied(err) {
		t.Errorf("Expected permission denied, got %v", err)
	}

	// Outsider
	strangerCtx := WithActorID(ctx, "stranger")
	if _, err := service.CreateRole(strangerCtx, orgID, "Blocked", "#111111", 50, NewPermissionSet()); !IsMemberNotFound(err) {
		t.Errorf("Expected member not found, got %v", err)
	}

	// Actor holding roles.manage
	adminCtx := WithActorID(ctx, "admin-user")
	role, err := service.CreateRole(adminCtx, orgID, "Allowed", "#111111", 50, NewPermissionSet())
	if err != nil {
		t.Fatalf("Guarded mutation by admin should succeed: %v", err)
	}
	if err := service.DeleteRole(adminCtx, role.ID); err != nil {
		t.Errorf("Guarded deletion by admin should succeed: %v", err)
	}
}

// TestDeleteByOrganization tests organization teardown
func TestDeleteByOrganization(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}

	orgID := UniqueID("org-teardown")
	if _, err := service.CreateSystemRoles(ctx, orgID); err != nil {
		t.Fatalf("Failed to create system roles: %v", err)
	}
	if _, err := service.CreateRole(ctx, orgID, "Custom", "#111111", 50, NewPermissionSet()); err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}

	if err := service.DeleteByOrganization(ctx, orgID); err != nil {
		t.Fatalf("Failed to delete organization roles: %v", err)
	}

	count, err := service.CountRoles(ctx, orgID)
	if err != nil {
		t.Fatalf("Failed to count roles: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 roles after teardown, got %d", count)
	}
}
