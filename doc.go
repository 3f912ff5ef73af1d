// Package accesskit is the authorization core for the platform: it answers
// "may actor A perform action X against target T?" for every collaborator
// (contacts, chat, idea board, companies) through two independent trust
// models.
//
// # Trust Models
//
// Organization RBAC: each organization owns a set of prioritized roles.
// Three system roles (Владелец, Администратор, Сотрудник) are created with
// the organization and are structurally protected; any number of custom
// roles can be layered below them. A member's single role carries a closed
// set of permission flags, and the Evaluator resolves membership -> role ->
// permission set to a boolean.
//
// Social-graph privacy: outside any organization, each user configures a
// PrivacyLevel per guarded action (message, view profile, invite). The
// PrivacyChecker evaluates the level against the directed contact graph,
// never traversing more than two hops and never scanning more than one page
// of contacts.
//
// # Core Concepts
//
// Permission: an atomic capability flag from a closed enumeration of 20
// values in 6 categories. Adding a value is a schema change, not a runtime
// event.
//
// PermissionSet: a fixed-size bitset over the enumeration. All set
// operations are O(1) and idempotent; the set serializes as a single
// integer column.
//
// Priority: integer authority ordering, lower value = more authority.
// 0 and 1 are reserved for the system owner and admin roles; every custom
// role sits strictly below priority 1.
//
// Saved contact: the directed relation "owner has added subject to their
// address book". All privacy checks are built on this asymmetric primitive.
//
// # Basic Usage
//
//	// 1. Create the service
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := accesskit.NewService(db)
//
//	// 2. Run migrations
//	db.Migrate(ctx, service.Migrations())
//
//	// 3. Bootstrap an organization's roles (exactly once per organization)
//	roles, _ := service.CreateSystemRoles(ctx, orgID)
//
//	// 4. Wire the evaluator with the membership collaborator
//	evaluator := accesskit.NewEvaluator(memberships, service)
//
//	// 5. Check permissions (hot path, boolean, never panics or errors)
//	if evaluator.HasPermission(ctx, userID, orgID, accesskit.PermissionInviteMembers) {
//	    // user may invite
//	}
//
//	// 6. Management endpoints use the asserting path instead
//	if err := evaluator.Assert(ctx, userID, orgID,
//	    accesskit.NewPermissionSet(accesskit.PermissionManageRoles), accesskit.RequireAll); err != nil {
//	    // accesskit.IsPermissionDenied(err) or accesskit.IsMemberNotFound(err)
//	}
//
// # Privacy Checks
//
//	checker := accesskit.NewPrivacyChecker(contacts, organizations)
//
//	if checker.CheckAction(ctx, viewerID, ownerID, accesskit.ActionViewProfile, level) {
//	    // viewer may see the profile
//	}
//
// # Denial Is Not An Error
//
// On the hot paths (Evaluate, HasPermission, Check, CheckAction) denial is a
// plain false: it is an expected, frequent outcome. Typed errors
// (ErrPermissionDenied, ErrMemberNotFound, ErrSystemRoleModification, ...)
// are reserved for the administrative paths where callers need to
// short-circuit or distinguish failure causes.
//
// # Audit Log
//
// Every role mutation is recorded in role_audit_log with the actor, the
// organization, the role, previous and new priority/permission snapshots,
// and request metadata (IP, user agent, request ID) taken from context.
package accesskit
