package accesskit

import "context"

// PrivacyLevel controls which trust tier of other users may act against a
// user. The levels form a nested superset hierarchy:
//
//	company_colleagues ⊇ contacts_of_contacts ⊇ contacts ⊇ {self}
//
// with all and nobody as unconditional extremes. Whenever a pair passes at
// one tier it passes at every wider tier.
type PrivacyLevel string

const (
	PrivacyAll                PrivacyLevel = "all"
	PrivacyContacts           PrivacyLevel = "contacts"
	PrivacyContactsOfContacts PrivacyLevel = "contacts_of_contacts"
	PrivacyCompanyColleagues  PrivacyLevel = "company_colleagues"
	PrivacyNobody             PrivacyLevel = "nobody"
)

// Valid reports whether l is a defined privacy level.
func (l PrivacyLevel) Valid() bool {
	switch l {
	case PrivacyAll, PrivacyContacts, PrivacyContactsOfContacts, PrivacyCompanyColleagues, PrivacyNobody:
		return true
	}
	return false
}

// PrivacyAction is a guarded action a user configures a PrivacyLevel for.
type PrivacyAction string

const (
	ActionMessage     PrivacyAction = "message"
	ActionViewProfile PrivacyAction = "view_profile"
	ActionInvite      PrivacyAction = "invite"
)

// ContactPageSize bounds how many of the target's contacts the two-hop
// traversal scans. Reachability through a contact beyond the first page is a
// false negative by design: the cap trades recall for a predictable worst
// case of one page fetch plus one lookup per entry.
const ContactPageSize = 500

// PrivacyChecker evaluates per-user privacy levels over the directed
// contact graph and organization memberships. It is independent of the role
// system: two users may share an organization without either granting the
// other anything role-based here.
type PrivacyChecker struct {
	contacts      ContactLookup
	organizations OrganizationLookup
}

// NewPrivacyChecker creates a PrivacyChecker over the contact and
// organization collaborators.
func NewPrivacyChecker(contacts ContactLookup, organizations OrganizationLookup) *PrivacyChecker {
	return &PrivacyChecker{
		contacts:      contacts,
		organizations: organizations,
	}
}

// Check reports whether actor may act against target under the target's
// configured level. Direction matters everywhere: the target must have
// saved the actor, not the reverse.
//
// The check fails closed: collaborator errors and unknown levels yield
// false. Self-checks are always true, including under nobody.
func (pc *PrivacyChecker) Check(ctx context.Context, actorID, targetID string, level PrivacyLevel) bool {
	if actorID == targetID {
		return true
	}

	switch level {
	case PrivacyAll:
		return true
	case PrivacyNobody:
		return false
	case PrivacyContacts:
		return pc.isContactOf(ctx, targetID, actorID)
	case PrivacyContactsOfContacts:
		return pc.isContactOf(ctx, targetID, actorID) ||
			pc.isContactOfContact(ctx, targetID, actorID)
	case PrivacyCompanyColleagues:
		return pc.isContactOf(ctx, targetID, actorID) ||
			pc.isContactOfContact(ctx, targetID, actorID) ||
			pc.shareOrganization(ctx, actorID, targetID)
	}

	return false
}

// CheckAction evaluates level for a specific guarded action, applying the
// one named carve-out: for view_profile, contacts of the target always pass
// regardless of the configured level. Other actions (messaging, inviting)
// respect the level even for saved contacts.
func (pc *PrivacyChecker) CheckAction(ctx context.Context, actorID, targetID string, action PrivacyAction, level PrivacyLevel) bool {
	if action == ActionViewProfile && actorID != targetID && pc.isContactOf(ctx, targetID, actorID) {
		return true
	}
	return pc.Check(ctx, actorID, targetID, level)
}

// isContactOf reports whether candidate is in owner's address book.
func (pc *PrivacyChecker) isContactOf(ctx context.Context, ownerID, candidateID string) bool {
	ok, err := pc.contacts.Exists(ctx, ownerID, candidateID)
	return err == nil && ok
}

// isContactOfContact runs the fixed-depth-2 traversal: one page of the
// target's contacts, one direct lookup per entry. Never a general graph
// search.
func (pc *PrivacyChecker) isContactOfContact(ctx context.Context, targetID, actorID string) bool {
	intermediates, err := pc.contacts.ContactsOf(ctx, targetID, ContactPageSize)
	if err != nil {
		return false
	}
	for _, intermediate := range intermediates {
		if intermediate == actorID {
			continue
		}
		if pc.isContactOf(ctx, intermediate, actorID) {
			return true
		}
	}
	return false
}

// shareOrganization reports whether the two users' organization sets
// intersect.
func (pc *PrivacyChecker) shareOrganization(ctx context.Context, actorID, targetID string) bool {
	actorOrgs, err := pc.organizations.OrganizationsOf(ctx, actorID)
	if err != nil || len(actorOrgs) == 0 {
		return false
	}
	targetOrgs, err := pc.organizations.OrganizationsOf(ctx, targetID)
	if err != nil {
		return false
	}
	seen := make(map[string]struct{}, len(actorOrgs))
	for _, org := range actorOrgs {
		seen[org] = struct{}{}
	}
	for _, org := range targetOrgs {
		if _, ok := seen[org]; ok {
			return true
		}
	}
	return false
}
