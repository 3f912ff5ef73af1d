package accesskit

// Permission is an atomic capability flag. The enumeration is closed: the 20
// values below are the whole vocabulary, and adding one is a schema change
// (new enum value + explicit migration), never a runtime event.
type Permission uint8

const (
	// Organization
	PermissionManageOrganization Permission = iota // organization profile, settings
	PermissionDeleteOrganization
	PermissionViewAnalytics

	// Roles
	PermissionManageRoles // create, edit, reorder, delete custom roles
	PermissionAssignRoles
	PermissionViewRoles

	// Members
	PermissionInviteMembers
	PermissionRemoveMembers
	PermissionManageMembers
	PermissionViewMembers

	// Cards
	PermissionEditOwnCard
	PermissionEditAnyCard
	PermissionPublishCards
	PermissionViewCards

	// Tags
	PermissionManageTags
	PermissionAssignTags
	PermissionViewTags

	// Organization structure
	PermissionManageStructure
	PermissionMoveMembers
	PermissionViewStructure

	permissionCount // must stay last
)

// PermissionCategory groups permissions for presentation. Categories carry
// no authorization semantics of their own.
type PermissionCategory string

const (
	CategoryOrganization PermissionCategory = "organization"
	CategoryRoles        PermissionCategory = "roles"
	CategoryMembers      PermissionCategory = "members"
	CategoryCards        PermissionCategory = "cards"
	CategoryTags         PermissionCategory = "tags"
	CategoryStructure    PermissionCategory = "structure"
)

var permissionNames = [permissionCount]string{
	PermissionManageOrganization: "organization.manage",
	PermissionDeleteOrganization: "organization.delete",
	PermissionViewAnalytics:      "organization.analytics",
	PermissionManageRoles:        "roles.manage",
	PermissionAssignRoles:        "roles.assign",
	PermissionViewRoles:          "roles.view",
	PermissionInviteMembers:      "members.invite",
	PermissionRemoveMembers:      "members.remove",
	PermissionManageMembers:      "members.manage",
	PermissionViewMembers:        "members.view",
	PermissionEditOwnCard:        "cards.edit_own",
	PermissionEditAnyCard:        "cards.edit_any",
	PermissionPublishCards:       "cards.publish",
	PermissionViewCards:          "cards.view",
	PermissionManageTags:         "tags.manage",
	PermissionAssignTags:         "tags.assign",
	PermissionViewTags:           "tags.view",
	PermissionManageStructure:    "structure.manage",
	PermissionMoveMembers:        "structure.move_members",
	PermissionViewStructure:      "structure.view",
}

var permissionCategories = [permissionCount]PermissionCategory{
	PermissionManageOrganization: CategoryOrganization,
	PermissionDeleteOrganization: CategoryOrganization,
	PermissionViewAnalytics:      CategoryOrganization,
	PermissionManageRoles:        CategoryRoles,
	PermissionAssignRoles:        CategoryRoles,
	PermissionViewRoles:          CategoryRoles,
	PermissionInviteMembers:      CategoryMembers,
	PermissionRemoveMembers:      CategoryMembers,
	PermissionManageMembers:      CategoryMembers,
	PermissionViewMembers:        CategoryMembers,
	PermissionEditOwnCard:        CategoryCards,
	PermissionEditAnyCard:        CategoryCards,
	PermissionPublishCards:       CategoryCards,
	PermissionViewCards:          CategoryCards,
	PermissionManageTags:         CategoryTags,
	PermissionAssignTags:         CategoryTags,
	PermissionViewTags:           CategoryTags,
	PermissionManageStructure:    CategoryStructure,
	PermissionMoveMembers:        CategoryStructure,
	PermissionViewStructure:      CategoryStructure,
}

// Valid reports whether p is a defined enumeration value.
func (p Permission) Valid() bool {
	return p < permissionCount
}

// String returns the canonical dot-separated name, e.g. "roles.manage".
func (p Permission) String() string {
	if !p.Valid() {
		return "permission(invalid)"
	}
	return permissionNames[p]
}

// Category returns the presentation category of the permission.
func (p Permission) Category() PermissionCategory {
	if !p.Valid() {
		return ""
	}
	return permissionCategories[p]
}

// ParsePermission resolves a canonical name back to its enumeration value.
func ParsePermission(name string) (Permission, error) {
	for p := Permission(0); p < permissionCount; p++ {
		if permissionNames[p] == name {
			return p, nil
		}
	}
	return 0, NewError(ErrInvalidPermission, "unknown permission "+name)
}

// Permissions returns every defined permission in enumeration order.
func Permissions() []Permission {
	all := make([]Permission, permissionCount)
	for p := Permission(0); p < permissionCount; p++ {
		all[p] = p
	}
	return all
}

// PermissionsByCategory returns the permissions belonging to one category,
// in enumeration order.
func PermissionsByCategory(category PermissionCategory) []Permission {
	var out []Permission
	for p := Permission(0); p < permissionCount; p++ {
		if permissionCategories[p] == category {
			out = append(out, p)
		}
	}
	return out
}

// PermissionSet is a fixed-size bitset over the Permission enumeration.
// All operations are O(1), add/remove are idempotent, and the zero value is
// the empty set. The set round-trips through the database as a single
// integer column.
type PermissionSet uint32

// NewPermissionSet builds a set from the given permissions. Invalid values
// are ignored.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s = s.Add(p)
	}
	return s
}

// AllPermissions returns the set containing every permission currently in
// the enumeration. This is a snapshot closure: an Owner role built from it
// does NOT retroactively gain values added to the enumeration later. Closing
// that drift is an explicit migration step, never silent (see
// Role.MissingPermissions).
func AllPermissions() PermissionSet {
	return PermissionSet(1<<permissionCount) - 1
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	return p.Valid() && s&(1<<p) != 0
}

// HasAny reports whether the set intersects other. HasAny of the empty set
// is false.
func (s PermissionSet) HasAny(other PermissionSet) bool {
	return s&other != 0
}

// HasAll reports whether other is a subset of s. HasAll of the empty set is
// vacuously true.
func (s PermissionSet) HasAll(other PermissionSet) bool {
	return s&other == other
}

// Add returns the set with p included.
func (s PermissionSet) Add(p Permission) PermissionSet {
	if !p.Valid() {
		return s
	}
	return s | 1<<p
}

// Remove returns the set with p excluded.
func (s PermissionSet) Remove(p Permission) PermissionSet {
	if !p.Valid() {
		return s
	}
	return s &^ (1 << p)
}

// Len returns the number of permissions in the set.
func (s PermissionSet) Len() int {
	n := 0
	for p := Permission(0); p < permissionCount; p++ {
		if s.Has(p) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the set contains no permissions.
func (s PermissionSet) IsEmpty() bool {
	return s == 0
}

// Permissions returns the members of the set in enumeration order.
func (s PermissionSet) Permissions() []Permission {
	var out []Permission
	for p := Permission(0); p < permissionCount; p++ {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the canonical names of the members of the set, in
// enumeration order. Useful for API responses and audit metadata.
func (s PermissionSet) Names() []string {
	perms := s.Permissions()
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.String()
	}
	return names
}
