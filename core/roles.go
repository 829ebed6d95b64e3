package core

import (
	"sort"
	"strings"
)

// RolePrefix is prepended to every normalized role.
const RolePrefix = "ROLE_"

var roleReplacer = strings.NewReplacer("-", "_", " ", "_")

// NormalizeRole turns a raw role name as issued by the provider into its
// canonical form: uppercased, with '-' and ' ' replaced by '_', and prefixed
// with ROLE_ unless the prefix is already there.
//
//	NormalizeRole("some-role")  // ROLE_SOME_ROLE
//	NormalizeRole("ROLE_ADMIN") // ROLE_ADMIN
func NormalizeRole(raw string) string {
	role := roleReplacer.Replace(strings.ToUpper(raw))
	if strings.HasPrefix(role, RolePrefix) {
		return role
	}
	return RolePrefix + role
}

// RoleSet is the set of normalized roles held by a caller. The zero value is
// an empty set. A RoleSet is never mutated once returned by the validator.
type RoleSet map[string]struct{}

// NewRoleSet normalizes every raw role and collects them into a set.
func NewRoleSet(raw ...string) RoleSet {
	set := make(RoleSet, len(raw))
	for _, r := range raw {
		set[NormalizeRole(r)] = struct{}{}
	}
	return set
}

// Contains reports whether the normalized role is in the set.
func (s RoleSet) Contains(role string) bool {
	_, ok := s[role]
	return ok
}

// Len returns the number of roles.
func (s RoleSet) Len() int {
	return len(s)
}

// Sorted returns the roles in lexical order.
func (s RoleSet) Sorted() []string {
	roles := make([]string, 0, len(s))
	for r := range s {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// String joins the sorted roles with ", ".
func (s RoleSet) String() string {
	return strings.Join(s.Sorted(), ", ")
}
