// Package security provides the role hierarchy and the permission table
// consulted by the role gate.
package security

import "strings"

// Role is a member's position in the organisation hierarchy.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// rank orders roles; a higher rank contains every lower one.
var rank = map[Role]int{
	RoleEmployee: 1,
	RoleManager:  2,
	RoleAdmin:    3,
	RoleOwner:    4,
}

// AllRoles lists roles from most to least privileged.
func AllRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleManager, RoleEmployee}
}

// ParseRole normalises s into a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := rank[r]
	return r, ok
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Includes reports whether r grants everything required grants.
// Unknown roles include nothing.
func (r Role) Includes(required Role) bool {
	have, ok := rank[r]
	if !ok {
		return false
	}
	need, ok := rank[required]
	if !ok {
		return false
	}
	return have >= need
}

func (r Role) String() string {
	return string(r)
}
