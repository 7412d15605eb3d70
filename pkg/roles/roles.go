package roles

import "fmt"

// Role is the permission level of a user account.
type Role string

const (
	Viewer Role = "viewer"
	Staff  Role = "staff"
	Admin  Role = "admin"
)

type HierarchyLevel int

const (
	unknownLevel HierarchyLevel = 0
	ViewerLevel  HierarchyLevel = 1
	StaffLevel   HierarchyLevel = 2
	AdminLevel   HierarchyLevel = 3
)

func NewRole(value string) (Role, error) {
	role := Role(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return role, nil
}

func (r Role) GetHierarchyLevel() HierarchyLevel {
	switch r {
	case Viewer:
		return ViewerLevel
	case Staff:
		return StaffLevel
	case Admin:
		return AdminLevel
	default:
		return unknownLevel
	}
}

// HasPermission reports whether r is at least required. Unknown roles never pass.
func (r Role) HasPermission(required Role) bool {
	level := r.GetHierarchyLevel()
	return level != unknownLevel && level >= required.GetHierarchyLevel()
}

func (r Role) IsValid() bool {
	switch r {
	case Viewer, Staff, Admin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

func All() []Role {
	return []Role{Viewer, Staff, Admin}
}
