// Package rbac decides what a host may do with the widgets it owns.
package rbac

type Role string
type Action string

const (
	// RoleReader may view widgets and search options but not change them.
	RoleReader Role = "reader"
	RoleEditor Role = "editor"
)

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleEditor:
		return action == ActionRead || action == ActionWrite
	case RoleReader:
		return action == ActionRead
	default:
		return false
	}
}

// Normalize maps unknown or empty roles to RoleReader.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleReader, RoleEditor:
		return Role(role)
	default:
		return RoleReader
	}
}
