package domain

import "github.com/google/uuid"

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID   uuid.UUID
	Role UserRole
}

func (a Actor) IsSupervisor() bool {
	switch a.Role {
	case UserRoleSupervisor:
		return true
	case UserRoleAssignee:
		return false
	default:
		return false
	}
}

// WorkItem is the catalog entry an assignment refers to. The catalog itself
// is owned by another service.
type WorkItem struct {
	ID    uuid.UUID `db:"id"`
	Title string    `db:"title"`
}

// User is the directory view of an account.
type User struct {
	ID   uuid.UUID `db:"id"`
	Role UserRole  `db:"role"`
	Name string    `db:"name"`
}
