package models

import "github.com/google/uuid"

// Actor is the authenticated caller. A nil *Actor is a guest.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanRead reports whether the actor may see the project. Guests only see
// public projects.
func (a *Actor) CanRead(p *Project) bool {
	if p.IsPublic {
		return true
	}
	return a.CanWrite(p)
}

// CanWrite reports whether the actor owns the project or is an admin.
func (a *Actor) CanWrite(p *Project) bool {
	if a == nil {
		return false
	}
	return a.IsAdmin() || p.CreatedBy == a.UserID
}
