package services

import "journal-management-api/models"

// Actor is the authenticated identity behind an engine call. It is passed
// explicitly into every operation; services never read ambient user state.
type Actor struct {
	UserID int
	RoleID int
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.RoleID == models.RoleAdmin
}

// IsEditorial reports whether the actor may perform editor operations.
func (a Actor) IsEditorial() bool {
	return a.RoleID == models.RoleEditor || a.RoleID == models.RoleAdmin
}

func requireEditorial(actor Actor) error {
	if !actor.IsEditorial() {
		return forbiddenError("operation requires editor or admin role")
	}
	return nil
}
