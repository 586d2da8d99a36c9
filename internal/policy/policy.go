// Package policy decides what an actor may do with an itinerary.
// Decisions are pure booleans; callers turn a denial into domain.ErrNotAuthorized.
//
// Rules, first match wins:
//  1. admin: view, edit, delete. Collaborator management stays owner-only.
//  2. owner: everything.
//  3. collaborator: view and edit.
//  4. anyone: view a public itinerary.
//  5. otherwise nothing.
package policy

import "github.com/itinera/backend/internal/domain"

// CanView reports whether actor may read the itinerary.
func CanView(it domain.Itinerary, actor domain.Actor) bool {
	switch {
	case actor.IsAdmin(), it.IsOwner(actor.UserID), it.HasCollaborator(actor.UserID):
		return true
	default:
		return it.IsPublic
	}
}

// CanEdit reports whether actor may change itinerary fields and activities.
func CanEdit(it domain.Itinerary, actor domain.Actor) bool {
	return actor.IsAdmin() || it.IsOwner(actor.UserID) || it.HasCollaborator(actor.UserID)
}

// CanDelete reports whether actor may delete the itinerary.
func CanDelete(it domain.Itinerary, actor domain.Actor) bool {
	return actor.IsAdmin() || it.IsOwner(actor.UserID)
}

// CanManageCollaborators reports whether actor may add or remove collaborators.
// Only the owner may, even when the actor is an administrator.
func CanManageCollaborators(it domain.Itinerary, actor domain.Actor) bool {
	return it.IsOwner(actor.UserID)
}
