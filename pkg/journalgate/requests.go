package journalgate

import "github.com/google/uuid"

// CreateJournalRequest contains parameters for submitting a new journal.
// New journals always start pending and private.
type CreateJournalRequest struct {
	Title       string
	Description string
}

// CreatePlaceRequest contains parameters for submitting a new place inside a
// journal the actor owns.
type CreatePlaceRequest struct {
	JournalID   uuid.UUID
	Title       string
	Description string
	Visit       *VisitWindow
}

// UpdateItemRequest contains parameters for an owner edit. Nil pointer fields
// are left unchanged. An owner edit of an approved or rejected item resets it
// to pending for fresh moderation.
type UpdateItemRequest struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	Visit       *VisitWindow
}

// RegisterPrincipalRequest contains parameters for creating a principal.
// Role and Status default to a plain active user when left empty.
type RegisterPrincipalRequest struct {
	ID     uuid.UUID
	Role   Role
	Status AccountStatus
}
