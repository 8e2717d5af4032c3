package journalgate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrUnauthenticated indicates no valid principal could be resolved
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the principal is authenticated but not permitted
	ErrForbidden = errors.New("forbidden")

	// ErrAccountBlocked indicates the principal's account is blocked; it is
	// deliberately distinct from ErrForbidden so clients can explain the
	// denial correctly
	ErrAccountBlocked = errors.New("account blocked")

	// ErrInvalidState indicates a moderation transition is not legal from the
	// item's current state
	ErrInvalidState = errors.New("invalid moderation state")

	// ErrNotApproved indicates a visibility toggle was rejected because the
	// item (or its parent journal) is not eligible for public listing
	ErrNotApproved = errors.New("item not approved for public listing")

	// ErrConflict indicates an optimistic-concurrency loss; callers may retry
	// after re-reading the item
	ErrConflict = errors.New("version conflict")

	// ErrItemNotFound indicates an item was not found
	ErrItemNotFound = errors.New("item not found")

	// ErrPrincipalNotFound indicates a principal was not found
	ErrPrincipalNotFound = errors.New("principal not found")
)

// StateError reports an illegal moderation transition together with the
// states involved, so callers can refresh and decide what to do next.
type StateError struct {
	ItemID    uuid.UUID
	Current   ModerationStatus
	Attempted ModerationStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot move item %s from %s to %s", e.ItemID, e.Current, e.Attempted)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// ItemError represents an error raised while operating on an item.
type ItemError struct {
	ItemID uuid.UUID
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("operation %s failed for item %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// DenyError is a denial from the access gate. It always wraps one of the
// sentinel reasons above so the caller can branch on errors.Is while still
// seeing a human-readable explanation.
type DenyError struct {
	Action Action
	ItemID uuid.UUID
	Reason error
	Detail string
}

func (e *DenyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s denied for item %s: %v", e.Action, e.ItemID, e.Reason)
	}
	return fmt.Sprintf("%s denied for item %s: %v (%s)", e.Action, e.ItemID, e.Reason, e.Detail)
}

func (e *DenyError) Unwrap() error {
	return e.Reason
}
