package journalgate

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the journal-gate library: the
// authorization and moderation engine sitting in front of a journal/place
// store. All state-changing calls are synchronous single-item decisions;
// moderation writes use optimistic concurrency and surface ErrConflict when
// they lose a race.
type Service interface {
	// Content submission and editing
	CreateJournal(ctx context.Context, actor *Principal, req CreateJournalRequest) (*Item, error)
	CreatePlace(ctx context.Context, actor *Principal, req CreatePlaceRequest) (*Item, error)
	UpdateItem(ctx context.Context, actor *Principal, req UpdateItemRequest) (*Item, error)
	DeleteItem(ctx context.Context, actor *Principal, id uuid.UUID) error

	// Read side
	GetItem(ctx context.Context, principal *Principal, id uuid.UUID) (*Item, error)
	ListPublicJournals(ctx context.Context, limit, offset int) ([]*Item, error)
	ListJournalPlaces(ctx context.Context, principal *Principal, journalID uuid.UUID) ([]*PlaceView, error)
	ListOwnedItems(ctx context.Context, actor *Principal, kind ItemKind) ([]*Item, error)

	// Access gate
	Authorize(ctx context.Context, principal *Principal, action Action, itemID uuid.UUID) error
	IsPubliclyListed(ctx context.Context, itemID uuid.UUID) (bool, error)

	// Moderation
	Approve(ctx context.Context, actor *Principal, itemID uuid.UUID) (*Item, error)
	Reject(ctx context.Context, actor *Principal, itemID uuid.UUID, reason string) (*Item, error)
	Resubmit(ctx context.Context, actor *Principal, itemID uuid.UUID) (*Item, error)
	ListPendingItems(ctx context.Context, actor *Principal, limit, offset int) ([]*Item, error)
	ListModerationLog(ctx context.Context, actor *Principal, itemID uuid.UUID) ([]*ModerationEvent, error)

	// Visibility
	SetVisibility(ctx context.Context, actor *Principal, itemID uuid.UUID, public bool) (*Item, error)

	// Account management
	RegisterPrincipal(ctx context.Context, req RegisterPrincipalRequest) (*Principal, error)
	SetAccountStatus(ctx context.Context, actor *Principal, principalID uuid.UUID, status AccountStatus) (*Principal, error)
	SetRole(ctx context.Context, actor *Principal, principalID uuid.UUID, role Role) (*Principal, error)

	// Place photos (opaque blob store, access-gated here). The URL pair is
	// for presigning backends; the direct trio serves backends without it.
	PlacePhotoUploadURL(ctx context.Context, actor *Principal, placeID uuid.UUID, filename string) (string, error)
	PlacePhotoDownloadURL(ctx context.Context, principal *Principal, placeID uuid.UUID, filename string) (string, error)
	UploadPlacePhoto(ctx context.Context, actor *Principal, placeID uuid.UUID, filename string, photo io.Reader) error
	DownloadPlacePhoto(ctx context.Context, principal *Principal, placeID uuid.UUID, filename string) (io.ReadCloser, error)
	DeletePlacePhoto(ctx context.Context, actor *Principal, placeID uuid.UUID, filename string) error
}

// PlaceView is a place together with its computed visit status. The status is
// derived at read time and never persisted.
type PlaceView struct {
	*Item
	VisitStatus VisitStatus `json:"visit_status"`
}
