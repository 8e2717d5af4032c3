package journalgate

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for item and principal persistence.
//
// SaveItem is the optimistic-concurrency boundary: implementations must
// compare expectedVersion against the stored version atomically, reject the
// write with ErrConflict on mismatch, and bump the version on success. The
// service always passes the version it read, never assumes external locking.
type Repository interface {
	// Item operations
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	SaveItem(ctx context.Context, item *Item, expectedVersion int64) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error)

	// Moderation log (append-only)
	AppendModerationEvent(ctx context.Context, event *ModerationEvent) error
	ListModerationEvents(ctx context.Context, itemID uuid.UUID) ([]*ModerationEvent, error)

	// Principal operations
	CreatePrincipal(ctx context.Context, p *Principal) error
	GetPrincipal(ctx context.Context, id uuid.UUID) (*Principal, error)
	UpdatePrincipal(ctx context.Context, p *Principal) error
}

// ItemFilter narrows ListItems. Zero values mean "no constraint".
type ItemFilter struct {
	Kind             ItemKind
	OwnerID          uuid.UUID
	JournalID        uuid.UUID
	ModerationStatus ModerationStatus

	// PublicOnly restricts the listing to publicly-flagged items. It must be
	// applied before Limit/Offset so private items never consume page slots.
	PublicOnly bool

	// OrderBySubmission lists oldest submission first (moderation queue).
	OrderBySubmission bool

	Limit  int
	Offset int
}

// Clock supplies the current time. Injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// IdentityResolver resolves an opaque auth token to a Principal. Resolution
// failure yields an error wrapping ErrUnauthenticated.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// EventSink receives fire-and-forget notifications after moderation and
// visibility changes. Sink failures are logged and never roll back the
// transition that triggered them.
type EventSink interface {
	// ItemSubmitted is fired when an item enters the moderation queue,
	// including resubmissions and owner-edit resets.
	ItemSubmitted(ctx context.Context, item *Item) error

	// ItemModerated is fired after an approve or reject transition.
	ItemModerated(ctx context.Context, item *Item, event *ModerationEvent) error

	// VisibilityChanged is fired when an item's public flag changes,
	// including the revocation performed by reject.
	VisibilityChanged(ctx context.Context, item *Item) error
}

// BlobStore is the opaque photo store attached to places. The engine only
// gates access to it; upload and download mechanics live behind the URLs.
type BlobStore interface {
	// GetUploadURL returns a URL for uploading a photo
	GetUploadURL(ctx context.Context, objectKey string) (string, error)

	// GetDownloadURL returns a URL for downloading a photo
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// Upload uploads a photo directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download downloads a photo directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes a photo
	Delete(ctx context.Context, objectKey string) error
}
