package journalgate

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	clock      Clock
	eventSink  EventSink
	photoStore BlobStore
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithClock sets the clock for the service; defaults to the system clock
func WithClock(clock Clock) Option {
	return func(s *service) {
		s.clock = clock
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithPhotoStore sets the blob store used for place photos
func WithPhotoStore(store BlobStore) Option {
	return func(s *service) {
		s.photoStore = store
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}

	return s, nil
}

// Content operations

func (s *service) CreateJournal(ctx context.Context, actor *Principal, req CreateJournalRequest) (*Item, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	item := &Item{
		ID:               uuid.New(),
		Kind:             KindJournal,
		OwnerID:          actor.ID,
		Title:            req.Title,
		Description:      req.Description,
		ModerationStatus: ModerationPending,
		SubmittedAt:      now,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repository.CreateItem(ctx, item); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "create", Err: err}
	}

	s.fireSubmitted(ctx, item)
	return item, nil
}

func (s *service) CreatePlace(ctx context.Context, actor *Principal, req CreatePlaceRequest) (*Item, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return nil, err
	}

	journal, err := s.repository.GetItem(ctx, req.JournalID)
	if err != nil {
		return nil, err
	}
	if journal.Kind != KindJournal {
		return nil, fmt.Errorf("%w: %s is not a journal", ErrItemNotFound, req.JournalID)
	}
	// Places can only be added to the actor's own journal.
	if journal.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: journal belongs to another user", ErrForbidden)
	}

	now := s.clock.Now().UTC()
	item := &Item{
		ID:               uuid.New(),
		Kind:             KindPlace,
		OwnerID:          actor.ID,
		JournalID:        journal.ID,
		Title:            req.Title,
		Description:      req.Description,
		ModerationStatus: ModerationPending,
		SubmittedAt:      now,
		Visit:            req.Visit,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repository.CreateItem(ctx, item); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "create", Err: err}
	}

	s.fireSubmitted(ctx, item)
	return item, nil
}

// UpdateItem applies an owner edit. Edits by the owner to an approved or
// rejected item reset it to pending: changed content always goes through
// moderation again, and any public listing is revoked until it does.
func (s *service) UpdateItem(ctx context.Context, actor *Principal, req UpdateItemRequest) (*Item, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return nil, err
	}

	item, err := s.repository.GetItem(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: not the owner", ErrForbidden)
	}

	expected := item.Version
	now := s.clock.Now().UTC()

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Visit != nil {
		if !item.IsPlace() {
			return nil, fmt.Errorf("%w: journals have no visit window", ErrInvalidState)
		}
		item.Visit = req.Visit
	}

	reset := actor.ID == item.OwnerID && item.ModerationStatus != ModerationPending
	wasPublic := item.IsPublic
	var event *ModerationEvent
	if reset {
		event = s.newEvent(item, ModerationPending, actor.ID, "")
		item.ModerationStatus = ModerationPending
		item.RejectionReason = ""
		item.IsPublic = false
		item.ModeratedBy = nil
		item.ModeratedAt = nil
		item.SubmittedAt = now
	}
	item.UpdatedAt = now

	if err := s.repository.SaveItem(ctx, item, expected); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "update", Err: err}
	}

	if reset {
		s.appendEvent(ctx, event)
		s.fireSubmitted(ctx, item)
		if wasPublic {
			s.fireVisibilityChanged(ctx, item)
		}
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, actor *Principal, id uuid.UUID) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return err
	}

	item, err := s.repository.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.OwnerID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: not the owner", ErrForbidden)
	}

	if err := s.repository.DeleteItem(ctx, id); err != nil {
		return &ItemError{ItemID: id, Op: "delete", Err: err}
	}
	return nil
}

// Read side

func (s *service) GetItem(ctx context.Context, principal *Principal, id uuid.UUID) (*Item, error) {
	item, parent, err := s.loadWithParent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(item, parent, principal) {
		return nil, s.denyRead(principal, id)
	}
	return item, nil
}

func (s *service) ListPublicJournals(ctx context.Context, limit, offset int) ([]*Item, error) {
	// The repository filters to the public catalog before paging, so
	// approved-but-private journals never consume page slots.
	return s.repository.ListItems(ctx, ItemFilter{
		Kind:             KindJournal,
		ModerationStatus: ModerationApproved,
		PublicOnly:       true,
		Limit:            limit,
		Offset:           offset,
	})
}

func (s *service) ListJournalPlaces(ctx context.Context, principal *Principal, journalID uuid.UUID) ([]*PlaceView, error) {
	journal, err := s.repository.GetItem(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if !CanView(journal, nil, principal) {
		return nil, s.denyRead(principal, journalID)
	}

	places, err := s.repository.ListItems(ctx, ItemFilter{Kind: KindPlace, JournalID: journalID})
	if err != nil {
		return nil, err
	}

	today := s.clock.Now()
	views := make([]*PlaceView, 0, len(places))
	for _, p := range places {
		if !CanView(p, journal, principal) {
			continue
		}
		view := &PlaceView{Item: p, VisitStatus: VisitStatusUnknown}
		if p.Visit != nil {
			view.VisitStatus = ResolveVisitStatus(*p.Visit, today)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) ListOwnedItems(ctx context.Context, actor *Principal, kind ItemKind) ([]*Item, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.repository.ListItems(ctx, ItemFilter{Kind: kind, OwnerID: actor.ID})
}

// Account management

func (s *service) RegisterPrincipal(ctx context.Context, req RegisterPrincipalRequest) (*Principal, error) {
	now := s.clock.Now().UTC()
	p := &Principal{
		ID:        req.ID,
		Role:      req.Role,
		Status:    req.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	if p.Status == "" {
		p.Status = AccountActive
	}

	if err := s.repository.CreatePrincipal(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetAccountStatus(ctx context.Context, actor *Principal, principalID uuid.UUID, status AccountStatus) (*Principal, error) {
	return s.updatePrincipal(ctx, actor, principalID, func(p *Principal) error {
		switch status {
		case AccountActive, AccountBlocked, AccountPending:
			p.Status = status
			return nil
		default:
			return fmt.Errorf("unknown account status %q", status)
		}
	})
}

func (s *service) SetRole(ctx context.Context, actor *Principal, principalID uuid.UUID, role Role) (*Principal, error) {
	return s.updatePrincipal(ctx, actor, principalID, func(p *Principal) error {
		switch role {
		case RoleUser, RoleAdmin:
			p.Role = role
			return nil
		default:
			return fmt.Errorf("unknown role %q", role)
		}
	})
}

// updatePrincipal runs an admin-only mutation of another account.
func (s *service) updatePrincipal(ctx context.Context, actor *Principal, id uuid.UUID, mutate func(*Principal) error) (*Principal, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}

	p, err := s.repository.GetPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.clock.Now().UTC()

	if err := s.repository.UpdatePrincipal(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Place photos

func (s *service) PlacePhotoUploadURL(ctx context.Context, actor *Principal, placeID uuid.UUID, filename string) (string, error) {
	if err := s.checkPhotoAccess(ctx, actor, ActionEdit, placeID); err != nil {
		return "", err
	}
	return s.photoStore.GetUploadURL(ctx, photoKey(placeID, filename))
}

func (s *service) PlacePhotoDownloadURL(ctx context.Context, principal *Principal, placeID uuid.UUID, filename string) (string, error) {
	if err := s.checkPhotoAccess(ctx, principal, ActionRead, placeID); err != nil {
		return "", err
	}
	return s.photoStore.GetDownloadURL(ctx, photoKey(placeID, filename), filename)
}

func (s *service) UploadPlacePhoto(ctx context.Context, actor *Principal, placeID uuid.UUID, filename string, photo io.Reader) error {
	if err := s.checkPhotoAccess(ctx, actor, ActionEdit, placeID); err != nil {
		return err
	}
	return s.photoStore.Upload(ctx, photoKey(placeID, filename), photo)
}

func (s *service) DownloadPlacePhoto(ctx context.Context, principal *Principal, placeID uuid.UUID, filename string) (io.ReadCloser, error) {
	if err := s.checkPhotoAccess(ctx, principal, ActionRead, placeID); err != nil {
		return nil, err
	}
	return s.photoStore.Download(ctx, photoKey(placeID, filename))
}

func (s *service) DeletePlacePhoto(ctx context.Context, actor *Principal, placeID uuid.UUID, filename string) error {
	if err := s.checkPhotoAccess(ctx, actor, ActionEdit, placeID); err != nil {
		return err
	}
	return s.photoStore.Delete(ctx, photoKey(placeID, filename))
}

// checkPhotoAccess runs the shared preconditions of every photo operation:
// a configured store, a target that really is a place, and the access gate.
func (s *service) checkPhotoAccess(ctx context.Context, principal *Principal, action Action, placeID uuid.UUID) error {
	if s.photoStore == nil {
		return fmt.Errorf("no photo store configured")
	}
	item, err := s.repository.GetItem(ctx, placeID)
	if err != nil {
		return err
	}
	if !item.IsPlace() {
		return fmt.Errorf("%w: %s is not a place", ErrItemNotFound, placeID)
	}
	return s.Authorize(ctx, principal, action, placeID)
}

func photoKey(placeID uuid.UUID, filename string) string {
	return fmt.Sprintf("places/%s/%s", placeID, filename)
}

// Helpers

// loadWithParent loads an item and, for places, its parent journal.
func (s *service) loadWithParent(ctx context.Context, id uuid.UUID) (*Item, *Item, error) {
	item, err := s.repository.GetItem(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !item.IsPlace() {
		return item, nil, nil
	}
	parent, err := s.repository.GetItem(ctx, item.JournalID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading parent journal: %w", err)
	}
	return item, parent, nil
}

func (s *service) newEvent(item *Item, to ModerationStatus, actorID uuid.UUID, reason string) *ModerationEvent {
	return &ModerationEvent{
		ID:         uuid.New(),
		ItemID:     item.ID,
		FromStatus: item.ModerationStatus,
		ToStatus:   to,
		ActorID:    actorID,
		Reason:     reason,
		At:         s.clock.Now().UTC(),
	}
}

// appendEvent records a moderation event after its transition has been
// applied. The transition is already durable at this point, so a failed
// append is logged rather than rolled back.
func (s *service) appendEvent(ctx context.Context, event *ModerationEvent) {
	if err := s.repository.AppendModerationEvent(ctx, event); err != nil {
		slog.Error("failed to append moderation event", "item_id", event.ItemID, "error", err)
	}
}

func (s *service) fireSubmitted(ctx context.Context, item *Item) {
	if err := s.eventSink.ItemSubmitted(ctx, item); err != nil {
		slog.Warn("event sink failed for submission", "item_id", item.ID, "error", err)
	}
}

func (s *service) fireModerated(ctx context.Context, item *Item, event *ModerationEvent) {
	if err := s.eventSink.ItemModerated(ctx, item, event); err != nil {
		slog.Warn("event sink failed for moderation", "item_id", item.ID, "error", err)
	}
}

func (s *service) fireVisibilityChanged(ctx context.Context, item *Item) {
	if err := s.eventSink.VisibilityChanged(ctx, item); err != nil {
		slog.Warn("event sink failed for visibility change", "item_id", item.ID, "error", err)
	}
}
