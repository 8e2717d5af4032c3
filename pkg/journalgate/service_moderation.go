package journalgate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Moderation operations. Each transition is validated against the item's
// current state, applied in full or not at all, and written back with the
// version the item was read at. A concurrent moderator racing on the same
// item loses with ErrConflict instead of silently overwriting.

func (s *service) Approve(ctx context.Context, actor *Principal, itemID uuid.UUID) (*Item, error) {
	item, err := s.loadForModeration(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if !canApprove(item.ModerationStatus) {
		return nil, stateError(item, ModerationApproved)
	}

	expected := item.Version
	now := s.clock.Now().UTC()
	event := s.newEvent(item, ModerationApproved, actor.ID, "")

	item.ModerationStatus = ModerationApproved
	item.RejectionReason = ""
	item.ModeratedBy = &actor.ID
	item.ModeratedAt = &now
	item.UpdatedAt = now

	if err := s.repository.SaveItem(ctx, item, expected); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "approve", Err: err}
	}

	s.appendEvent(ctx, event)
	s.fireModerated(ctx, item, event)
	return item, nil
}

func (s *service) Reject(ctx context.Context, actor *Principal, itemID uuid.UUID, reason string) (*Item, error) {
	item, err := s.loadForModeration(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if !canReject(item.ModerationStatus) {
		return nil, stateError(item, ModerationRejected)
	}

	expected := item.Version
	now := s.clock.Now().UTC()
	event := s.newEvent(item, ModerationRejected, actor.ID, reason)
	wasPublic := item.IsPublic

	item.ModerationStatus = ModerationRejected
	item.RejectionReason = reason
	// Rejection revokes any public listing immediately. Safety invariant:
	// a public item is always an approved item.
	item.IsPublic = false
	item.ModeratedBy = &actor.ID
	item.ModeratedAt = &now
	item.UpdatedAt = now

	if err := s.repository.SaveItem(ctx, item, expected); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "reject", Err: err}
	}

	s.appendEvent(ctx, event)
	s.fireModerated(ctx, item, event)
	if wasPublic {
		s.fireVisibilityChanged(ctx, item)
	}
	return item, nil
}

func (s *service) Resubmit(ctx context.Context, actor *Principal, itemID uuid.UUID) (*Item, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return nil, err
	}

	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	// Resubmission belongs to the owner, not to moderators.
	if item.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: only the owner may resubmit", ErrForbidden)
	}
	if !canResubmit(item.ModerationStatus) {
		return nil, stateError(item, ModerationPending)
	}

	expected := item.Version
	now := s.clock.Now().UTC()
	event := s.newEvent(item, ModerationPending, actor.ID, "")

	item.ModerationStatus = ModerationPending
	item.RejectionReason = ""
	item.ModeratedBy = nil
	item.ModeratedAt = nil
	item.SubmittedAt = now
	item.UpdatedAt = now

	if err := s.repository.SaveItem(ctx, item, expected); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "resubmit", Err: err}
	}

	s.appendEvent(ctx, event)
	s.fireSubmitted(ctx, item)
	return item, nil
}

func (s *service) SetVisibility(ctx context.Context, actor *Principal, itemID uuid.UUID, public bool) (*Item, error) {
	item, parent, err := s.loadWithParent(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := CanToggleVisibility(item, parent, actor, public); err != nil {
		return nil, err
	}
	if item.IsPublic == public {
		return item, nil
	}

	expected := item.Version
	item.IsPublic = public
	item.UpdatedAt = s.clock.Now().UTC()

	if err := s.repository.SaveItem(ctx, item, expected); err != nil {
		return nil, &ItemError{ItemID: item.ID, Op: "set_visibility", Err: err}
	}

	s.fireVisibilityChanged(ctx, item)
	return item, nil
}

// ListPendingItems is the moderation queue: admin-only, oldest submission
// first so early submitters are never starved. Paging is best-effort; there
// is no isolation across pages while moderation continues.
func (s *service) ListPendingItems(ctx context.Context, actor *Principal, limit, offset int) ([]*Item, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repository.ListItems(ctx, ItemFilter{
		ModerationStatus:  ModerationPending,
		OrderBySubmission: true,
		Limit:             limit,
		Offset:            offset,
	})
}

func (s *service) ListModerationLog(ctx context.Context, actor *Principal, itemID uuid.UUID) ([]*ModerationEvent, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.repository.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repository.ListModerationEvents(ctx, itemID)
}

// loadForModeration runs the actor checks shared by approve and reject, then
// loads the item.
func (s *service) loadForModeration(ctx context.Context, actor *Principal, itemID uuid.UUID) (*Item, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repository.GetItem(ctx, itemID)
}

func (s *service) requireAdmin(actor *Principal) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
