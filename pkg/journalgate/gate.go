package journalgate

import (
	"context"

	"github.com/google/uuid"
)

// Authorize is the single decision point for "may principal P perform action
// A on item I". Route guards and action handlers must both go through it so
// the two can never drift apart.
func (s *service) Authorize(ctx context.Context, principal *Principal, action Action, itemID uuid.UUID) error {
	item, parent, err := s.loadWithParent(ctx, itemID)
	if err != nil {
		return err
	}

	switch action {
	case ActionRead:
		if CanView(item, parent, principal) {
			return nil
		}
		return s.denyRead(principal, itemID)

	case ActionEdit, ActionDelete:
		if principal == nil {
			return &DenyError{Action: action, ItemID: itemID, Reason: ErrUnauthenticated}
		}
		if err := checkAccountWrite(principal); err != nil {
			return &DenyError{Action: action, ItemID: itemID, Reason: err}
		}
		if principal.ID == item.OwnerID || principal.IsAdmin() {
			return nil
		}
		return &DenyError{Action: action, ItemID: itemID, Reason: ErrForbidden, Detail: "not the owner"}

	case ActionApprove, ActionReject:
		if err := s.requireAdmin(principal); err != nil {
			return &DenyError{Action: action, ItemID: itemID, Reason: err}
		}
		return nil

	case ActionPublish, ActionUnpublish:
		if err := CanToggleVisibility(item, parent, principal, action == ActionPublish); err != nil {
			return &DenyError{Action: action, ItemID: itemID, Reason: err}
		}
		return nil

	default:
		return &DenyError{Action: action, ItemID: itemID, Reason: ErrForbidden, Detail: "unknown action"}
	}
}

// IsPubliclyListed decides whether an item appears in public catalogs and
// discovery feeds. Evaluated fresh on every call; listing state must never be
// cached past a moderation or visibility event.
func (s *service) IsPubliclyListed(ctx context.Context, itemID uuid.UUID) (bool, error) {
	item, parent, err := s.loadWithParent(ctx, itemID)
	if err != nil {
		return false, err
	}
	return PubliclyListed(item, parent), nil
}

// denyRead picks the read-denial reason: anonymous readers are asked to
// authenticate, blocked accounts get the distinct blocked code, everyone
// else a plain forbidden.
func (s *service) denyRead(principal *Principal, itemID uuid.UUID) error {
	reason := ErrForbidden
	switch {
	case principal == nil:
		reason = ErrUnauthenticated
	case principal.Status == AccountBlocked:
		reason = ErrAccountBlocked
	}
	return &DenyError{Action: ActionRead, ItemID: itemID, Reason: reason}
}
