package journalgate

import "fmt"

// Visibility rules. Moderation and publishing are separate powers: admins
// moderate, owners publish. A place is publicly listed only while the whole
// chain (place AND parent journal) is public and approved; the chain is
// evaluated at read time rather than cascaded into storage on journal
// unpublish.

// PubliclyListed reports whether an item belongs to the public catalog.
// parent is the item's parent journal; pass nil for journals. This is the
// single source of truth for public listing and must be re-evaluated on every
// read.
func PubliclyListed(item *Item, parent *Item) bool {
	if item == nil || item.DeletedAt != nil {
		return false
	}
	if !item.IsPublic || item.ModerationStatus != ModerationApproved {
		return false
	}
	if item.IsPlace() {
		return PubliclyListed(parent, nil)
	}
	return true
}

// CanView reports whether a principal may read an item. Owners and admins
// always see their items; everyone else only sees the public catalog. A nil
// principal is an anonymous reader.
func CanView(item *Item, parent *Item, p *Principal) bool {
	if item == nil || item.DeletedAt != nil {
		return false
	}
	if p != nil {
		if p.Status == AccountBlocked {
			// Blocked accounts keep public-catalog reads only.
			return PubliclyListed(item, parent)
		}
		if p.ID == item.OwnerID || p.IsAdmin() {
			return true
		}
	}
	return PubliclyListed(item, parent)
}

// CanToggleVisibility decides whether actor may set item.IsPublic to
// desiredPublic. parent is the place's parent journal (nil for journals).
// The returned error is nil when the toggle is allowed.
func CanToggleVisibility(item *Item, parent *Item, actor *Principal, desiredPublic bool) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if err := checkAccountWrite(actor); err != nil {
		return err
	}
	// Moderation is not publishing: only the owner flips the flag.
	if actor.ID != item.OwnerID {
		return fmt.Errorf("%w: only the owner may change visibility", ErrForbidden)
	}
	if !desiredPublic {
		// Owners may always retract from public view.
		return nil
	}
	if item.ModerationStatus != ModerationApproved {
		return fmt.Errorf("%w: item is %s", ErrNotApproved, item.ModerationStatus)
	}
	if item.IsPlace() {
		if parent == nil {
			return fmt.Errorf("%w: parent journal not found", ErrItemNotFound)
		}
		if !parent.IsPublic || parent.ModerationStatus != ModerationApproved {
			return fmt.Errorf("%w: parent journal is not public", ErrNotApproved)
		}
	}
	return nil
}

// checkAccountWrite is the account-status precheck applied before any write
// action. Blocked accounts are denied with the distinct blocked reason;
// accounts still pending activation cannot write either.
func checkAccountWrite(p *Principal) error {
	switch p.Status {
	case AccountBlocked:
		return ErrAccountBlocked
	case AccountPending:
		return fmt.Errorf("%w: account pending activation", ErrForbidden)
	default:
		return nil
	}
}
