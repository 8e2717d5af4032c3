package journalgate

// Moderation lifecycle: pending is the initial state set at submission;
// approved and rejected are terminal for that submission. The only way out of
// a terminal state is back to pending, either through resubmit (owner,
// rejected only) or through an owner edit (which always requires fresh
// moderation).

// canApprove checks whether an item can be approved from its current status.
func canApprove(status ModerationStatus) bool {
	return status == ModerationPending
}

// canReject checks whether an item can be rejected from its current status.
func canReject(status ModerationStatus) bool {
	return status == ModerationPending
}

// canResubmit checks whether the owner can resubmit from the current status.
// Resubmission is only meaningful after a rejection.
func canResubmit(status ModerationStatus) bool {
	return status == ModerationRejected
}

// validStatus reports whether s is one of the known moderation states.
func validStatus(s ModerationStatus) bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	default:
		return false
	}
}

// stateError builds the transition error surfaced to callers, carrying both
// the current and the attempted state.
func stateError(item *Item, attempted ModerationStatus) error {
	return &StateError{ItemID: item.ID, Current: item.ModerationStatus, Attempted: attempted}
}
