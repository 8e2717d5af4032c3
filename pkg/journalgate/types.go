package journalgate

import (
	"time"

	"github.com/google/uuid"
)

// Role is the domain type for principal roles.
type Role string

// Role constants (typed).
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AccountStatus is the domain type for principal account states.
type AccountStatus string

// Account status constants (typed).
const (
	AccountActive  AccountStatus = "active"
	AccountBlocked AccountStatus = "blocked"
	AccountPending AccountStatus = "pending"
)

// Principal is the authenticated actor making a request.
type Principal struct {
	ID        uuid.UUID     `json:"id"`
	Role      Role          `json:"role"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// ModerationStatus is the domain type for the content moderation lifecycle.
type ModerationStatus string

// Moderation status constants (typed).
const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// ItemKind distinguishes the two moderatable content variants.
type ItemKind string

// Item kind constants (typed).
const (
	KindJournal ItemKind = "journal"
	KindPlace   ItemKind = "place"
)

// Action enumerates the operations the access gate can authorize.
type Action string

// Action constants (typed).
const (
	ActionRead      Action = "read"
	ActionEdit      Action = "edit"
	ActionDelete    Action = "delete"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionPublish   Action = "publish"
	ActionUnpublish Action = "unpublish"
)

// VisitStatus is the derived visited/to-visit classification of a place.
type VisitStatus string

// Visit status constants (typed).
const (
	VisitStatusVisited VisitStatus = "visited"
	VisitStatusToVisit VisitStatus = "to_visit"
	VisitStatusUnknown VisitStatus = "unknown"
)

// VisitWindow carries the scheduling fields of a place. The field set is a
// union of legacy and current schema generations: older records left dates
// only, newer records also write an explicit Status.
type VisitWindow struct {
	Status       VisitStatus `json:"status,omitempty"`
	PlannedStart *time.Time  `json:"planned_start,omitempty"`
	DateVisited  *time.Time  `json:"date_visited,omitempty"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
}

// Item is a moderatable content item: a journal, or a place inside a journal.
//
// Version is the optimistic-concurrency token: repositories bump it on every
// successful save and reject saves made against a stale version.
type Item struct {
	ID      uuid.UUID `json:"id"`
	Kind    ItemKind  `json:"kind"`
	OwnerID uuid.UUID `json:"owner_id"`

	// JournalID is the parent journal for places; uuid.Nil for journals.
	JournalID uuid.UUID `json:"journal_id,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	ModerationStatus ModerationStatus `json:"moderation_status"`
	IsPublic         bool             `json:"is_public"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	ModeratedBy      *uuid.UUID       `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time       `json:"moderated_at,omitempty"`

	// SubmittedAt orders the moderation queue (oldest submission first).
	// It is refreshed whenever the item re-enters pending.
	SubmittedAt time.Time `json:"submitted_at"`

	// Visit is set for places only.
	Visit *VisitWindow `json:"visit,omitempty"`

	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsPlace reports whether the item is a place (and therefore has a parent
// journal and a visit window).
func (i *Item) IsPlace() bool {
	return i.Kind == KindPlace
}

// ModerationEvent is one entry of the append-only moderation log.
type ModerationEvent struct {
	ID         uuid.UUID        `json:"id"`
	ItemID     uuid.UUID        `json:"item_id"`
	FromStatus ModerationStatus `json:"from_status"`
	ToStatus   ModerationStatus `json:"to_status"`
	ActorID    uuid.UUID        `json:"actor_id"`
	Reason     string           `json:"reason,omitempty"`
	At         time.Time        `json:"at"`
}
