package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements journalgate.Repository using PostgreSQL.
// Optimistic concurrency is done with a conditional UPDATE on the version
// column; a stale writer matches zero rows and gets ErrConflict.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) journalgate.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) journalgate.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "principal") {
				return fmt.Errorf("principal already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const itemColumns = `
        id, kind, owner_id, journal_id, title, description,
        moderation_status, is_public, rejection_reason, moderated_by, moderated_at,
        submitted_at, visit_status, planned_start, date_visited, start_date, end_date,
        version, created_at, updated_at`

// Item operations

func (r *Repository) CreateItem(ctx context.Context, item *journalgate.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	if item.Version == 0 {
		item.Version = 1
	}
	args := itemArgs(item)

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return r.handlePostgresError("create item", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*journalgate.Item, error) {
	query := `SELECT` + itemColumns + ` FROM items WHERE id = $1 AND deleted_at IS NULL`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, journalgate.ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *Repository) SaveItem(ctx context.Context, item *journalgate.Item, expectedVersion int64) error {
	query := `
		UPDATE items SET
			title = $2, description = $3, moderation_status = $4, is_public = $5,
			rejection_reason = $6, moderated_by = $7, moderated_at = $8,
			submitted_at = $9, visit_status = $10, planned_start = $11,
			date_visited = $12, start_date = $13, end_date = $14, updated_at = $15,
			version = version + 1
		WHERE id = $1 AND version = $16 AND deleted_at IS NULL`

	visit := visitFields(item)
	tag, err := r.db.Exec(ctx, query,
		item.ID, item.Title, item.Description, item.ModerationStatus, item.IsPublic,
		nullString(item.RejectionReason), item.ModeratedBy, item.ModeratedAt,
		item.SubmittedAt, visit.status, visit.plannedStart,
		visit.dateVisited, visit.startDate, visit.endDate, item.UpdatedAt,
		expectedVersion)
	if err != nil {
		return r.handlePostgresError("save item", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a stale version from a missing item.
		var exists bool
		err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1 AND deleted_at IS NULL)`,
			item.ID).Scan(&exists)
		if err != nil {
			return r.handlePostgresError("save item", err)
		}
		if !exists {
			return journalgate.ErrItemNotFound
		}
		return journalgate.ErrConflict
	}

	item.Version = expectedVersion + 1
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	// Soft delete: keep the row for the moderation log's sake
	query := `UPDATE items SET deleted_at = NOW(), version = version + 1 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return journalgate.ErrItemNotFound
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context, filter journalgate.ItemFilter) ([]*journalgate.Item, error) {
	var (
		conds = []string{"deleted_at IS NULL"}
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Kind != "" {
		add("kind = $%d", filter.Kind)
	}
	if filter.OwnerID != uuid.Nil {
		add("owner_id = $%d", filter.OwnerID)
	}
	if filter.JournalID != uuid.Nil {
		add("journal_id = $%d", filter.JournalID)
	}
	if filter.ModerationStatus != "" {
		add("moderation_status = $%d", filter.ModerationStatus)
	}
	if filter.PublicOnly {
		conds = append(conds, "is_public")
	}

	order := "created_at ASC"
	if filter.OrderBySubmission {
		order = "submitted_at ASC"
	}

	query := `SELECT` + itemColumns + ` FROM items WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY ` + order
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	defer rows.Close()

	var items []*journalgate.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Moderation log

func (r *Repository) AppendModerationEvent(ctx context.Context, event *journalgate.ModerationEvent) error {
	query := `
		INSERT INTO moderation_events (id, item_id, from_status, to_status, actor_id, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.ItemID, event.FromStatus, event.ToStatus,
		event.ActorID, nullString(event.Reason), event.At)
	if err != nil {
		return r.handlePostgresError("append moderation event", err)
	}
	return nil
}

func (r *Repository) ListModerationEvents(ctx context.Context, itemID uuid.UUID) ([]*journalgate.ModerationEvent, error) {
	query := `
		SELECT id, item_id, from_status, to_status, actor_id, reason, at
		FROM moderation_events WHERE item_id = $1 ORDER BY at ASC`

	rows, err := r.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, r.handlePostgresError("list moderation events", err)
	}
	defer rows.Close()

	var events []*journalgate.ModerationEvent
	for rows.Next() {
		var (
			event  journalgate.ModerationEvent
			reason *string
		)
		if err := rows.Scan(&event.ID, &event.ItemID, &event.FromStatus, &event.ToStatus,
			&event.ActorID, &reason, &event.At); err != nil {
			return nil, err
		}
		if reason != nil {
			event.Reason = *reason
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

// Principal operations

func (r *Repository) CreatePrincipal(ctx context.Context, p *journalgate.Principal) error {
	query := `
		INSERT INTO principals (id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Exec(ctx, query, p.ID, p.Role, p.Status, p.CreatedAt, p.UpdatedAt); err != nil {
		return r.handlePostgresError("create principal", err)
	}
	return nil
}

func (r *Repository) GetPrincipal(ctx context.Context, id uuid.UUID) (*journalgate.Principal, error) {
	query := `SELECT id, role, status, created_at, updated_at FROM principals WHERE id = $1`

	var p journalgate.Principal
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Role, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, journalgate.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) UpdatePrincipal(ctx context.Context, p *journalgate.Principal) error {
	query := `UPDATE principals SET role = $2, status = $3, updated_at = $4 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, p.ID, p.Role, p.Status, p.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update principal", err)
	}
	if tag.RowsAffected() == 0 {
		return journalgate.ErrPrincipalNotFound
	}
	return nil
}

// Scan helpers. The visit window is flattened into nullable columns; a place
// with no visit fields at all round-trips as a nil VisitWindow.

type visitColumns struct {
	status       *string
	plannedStart *time.Time
	dateVisited  *time.Time
	startDate    *time.Time
	endDate      *time.Time
}

func itemArgs(item *journalgate.Item) []interface{} {
	visit := visitFields(item)
	return []interface{}{
		item.ID, item.Kind, item.OwnerID, nullUUID(item.JournalID), item.Title, item.Description,
		item.ModerationStatus, item.IsPublic, nullString(item.RejectionReason),
		item.ModeratedBy, item.ModeratedAt, item.SubmittedAt,
		visit.status, visit.plannedStart, visit.dateVisited, visit.startDate, visit.endDate,
		item.Version, item.CreatedAt, item.UpdatedAt,
	}
}

func scanItem(row pgx.Row) (*journalgate.Item, error) {
	var (
		item            journalgate.Item
		journalID       *uuid.UUID
		rejectionReason *string
		visitStatus     *string
		plannedStart    *time.Time
		dateVisited     *time.Time
		startDate       *time.Time
		endDate         *time.Time
	)

	err := row.Scan(
		&item.ID, &item.Kind, &item.OwnerID, &journalID, &item.Title, &item.Description,
		&item.ModerationStatus, &item.IsPublic, &rejectionReason, &item.ModeratedBy, &item.ModeratedAt,
		&item.SubmittedAt, &visitStatus, &plannedStart, &dateVisited, &startDate, &endDate,
		&item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if journalID != nil {
		item.JournalID = *journalID
	}
	if rejectionReason != nil {
		item.RejectionReason = *rejectionReason
	}
	if visitStatus != nil || plannedStart != nil || dateVisited != nil || startDate != nil || endDate != nil {
		visit := &journalgate.VisitWindow{
			PlannedStart: plannedStart,
			DateVisited:  dateVisited,
			StartDate:    startDate,
			EndDate:      endDate,
		}
		if visitStatus != nil {
			visit.Status = journalgate.VisitStatus(*visitStatus)
		}
		item.Visit = visit
	}
	return &item, nil
}

func visitFields(item *journalgate.Item) visitColumns {
	var v visitColumns
	if item.Visit == nil {
		return v
	}
	if item.Visit.Status != "" {
		status := string(item.Visit.Status)
		v.status = &status
	}
	v.plannedStart = item.Visit.PlannedStart
	v.dateVisited = item.Visit.DateVisited
	v.startDate = item.Visit.StartDate
	v.endDate = item.Visit.EndDate
	return v
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
