package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
)

// Repository implements journalgate.Repository using in-memory storage.
// Saves are compare-and-swap on the item version, matching the contract the
// Postgres implementation enforces with a conditional UPDATE.
type Repository struct {
	mu         sync.RWMutex
	items      map[uuid.UUID]*journalgate.Item
	events     map[uuid.UUID][]*journalgate.ModerationEvent
	principals map[uuid.UUID]*journalgate.Principal
}

// New creates a new in-memory repository
func New() journalgate.Repository {
	return &Repository{
		items:      make(map[uuid.UUID]*journalgate.Item),
		events:     make(map[uuid.UUID][]*journalgate.ModerationEvent),
		principals: make(map[uuid.UUID]*journalgate.Principal),
	}
}

// Item operations

func (r *Repository) CreateItem(ctx context.Context, item *journalgate.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	itemCopy := *item
	if itemCopy.Version == 0 {
		itemCopy.Version = 1
	}
	r.items[item.ID] = &itemCopy

	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*journalgate.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists || item.DeletedAt != nil {
		return nil, journalgate.ErrItemNotFound
	}

	// Return a copy to prevent external modifications
	itemCopy := *item
	return &itemCopy, nil
}

func (r *Repository) SaveItem(ctx context.Context, item *journalgate.Item, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[item.ID]
	if !exists || stored.DeletedAt != nil {
		return journalgate.ErrItemNotFound
	}
	if stored.Version != expectedVersion {
		return journalgate.ErrConflict
	}

	itemCopy := *item
	itemCopy.Version = expectedVersion + 1
	r.items[item.ID] = &itemCopy

	// Reflect the new version back to the caller, like RETURNING does.
	item.Version = itemCopy.Version
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists || item.DeletedAt != nil {
		return journalgate.ErrItemNotFound
	}

	now := time.Now().UTC()
	item.DeletedAt = &now
	item.UpdatedAt = now
	item.Version++
	return nil
}

func (r *Repository) ListItems(ctx context.Context, filter journalgate.ItemFilter) ([]*journalgate.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*journalgate.Item
	for _, item := range r.items {
		if item.DeletedAt != nil {
			continue
		}
		if filter.Kind != "" && item.Kind != filter.Kind {
			continue
		}
		if filter.OwnerID != uuid.Nil && item.OwnerID != filter.OwnerID {
			continue
		}
		if filter.JournalID != uuid.Nil && item.JournalID != filter.JournalID {
			continue
		}
		if filter.ModerationStatus != "" && item.ModerationStatus != filter.ModerationStatus {
			continue
		}
		if filter.PublicOnly && !item.IsPublic {
			continue
		}
		itemCopy := *item
		result = append(result, &itemCopy)
	}

	if filter.OrderBySubmission {
		sort.Slice(result, func(i, j int) bool {
			return result[i].SubmittedAt.Before(result[j].SubmittedAt)
		})
	} else {
		sort.Slice(result, func(i, j int) bool {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		})
	}

	return page(result, filter.Limit, filter.Offset), nil
}

// Moderation log

func (r *Repository) AppendModerationEvent(ctx context.Context, event *journalgate.ModerationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	eventCopy := *event
	r.events[event.ItemID] = append(r.events[event.ItemID], &eventCopy)
	return nil
}

func (r *Repository) ListModerationEvents(ctx context.Context, itemID uuid.UUID) ([]*journalgate.ModerationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[itemID]
	result := make([]*journalgate.ModerationEvent, 0, len(events))
	for _, e := range events {
		eventCopy := *e
		result = append(result, &eventCopy)
	}
	return result, nil
}

// Principal operations

func (r *Repository) CreatePrincipal(ctx context.Context, p *journalgate.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	principalCopy := *p
	r.principals[p.ID] = &principalCopy
	return nil
}

func (r *Repository) GetPrincipal(ctx context.Context, id uuid.UUID) (*journalgate.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.principals[id]
	if !exists {
		return nil, journalgate.ErrPrincipalNotFound
	}
	principalCopy := *p
	return &principalCopy, nil
}

func (r *Repository) UpdatePrincipal(ctx context.Context, p *journalgate.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.principals[p.ID]; !exists {
		return journalgate.ErrPrincipalNotFound
	}
	principalCopy := *p
	r.principals[p.ID] = &principalCopy
	return nil
}

func page(items []*journalgate.Item, limit, offset int) []*journalgate.Item {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
