package journalgate_test

import (
	"context"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
	"github.com/wanderlog/journal-gate/pkg/journalgate/repo/memory"
	blobmemory "github.com/wanderlog/journal-gate/pkg/journalgate/storage/memory"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc   journalgate.Service
	repo  journalgate.Repository
	clock *testClock
	owner *journalgate.Principal
	admin *journalgate.Principal
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()

	repo := memory.New()
	clock := newTestClock()

	svc, err := journalgate.New(
		journalgate.WithRepository(repo),
		journalgate.WithClock(clock),
		journalgate.WithEventSink(journalgate.NewNoopEventSink()),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	ctx := context.Background()
	owner, err := svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{})
	require.NoError(t, err)
	admin, err := svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{Role: journalgate.RoleAdmin})
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, clock: clock, owner: owner, admin: admin}
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []journalgate.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []journalgate.Option{},
			expectError: true,
		},
		{
			name: "with repository should succeed",
			options: []journalgate.Option{
				journalgate.WithRepository(memory.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := journalgate.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestModerationLifecycle(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	t.Run("new journal starts pending and private", func(t *testing.T) {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Camino"})
		require.NoError(t, err)
		assert.Equal(t, journalgate.ModerationPending, j.ModerationStatus)
		assert.False(t, j.IsPublic)
		assert.EqualValues(t, 1, j.Version)
	})

	t.Run("only admins approve", func(t *testing.T) {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Alps"})
		require.NoError(t, err)

		_, err = env.svc.Approve(ctx, env.owner, j.ID)
		assert.ErrorIs(t, err, journalgate.ErrForbidden)

		approved, err := env.svc.Approve(ctx, env.admin, j.ID)
		require.NoError(t, err)
		assert.Equal(t, journalgate.ModerationApproved, approved.ModerationStatus)
		require.NotNil(t, approved.ModeratedBy)
		assert.Equal(t, env.admin.ID, *approved.ModeratedBy)
		assert.NotNil(t, approved.ModeratedAt)
	})

	t.Run("approve then reject fails with InvalidState", func(t *testing.T) {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Andes"})
		require.NoError(t, err)

		_, err = env.svc.Approve(ctx, env.admin, j.ID)
		require.NoError(t, err)

		_, err = env.svc.Reject(ctx, env.admin, j.ID, "nope")
		assert.ErrorIs(t, err, journalgate.ErrInvalidState)

		var stateErr *journalgate.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, journalgate.ModerationApproved, stateErr.Current)
		assert.Equal(t, journalgate.ModerationRejected, stateErr.Attempted)
	})

	t.Run("reject stores the reason verbatim", func(t *testing.T) {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Urals"})
		require.NoError(t, err)

		rejected, err := env.svc.Reject(ctx, env.admin, j.ID, "  low quality photos\n")
		require.NoError(t, err)
		assert.Equal(t, journalgate.ModerationRejected, rejected.ModerationStatus)
		assert.Equal(t, "  low quality photos\n", rejected.RejectionReason)
	})

	t.Run("resubmit is owner-only and rejected-only", func(t *testing.T) {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Rockies"})
		require.NoError(t, err)

		_, err = env.svc.Resubmit(ctx, env.owner, j.ID)
		assert.ErrorIs(t, err, journalgate.ErrInvalidState, "pending items cannot be resubmitted")

		_, err = env.svc.Reject(ctx, env.admin, j.ID, "needs more detail")
		require.NoError(t, err)

		_, err = env.svc.Resubmit(ctx, env.admin, j.ID)
		assert.ErrorIs(t, err, journalgate.ErrForbidden, "admins do not resubmit for owners")

		resubmitted, err := env.svc.Resubmit(ctx, env.owner, j.ID)
		require.NoError(t, err)
		assert.Equal(t, journalgate.ModerationPending, resubmitted.ModerationStatus)
		assert.Empty(t, resubmitted.RejectionReason, "resubmit discards the previous reason")
		assert.Nil(t, resubmitted.ModeratedBy)
	})

	t.Run("rejecting a public item revokes the listing", func(t *testing.T) {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Baltics"})
		require.NoError(t, err)
		_, err = env.svc.Approve(ctx, env.admin, j.ID)
		require.NoError(t, err)
		_, err = env.svc.SetVisibility(ctx, env.owner, j.ID, true)
		require.NoError(t, err)

		// Owner edit resets to pending; moderation can then reject while the
		// item was never re-approved.
		title := "Baltic States"
		edited, err := env.svc.UpdateItem(ctx, env.owner, journalgate.UpdateItemRequest{ID: j.ID, Title: &title})
		require.NoError(t, err)
		assert.Equal(t, journalgate.ModerationPending, edited.ModerationStatus)
		assert.False(t, edited.IsPublic, "owner edit revokes public listing pending re-moderation")

		rejected, err := env.svc.Reject(ctx, env.admin, j.ID, "spam")
		require.NoError(t, err)
		assert.False(t, rejected.IsPublic)
	})

	t.Run("moderation log records every transition", func(t *testing.T) {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Pyrenees"})
		require.NoError(t, err)
		_, err = env.svc.Reject(ctx, env.admin, j.ID, "blurry")
		require.NoError(t, err)
		_, err = env.svc.Resubmit(ctx, env.owner, j.ID)
		require.NoError(t, err)
		_, err = env.svc.Approve(ctx, env.admin, j.ID)
		require.NoError(t, err)

		_, err = env.svc.ListModerationLog(ctx, env.owner, j.ID)
		assert.ErrorIs(t, err, journalgate.ErrForbidden)

		events, err := env.svc.ListModerationLog(ctx, env.admin, j.ID)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, journalgate.ModerationRejected, events[0].ToStatus)
		assert.Equal(t, "blurry", events[0].Reason)
		assert.Equal(t, journalgate.ModerationPending, events[1].ToStatus)
		assert.Equal(t, journalgate.ModerationApproved, events[2].ToStatus)
	})
}

func TestPublishChain(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	// Journal J created by user U: pending, private.
	journal, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Iceland"})
	require.NoError(t, err)

	// Publishing before approval fails.
	_, err = env.svc.SetVisibility(ctx, env.owner, journal.ID, true)
	assert.ErrorIs(t, err, journalgate.ErrNotApproved)

	// Admin approves, owner publishes.
	_, err = env.svc.Approve(ctx, env.admin, journal.ID)
	require.NoError(t, err)
	journal, err = env.svc.SetVisibility(ctx, env.owner, journal.ID, true)
	require.NoError(t, err)
	assert.True(t, journal.IsPublic)

	// Place P under J, pending: publish fails NotApproved.
	place, err := env.svc.CreatePlace(ctx, env.owner, journalgate.CreatePlaceRequest{
		JournalID: journal.ID,
		Title:     "Reykjavik",
	})
	require.NoError(t, err)
	_, err = env.svc.SetVisibility(ctx, env.owner, place.ID, true)
	assert.ErrorIs(t, err, journalgate.ErrNotApproved)

	// Admin approves P, owner publishes, P is listed.
	_, err = env.svc.Approve(ctx, env.admin, place.ID)
	require.NoError(t, err)
	place, err = env.svc.SetVisibility(ctx, env.owner, place.ID, true)
	require.NoError(t, err)
	assert.True(t, place.IsPublic)

	listed, err := env.svc.IsPubliclyListed(ctx, place.ID)
	require.NoError(t, err)
	assert.True(t, listed)

	// Unpublishing the journal hides the place at read time without
	// touching its stored flag.
	_, err = env.svc.SetVisibility(ctx, env.owner, journal.ID, false)
	require.NoError(t, err)

	listed, err = env.svc.IsPubliclyListed(ctx, place.ID)
	require.NoError(t, err)
	assert.False(t, listed)

	stored, err := env.svc.GetItem(ctx, env.owner, place.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPublic, "child flag is not cascaded in storage")
}

// replayRepository returns the same item snapshot for two consecutive reads,
// reproducing two moderators acting on the same read version.
type replayRepository struct {
	journalgate.Repository

	mu       sync.Mutex
	replayID uuid.UUID
	snapshot *journalgate.Item
}

func (r *replayRepository) GetItem(ctx context.Context, id uuid.UUID) (*journalgate.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == r.replayID {
		if r.snapshot != nil {
			item := *r.snapshot
			return &item, nil
		}
		item, err := r.Repository.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		snapshot := *item
		r.snapshot = &snapshot
		return item, nil
	}
	return r.Repository.GetItem(ctx, id)
}

func TestConcurrentModerationConflict(t *testing.T) {
	repo := memory.New()
	clock := newTestClock()

	ctx := context.Background()
	base, err := journalgate.New(journalgate.WithRepository(repo), journalgate.WithClock(clock))
	require.NoError(t, err)

	owner, err := base.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{})
	require.NoError(t, err)
	adminA, err := base.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{Role: journalgate.RoleAdmin})
	require.NoError(t, err)
	adminB, err := base.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{Role: journalgate.RoleAdmin})
	require.NoError(t, err)

	journal, err := base.CreateJournal(ctx, owner, journalgate.CreateJournalRequest{Title: "Contested"})
	require.NoError(t, err)

	// Both admins read the same version; the second write must lose.
	replay := &replayRepository{Repository: repo, replayID: journal.ID}
	svc, err := journalgate.New(journalgate.WithRepository(replay), journalgate.WithClock(clock))
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, adminA, journal.ID)
	require.NoError(t, err)
	assert.Equal(t, journal.Version+1, approved.Version)

	_, err = svc.Reject(ctx, adminB, journal.ID, "duplicate")
	assert.ErrorIs(t, err, journalgate.ErrConflict)

	// The stored state is the first writer's, not a silent overwrite.
	current, err := repo.GetItem(ctx, journal.ID)
	require.NoError(t, err)
	assert.Equal(t, journalgate.ModerationApproved, current.ModerationStatus)
}

func TestBlockedAndPendingAccounts(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	journal, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Private"})
	require.NoError(t, err)

	blocked, err := env.svc.SetAccountStatus(ctx, env.admin, env.owner.ID, journalgate.AccountBlocked)
	require.NoError(t, err)
	assert.Equal(t, journalgate.AccountBlocked, blocked.Status)

	t.Run("blocked owner cannot read their private item, with distinct reason", func(t *testing.T) {
		_, err := env.svc.GetItem(ctx, blocked, journal.ID)
		assert.ErrorIs(t, err, journalgate.ErrAccountBlocked)
		assert.NotErrorIs(t, err, journalgate.ErrForbidden)
	})

	t.Run("blocked owner cannot write", func(t *testing.T) {
		_, err := env.svc.CreateJournal(ctx, blocked, journalgate.CreateJournalRequest{Title: "More"})
		assert.ErrorIs(t, err, journalgate.ErrAccountBlocked)

		title := "Edited"
		_, err = env.svc.UpdateItem(ctx, blocked, journalgate.UpdateItemRequest{ID: journal.ID, Title: &title})
		assert.ErrorIs(t, err, journalgate.ErrAccountBlocked)
	})

	t.Run("blocked reader keeps public-catalog access", func(t *testing.T) {
		other, err := env.svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{})
		require.NoError(t, err)
		public, err := env.svc.CreateJournal(ctx, other, journalgate.CreateJournalRequest{Title: "Public"})
		require.NoError(t, err)
		_, err = env.svc.Approve(ctx, env.admin, public.ID)
		require.NoError(t, err)
		_, err = env.svc.SetVisibility(ctx, other, public.ID, true)
		require.NoError(t, err)

		got, err := env.svc.GetItem(ctx, blocked, public.ID)
		require.NoError(t, err)
		assert.Equal(t, public.ID, got.ID)
	})

	t.Run("pending account is denied writes with forbidden", func(t *testing.T) {
		pending, err := env.svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{Status: journalgate.AccountPending})
		require.NoError(t, err)

		_, err = env.svc.CreateJournal(ctx, pending, journalgate.CreateJournalRequest{Title: "Nope"})
		assert.ErrorIs(t, err, journalgate.ErrForbidden)
		assert.NotErrorIs(t, err, journalgate.ErrAccountBlocked)
	})

	t.Run("only admins manage accounts", func(t *testing.T) {
		other, err := env.svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{})
		require.NoError(t, err)
		_, err = env.svc.SetAccountStatus(ctx, other, env.owner.ID, journalgate.AccountActive)
		assert.ErrorIs(t, err, journalgate.ErrForbidden)
	})
}

func TestModerationQueueOrder(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, title := range []string{"first", "second", "third"} {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: title})
		require.NoError(t, err)
		ids = append(ids, j.ID)
		env.clock.Advance(time.Minute)
	}

	t.Run("queue requires admin", func(t *testing.T) {
		_, err := env.svc.ListPendingItems(ctx, env.owner, 0, 0)
		assert.ErrorIs(t, err, journalgate.ErrForbidden)
	})

	t.Run("oldest submission first", func(t *testing.T) {
		pending, err := env.svc.ListPendingItems(ctx, env.admin, 0, 0)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		assert.Equal(t, ids[0], pending[0].ID)
		assert.Equal(t, ids[2], pending[2].ID)
	})

	t.Run("paging walks the same order", func(t *testing.T) {
		page1, err := env.svc.ListPendingItems(ctx, env.admin, 2, 0)
		require.NoError(t, err)
		page2, err := env.svc.ListPendingItems(ctx, env.admin, 2, 2)
		require.NoError(t, err)
		require.Len(t, page1, 2)
		require.Len(t, page2, 1)
		assert.Equal(t, ids[2], page2[0].ID)
	})

	t.Run("resubmission goes to the back of the queue", func(t *testing.T) {
		_, err := env.svc.Reject(ctx, env.admin, ids[0], "redo")
		require.NoError(t, err)
		env.clock.Advance(time.Minute)
		_, err = env.svc.Resubmit(ctx, env.owner, ids[0])
		require.NoError(t, err)

		pending, err := env.svc.ListPendingItems(ctx, env.admin, 0, 0)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		assert.Equal(t, ids[0], pending[2].ID)
	})
}

func TestListJournalPlacesVisitStatus(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	journal, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Walks"})
	require.NoError(t, err)

	today := env.clock.Now()
	past := today.AddDate(0, 0, -3)
	future := today.AddDate(0, 0, 3)

	visited, err := env.svc.CreatePlace(ctx, env.owner, journalgate.CreatePlaceRequest{
		JournalID: journal.ID, Title: "Old town",
		Visit: &journalgate.VisitWindow{DateVisited: &past},
	})
	require.NoError(t, err)
	planned, err := env.svc.CreatePlace(ctx, env.owner, journalgate.CreatePlaceRequest{
		JournalID: journal.ID, Title: "Castle",
		Visit: &journalgate.VisitWindow{PlannedStart: &future},
	})
	require.NoError(t, err)
	bare, err := env.svc.CreatePlace(ctx, env.owner, journalgate.CreatePlaceRequest{
		JournalID: journal.ID, Title: "Bridge",
	})
	require.NoError(t, err)

	views, err := env.svc.ListJournalPlaces(ctx, env.owner, journal.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byID := map[uuid.UUID]journalgate.VisitStatus{}
	for _, v := range views {
		byID[v.ID] = v.VisitStatus
	}
	assert.Equal(t, journalgate.VisitStatusVisited, byID[visited.ID])
	assert.Equal(t, journalgate.VisitStatusToVisit, byID[planned.ID])
	assert.Equal(t, journalgate.VisitStatusUnknown, byID[bare.ID])
}

// TestPublicImpliesApprovedInvariant drives random legal and illegal operation
// sequences and checks that a public item is always an approved item, and
// that a rejection reason only ever exists on a rejected item.
func TestPublicImpliesApprovedInvariant(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	journal, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Fuzzed"})
	require.NoError(t, err)
	place, err := env.svc.CreatePlace(ctx, env.owner, journalgate.CreatePlaceRequest{JournalID: journal.ID, Title: "Spot"})
	require.NoError(t, err)

	ids := []uuid.UUID{journal.ID, place.ID}
	title := "edited"
	ops := []func(id uuid.UUID) error{
		func(id uuid.UUID) error { _, err := env.svc.Approve(ctx, env.admin, id); return err },
		func(id uuid.UUID) error { _, err := env.svc.Reject(ctx, env.admin, id, "reason"); return err },
		func(id uuid.UUID) error { _, err := env.svc.Resubmit(ctx, env.owner, id); return err },
		func(id uuid.UUID) error { _, err := env.svc.SetVisibility(ctx, env.owner, id, true); return err },
		func(id uuid.UUID) error { _, err := env.svc.SetVisibility(ctx, env.owner, id, false); return err },
		func(id uuid.UUID) error {
			_, err := env.svc.UpdateItem(ctx, env.owner, journalgate.UpdateItemRequest{ID: id, Title: &title})
			return err
		},
	}

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		op := ops[rng.Intn(len(ops))]
		_ = op(id) // illegal transitions are expected to fail; state must stay consistent

		for _, checkID := range ids {
			item, err := env.svc.GetItem(ctx, env.admin, checkID)
			require.NoError(t, err)
			if item.IsPublic {
				assert.Equal(t, journalgate.ModerationApproved, item.ModerationStatus,
					"iteration %d: public item %s must be approved", i, checkID)
			}
			if item.RejectionReason != "" {
				assert.Equal(t, journalgate.ModerationRejected, item.ModerationStatus,
					"iteration %d: reason on non-rejected item %s", i, checkID)
			}
		}
	}
}

func TestListPublicJournalsPaging(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	// Approved-but-private journals must not consume catalog page slots.
	private, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "private"})
	require.NoError(t, err)
	_, err = env.svc.Approve(ctx, env.admin, private.ID)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)

	var publicIDs []uuid.UUID
	for _, title := range []string{"pub-a", "pub-b", "pub-c"} {
		j, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: title})
		require.NoError(t, err)
		_, err = env.svc.Approve(ctx, env.admin, j.ID)
		require.NoError(t, err)
		_, err = env.svc.SetVisibility(ctx, env.owner, j.ID, true)
		require.NoError(t, err)
		publicIDs = append(publicIDs, j.ID)
		env.clock.Advance(time.Minute)
	}

	t.Run("first page is full despite an older private journal", func(t *testing.T) {
		page, err := env.svc.ListPublicJournals(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, publicIDs[0], page[0].ID)
	})

	t.Run("offsets walk the public catalog only", func(t *testing.T) {
		page, err := env.svc.ListPublicJournals(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, publicIDs[1], page[0].ID)
		assert.Equal(t, publicIDs[2], page[1].ID)
	})

	t.Run("full listing excludes the private journal", func(t *testing.T) {
		all, err := env.svc.ListPublicJournals(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for _, j := range all {
			assert.NotEqual(t, private.ID, j.ID)
		}
	})
}

func TestPlacePhotos(t *testing.T) {
	repo := memory.New()
	clock := newTestClock()
	svc, err := journalgate.New(
		journalgate.WithRepository(repo),
		journalgate.WithClock(clock),
		journalgate.WithPhotoStore(blobmemory.New()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	owner, err := svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{})
	require.NoError(t, err)
	stranger, err := svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{})
	require.NoError(t, err)

	journal, err := svc.CreateJournal(ctx, owner, journalgate.CreateJournalRequest{Title: "Trip"})
	require.NoError(t, err)
	place, err := svc.CreatePlace(ctx, owner, journalgate.CreatePlaceRequest{JournalID: journal.ID, Title: "Spot"})
	require.NoError(t, err)

	t.Run("upload and download round-trip", func(t *testing.T) {
		err := svc.UploadPlacePhoto(ctx, owner, place.ID, "view.jpg", strings.NewReader("jpeg bytes"))
		require.NoError(t, err)

		photo, err := svc.DownloadPlacePhoto(ctx, owner, place.ID, "view.jpg")
		require.NoError(t, err)
		defer photo.Close()

		data, err := io.ReadAll(photo)
		require.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(data))

		url, err := svc.PlacePhotoDownloadURL(ctx, owner, place.ID, "view.jpg")
		require.NoError(t, err)
		assert.NotEmpty(t, url)
	})

	t.Run("journal ids are not photo targets", func(t *testing.T) {
		_, err := svc.PlacePhotoUploadURL(ctx, owner, journal.ID, "view.jpg")
		assert.ErrorIs(t, err, journalgate.ErrItemNotFound)

		err = svc.UploadPlacePhoto(ctx, owner, journal.ID, "view.jpg", strings.NewReader("x"))
		assert.ErrorIs(t, err, journalgate.ErrItemNotFound)

		_, err = svc.DownloadPlacePhoto(ctx, owner, journal.ID, "view.jpg")
		assert.ErrorIs(t, err, journalgate.ErrItemNotFound)

		err = svc.DeletePlacePhoto(ctx, owner, journal.ID, "view.jpg")
		assert.ErrorIs(t, err, journalgate.ErrItemNotFound)
	})

	t.Run("strangers cannot touch photos of a private place", func(t *testing.T) {
		err := svc.UploadPlacePhoto(ctx, stranger, place.ID, "sneak.jpg", strings.NewReader("x"))
		assert.ErrorIs(t, err, journalgate.ErrForbidden)

		_, err = svc.DownloadPlacePhoto(ctx, stranger, place.ID, "view.jpg")
		assert.ErrorIs(t, err, journalgate.ErrForbidden)

		err = svc.DeletePlacePhoto(ctx, stranger, place.ID, "view.jpg")
		assert.ErrorIs(t, err, journalgate.ErrForbidden)
	})

	t.Run("owner deletes the photo", func(t *testing.T) {
		require.NoError(t, svc.DeletePlacePhoto(ctx, owner, place.ID, "view.jpg"))

		_, err := svc.DownloadPlacePhoto(ctx, owner, place.ID, "view.jpg")
		assert.Error(t, err)
	})
}

func TestPlaceCreationRules(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	journal, err := env.svc.CreateJournal(ctx, env.owner, journalgate.CreateJournalRequest{Title: "Mine"})
	require.NoError(t, err)

	t.Run("places cannot be added to another user's journal", func(t *testing.T) {
		other, err := env.svc.RegisterPrincipal(ctx, journalgate.RegisterPrincipalRequest{})
		require.NoError(t, err)
		_, err = env.svc.CreatePlace(ctx, other, journalgate.CreatePlaceRequest{JournalID: journal.ID, Title: "Intruder"})
		assert.ErrorIs(t, err, journalgate.ErrForbidden)
	})

	t.Run("places cannot be parented to a place", func(t *testing.T) {
		place, err := env.svc.CreatePlace(ctx, env.owner, journalgate.CreatePlaceRequest{JournalID: journal.ID, Title: "Spot"})
		require.NoError(t, err)
		_, err = env.svc.CreatePlace(ctx, env.owner, journalgate.CreatePlaceRequest{JournalID: place.ID, Title: "Nested"})
		assert.ErrorIs(t, err, journalgate.ErrItemNotFound)
	})
}
