package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/storage"
)

func newTestRepository(t *testing.T) (*FeedbackRepository, *Backend) {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo.(*FeedbackRepository), backend
}

func vote(user, wine string, kind core.FeedbackKind, ts time.Time) *core.Feedback {
	return &core.Feedback{UserId: user, WineId: wine, Kind: kind, Timestamp: ts}
}

func TestAddFeedback(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	added, err := repo.AddFeedback(ctx,
		vote("u1", "42", core.FeedbackLike, now.Add(-time.Minute)),
		vote("u2", "42", core.FeedbackDislike, now),
	)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotZero(t, added[0].Id)
	assert.NotEqual(t, added[0].Id, added[1].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := repo.GetFeedback(ctx, added[1].Id)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.UserId)
	assert.Equal(t, core.FeedbackDislike, got.Kind)
}

func TestAddFeedback_DefaultsTimestamp(t *testing.T) {
	repo, _ := newTestRepository(t)

	added, err := repo.AddFeedback(context.Background(), &core.Feedback{UserId: "u", WineId: "1", Kind: core.FeedbackLike})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), added[0].Timestamp, 5*time.Second)
}

func TestAddFeedback_ValidationRejectsBatch(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		record *core.Feedback
		target error
	}{
		{"nil record", nil, core.ErrInvalidFeedback},
		{"blank user", vote(" ", "1", core.FeedbackLike, time.Time{}), core.ErrEmptyUserID},
		{"blank wine", vote("u", "", core.FeedbackLike, time.Time{}), core.ErrEmptyWineID},
		{"unknown kind", vote("u", "1", "meh", time.Time{}), core.ErrInvalidFeedbackKind},
		{"future timestamp", vote("u", "1", core.FeedbackLike, time.Now().Add(time.Hour)), core.ErrInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.AddFeedback(ctx, vote("ok", "1", core.FeedbackLike, time.Time{}), tt.record)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	all, err := repo.ListFeedback(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all, "a rejected batch stores nothing")
}

func TestGetFeedback_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.GetFeedback(context.Background(), core.ID(999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListFeedback_NewestFirst(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	// Inserted out of chronological order
	_, err := repo.AddFeedback(ctx,
		vote("u", "b", core.FeedbackLike, base.Add(2*time.Minute)),
		vote("u", "a", core.FeedbackLike, base),
		vote("u", "c", core.FeedbackLike, base.Add(3*time.Minute)),
	)
	require.NoError(t, err)

	all, err := repo.ListFeedback(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].WineId, all[1].WineId, all[2].WineId})

	limited, err := repo.ListFeedback(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "c", limited[0].WineId)
}

func TestGetFeedbackByDateRange(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.AddFeedback(ctx,
		vote("u", "old", core.FeedbackLike, now.Add(-2*time.Hour)),
		vote("u", "mid", core.FeedbackLike, now.Add(-1*time.Hour)),
		vote("u", "new", core.FeedbackLike, now),
	)
	require.NoError(t, err)

	got, err := repo.GetFeedbackByDateRange(ctx, now.Add(-90*time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mid", got[0].WineId)
	assert.Equal(t, "new", got[1].WineId)

	_, err = repo.GetFeedbackByDateRange(ctx, now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestAggregateFeedback(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	empty, err := repo.AggregateFeedback(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = repo.AddFeedback(ctx,
		vote("u1", "A", core.FeedbackDislike, time.Time{}),
		vote("u2", "A", core.FeedbackDislike, time.Time{}),
		vote("u1", "B", core.FeedbackLike, time.Time{}),
	)
	require.NoError(t, err)
	_, err = repo.AddFeedback(ctx, vote("u3", "B", core.FeedbackLike, time.Time{}))
	require.NoError(t, err)

	counts, err := repo.AggregateFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.FeedbackCount{
		"A": {Likes: 0, Dislikes: 2},
		"B": {Likes: 2, Dislikes: 0},
	}, counts)

	rows, err := repo.AggregateList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.WineFeedback{
		{WineId: "A", FeedbackCount: core.FeedbackCount{Dislikes: 2}},
		{WineId: "B", FeedbackCount: core.FeedbackCount{Likes: 2}},
	}, rows)
}

func TestAggregateFeedback_Cancelled(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.AddFeedback(context.Background(), vote("u", "A", core.FeedbackLike, time.Time{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.AggregateFeedback(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddFeedback_ConcurrentWritersKeepCountsExact(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	const writers = 4
	const perWriter = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				kind := core.FeedbackLike
				if i%2 == 1 {
					kind = core.FeedbackDislike
				}
				_, err := repo.AddFeedback(ctx, vote(fmt.Sprintf("u%d", w), "hot", kind, time.Time{}))
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	counts, err := repo.AggregateFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.FeedbackCount{Likes: 20, Dislikes: 20}, counts["hot"])
}

func TestRebuildAggregates(t *testing.T) {
	repo, backend := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddFeedback(ctx,
		vote("u1", "A", core.FeedbackLike, time.Time{}),
		vote("u2", "A", core.FeedbackLike, time.Time{}),
		vote("u1", "B", core.FeedbackDislike, time.Time{}),
	)
	require.NoError(t, err)

	// Corrupt one counter and plant a stale one
	require.NoError(t, backend.Update(ctx, func(tx *badger.Txn) error {
		if err := tx.Set(makeAggregateKey("A"), storage.MarshalCount(core.FeedbackCount{Likes: 99})); err != nil {
			return err
		}
		return tx.Set(makeAggregateKey("ghost"), storage.MarshalCount(core.FeedbackCount{Dislikes: 7}))
	}))

	wines, err := repo.RebuildAggregates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, wines)

	counts, err := repo.AggregateFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.FeedbackCount{
		"A": {Likes: 2},
		"B": {Dislikes: 1},
	}, counts)
}

func TestFeedbackRepository_IDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	open := func() (*FeedbackRepository, *Backend) {
		backend, err := OpenBackend(dir, false, nil)
		require.NoError(t, err)
		repo, err := NewFeedbackRepository(backend)
		require.NoError(t, err)
		return repo, backend
	}

	repo, backend := open()
	first, err := repo.AddFeedback(ctx, vote("u", "A", core.FeedbackLike, time.Time{}))
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())

	repo, backend = open()
	defer func() { repo.Close(); backend.Close() }()
	second, err := repo.AddFeedback(ctx, vote("u", "A", core.FeedbackLike, time.Time{}))
	require.NoError(t, err)
	assert.Greater(t, second[0].Id, first[0].Id)

	counts, err := repo.AggregateFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["A"].Likes)
}
