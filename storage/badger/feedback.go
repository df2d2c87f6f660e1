package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/storage"
)

// FeedbackRepository implements storage.FeedbackRepository for BadgerDB.
type FeedbackRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.FeedbackRepository = (*FeedbackRepository)(nil)

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(backend *Backend) (*FeedbackRepository, error) {
	idSeq, err := backend.GetSequence(feedbackIDSeq)
	if err != nil {
		return nil, err
	}

	return &FeedbackRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *FeedbackRepository) Close() error {
	return r.idSeq.Release()
}

// AddFeedback validates and stores feedback records, updating the aggregate
// counter of each record's wine in the same transaction.
func (r *FeedbackRepository) AddFeedback(ctx context.Context, records ...*core.Feedback) ([]*core.Feedback, error) {
	now := time.Now().UTC()
	for _, fb := range records {
		if fb != nil && fb.Timestamp.IsZero() {
			fb.Timestamp = now
		}
		if err := core.ValidateFeedback(fb); err != nil {
			return nil, err
		}
	}
	if len(records) == 0 {
		return records, nil
	}

	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		for _, fb := range records {
			id, err := r.nextID()
			if err != nil {
				return err
			}
			fb.Id = id
			fb.InsertedAt = time.Now().UTC()

			value, err := storage.MarshalFeedback(fb)
			if err != nil {
				return err
			}
			if err := tx.Set(makeFeedbackKey(fb.Id), value); err != nil {
				return err
			}
			if err := tx.Set(makeFeedbackDateKey(fb.Timestamp, fb.Id), storage.MarshalID(fb.Id)); err != nil {
				return err
			}
			if err := incrementAggregate(tx, fb.WineId, fb.Kind); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// nextID returns the next non-zero sequence value.
func (r *FeedbackRepository) nextID() (core.ID, error) {
	next, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		if next, err = r.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

// GetFeedback retrieves a single feedback record by ID.
func (r *FeedbackRepository) GetFeedback(ctx context.Context, id core.ID) (*core.Feedback, error) {
	var result *core.Feedback
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readFeedback(tx, makeFeedbackKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListFeedback retrieves the most recent feedback records, newest first.
func (r *FeedbackRepository) ListFeedback(ctx context.Context, limit int) ([]*core.Feedback, error) {
	var results []*core.Feedback
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(feedbackDatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the newest possible key so the reverse scan starts at the end
		startKey := makePartialFeedbackDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			fb, err := r.followIndex(tx, iter.Item())
			if err != nil {
				return err
			}
			if fb != nil {
				results = append(results, fb)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetFeedbackByDateRange retrieves feedback within [start, end), ordered by timestamp.
func (r *FeedbackRepository) GetFeedbackByDateRange(ctx context.Context, start, end time.Time) ([]*core.Feedback, error) {
	if end.Before(start) {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.Feedback
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialFeedbackDateKey(start)
		endKey := makePartialFeedbackDateKey(end)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(feedbackDatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			if string(iter.Item().Key()) >= string(endKey) {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			fb, err := r.followIndex(tx, iter.Item())
			if err != nil {
				return err
			}
			if fb != nil {
				results = append(results, fb)
			}
		}
		return nil
	}, false)
	return results, err
}

// AggregateFeedback returns the tally of every wine with feedback.
func (r *FeedbackRepository) AggregateFeedback(ctx context.Context) (map[string]core.FeedbackCount, error) {
	counts := make(map[string]core.FeedbackCount)
	err := r.scanAggregates(ctx, func(wineID string, c core.FeedbackCount) {
		counts[wineID] = c
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// AggregateList returns the aggregate rows ordered by wine id.
func (r *FeedbackRepository) AggregateList(ctx context.Context) ([]core.WineFeedback, error) {
	rows := make([]core.WineFeedback, 0)
	err := r.scanAggregates(ctx, func(wineID string, c core.FeedbackCount) {
		rows = append(rows, core.WineFeedback{WineId: wineID, FeedbackCount: c})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// scanAggregates visits the counters in key order.
func (r *FeedbackRepository) scanAggregates(ctx context.Context, visit func(wineID string, c core.FeedbackCount)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(feedbackAggregatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			var count core.FeedbackCount
			if err := item.Value(func(val []byte) error {
				var err error
				count, err = storage.UnmarshalCount(val)
				return err
			}); err != nil {
				return err
			}
			visit(wineIDFromAggregateKey(item.Key()), count)
		}
		return nil
	}, false)
}

// RebuildAggregates replaces every counter with a tally of the raw records.
func (r *FeedbackRepository) RebuildAggregates(ctx context.Context) (int, error) {
	var wines int
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		stale, err := collectKeys(tx, feedbackAggregatePrefix)
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		tally, err := tallyRecords(ctx, tx)
		if err != nil {
			return err
		}
		for wineID, count := range tally {
			if err := tx.Set(makeAggregateKey(wineID), storage.MarshalCount(count)); err != nil {
				return err
			}
		}
		wines = len(tally)
		return nil
	})
	return wines, err
}

// Helper methods

// followIndex resolves a date index entry to its record.
func (r *FeedbackRepository) followIndex(tx *badger.Txn, item *badger.Item) (*core.Feedback, error) {
	var id core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	return readFeedback(tx, makeFeedbackKey(id))
}

// readFeedback reads a feedback record from the transaction.
// Returns nil, nil when the key does not exist.
func readFeedback(tx *badger.Txn, key []byte) (*core.Feedback, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var fb *core.Feedback
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		fb, unmarshalErr = storage.UnmarshalFeedback(val)
		return unmarshalErr
	})
	return fb, err
}

// incrementAggregate folds one vote into a wine's counter.
func incrementAggregate(tx *badger.Txn, wineID string, kind core.FeedbackKind) error {
	key := makeAggregateKey(wineID)
	var count core.FeedbackCount

	item, err := tx.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return err
	default:
		if err := item.Value(func(val []byte) error {
			var err error
			count, err = storage.UnmarshalCount(val)
			return err
		}); err != nil {
			return err
		}
	}

	count.Add(kind)
	return tx.Set(key, storage.MarshalCount(count))
}

// tallyRecords counts every raw record by wine. Unknown kinds are skipped.
func tallyRecords(ctx context.Context, tx *badger.Txn) (map[string]core.FeedbackCount, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(feedbackRecordPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	tally := make(map[string]core.FeedbackCount)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var fb *core.Feedback
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			fb, err = storage.UnmarshalFeedback(val)
			return err
		}); err != nil {
			return nil, err
		}
		if core.ValidateFeedbackKind(fb.Kind) != nil {
			continue
		}
		count := tally[fb.WineId]
		count.Add(fb.Kind)
		tally[fb.WineId] = count
	}
	return tally, nil
}

// collectKeys copies every key under prefix.
func collectKeys(tx *badger.Txn, prefix string) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
