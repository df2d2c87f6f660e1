package storage

import (
	"context"
	"time"

	"github.com/poiesic/sommelier/core"
)

// FeedbackRepository stores user feedback and serves per-wine aggregates.
// Implementations must be thread-safe and support concurrent access.
type FeedbackRepository interface {
	// AddFeedback validates and stores one or more feedback records.
	// A zero Timestamp is set to the current time. IDs are generated from a
	// sequence and InsertedAt is set. The aggregate counter of each record's
	// wine is updated in the same transaction.
	// Returns the records with generated IDs and timestamps populated.
	// Nothing is stored if any record fails validation.
	AddFeedback(ctx context.Context, records ...*core.Feedback) ([]*core.Feedback, error)

	// GetFeedback retrieves a single feedback record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetFeedback(ctx context.Context, id core.ID) (*core.Feedback, error)

	// ListFeedback retrieves the most recent feedback records, newest first.
	// A limit <= 0 returns every record.
	ListFeedback(ctx context.Context, limit int) ([]*core.Feedback, error)

	// GetFeedbackByDateRange retrieves feedback where start <= Timestamp < end,
	// ordered by timestamp.
	GetFeedbackByDateRange(ctx context.Context, start, end time.Time) ([]*core.Feedback, error)

	// AggregateFeedback returns the like/dislike tally of every wine with
	// feedback, keyed by wine id.
	AggregateFeedback(ctx context.Context) (map[string]core.FeedbackCount, error)

	// AggregateList returns the aggregate rows ordered by wine id.
	AggregateList(ctx context.Context) ([]core.WineFeedback, error)

	// RebuildAggregates recomputes every aggregate counter from the raw
	// records and returns the number of wines with feedback.
	RebuildAggregates(ctx context.Context) (int, error)

	// Close releases resources held by the repository. The backend it was
	// created on is closed separately.
	Close() error
}
