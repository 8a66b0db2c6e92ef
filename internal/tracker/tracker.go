// Package tracker holds the two stages of the subreddit tracker: ingesting
// newly listed posts into the sheet and filling in day-N score/comment
// snapshots for posts already on it.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/spacesedan/subtrack/internal/models"
)

// ErrPostUnavailable marks a post that was deleted or is otherwise
// inaccessible upstream. The snapshot stage skips such posts instead of
// failing the batch.
var ErrPostUnavailable = errors.New("post unavailable")

// Source is the read-only content API surface the stages need.
type Source interface {
	NewPosts(ctx context.Context, subreddit string, limit int) ([]models.RedditPost, error)
	PostStats(ctx context.Context, postID string) (models.PostStats, error)
}

// Store is the spreadsheet viewed as a post_id-keyed table of TrackedPosts.
type Store interface {
	EnsureHeader(ctx context.Context) error
	ExistingPostIDs(ctx context.Context) (map[string]struct{}, error)
	Append(ctx context.Context, post models.TrackedPost) error
	All(ctx context.Context) ([]models.TrackedRow, error)
	WriteDaySnapshot(ctx context.Context, rowIndex, day int, stats models.PostStats, checkedAt time.Time) error
	MarkStatus(ctx context.Context, rowIndex int, status string, checkedAt time.Time) error
}

// SeenCache is an optional fast path for the ingest dedup check. Correctness
// never depends on it; the sheet's id column is the source of truth.
type SeenCache interface {
	IsPostSeen(ctx context.Context, subreddit, postID string) bool
	MarkPostSeen(ctx context.Context, subreddit, postID string) error
}

type Options struct {
	Subreddit    string
	FetchLimit   int
	TrackDays    int
	StoreBody    bool
	BodyMaxChars int
}

type Tracker struct {
	source Source
	store  Store
	seen   SeenCache
	opts   Options
	now    func() time.Time
}

// NewTracker wires the stages to their collaborators. seen may be nil.
func NewTracker(source Source, store Store, seen SeenCache, opts Options) *Tracker {
	return &Tracker{
		source: source,
		store:  store,
		seen:   seen,
		opts:   opts,
		now:    time.Now,
	}
}

// daySlot returns how many whole days have elapsed since the post was
// inserted. Whole-day elapsed time, not calendar dates, so each post's
// observations stay evenly spaced regardless of its insertion time of day.
func daySlot(inserted, now time.Time) int {
	elapsed := now.Sub(inserted)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// shorten truncates text to at most max characters, ending with an ellipsis
// when it had to cut.
func shorten(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max < 1 {
		return ""
	}
	return string(runes[:max-1]) + "…"
}
