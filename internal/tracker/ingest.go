package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/subtrack/internal/models"
)

// Ingest runs one poll cycle: fetch the subreddit's new listing and append a
// row for every post the sheet has not recorded yet. Safe to re-run with
// overlapping listings; the sheet's id column is consulted before any append.
// Any listing or store error aborts the cycle so no half-written state is
// left behind; the next scheduled poll picks the same posts up again.
func (t *Tracker) Ingest(ctx context.Context) (int, error) {
	posts, err := t.source.NewPosts(ctx, t.opts.Subreddit, t.opts.FetchLimit)
	if err != nil {
		return 0, fmt.Errorf("[Ingest] fetching listing for r/%s: %w", t.opts.Subreddit, err)
	}
	if len(posts) == 0 {
		slog.Info("[Ingest] Listing empty, nothing to do",
			slog.String("subreddit", t.opts.Subreddit))
		return 0, nil
	}

	candidates := t.filterCached(ctx, posts)
	if len(candidates) == 0 {
		slog.Info("[Ingest] All listed posts already seen",
			slog.Int("listed", len(posts)))
		return 0, nil
	}

	existing, err := t.store.ExistingPostIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("[Ingest] reading existing post ids: %w", err)
	}

	added := 0
	for _, post := range candidates {
		if _, ok := existing[post.PostID]; ok {
			// Already on the sheet but missing from the cache; backfill.
			t.markSeen(ctx, post.PostID)
			continue
		}

		if err := t.store.Append(ctx, t.newTrackedPost(post)); err != nil {
			return added, fmt.Errorf("[Ingest] appending post %s: %w", post.PostID, err)
		}
		t.markSeen(ctx, post.PostID)
		added++

		slog.Info("[Ingest] Recorded new post",
			slog.String("post_id", post.PostID),
			slog.String("title", shorten(post.Title, 80)))
	}

	slog.Info("[Ingest] Poll cycle complete",
		slog.Int("listed", len(posts)), slog.Int("added", added))
	return added, nil
}

// filterCached drops posts the cache already knows about. With no cache (or
// a cold one) every post passes through to the sheet lookup.
func (t *Tracker) filterCached(ctx context.Context, posts []models.RedditPost) []models.RedditPost {
	if t.seen == nil {
		return posts
	}
	candidates := make([]models.RedditPost, 0, len(posts))
	for _, post := range posts {
		if t.seen.IsPostSeen(ctx, t.opts.Subreddit, post.PostID) {
			continue
		}
		candidates = append(candidates, post)
	}
	return candidates
}

func (t *Tracker) markSeen(ctx context.Context, postID string) {
	if t.seen == nil {
		return
	}
	if err := t.seen.MarkPostSeen(ctx, t.opts.Subreddit, postID); err != nil {
		slog.Warn("[Ingest] Failed to mark post seen in cache",
			slog.String("post_id", postID),
			slog.String("error", err.Error()))
	}
}

func (t *Tracker) newTrackedPost(post models.RedditPost) models.TrackedPost {
	body := ""
	if t.opts.StoreBody {
		body = shorten(post.Selftext, t.opts.BodyMaxChars)
	}

	return models.TrackedPost{
		PostID:          post.PostID,
		Subreddit:       t.opts.Subreddit,
		Title:           post.Title,
		Author:          post.Author,
		Permalink:       post.Permalink,
		CreatedUTC:      post.CreatedAt,
		InsertedUTC:     t.now().UTC(),
		IsSelf:          post.IsSelf,
		Body:            body,
		InitialScore:    post.Score,
		InitialComments: post.NumComments,
		Days:            make([]models.DaySnapshot, t.opts.TrackDays),
		Status:          models.StatusActive,
	}
}
