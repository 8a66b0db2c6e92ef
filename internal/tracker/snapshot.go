package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/subtrack/internal/models"
)

// Snapshot runs one snapshot cycle: every active row whose elapsed time has
// crossed a day boundary it has not recorded yet gets its current
// score/comment count written into the matching day-N cells. One unreadable
// post never blocks the rest of the batch; a store write failure aborts the
// cycle.
func (t *Tracker) Snapshot(ctx context.Context) (updated, done int, err error) {
	rows, err := t.store.All(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("[Snapshot] reading tracked rows: %w", err)
	}
	if len(rows) == 0 {
		slog.Info("[Snapshot] No tracked posts yet")
		return 0, 0, nil
	}

	now := t.now().UTC()

	for _, row := range rows {
		if ctx.Err() != nil {
			return updated, done, ctx.Err()
		}
		if !row.Post.Active() {
			continue
		}

		slot := daySlot(row.Post.InsertedUTC, now)
		switch {
		case slot < 1:
			// Not a full day old yet.
			continue

		case slot > t.opts.TrackDays:
			if err := t.store.MarkStatus(ctx, row.Index, models.StatusDone, now); err != nil {
				return updated, done, fmt.Errorf("[Snapshot] marking row %d done: %w", row.Index, err)
			}
			done++
			continue
		}

		if row.Post.Days[slot-1].Filled {
			// Written once, never overwritten. The last slot being filled
			// means the observation window is complete.
			if slot == t.opts.TrackDays {
				if err := t.store.MarkStatus(ctx, row.Index, models.StatusDone, now); err != nil {
					return updated, done, fmt.Errorf("[Snapshot] marking row %d done: %w", row.Index, err)
				}
				done++
			}
			continue
		}

		stats, ferr := t.source.PostStats(ctx, row.Post.PostID)
		if ferr != nil {
			t.recordFetchFailure(ctx, row, ferr, now)
			continue
		}

		if err := t.store.WriteDaySnapshot(ctx, row.Index, slot, stats, now); err != nil {
			return updated, done, fmt.Errorf("[Snapshot] writing day %d for post %s: %w", slot, row.Post.PostID, err)
		}
		updated++

		slog.Info("[Snapshot] Recorded snapshot",
			slog.String("post_id", row.Post.PostID),
			slog.Int("day", slot),
			slog.Int("score", stats.Score),
			slog.Int("comments", stats.NumComments))
	}

	slog.Info("[Snapshot] Cycle complete",
		slog.Int("updated", updated), slog.Int("done", done))
	return updated, done, nil
}

// recordFetchFailure stamps the row's status with the failure kind and moves
// on. The day cells stay empty; a later cycle may still fill later days if
// the post becomes readable again.
func (t *Tracker) recordFetchFailure(ctx context.Context, row models.TrackedRow, ferr error, now time.Time) {
	kind := "fetch"
	if errors.Is(ferr, ErrPostUnavailable) {
		kind = "unavailable"
	}

	slog.Warn("[Snapshot] Skipping post this cycle",
		slog.String("post_id", row.Post.PostID),
		slog.String("reason", kind),
		slog.String("error", ferr.Error()))

	if err := t.store.MarkStatus(ctx, row.Index, "error:"+kind, now); err != nil {
		slog.Warn("[Snapshot] Failed to stamp row status",
			slog.Int("row", row.Index),
			slog.String("error", err.Error()))
	}
}
