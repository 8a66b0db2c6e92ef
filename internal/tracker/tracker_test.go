package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacesedan/subtrack/internal/models"
)

type fakeSource struct {
	posts      []models.RedditPost
	stats      map[string]models.PostStats
	statsErr   map[string]error
	listErr    error
	statsCalls []string
}

func (f *fakeSource) NewPosts(ctx context.Context, subreddit string, limit int) ([]models.RedditPost, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.posts, nil
}

func (f *fakeSource) PostStats(ctx context.Context, postID string) (models.PostStats, error) {
	f.statsCalls = append(f.statsCalls, postID)
	if err, ok := f.statsErr[postID]; ok {
		return models.PostStats{}, err
	}
	return f.stats[postID], nil
}

type snapshotWrite struct {
	rowIndex int
	day      int
	stats    models.PostStats
}

type fakeStore struct {
	ids       map[string]struct{}
	rows      []models.TrackedRow
	appended  []models.TrackedPost
	writes    []snapshotWrite
	statuses  map[int]string
	idsCalls  int
	appendErr error
	writeErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ids:      map[string]struct{}{},
		statuses: map[int]string{},
	}
}

func (f *fakeStore) EnsureHeader(ctx context.Context) error { return nil }

func (f *fakeStore) ExistingPostIDs(ctx context.Context) (map[string]struct{}, error) {
	f.idsCalls++
	return f.ids, nil
}

func (f *fakeStore) Append(ctx context.Context, post models.TrackedPost) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, post)
	f.ids[post.PostID] = struct{}{}
	return nil
}

func (f *fakeStore) All(ctx context.Context) ([]models.TrackedRow, error) {
	return f.rows, nil
}

func (f *fakeStore) WriteDaySnapshot(ctx context.Context, rowIndex, day int, stats models.PostStats, checkedAt time.Time) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, snapshotWrite{rowIndex: rowIndex, day: day, stats: stats})
	return nil
}

func (f *fakeStore) MarkStatus(ctx context.Context, rowIndex int, status string, checkedAt time.Time) error {
	f.statuses[rowIndex] = status
	return nil
}

type fakeSeen struct {
	seen map[string]bool
}

func (f *fakeSeen) IsPostSeen(ctx context.Context, subreddit, postID string) bool {
	return f.seen[postID]
}

func (f *fakeSeen) MarkPostSeen(ctx context.Context, subreddit, postID string) error {
	f.seen[postID] = true
	return nil
}

func testOptions() Options {
	return Options{
		Subreddit:    "golang",
		FetchLimit:   50,
		TrackDays:    7,
		StoreBody:    false,
		BodyMaxChars: 800,
	}
}

func listing(ids ...string) []models.RedditPost {
	posts := make([]models.RedditPost, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, models.RedditPost{
			PostID:    id,
			Title:     "title " + id,
			Author:    "author",
			Permalink: "https://www.reddit.com/r/golang/comments/" + id,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Score:     10,
		})
	}
	return posts
}

func trackedRow(index int, id string, inserted time.Time, days int) models.TrackedRow {
	return models.TrackedRow{
		Index: index,
		Post: models.TrackedPost{
			PostID:      id,
			InsertedUTC: inserted,
			Days:        make([]models.DaySnapshot, days),
			Status:      models.StatusActive,
		},
	}
}

func TestIngestAppendsOnlyUnseenPosts(t *testing.T) {
	source := &fakeSource{posts: listing("aaa", "bbb", "ccc")}
	store := newFakeStore()
	store.ids["bbb"] = struct{}{}

	tr := NewTracker(source, store, nil, testOptions())

	added, err := tr.Ingest(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Len(t, store.appended, 2)
	require.Equal(t, "aaa", store.appended[0].PostID)
	require.Equal(t, "ccc", store.appended[1].PostID)
}

func TestIngestOverlappingListingAddsNothing(t *testing.T) {
	source := &fakeSource{posts: listing("aaa", "bbb")}
	store := newFakeStore()
	tr := NewTracker(source, store, nil, testOptions())

	added, err := tr.Ingest(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, added)

	// Second run with the exact same listing.
	added, err = tr.Ingest(context.Background())
	require.NoError(t, err)
	require.Zero(t, added)
	require.Len(t, store.appended, 2)
}

func TestIngestSeenCacheSkipsSheetRead(t *testing.T) {
	source := &fakeSource{posts: listing("aaa", "bbb")}
	store := newFakeStore()
	seen := &fakeSeen{seen: map[string]bool{"aaa": true, "bbb": true}}
	tr := NewTracker(source, store, seen, testOptions())

	added, err := tr.Ingest(context.Background())
	require.NoError(t, err)
	require.Zero(t, added)
	require.Zero(t, store.idsCalls, "fully cached listing should not touch the sheet")
}

func TestIngestBackfillsCacheForSheetKnownPosts(t *testing.T) {
	source := &fakeSource{posts: listing("aaa")}
	store := newFakeStore()
	store.ids["aaa"] = struct{}{}
	seen := &fakeSeen{seen: map[string]bool{}}
	tr := NewTracker(source, store, seen, testOptions())

	added, err := tr.Ingest(context.Background())
	require.NoError(t, err)
	require.Zero(t, added)
	require.True(t, seen.seen["aaa"])
}

func TestIngestAbortsOnAppendError(t *testing.T) {
	source := &fakeSource{posts: listing("aaa", "bbb")}
	store := newFakeStore()
	store.appendErr = errors.New("quota exceeded")
	tr := NewTracker(source, store, nil, testOptions())

	added, err := tr.Ingest(context.Background())
	require.Error(t, err)
	require.Zero(t, added)
	require.Empty(t, store.appended)
}

func TestIngestBodyStoredOnlyWhenEnabled(t *testing.T) {
	posts := listing("aaa")
	posts[0].Selftext = "some long body text"
	opts := testOptions()
	opts.StoreBody = true
	opts.BodyMaxChars = 10

	store := newFakeStore()
	tr := NewTracker(&fakeSource{posts: posts}, store, nil, opts)

	_, err := tr.Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, store.appended, 1)
	body := store.appended[0].Body
	require.LessOrEqual(t, len([]rune(body)), 10)
	require.Equal(t, "some long…", body)
}

func TestSnapshotRespectsDayBoundary(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{stats: map[string]models.PostStats{
		"abc123": {Score: 42, NumComments: 7},
	}}
	store := newFakeStore()
	store.rows = []models.TrackedRow{trackedRow(2, "abc123", inserted, 7)}
	tr := NewTracker(source, store, nil, testOptions())

	// 23h elapsed: not a full day, nothing may be written.
	tr.now = func() time.Time { return inserted.Add(23 * time.Hour) }
	updated, done, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Zero(t, updated)
	require.Zero(t, done)
	require.Empty(t, store.writes)
	require.Empty(t, source.statsCalls)

	// 25h elapsed: day 1 gets filled.
	tr.now = func() time.Time { return inserted.Add(25 * time.Hour) }
	updated, _, err = tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, snapshotWrite{rowIndex: 2, day: 1, stats: models.PostStats{Score: 42, NumComments: 7}}, store.writes[0])
}

func TestSnapshotNeverOverwritesFilledDay(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	row := trackedRow(2, "abc123", inserted, 7)
	row.Post.Days[2] = models.DaySnapshot{Score: 5, Comments: 1, Filled: true}

	source := &fakeSource{stats: map[string]models.PostStats{"abc123": {Score: 99}}}
	store := newFakeStore()
	store.rows = []models.TrackedRow{row}
	tr := NewTracker(source, store, nil, testOptions())
	tr.now = func() time.Time { return inserted.Add(3*24*time.Hour + time.Hour) }

	updated, done, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Zero(t, updated)
	require.Zero(t, done)
	require.Empty(t, store.writes)
	require.Empty(t, source.statsCalls, "filled day must not trigger a fetch")
}

func TestSnapshotMarksDonePastWindow(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{}
	store := newFakeStore()
	store.rows = []models.TrackedRow{trackedRow(4, "abc123", inserted, 7)}
	tr := NewTracker(source, store, nil, testOptions())
	tr.now = func() time.Time { return inserted.Add(9 * 24 * time.Hour) }

	updated, done, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Zero(t, updated)
	require.Equal(t, 1, done)
	require.Equal(t, models.StatusDone, store.statuses[4])
}

func TestSnapshotMarksDoneOnceFinalDayFilled(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	row := trackedRow(3, "abc123", inserted, 7)
	row.Post.Days[6] = models.DaySnapshot{Score: 12, Comments: 2, Filled: true}

	store := newFakeStore()
	store.rows = []models.TrackedRow{row}
	tr := NewTracker(&fakeSource{}, store, nil, testOptions())
	tr.now = func() time.Time { return inserted.Add(7*24*time.Hour + time.Hour) }

	_, done, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, done)
	require.Equal(t, models.StatusDone, store.statuses[3])
}

func TestSnapshotSkipsUnavailablePostAndContinues(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{
		stats:    map[string]models.PostStats{"good": {Score: 8, NumComments: 3}},
		statsErr: map[string]error{"gone": ErrPostUnavailable},
	}
	store := newFakeStore()
	store.rows = []models.TrackedRow{
		trackedRow(2, "gone", inserted, 7),
		trackedRow(3, "good", inserted, 7),
	}
	tr := NewTracker(source, store, nil, testOptions())
	tr.now = func() time.Time { return inserted.Add(25 * time.Hour) }

	updated, _, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, "error:unavailable", store.statuses[2])
	require.Equal(t, 3, store.writes[0].rowIndex)
}

func TestSnapshotRetriesErroredRowNextCycle(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	row := trackedRow(2, "flaky", inserted, 7)
	row.Post.Status = "error:fetch"

	source := &fakeSource{stats: map[string]models.PostStats{"flaky": {Score: 1}}}
	store := newFakeStore()
	store.rows = []models.TrackedRow{row}
	tr := NewTracker(source, store, nil, testOptions())
	tr.now = func() time.Time { return inserted.Add(2*24*time.Hour + time.Hour) }

	updated, _, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, 2, store.writes[0].day)
}

func TestSnapshotSkipsInertRows(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	row := trackedRow(2, "abc123", inserted, 7)
	row.Post.Status = models.StatusDone

	source := &fakeSource{}
	store := newFakeStore()
	store.rows = []models.TrackedRow{row}
	tr := NewTracker(source, store, nil, testOptions())
	tr.now = func() time.Time { return inserted.Add(3 * 24 * time.Hour) }

	updated, done, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Zero(t, updated)
	require.Zero(t, done)
	require.Empty(t, source.statsCalls)
}

func TestSnapshotAbortsOnStoreWriteError(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{stats: map[string]models.PostStats{"abc123": {Score: 1}}}
	store := newFakeStore()
	store.rows = []models.TrackedRow{trackedRow(2, "abc123", inserted, 7)}
	store.writeErr = errors.New("write failed")
	tr := NewTracker(source, store, nil, testOptions())
	tr.now = func() time.Time { return inserted.Add(25 * time.Hour) }

	_, _, err := tr.Snapshot(context.Background())
	require.Error(t, err)
}

func TestDaySlot(t *testing.T) {
	inserted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 0, daySlot(inserted, inserted.Add(23*time.Hour)))
	require.Equal(t, 1, daySlot(inserted, inserted.Add(24*time.Hour)))
	require.Equal(t, 1, daySlot(inserted, inserted.Add(47*time.Hour)))
	require.Equal(t, 7, daySlot(inserted, inserted.Add(7*24*time.Hour)))
	require.Equal(t, 0, daySlot(inserted, inserted.Add(-time.Hour)))
}

func TestShorten(t *testing.T) {
	require.Equal(t, "short", shorten("short", 10))
	require.Equal(t, "exactlyten", shorten("exactlyten", 10))
	require.Equal(t, "exactlyte…", shorten("exactlyten!", 10))
	require.Equal(t, "", shorten("anything", 0))
}
