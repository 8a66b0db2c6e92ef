// Package sheetstore treats one worksheet as a post_id-keyed table of
// TrackedPost rows: a header row, one row per post, day columns filled in as
// the observation window advances.
package sheetstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/subtrack/internal/models"
)

// SheetAPI is the slice of the spreadsheet service the store needs, in A1
// notation. Satisfied by clients.SheetsClient.
type SheetAPI interface {
	ReadRange(ctx context.Context, a1Range string) ([][]interface{}, error)
	AppendRow(ctx context.Context, a1Range string, row []interface{}) error
	UpdateCells(ctx context.Context, cells map[string]interface{}) error
}

type Store struct {
	api       SheetAPI
	worksheet string
	layout    layout
}

func New(api SheetAPI, worksheet string, trackDays int) *Store {
	return &Store{
		api:       api,
		worksheet: worksheet,
		layout:    layout{trackDays: trackDays},
	}
}

// EnsureHeader writes the header row iff the sheet is empty. Existing headers
// are left alone even if they describe a different day window.
func (s *Store) EnsureHeader(ctx context.Context) error {
	values, err := s.api.ReadRange(ctx, s.rangeRef("1:1"))
	if err != nil {
		return fmt.Errorf("[SheetStore] checking header: %w", err)
	}
	if len(values) > 0 && len(values[0]) > 0 {
		return nil
	}

	if err := s.api.AppendRow(ctx, s.rangeRef("A1"), s.layout.header()); err != nil {
		return fmt.Errorf("[SheetStore] writing header: %w", err)
	}
	slog.Info("[SheetStore] Header row written",
		slog.String("worksheet", s.worksheet),
		slog.Int("track_days", s.layout.trackDays))
	return nil
}

// ExistingPostIDs reads the id column into a lookup set so the ingest stage
// dedups in O(1) per post.
func (s *Store) ExistingPostIDs(ctx context.Context) (map[string]struct{}, error) {
	values, err := s.api.ReadRange(ctx, s.rangeRef("A2:A"))
	if err != nil {
		return nil, fmt.Errorf("[SheetStore] reading post ids: %w", err)
	}

	ids := make(map[string]struct{}, len(values))
	for _, row := range values {
		if id := cellString(row, 0); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// Append writes one complete TrackedPost row in a single call; there is no
// partially written state for a failed append to leave behind.
func (s *Store) Append(ctx context.Context, post models.TrackedPost) error {
	if err := s.api.AppendRow(ctx, s.rangeRef("A1"), s.layout.encode(post)); err != nil {
		return fmt.Errorf("[SheetStore] appending post %s: %w", post.PostID, err)
	}
	return nil
}

// All decodes every data row. Rows that cannot be decoded are logged and
// skipped rather than failing the batch; an operator may have edited them.
func (s *Store) All(ctx context.Context) ([]models.TrackedRow, error) {
	lastCol := colLetter(s.layout.width() - 1)
	values, err := s.api.ReadRange(ctx, s.rangeRef("A2:"+lastCol))
	if err != nil {
		return nil, fmt.Errorf("[SheetStore] reading rows: %w", err)
	}

	rows := make([]models.TrackedRow, 0, len(values))
	for i, cells := range values {
		row, err := s.layout.decode(i+2, cells)
		if err != nil {
			slog.Warn("[SheetStore] Skipping undecodable row",
				slog.String("error", err.Error()))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteDaySnapshot fills the two day-N cells of a row and refreshes
// last_checked_utc and status in the same batch.
func (s *Store) WriteDaySnapshot(ctx context.Context, rowIndex, day int, stats models.PostStats, checkedAt time.Time) error {
	if day < 1 || day > s.layout.trackDays {
		return fmt.Errorf("[SheetStore] day %d outside 1..%d", day, s.layout.trackDays)
	}

	cells := map[string]interface{}{
		s.cellRef(rowIndex, s.layout.dayScoreCol(day)):    fmt.Sprint(stats.Score),
		s.cellRef(rowIndex, s.layout.dayCommentsCol(day)): fmt.Sprint(stats.NumComments),
		s.cellRef(rowIndex, s.layout.lastCheckedCol()):    encodeTime(checkedAt),
		s.cellRef(rowIndex, s.layout.statusCol()):         models.StatusActive,
	}
	if err := s.api.UpdateCells(ctx, cells); err != nil {
		return fmt.Errorf("[SheetStore] writing day %d of row %d: %w", day, rowIndex, err)
	}
	return nil
}

// MarkStatus stamps a row's status and last_checked_utc columns only.
func (s *Store) MarkStatus(ctx context.Context, rowIndex int, status string, checkedAt time.Time) error {
	cells := map[string]interface{}{
		s.cellRef(rowIndex, s.layout.statusCol()):      status,
		s.cellRef(rowIndex, s.layout.lastCheckedCol()): encodeTime(checkedAt),
	}
	if err := s.api.UpdateCells(ctx, cells); err != nil {
		return fmt.Errorf("[SheetStore] marking row %d %q: %w", rowIndex, status, err)
	}
	return nil
}

func (s *Store) rangeRef(ref string) string {
	return fmt.Sprintf("'%s'!%s", s.worksheet, ref)
}

func (s *Store) cellRef(rowIndex, col int) string {
	return fmt.Sprintf("'%s'!%s%d", s.worksheet, colLetter(col), rowIndex)
}
