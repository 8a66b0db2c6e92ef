package sheetstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/subtrack/internal/models"
)

// Timestamps are stored the way the sheet shows them, e.g. 2026-01-15T06:45:00Z.
const timeLayout = "2006-01-02T15:04:05Z"

// Fixed columns, 0-based. Day columns follow initial_comments, two per day,
// then last_checked_utc and status close the row.
const (
	colPostID = iota
	colSubreddit
	colTitle
	colAuthor
	colPermalink
	colCreatedUTC
	colInsertedUTC
	colIsSelf
	colBody
	colInitialScore
	colInitialComments
	fixedCols
)

type layout struct {
	trackDays int
}

func (l layout) dayScoreCol(day int) int    { return fixedCols + 2*(day-1) }
func (l layout) dayCommentsCol(day int) int { return fixedCols + 2*(day-1) + 1 }
func (l layout) lastCheckedCol() int        { return fixedCols + 2*l.trackDays }
func (l layout) statusCol() int             { return fixedCols + 2*l.trackDays + 1 }
func (l layout) width() int                 { return l.statusCol() + 1 }

func (l layout) header() []interface{} {
	header := []interface{}{
		"post_id",
		"subreddit",
		"title",
		"author",
		"permalink",
		"created_utc",
		"inserted_utc",
		"is_self",
		"body",
		"initial_score",
		"initial_comments",
	}
	for d := 1; d <= l.trackDays; d++ {
		header = append(header, fmt.Sprintf("day%d_score", d), fmt.Sprintf("day%d_comments", d))
	}
	return append(header, "last_checked_utc", "status")
}

func (l layout) encode(post models.TrackedPost) []interface{} {
	row := make([]interface{}, l.width())
	for i := range row {
		row[i] = ""
	}

	row[colPostID] = post.PostID
	row[colSubreddit] = post.Subreddit
	row[colTitle] = post.Title
	row[colAuthor] = post.Author
	row[colPermalink] = post.Permalink
	row[colCreatedUTC] = encodeTime(post.CreatedUTC)
	row[colInsertedUTC] = encodeTime(post.InsertedUTC)
	row[colIsSelf] = encodeBool(post.IsSelf)
	row[colBody] = post.Body
	row[colInitialScore] = strconv.Itoa(post.InitialScore)
	row[colInitialComments] = strconv.Itoa(post.InitialComments)

	for d := 1; d <= l.trackDays && d <= len(post.Days); d++ {
		if !post.Days[d-1].Filled {
			continue
		}
		row[l.dayScoreCol(d)] = strconv.Itoa(post.Days[d-1].Score)
		row[l.dayCommentsCol(d)] = strconv.Itoa(post.Days[d-1].Comments)
	}

	if !post.LastChecked.IsZero() {
		row[l.lastCheckedCol()] = encodeTime(post.LastChecked)
	}
	row[l.statusCol()] = post.Status
	return row
}

// decode rebuilds a TrackedPost from sheet cells. Rows written with a shorter
// day window than the current TRACK_DAYS simply read as unfilled later days.
func (l layout) decode(index int, cells []interface{}) (models.TrackedRow, error) {
	post := models.TrackedPost{
		PostID:    cellString(cells, colPostID),
		Subreddit: cellString(cells, colSubreddit),
		Title:     cellString(cells, colTitle),
		Author:    cellString(cells, colAuthor),
		Permalink: cellString(cells, colPermalink),
		IsSelf:    cellString(cells, colIsSelf) == "TRUE",
		Body:      cellString(cells, colBody),
		Status:    cellString(cells, l.statusCol()),
		Days:      make([]models.DaySnapshot, l.trackDays),
	}

	if post.PostID == "" {
		return models.TrackedRow{}, fmt.Errorf("row %d: empty post_id", index)
	}

	inserted := cellString(cells, colInsertedUTC)
	if inserted == "" {
		return models.TrackedRow{}, fmt.Errorf("row %d: empty inserted_utc", index)
	}
	insertedAt, err := time.Parse(timeLayout, inserted)
	if err != nil {
		return models.TrackedRow{}, fmt.Errorf("row %d: bad inserted_utc %q: %w", index, inserted, err)
	}
	post.InsertedUTC = insertedAt

	if created := cellString(cells, colCreatedUTC); created != "" {
		if createdAt, err := time.Parse(timeLayout, created); err == nil {
			post.CreatedUTC = createdAt
		}
	}
	if checked := cellString(cells, l.lastCheckedCol()); checked != "" {
		if checkedAt, err := time.Parse(timeLayout, checked); err == nil {
			post.LastChecked = checkedAt
		}
	}

	post.InitialScore = cellInt(cells, colInitialScore)
	post.InitialComments = cellInt(cells, colInitialComments)

	for d := 1; d <= l.trackDays; d++ {
		score := cellString(cells, l.dayScoreCol(d))
		comments := cellString(cells, l.dayCommentsCol(d))
		if score == "" || comments == "" {
			continue
		}
		post.Days[d-1] = models.DaySnapshot{
			Score:    cellInt(cells, l.dayScoreCol(d)),
			Comments: cellInt(cells, l.dayCommentsCol(d)),
			Filled:   true,
		}
	}

	return models.TrackedRow{Index: index, Post: post}, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encodeBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func cellString(cells []interface{}, idx int) string {
	if idx >= len(cells) || cells[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cells[idx]))
}

func cellInt(cells []interface{}, idx int) int {
	n, err := strconv.Atoi(cellString(cells, idx))
	if err != nil {
		return 0
	}
	return n
}

// colLetter converts a 0-based column index to its A1 letters (Z rolls over
// to AA, which a 7-day window's trailing columns need).
func colLetter(idx int) string {
	letters := ""
	for idx >= 0 {
		letters = string(rune('A'+idx%26)) + letters
		idx = idx/26 - 1
	}
	return letters
}
