package clients

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/spacesedan/subtrack/config"
)

var (
	sheetsClientInstance *SheetsClient
	sheetsClientOnce     sync.Once
	sheetsClientErr      error
)

// SheetsClient wraps the Google Sheets API for one spreadsheet. All values go
// over the wire RAW so the sheet never reinterprets what we write.
type SheetsClient struct {
	svc           *sheets.Service
	spreadsheetID string
}

func GetSheetsClient(ctx context.Context, cfg *config.Config) (*SheetsClient, error) {
	sheetsClientOnce.Do(func() {
		var opts []option.ClientOption
		if cfg.GoogleCredentialsJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
		} else {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		}
		opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))

		svc, err := sheets.NewService(ctx, opts...)
		if err != nil {
			sheetsClientErr = fmt.Errorf("[SheetsClient] Failed to create service: %w", err)
			return
		}

		slog.Info("[SheetsClient] Connected to spreadsheet",
			slog.String("spreadsheet_id", cfg.SpreadsheetID))

		sheetsClientInstance = &SheetsClient{
			svc:           svc,
			spreadsheetID: cfg.SpreadsheetID,
		}
	})

	return sheetsClientInstance, sheetsClientErr
}

// ReadRange returns the values in the given A1 range. An empty range yields
// a nil slice, not an error.
func (sc *SheetsClient) ReadRange(ctx context.Context, a1Range string) ([][]interface{}, error) {
	resp, err := sc.svc.Spreadsheets.Values.Get(sc.spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("[SheetsClient] Failed to read %s: %w", a1Range, err)
	}
	return resp.Values, nil
}

// AppendRow appends one row after the last row of the table at a1Range.
func (sc *SheetsClient) AppendRow(ctx context.Context, a1Range string, row []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := sc.svc.Spreadsheets.Values.Append(sc.spreadsheetID, a1Range, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("[SheetsClient] Failed to append row: %w", err)
	}
	return nil
}

// UpdateCells writes each A1-addressed cell in one batch request.
func (sc *SheetsClient) UpdateCells(ctx context.Context, cells map[string]interface{}) error {
	if len(cells) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(cells))
	for a1, value := range cells {
		data = append(data, &sheets.ValueRange{
			Range:  a1,
			Values: [][]interface{}{{value}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}
	_, err := sc.svc.Spreadsheets.Values.BatchUpdate(sc.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("[SheetsClient] Failed to update cells: %w", err)
	}
	return nil
}
