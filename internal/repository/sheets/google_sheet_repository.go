package sheets

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/dashpoultry/internal/config"
)

// Repository reads import ranges and appends report rows.
type Repository interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
	AppendRows(ctx context.Context, sheetRange string, header []string, rows ...[]interface{}) error
}

// GoogleSheetRepository implements Repository using the Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger

	mu     sync.Mutex
	headed map[string]bool
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("google sheets is not configured")
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}
	return newRepository(service, cfg.SpreadsheetID, logger), nil
}

func newRepository(service *sheetsapi.Service, spreadsheetID string, logger *zap.Logger) *GoogleSheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		headed:        make(map[string]bool),
	}
}

// AppendRows appends rows below the data already in sheetRange. When the range is still empty
// the header row goes in first.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, sheetRange string, header []string, rows ...[]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	values := rows
	if len(header) > 0 {
		empty, err := r.needsHeader(ctx, sheetRange)
		if err != nil {
			return err
		}
		if empty {
			head := make([]interface{}, len(header))
			for i, h := range header {
				head[i] = h
			}
			values = append([][]interface{}{head}, rows...)
		}
	}

	payload := &sheetsapi.ValueRange{Values: values}
	_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.mu.Lock()
	r.headed[sheetRange] = true
	r.mu.Unlock()
	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(values)))
	return nil
}

func (r *GoogleSheetRepository) needsHeader(ctx context.Context, sheetRange string) (bool, error) {
	r.mu.Lock()
	done := r.headed[sheetRange]
	r.mu.Unlock()
	if done {
		return false, nil
	}

	existing, err := r.ReadRange(ctx, sheetRange)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		r.mu.Lock()
		r.headed[sheetRange] = true
		r.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// ReadRange fetches a rectangular range as formatted strings, header row included.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("FORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range read from sheet", zap.String("range", sheetRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}
