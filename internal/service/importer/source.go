package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source yields a header row and the data rows beneath it.
type Source interface {
	Name() string
	Read(ctx context.Context) (header []string, rows [][]string, err error)
}

// ErrEmptySource is returned when a source has no header row.
var ErrEmptySource = errors.New("source has no rows")

// SourceForFile picks the CSV or XLSX reader from the file extension.
func SourceForFile(path, sheet string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVSource{Path: path}, nil
	case ".xlsx", ".xlsm":
		return XLSXSource{Path: path, Sheet: sheet}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidJob, filepath.Ext(path))
	}
}

// CSVSource reads a comma separated file whose first line is the header.
type CSVSource struct {
	Path string
}

func (s CSVSource) Name() string { return s.Path }

func (s CSVSource) Read(_ context.Context) ([]string, [][]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptySource
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv rows: %w", err)
	}
	return header, rows, nil
}

// XLSXSource reads a workbook sheet (the first one when Sheet is empty).
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) Name() string { return s.Path }

func (s XLSXSource) Read(_ context.Context) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, ErrEmptySource
		}
		sheet = sheets[0]
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(all) == 0 {
		return nil, nil, ErrEmptySource
	}
	return all[0], all[1:], nil
}

// RangeReader is the Google Sheets read the importer needs.
type RangeReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// SheetsSource reads a Google Sheets range whose first row is the header.
type SheetsSource struct {
	Reader RangeReader
	Range  string
}

func (s SheetsSource) Name() string { return "sheets:" + s.Range }

func (s SheetsSource) Read(ctx context.Context) ([]string, [][]string, error) {
	if s.Reader == nil {
		return nil, nil, errors.New("google sheets is not configured")
	}
	values, err := s.Reader.ReadRange(ctx, s.Range)
	if err != nil {
		return nil, nil, err
	}
	if len(values) == 0 {
		return nil, nil, ErrEmptySource
	}

	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		rows = append(rows, stringify(raw))
	}
	return stringify(values[0]), rows, nil
}

func stringify(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = fmt.Sprint(c)
		}
	}
	return out
}
