package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/domain/validation"
)

// ErrDuplicateKey marks a row whose batch or worker id already exists.
var ErrDuplicateKey = errors.New("record already exists")

const maxReportedErrors = 20

// Store is the persistence the worker inserts into.
type Store interface {
	CreateBatch(ctx context.Context, b models.Batch) error
	BatchExists(ctx context.Context, id string) (bool, error)
	AddFeedWater(ctx context.Context, e models.FeedWaterEntry) error
	AddVaccination(ctx context.Context, v models.VaccinationRecord) error
	AddMortality(ctx context.Context, m models.MortalityRecord) error
	CreateWorker(ctx context.Context, w models.Worker) error
	WorkerExists(ctx context.Context, id string) (bool, error)
	AddExpense(ctx context.Context, e models.Expense) error
	AddRevenue(ctx context.Context, r models.Revenue) error
}

// Progress is one status message from a running import.
type Progress struct {
	Percent int    `json:"percent"`
	Status  string `json:"status"`
	Done    bool   `json:"done"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Result  Result `json:"result"`
}

// Result counts what happened to the rows of a job.
type Result struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Worker reads a source and inserts its rows one commit at a time.
type Worker struct {
	store     Store
	validator *validation.Validator
	logger    *zap.Logger
}

func NewWorker(store Store, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{store: store, validator: validation.New(), logger: logger}
}

// Run executes job and reports on updates, ending with a Done message. updates may be nil.
func (w *Worker) Run(ctx context.Context, job Job, updates chan<- Progress) Result {
	send := func(p Progress) {
		if updates != nil {
			updates <- p
		}
	}
	fail := func(err error, result Result) Result {
		w.logger.Error("import failed", zap.String("table", string(job.Table)), zap.Error(err))
		send(Progress{Percent: 100, Status: "Failed", Done: true, Message: fmt.Sprintf("Import failed: %v", err), Result: result})
		return result
	}

	if err := job.Validate(); err != nil {
		return fail(err, Result{})
	}

	send(Progress{Percent: 10, Status: "Reading file..."})
	header, rows, err := job.Source.Read(ctx)
	if err != nil {
		return fail(fmt.Errorf("read %s: %w", job.Source.Name(), err), Result{})
	}

	send(Progress{Percent: 30, Status: "Processing data..."})
	records, err := mapRows(header, rows, job.Mapping)
	if err != nil {
		return fail(err, Result{})
	}

	send(Progress{Percent: 60, Status: "Importing to database..."})
	var result Result
	for i, rec := range records {
		// Header is line 1 of the source.
		line := i + 2
		err := w.insert(ctx, job, rec)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, ErrDuplicateKey) && job.SkipDuplicates:
			result.Skipped++
		default:
			result.Failed++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			}
			w.logger.Warn("import row rejected",
				zap.String("table", string(job.Table)),
				zap.Int("row", line),
				zap.Error(err),
			)
		}
	}

	w.logger.Info("import finished",
		zap.String("table", string(job.Table)),
		zap.String("source", job.Source.Name()),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	send(Progress{
		Percent: 100,
		Status:  "Completed",
		Done:    true,
		Success: true,
		Message: fmt.Sprintf("Import completed: %d records imported, %d errors", result.Imported, result.Failed),
		Result:  result,
	})
	return result
}

func mapRows(header []string, rows [][]string, mapping map[string]string) ([]record, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	columns := make(map[string]int, len(mapping))
	for field, column := range mapping {
		i, ok := index[strings.TrimSpace(column)]
		if !ok {
			return nil, fmt.Errorf("column %q mapped to %s is not in the source", column, field)
		}
		columns[field] = i
	}

	records := make([]record, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		rec := make(record, len(columns))
		for field, i := range columns {
			if i < len(row) {
				rec[field] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (w *Worker) insert(ctx context.Context, job Job, rec record) error {
	switch job.Table {
	case TableBatches:
		b, err := decodeBatch(rec)
		if err := w.check(b, err); err != nil {
			return err
		}
		exists, err := w.store.BatchExists(ctx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: batch %s", ErrDuplicateKey, b.ID)
		}
		return w.store.CreateBatch(ctx, b)
	case TableFeedWater:
		e, err := decodeFeedWater(rec)
		if err := w.check(e, err); err != nil {
			return err
		}
		return w.store.AddFeedWater(ctx, e)
	case TableVaccinations:
		v, err := decodeVaccination(rec)
		if err := w.check(v, err); err != nil {
			return err
		}
		return w.store.AddVaccination(ctx, v)
	case TableMortality:
		m, err := decodeMortality(rec)
		if err := w.check(m, err); err != nil {
			return err
		}
		return w.store.AddMortality(ctx, m)
	case TableWorkers:
		wk, err := decodeWorker(rec)
		if err := w.check(wk, err); err != nil {
			return err
		}
		exists, err := w.store.WorkerExists(ctx, wk.WorkerID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: worker %s", ErrDuplicateKey, wk.WorkerID)
		}
		return w.store.CreateWorker(ctx, wk)
	case TableExpenses:
		e, err := decodeExpense(rec)
		if err := w.check(e, err); err != nil {
			return err
		}
		return w.store.AddExpense(ctx, e)
	case TableRevenue:
		r, err := decodeRevenue(rec)
		if err := w.check(r, err); err != nil {
			return err
		}
		return w.store.AddRevenue(ctx, r)
	default:
		return fmt.Errorf("%w: unknown table %q", ErrInvalidJob, job.Table)
	}
}

func (w *Worker) check(v interface{}, decodeErr error) error {
	if decodeErr != nil {
		return decodeErr
	}
	return w.validator.Struct(v)
}
