package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/eventloop"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

const batchCSV = `Batch,Chicks,Breed,Arrived
B001,500,Broiler,2024-06-01
B002,300,Layer,2024-06-02
B003,not-a-number,Broiler,2024-06-03
B004,250,Broiler,2024/06/04
B005,400,,2024-06-05
B006,600,Kuroiler,2024-06-06
B007,100,Broiler,yesterday
B008,120,Layer,2024-06-08
B009,80,Broiler,2024-06-09
B010,90,Layer,2024-06-10
`

var batchMapping = map[string]string{
	"batch_id":   "Batch",
	"num_chicks": "Chicks",
	"breed":      "Breed",
	"date_in":    "Arrived",
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "import.db"), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func collect(updates <-chan Progress) []Progress {
	var out []Progress
	for p := range updates {
		out = append(out, p)
	}
	return out
}

func TestJobValidate(t *testing.T) {
	src := CSVSource{Path: "x.csv"}

	tests := []struct {
		name string
		job  Job
	}{
		{"unknown table", Job{Table: "eggs", Source: src, Mapping: batchMapping}},
		{"no source", Job{Table: TableBatches, Mapping: batchMapping}},
		{"empty mapping", Job{Table: TableBatches, Source: src}},
		{"unknown field", Job{Table: TableRevenue, Source: src, Mapping: map[string]string{
			"batch_id": "a", "amount": "b", "date": "c", "price": "d",
		}}},
		{"required field unmapped", Job{Table: TableMortality, Source: src, Mapping: map[string]string{
			"batch_id": "a", "date": "b",
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidJob))
		})
	}

	require.NoError(t, Job{Table: TableBatches, Source: src, Mapping: batchMapping}.Validate())
}

func TestTableFieldsAndTopics(t *testing.T) {
	required, optional := TableFeedWater.Fields()
	assert.Equal(t, []string{"batch_id", "date"}, required)
	assert.Equal(t, []string{"feed_kg", "water_l"}, optional)

	assert.Equal(t, statebus.TopicVaccination, TableVaccinations.Topic())
	assert.Equal(t, statebus.TopicWorker, TableWorkers.Topic())

	table, err := ParseTable(" Expenses ")
	require.NoError(t, err)
	assert.Equal(t, TableExpenses, table)

	_, err = ParseTable("eggs")
	require.ErrorIs(t, err, ErrInvalidJob)
}

func TestWorkerImportsGoodRowsAndCountsBadOnes(t *testing.T) {
	store := openStore(t)
	path := writeFile(t, "batches.csv", batchCSV)

	updates := make(chan Progress, 16)
	result := NewWorker(store, nil).Run(context.Background(), Job{
		Table:   TableBatches,
		Source:  CSVSource{Path: path},
		Mapping: batchMapping,
	}, updates)
	close(updates)

	assert.Equal(t, 7, result.Imported)
	assert.Equal(t, 3, result.Failed)
	assert.Len(t, result.Errors, 3)
	assert.True(t, strings.HasPrefix(result.Errors[0], "row 4:"))

	count, err := store.Count(context.Background(), "batches")
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	b, err := store.GetBatch(context.Background(), "B004")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", b.DateIn.String())

	progress := collect(updates)
	require.Len(t, progress, 4)
	assert.Equal(t, []int{10, 30, 60, 100}, []int{progress[0].Percent, progress[1].Percent, progress[2].Percent, progress[3].Percent})
	assert.Equal(t, "Reading file...", progress[0].Status)
	assert.Equal(t, "Processing data...", progress[1].Status)
	assert.Equal(t, "Importing to database...", progress[2].Status)

	last := progress[3]
	assert.True(t, last.Done)
	assert.True(t, last.Success)
	assert.Equal(t, "Import completed: 7 records imported, 3 errors", last.Message)
}

func TestWorkerSkipsDuplicates(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateBatch(ctx, models.Batch{ID: "B001", NumChicks: 10, Breed: "Layer", DateIn: models.NewDate(2024, 1, 1)}))

	path := writeFile(t, "batches.csv", "Batch,Chicks,Breed,Arrived\nB001,500,Broiler,2024-06-01\nB002,300,Layer,2024-06-02\n")
	job := Job{Table: TableBatches, Source: CSVSource{Path: path}, Mapping: batchMapping, SkipDuplicates: true}

	result := NewWorker(store, nil).Run(ctx, job, nil)
	assert.Equal(t, Result{Imported: 1, Skipped: 1}, result)

	job.SkipDuplicates = false
	result = NewWorker(store, nil).Run(ctx, job, nil)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Failed)
}

func TestWorkerSourceFailureIsFailedCompletion(t *testing.T) {
	store := openStore(t)
	updates := make(chan Progress, 16)

	result := NewWorker(store, nil).Run(context.Background(), Job{
		Table:   TableBatches,
		Source:  CSVSource{Path: filepath.Join(t.TempDir(), "missing.csv")},
		Mapping: batchMapping,
	}, updates)
	close(updates)

	assert.Equal(t, Result{}, result)
	progress := collect(updates)
	last := progress[len(progress)-1]
	assert.True(t, last.Done)
	assert.False(t, last.Success)
	assert.True(t, strings.HasPrefix(last.Message, "Import failed: "))
}

func TestWorkerMissingColumnFails(t *testing.T) {
	store := openStore(t)
	path := writeFile(t, "batches.csv", "Batch,Chicks,Breed\nB001,500,Broiler\n")
	updates := make(chan Progress, 16)

	NewWorker(store, nil).Run(context.Background(), Job{Table: TableBatches, Source: CSVSource{Path: path}, Mapping: batchMapping}, updates)
	close(updates)

	progress := collect(updates)
	last := progress[len(progress)-1]
	assert.False(t, last.Success)
	assert.Contains(t, last.Message, `"Arrived"`)
}

func TestXLSXSource(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Batch", "Date", "Feed", "Water"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"B001", "2024-06-01", 50, 300}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"B001", "2024-06-02", 0, 0}))
	path := filepath.Join(t.TempDir(), "feed.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src, err := SourceForFile(path, "")
	require.NoError(t, err)

	store := openStore(t)
	result := NewWorker(store, nil).Run(context.Background(), Job{
		Table:  TableFeedWater,
		Source: src,
		Mapping: map[string]string{
			"batch_id": "Batch", "date": "Date", "feed_kg": "Feed", "water_l": "Water",
		},
	}, nil)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)

	entries, err := store.ListFeedWater(context.Background(), "B001")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 50.0, entries[0].FeedKg)
	assert.Equal(t, 300.0, entries[0].WaterL)
}

type fakeRanges struct {
	values [][]interface{}
}

func (f fakeRanges) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.values, nil
}

func TestSheetsSource(t *testing.T) {
	src := SheetsSource{Range: "Expenses!A1:D", Reader: fakeRanges{values: [][]interface{}{
		{"Date", "Category", "Amount", "Note"},
		{"2024-06-01", "Feed", "1,200", "starter"},
		{"2024-06-02", "Gold", "50", "bad category"},
	}}}

	store := openStore(t)
	result := NewWorker(store, nil).Run(context.Background(), Job{
		Table:  TableExpenses,
		Source: src,
		Mapping: map[string]string{
			"date": "Date", "category": "Category", "amount": "Amount", "description": "Note",
		},
	}, nil)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)

	expenses, err := store.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, 1200.0, expenses[0].Amount)
	assert.Equal(t, models.PaymentCash, expenses[0].PaymentMethod)
}

func TestSourceForFileRejectsUnknownExtension(t *testing.T) {
	_, err := SourceForFile("data.json", "")
	require.ErrorIs(t, err, ErrInvalidJob)
}

func TestManagerAnnouncesOnceOnCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := openStore(t)
	loop := eventloop.New(nil)
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	bus := statebus.New(store, nil)
	manager := NewManager(NewWorker(store, nil), loop, bus, nil, nil)

	path := writeFile(t, "batches.csv", batchCSV)
	announces := 0
	var cleanups atomic.Int32
	var id string
	require.NoError(t, loop.Call(ctx, func() error {
		if _, err := bus.Subscribe(statebus.TopicBatch, func() error {
			announces++
			return nil
		}); err != nil {
			return err
		}
		var err error
		id, err = manager.Start(Job{
			Table:   TableBatches,
			Source:  CSVSource{Path: path},
			Mapping: batchMapping,
			Cleanup: func() { cleanups.Add(1) },
		})
		return err
	}))

	var status JobStatus
	require.Eventually(t, func() bool {
		err := loop.Call(ctx, func() error {
			var err error
			status, err = manager.Status(id)
			return err
		})
		return err == nil && status.Done
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, status.Success)
	assert.Equal(t, 100, status.Percent)
	assert.Equal(t, 7, status.Result.Imported)
	assert.Equal(t, 3, status.Result.Failed)
	assert.NotNil(t, status.FinishedAt)

	var heard int
	var jobs []JobStatus
	require.NoError(t, loop.Call(ctx, func() error {
		heard = announces
		jobs = manager.Jobs()
		_, err := manager.Status("missing")
		if !errors.Is(err, ErrJobNotFound) {
			return err
		}
		return nil
	}))
	assert.Equal(t, 1, heard)
	require.Len(t, jobs, 1)
	assert.Equal(t, id, jobs[0].ID)

	require.Eventually(t, func() bool { return cleanups.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), cleanups.Load())
}

func TestManagerRejectsInvalidJob(t *testing.T) {
	manager := NewManager(NewWorker(nil, nil), nil, nil, nil, nil)
	cleanups := 0
	_, err := manager.Start(Job{Table: TableBatches, Cleanup: func() { cleanups++ }})
	require.ErrorIs(t, err, ErrInvalidJob)
	assert.Empty(t, manager.Jobs())
	assert.Equal(t, 1, cleanups)
}

func TestWorkerRejectsNonFiniteAndOversizedNumbers(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateBatch(ctx, models.Batch{ID: "B001", NumChicks: 10, Breed: "Layer", DateIn: models.NewDate(2024, 1, 1)}))

	path := writeFile(t, "revenue.csv", "Batch,Amount,Date\nB001,1500,2024-06-01\nB001,Inf,2024-06-02\nB001,NaN,2024-06-03\nB001,-inf,2024-06-04\nB001,1e400,2024-06-05\n")
	result := NewWorker(store, nil).Run(ctx, Job{
		Table:   TableRevenue,
		Source:  CSVSource{Path: path},
		Mapping: map[string]string{"batch_id": "Batch", "amount": "Amount", "date": "Date"},
	}, nil)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 4, result.Failed)
	assert.Contains(t, result.Errors[0], "not a finite number")

	revenue, err := store.ListRevenue(ctx, "B001")
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.Equal(t, 1500.0, revenue[0].Amount)

	path = writeFile(t, "batches.csv", "Batch,Chicks,Breed,Arrived\nB002,1e30,Broiler,2024-06-01\nB003,-1e12,Broiler,2024-06-01\nB004,2.5e3,Broiler,2024-06-01\n")
	result = NewWorker(store, nil).Run(ctx, Job{Table: TableBatches, Source: CSVSource{Path: path}, Mapping: batchMapping}, nil)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	assert.Contains(t, result.Errors[0], "out of range")

	b, err := store.GetBatch(ctx, "B004")
	require.NoError(t, err)
	assert.Equal(t, 2500, b.NumChicks)
}
