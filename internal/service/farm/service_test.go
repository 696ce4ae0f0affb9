package farm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/eventloop"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

type harness struct {
	svc   *Service
	store *sqlite.Store
	bus   *statebus.Bus
	loop  *eventloop.Loop
	heard []statebus.Topic
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "farm.db"), "", nil)
	require.NoError(t, err)

	loop := eventloop.New(nil)
	go loop.Run(ctx)

	t.Cleanup(func() {
		cancel()
		<-loop.Done()
		_ = store.Close()
	})

	h := &harness{store: store, loop: loop}
	h.bus = statebus.New(store, nil)
	h.svc = NewService(store, h.bus, loop, nil, nil)

	for _, topic := range statebus.DataTopics {
		topic := topic
		_, err := h.bus.Subscribe(topic, func() error {
			h.heard = append(h.heard, topic)
			return nil
		})
		require.NoError(t, err)
	}
	return h
}

// announced reads the recorded topics on the loop.
func (h *harness) announced(t *testing.T) []statebus.Topic {
	t.Helper()
	var out []statebus.Topic
	require.NoError(t, h.loop.Call(context.Background(), func() error {
		out = append(out, h.heard...)
		return nil
	}))
	return out
}

func day(s string) models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEndToEndBatchAndFeed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	views := 0
	require.NoError(t, h.loop.Call(ctx, func() error {
		_, err := h.bus.Subscribe(statebus.TopicAny, func() error {
			views++
			return nil
		})
		return err
	}))

	require.NoError(t, h.svc.CreateBatch(ctx, models.Batch{ID: "B001", NumChicks: 500, Breed: "Broiler", DateIn: h.svc.Today()}))
	require.NoError(t, h.svc.AddFeedWater(ctx, models.FeedWaterEntry{BatchID: "B001", Date: day("2024-06-01"), FeedKg: 50}))
	require.NoError(t, h.svc.AddFeedWater(ctx, models.FeedWaterEntry{BatchID: "B001", Date: day("2024-06-02"), FeedKg: 48}))

	summaries, err := h.svc.Summaries(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summaries.Batch.Total)
	require.Equal(t, 1, summaries.Batch.Recent)
	require.Equal(t, 98.0, summaries.Batch.FeedKg)

	require.Equal(t, []statebus.Topic{statebus.TopicBatch, statebus.TopicFeedWater, statebus.TopicFeedWater}, h.announced(t))
	var seen int
	require.NoError(t, h.loop.Call(ctx, func() error {
		seen = views
		return nil
	}))
	require.Equal(t, 3, seen)
}

func TestValidationFailureLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.svc.CreateBatch(ctx, models.Batch{ID: "B001"})
	require.ErrorIs(t, err, ErrValidation)

	err = h.svc.AddFeedWater(ctx, models.FeedWaterEntry{BatchID: "B001", Date: day("2024-06-01")})
	require.ErrorIs(t, err, ErrValidation)

	err = h.svc.AddExpense(ctx, models.Expense{Date: day("2024-06-01"), Category: models.CategoryFeed, Amount: -5})
	require.ErrorIs(t, err, ErrValidation)

	err = h.svc.AddMortality(ctx, models.MortalityRecord{BatchID: "NOPE", Date: day("2024-06-01"), Count: 2})
	require.ErrorIs(t, err, ErrValidation)

	n, err := h.store.Count(ctx, "batches")
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, h.announced(t))
}

func TestDuplicateBatchAndWorker(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b := models.Batch{ID: "B001", NumChicks: 500, Breed: "Broiler"}
	require.NoError(t, h.svc.CreateBatch(ctx, b))
	require.ErrorIs(t, h.svc.CreateBatch(ctx, b), ErrDuplicate)

	w := models.Worker{WorkerID: "W001", Name: "Priya Singh", Salary: 15000}
	require.NoError(t, h.svc.CreateWorker(ctx, w))
	require.ErrorIs(t, h.svc.CreateWorker(ctx, w), ErrDuplicate)

	got, err := h.svc.GetWorker(ctx, "W001")
	require.NoError(t, err)
	require.Equal(t, models.WorkerActive, got.Status)

	require.Equal(t, []statebus.Topic{statebus.TopicBatch, statebus.TopicWorker}, h.announced(t))
}

func TestUpdateBatchRename(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.CreateBatch(ctx, models.Batch{ID: "B100", NumChicks: 100, Breed: "Broiler"}))
	require.NoError(t, h.svc.CreateBatch(ctx, models.Batch{ID: "B300", NumChicks: 100, Breed: "Layer"}))
	require.NoError(t, h.svc.AddMortality(ctx, models.MortalityRecord{BatchID: "B100", Date: day("2024-06-03"), Count: 2}))

	err := h.svc.UpdateBatch(ctx, "B100", models.Batch{ID: "B300", NumChicks: 100, Breed: "Broiler"})
	require.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, h.svc.UpdateBatch(ctx, "B100", models.Batch{ID: "B200", NumChicks: 120, Breed: "Broiler"}))

	rows, err := h.svc.ListMortality(ctx, "B200")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	err = h.svc.UpdateBatch(ctx, "", models.Batch{ID: "B999", Breed: "Broiler"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.svc.UpdateWorker(ctx, models.Worker{WorkerID: "W404", Name: "Nobody", Status: models.WorkerActive})
	require.ErrorIs(t, err, ErrNotFound)

	old := models.Expense{Date: day("2024-06-01"), Category: models.CategoryFeed, Amount: 100, PaymentMethod: models.PaymentCash}
	err = h.svc.UpdateExpense(ctx, old, old)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, h.announced(t))
}

func TestStorageFailureSkipsAnnounce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.store.Close())
	err := h.svc.AddExpense(ctx, models.Expense{Date: day("2024-06-01"), Category: models.CategoryFeed, Amount: 10})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrValidation))
	require.Empty(t, h.announced(t))
}

func TestLookupsAndAuthentication(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.store.SeedAdmin(ctx, "admin", "admin")
	require.NoError(t, err)
	require.NoError(t, h.svc.CreateBatch(ctx, models.Batch{ID: "B001", Breed: "Broiler"}))
	require.NoError(t, h.svc.CreateWorker(ctx, models.Worker{WorkerID: "W001", Name: "Rajesh Kumar"}))

	lookups, err := h.svc.Lookups(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"B001"}, lookups.BatchIDs)
	require.Equal(t, []WorkerRef{{WorkerID: "W001", Name: "Rajesh Kumar"}}, lookups.ActiveWorkers)
	require.Len(t, lookups.ExpenseCategories, 10)
	require.Len(t, lookups.PaymentMethods, 6)

	require.NoError(t, h.svc.Authenticate(ctx, "admin", "admin"))
	require.ErrorIs(t, h.svc.Authenticate(ctx, "admin", "wrong"), ErrInvalidCredentials)
	require.ErrorIs(t, h.svc.Authenticate(ctx, "ghost", "admin"), ErrInvalidCredentials)

	require.ErrorIs(t, h.svc.ChangePassword(ctx, "admin", "admin", "x"), ErrValidation)
	require.ErrorIs(t, h.svc.ChangePassword(ctx, "admin", "wrong", "longer-one"), ErrInvalidCredentials)
	require.NoError(t, h.svc.ChangePassword(ctx, "admin", "admin", "longer-one"))
	require.NoError(t, h.svc.Authenticate(ctx, "admin", "longer-one"))
}
