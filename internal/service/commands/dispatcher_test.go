package commands

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/eventloop"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

type fixture struct {
	dispatcher *Service
	farm       *farm.Service
	store      *sqlite.Store
	loop       *eventloop.Loop
	heard      []statebus.Topic
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "commands.db"), "", nil)
	require.NoError(t, err)
	loop := eventloop.New(nil)
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
		_ = store.Close()
	})

	f := &fixture{store: store, loop: loop}
	bus := statebus.New(store, nil)
	f.farm = farm.NewService(store, bus, loop, nil, nil)
	f.dispatcher = NewService(f.farm, nil)

	require.NoError(t, loop.Call(ctx, func() error {
		_, err := bus.Subscribe(statebus.TopicAny, func() error { return nil })
		if err != nil {
			return err
		}
		for _, topic := range statebus.DataTopics {
			topic := topic
			if _, err := bus.Subscribe(topic, func() error {
				f.heard = append(f.heard, topic)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, f.farm.CreateBatch(ctx, models.Batch{ID: "B001", NumChicks: 500, Breed: "Broiler", DateIn: f.farm.Today()}))
	return f
}

func (f *fixture) topics(t *testing.T) []statebus.Topic {
	t.Helper()
	var out []statebus.Topic
	require.NoError(t, f.loop.Call(context.Background(), func() error {
		out = append(out, f.heard...)
		return nil
	}))
	return out
}

func TestFeedCommandWritesAndAnnounces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply, err := f.dispatcher.HandleCommand(ctx, models.ParseCommand("/Feed B001 50 300"), "22177")
	require.NoError(t, err)
	assert.Equal(t, "Feed & Water", reply.Title)
	assert.Contains(t, reply.Message, "Logged 50.00 kg feed and 300.00 L water for batch B001")
	assert.Contains(t, reply.Message, "Batches 1 | Feed 50.00 kg | Water 300.00 L")

	entries, err := f.farm.ListFeedWater(ctx, "B001")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 50.0, entries[0].FeedKg)

	assert.Equal(t, []statebus.Topic{statebus.TopicBatch, statebus.TopicFeedWater}, f.topics(t))
}

func TestCommandsRouteToTheirTopics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, text := range []string{
		"/water B001 200",
		"/dead B001 3 heat stress",
		"/expense feed 1200 starter bags",
		"/sale B001 3000",
		"/vaccinate B001 Newcastle Disease",
	} {
		_, err := f.dispatcher.HandleCommand(ctx, models.ParseCommand(text), "22177")
		require.NoError(t, err, text)
	}

	assert.Equal(t, []statebus.Topic{
		statebus.TopicBatch,
		statebus.TopicFeedWater,
		statebus.TopicMortality,
		statebus.TopicExpense,
		statebus.TopicRevenue,
		statebus.TopicVaccination,
	}, f.topics(t))

	mortality, err := f.farm.ListMortality(ctx, "B001")
	require.NoError(t, err)
	require.Len(t, mortality, 1)
	assert.Equal(t, "heat stress", mortality[0].Reason)

	expenses, err := f.farm.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, models.CategoryFeed, expenses[0].Category)

	vaccinations, err := f.farm.ListVaccinations(ctx, "B001")
	require.NoError(t, err)
	require.Len(t, vaccinations, 1)
	assert.Equal(t, "Newcastle Disease", vaccinations[0].Vaccine)
}

func TestBadCommandsLeaveNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.dispatcher.HandleCommand(ctx, models.ParseCommand("/feed B001"), "1")
	require.ErrorIs(t, err, ErrInvalidArguments)

	_, err = f.dispatcher.HandleCommand(ctx, models.ParseCommand("/expense gold 10"), "1")
	require.ErrorIs(t, err, ErrInvalidArguments)

	_, err = f.dispatcher.HandleCommand(ctx, models.ParseCommand("/mortality B404 2"), "1")
	require.True(t, errors.Is(err, farm.ErrValidation))

	assert.Equal(t, []statebus.Topic{statebus.TopicBatch}, f.topics(t))
}

func TestHelpAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply, err := f.dispatcher.HandleCommand(ctx, models.ParseCommand("/eggs 120"), "1")
	require.NoError(t, err)
	assert.Equal(t, Help(), reply)
	assert.Contains(t, reply.Message, "/vaccinate <batch> <vaccine name>")

	reply, err = f.dispatcher.HandleCommand(ctx, models.ParseCommand("/summary"), "1")
	require.NoError(t, err)
	assert.Equal(t, "Farm Summary", reply.Title)
	assert.Contains(t, reply.Message, "Batches 1")
}

func TestNonFiniteAmountsAreRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, text := range []string{"/revenue B001 inf", "/revenue B001 NaN", "/expense feed +Inf", "/feed B001 1e400"} {
		_, err := f.dispatcher.HandleCommand(ctx, models.ParseCommand(text), "1")
		require.ErrorIs(t, err, ErrInvalidArguments, text)
	}

	revenue, err := f.farm.ListRevenue(ctx, "B001")
	require.NoError(t, err)
	assert.Empty(t, revenue)

	summary, err := f.dispatcher.HandleCommand(ctx, models.ParseCommand("/summary"), "1")
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
	assert.Equal(t, []statebus.Topic{statebus.TopicBatch}, f.topics(t))
}
