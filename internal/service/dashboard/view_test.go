package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

type fakeBus struct {
	handlers map[statebus.Topic][]statebus.Handler
	sum      models.Summaries
	err      error
}

func (f *fakeBus) Subscribe(topic statebus.Topic, h statebus.Handler) (func(), error) {
	if f.handlers == nil {
		f.handlers = make(map[statebus.Topic][]statebus.Handler)
	}
	f.handlers[topic] = append(f.handlers[topic], h)
	return func() { delete(f.handlers, topic) }, nil
}

func (f *fakeBus) Summaries(context.Context) (models.Summaries, error) {
	return f.sum, f.err
}

func (f *fakeBus) fire() error {
	for _, h := range f.handlers[statebus.TopicAny] {
		if err := h(); err != nil {
			return err
		}
	}
	return nil
}

func TestViewRefreshesOnAnnounce(t *testing.T) {
	bus := &fakeBus{}
	view := NewView(bus, nil)
	require.NoError(t, view.Attach(context.Background()))
	require.NoError(t, view.Attach(context.Background()))
	require.Len(t, bus.handlers[statebus.TopicAny], 1)

	snap := view.Snapshot()
	assert.Equal(t, 1, snap.Refreshes)
	assert.Equal(t, "0", snap.Cards[0].Value)

	bus.sum.Batch.Total = 2
	bus.sum.Batch.FeedKg = 98
	bus.sum.Financial.Profit = -150.5
	require.NoError(t, bus.fire())

	snap = view.Snapshot()
	assert.Equal(t, 2, snap.Refreshes)
	assert.Equal(t, []Card{
		{Title: "Total Batches", Value: "2", Module: "batches"},
		{Title: "Feed Used (kg)", Value: "98.00", Module: "feed_water"},
		{Title: "Water Used (L)", Value: "0.00", Module: "feed_water"},
		{Title: "Profit", Value: "0.00", Module: "profit_loss"},
		{Title: "Loss", Value: "150.50", Module: "expenses"},
	}, snap.Cards)

	view.Detach()
	assert.Empty(t, bus.handlers[statebus.TopicAny])
}

func TestViewKeepsLastSnapshotOnError(t *testing.T) {
	bus := &fakeBus{}
	view := NewView(bus, nil)
	require.NoError(t, view.Attach(context.Background()))

	bus.err = errors.New("locked")
	require.Error(t, bus.fire())
	assert.Equal(t, 1, view.Snapshot().Refreshes)
}
