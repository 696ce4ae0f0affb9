// Package dashboard keeps the headline cards current by listening to every data change.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

// Bus is the subscribe and summary side of the state bus.
type Bus interface {
	Subscribe(topic statebus.Topic, h statebus.Handler) (func(), error)
	Summaries(ctx context.Context) (models.Summaries, error)
}

// Card is one headline figure and the module it opens.
type Card struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Module string `json:"module"`
}

// Snapshot is what the dashboard currently shows.
type Snapshot struct {
	Cards     []Card           `json:"cards"`
	Summaries models.Summaries `json:"summaries"`
	Refreshes int              `json:"refreshes"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// View must only be used from the event loop.
type View struct {
	bus         Bus
	logger      *zap.Logger
	now         func() time.Time
	snapshot    Snapshot
	unsubscribe func()
}

func NewView(bus Bus, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{bus: bus, logger: logger, now: time.Now}
}

// Attach subscribes to the catch-all topic and loads the first snapshot.
func (v *View) Attach(ctx context.Context) error {
	if v.unsubscribe != nil {
		return nil
	}
	unsubscribe, err := v.bus.Subscribe(statebus.TopicAny, func() error {
		return v.Refresh(context.Background())
	})
	if err != nil {
		return fmt.Errorf("attach dashboard: %w", err)
	}
	v.unsubscribe = unsubscribe
	return v.Refresh(ctx)
}

// Detach stops listening for changes.
func (v *View) Detach() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// Refresh re-reads the summaries and rebuilds the cards.
func (v *View) Refresh(ctx context.Context) error {
	sum, err := v.bus.Summaries(ctx)
	if err != nil {
		return fmt.Errorf("refresh dashboard: %w", err)
	}

	v.snapshot = Snapshot{
		Cards:     cards(sum),
		Summaries: sum,
		Refreshes: v.snapshot.Refreshes + 1,
		UpdatedAt: v.now(),
	}
	v.logger.Debug("dashboard refreshed", zap.Int("refreshes", v.snapshot.Refreshes))
	return nil
}

// Snapshot returns the last rendered state.
func (v *View) Snapshot() Snapshot {
	out := v.snapshot
	out.Cards = append([]Card(nil), v.snapshot.Cards...)
	return out
}

func cards(sum models.Summaries) []Card {
	profit, loss := sum.Financial.Profit, 0.0
	if profit < 0 {
		profit, loss = 0, -profit
	}
	return []Card{
		{Title: "Total Batches", Value: fmt.Sprint(sum.Batch.Total), Module: "batches"},
		{Title: "Feed Used (kg)", Value: fmt.Sprintf("%.2f", sum.Batch.FeedKg), Module: "feed_water"},
		{Title: "Water Used (L)", Value: fmt.Sprintf("%.2f", sum.Batch.WaterL), Module: "feed_water"},
		{Title: "Profit", Value: fmt.Sprintf("%.2f", profit), Module: "profit_loss"},
		{Title: "Loss", Value: fmt.Sprintf("%.2f", loss), Module: "expenses"},
	}
}
