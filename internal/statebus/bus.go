// Package statebus is the change-notification hub. Writers announce a topic after a commit and
// every subscriber of that topic, then every catch-all subscriber, is invoked once. The bus is
// not safe for concurrent use; all calls are expected on the event loop.
package statebus

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/metrics"
)

// Topic names a category of data change.
type Topic string

const (
	TopicBatch       Topic = "batch"
	TopicFeedWater   Topic = "feed_water"
	TopicVaccination Topic = "vaccination"
	TopicMortality   Topic = "mortality"
	TopicWorker      Topic = "worker"
	TopicExpense     Topic = "expense"
	TopicRevenue     Topic = "revenue"
	TopicAny         Topic = "any"
)

// DataTopics lists every topic except the catch-all.
var DataTopics = []Topic{
	TopicBatch, TopicFeedWater, TopicVaccination, TopicMortality,
	TopicWorker, TopicExpense, TopicRevenue,
}

// Valid reports whether t is one of the known topics, catch-all included.
func (t Topic) Valid() bool {
	if t == TopicAny {
		return true
	}
	for _, known := range DataTopics {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTopic converts a name into a Topic.
func ParseTopic(name string) (Topic, error) {
	t := Topic(name)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTopic, name)
	}
	return t, nil
}

// Handler reacts to an announcement. A returned error or a panic counts as a fault.
type Handler func() error

var (
	ErrUnknownTopic = errors.New("unknown topic")
	ErrNilHandler   = errors.New("nil handler")
)

type subscription struct {
	handler Handler
	removed bool
}

// Bus is the hub. Construct one with New and pass it to every producer and subscriber.
type Bus struct {
	store       Store
	logger      *zap.Logger
	recorder    metrics.Recorder
	now         func() time.Time
	costPerBird decimal.Decimal

	subs     map[Topic][]*subscription
	failures int
}

// Option tunes a Bus at construction.
type Option func(*Bus)

func WithRecorder(r metrics.Recorder) Option {
	return func(b *Bus) {
		if r != nil {
			b.recorder = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// WithMortalityCost sets the cost per dead bird used by FinancialSummary. A non-finite
// cost is ignored.
func WithMortalityCost(perBird float64) Option {
	return func(b *Bus) {
		if cost, err := amount("mortality_cost", perBird); err == nil {
			b.costPerBird = cost
		}
	}
}

// New creates a Bus reading summaries from store.
func New(store Store, logger *zap.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Bus{
		store:       store,
		logger:      logger,
		recorder:    metrics.NoopRecorder{},
		now:         time.Now,
		costPerBird: decimal.NewFromInt(5),
		subs:        make(map[Topic][]*subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for topic and returns a function that removes it again.
func (b *Bus) Subscribe(topic Topic, handler Handler) (func(), error) {
	if !topic.Valid() {
		return nil, fmt.Errorf("subscribe: %w: %q", ErrUnknownTopic, topic)
	}
	if handler == nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, ErrNilHandler)
	}

	sub := &subscription{handler: handler}
	b.subs[topic] = append(b.subs[topic], sub)

	return func() { b.unsubscribe(topic, sub) }, nil
}

func (b *Bus) unsubscribe(topic Topic, sub *subscription) {
	if sub.removed {
		return
	}
	sub.removed = true

	current := b.subs[topic]
	kept := make([]*subscription, 0, len(current))
	for _, s := range current {
		if s != sub {
			kept = append(kept, s)
		}
	}
	b.subs[topic] = kept
}

// Announce invokes the handlers of topic and then the catch-all handlers, each exactly once.
// Handlers registered while it runs are not invoked. Faults are logged and counted.
func (b *Bus) Announce(topic Topic) {
	if !topic.Valid() {
		b.failures++
		b.recorder.IncHandlerFault(string(topic))
		b.logger.Error("announce for unknown topic", zap.String("topic", string(topic)))
		return
	}

	b.recorder.IncAnnounce(string(topic))

	var snapshot []*subscription
	if topic != TopicAny {
		snapshot = append(snapshot, b.subs[topic]...)
	}
	snapshot = append(snapshot, b.subs[TopicAny]...)

	for i, sub := range snapshot {
		if sub.removed {
			continue
		}
		if err := invoke(sub.handler); err != nil {
			b.failures++
			b.recorder.IncHandlerFault(string(topic))
			b.logger.Warn("subscriber failed",
				zap.String("topic", string(topic)),
				zap.Int("position", i),
				zap.Error(err),
			)
		}
	}
}

// Failures is the number of handler faults seen since construction.
func (b *Bus) Failures() int {
	return b.failures
}

// Subscribers counts the live handlers of topic.
func (b *Bus) Subscribers(topic Topic) int {
	return len(b.subs[topic])
}

func invoke(h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h()
}
