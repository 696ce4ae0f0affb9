package statebus

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

const historyLimit = 10

// ErrEmptyModule is returned when a navigation request names no module.
var ErrEmptyModule = errors.New("module name is required")

// NavigateHandler receives navigation requests.
type NavigateHandler func(models.NavigationRequest) error

// Navigator carries cross-module navigation requests. It never triggers the catch-all topic.
type Navigator struct {
	logger *zap.Logger
	now    func() time.Time

	handlers []*navSubscription
	contexts map[string]map[string]string
	history  []models.NavigationRequest
	failures int
}

type navSubscription struct {
	handler NavigateHandler
	removed bool
}

func NewNavigator(logger *zap.Logger, now func() time.Time) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Navigator{
		logger:   logger,
		now:      now,
		contexts: make(map[string]map[string]string),
	}
}

// OnNavigate registers a navigation handler.
func (n *Navigator) OnNavigate(h NavigateHandler) (func(), error) {
	if h == nil {
		return nil, fmt.Errorf("on navigate: %w", ErrNilHandler)
	}
	sub := &navSubscription{handler: h}
	n.handlers = append(n.handlers, sub)

	return func() {
		if sub.removed {
			return
		}
		sub.removed = true
		kept := n.handlers[:0:0]
		for _, s := range n.handlers {
			if s != sub {
				kept = append(kept, s)
			}
		}
		n.handlers = kept
	}, nil
}

// Navigate records the request and hands it to every navigation handler.
func (n *Navigator) Navigate(module string, context map[string]string) error {
	if module == "" {
		return ErrEmptyModule
	}

	req := models.NavigationRequest{
		Module:      module,
		Context:     copyContext(context),
		RequestedAt: n.now(),
	}

	n.contexts[module] = copyContext(context)
	n.history = append(n.history, req)
	if len(n.history) > historyLimit {
		n.history = append([]models.NavigationRequest(nil), n.history[len(n.history)-historyLimit:]...)
	}

	snapshot := append([]*navSubscription(nil), n.handlers...)
	for _, sub := range snapshot {
		if sub.removed {
			continue
		}
		if err := invokeNavigate(sub.handler, req); err != nil {
			n.failures++
			n.logger.Warn("navigation handler failed", zap.String("module", module), zap.Error(err))
		}
	}
	return nil
}

// Context returns the latest context recorded for module.
func (n *Navigator) Context(module string) (map[string]string, bool) {
	ctx, ok := n.contexts[module]
	return copyContext(ctx), ok
}

// ClearContext forgets the context of module, or of every module when module is empty.
func (n *Navigator) ClearContext(module string) {
	if module == "" {
		n.contexts = make(map[string]map[string]string)
		return
	}
	delete(n.contexts, module)
}

// History returns up to the last ten requests, oldest first.
func (n *Navigator) History() []models.NavigationRequest {
	return append([]models.NavigationRequest(nil), n.history...)
}

// LastContext finds the most recent history entry for module.
func (n *Navigator) LastContext(module string) (models.NavigationRequest, bool) {
	for i := len(n.history) - 1; i >= 0; i-- {
		if n.history[i].Module == module {
			return n.history[i], true
		}
	}
	return models.NavigationRequest{}, false
}

// Failures counts navigation handler faults.
func (n *Navigator) Failures() int {
	return n.failures
}

func invokeNavigate(h NavigateHandler, req models.NavigationRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("navigation handler panic: %v", r)
		}
	}()
	return h(req)
}

func copyContext(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
