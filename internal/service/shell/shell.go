// Package shell tracks which module is open and with what context.
package shell

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

// Modules are the screens a navigation request may open.
var Modules = []string{
	"dashboard", "batches", "feed_water", "vaccinations", "mortality",
	"workers", "expenses", "profit_loss", "reports", "analytics", "import", "settings",
}

// ErrUnknownModule is returned by Open for a module outside Modules.
var ErrUnknownModule = errors.New("unknown module")

// Navigator is the navigation side of the state bus.
type Navigator interface {
	OnNavigate(h statebus.NavigateHandler) (func(), error)
	Navigate(module string, context map[string]string) error
	History() []models.NavigationRequest
}

// State is the open module.
type State struct {
	Active    string            `json:"active"`
	Context   map[string]string `json:"context,omitempty"`
	ChangedAt time.Time         `json:"changed_at"`
	Switches  int               `json:"switches"`
}

// Shell is the sole navigation subscriber. It must only be used from the event loop.
type Shell struct {
	nav    Navigator
	logger *zap.Logger
	state  State
}

func New(nav Navigator, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shell{nav: nav, logger: logger, state: State{Active: "dashboard"}}
}

// Attach registers the shell with the navigator.
func (s *Shell) Attach() (func(), error) {
	return s.nav.OnNavigate(s.handle)
}

// Open asks the navigator to switch to module. Unknown modules are refused before the
// navigator records them.
func (s *Shell) Open(module string, context map[string]string) error {
	if module != "" && !known(module) {
		return fmt.Errorf("%w %q", ErrUnknownModule, module)
	}
	return s.nav.Navigate(module, context)
}

// State returns the open module.
func (s *Shell) State() State {
	out := s.state
	if s.state.Context != nil {
		out.Context = make(map[string]string, len(s.state.Context))
		for k, v := range s.state.Context {
			out.Context[k] = v
		}
	}
	return out
}

// History returns the recent navigation requests.
func (s *Shell) History() []models.NavigationRequest {
	return s.nav.History()
}

func (s *Shell) handle(req models.NavigationRequest) error {
	if !known(req.Module) {
		return fmt.Errorf("%w %q", ErrUnknownModule, req.Module)
	}
	s.state = State{
		Active:    req.Module,
		Context:   req.Context,
		ChangedAt: req.RequestedAt,
		Switches:  s.state.Switches + 1,
	}
	s.logger.Debug("module opened", zap.String("module", req.Module), zap.Any("context", req.Context))
	return nil
}

func known(module string) bool {
	for _, m := range Modules {
		if m == module {
			return true
		}
	}
	return false
}
