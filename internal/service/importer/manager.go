package importer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/metrics"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

// ErrJobNotFound is returned by Status for an unknown id.
var ErrJobNotFound = errors.New("import job not found")

// Poster queues work on the event loop.
type Poster interface {
	Post(fn func()) bool
}

// Announcer is the part of the bus the manager needs.
type Announcer interface {
	Announce(topic statebus.Topic)
}

// JobStatus is the latest known state of a job.
type JobStatus struct {
	ID         string     `json:"id"`
	Table      Table      `json:"table"`
	Source     string     `json:"source"`
	Percent    int        `json:"percent"`
	Status     string     `json:"status"`
	Done       bool       `json:"done"`
	Success    bool       `json:"success"`
	Message    string     `json:"message,omitempty"`
	Result     Result     `json:"result"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Manager tracks jobs. Start and Status must be called on the event loop, which also owns every
// status update.
type Manager struct {
	worker   *Worker
	loop     Poster
	bus      Announcer
	recorder metrics.Recorder
	logger   *zap.Logger
	now      func() time.Time

	jobs  map[string]*JobStatus
	order []string
}

func NewManager(worker *Worker, loop Poster, bus Announcer, recorder metrics.Recorder, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Manager{
		worker:   worker,
		loop:     loop,
		bus:      bus,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		jobs:     make(map[string]*JobStatus),
	}
}

// Start validates job, registers it and launches its worker goroutine. Start owns
// job.Cleanup from then on: it runs once, after the worker finishes or on rejection.
func (m *Manager) Start(job Job) (string, error) {
	if err := job.Validate(); err != nil {
		if job.Cleanup != nil {
			job.Cleanup()
		}
		return "", err
	}

	id := uuid.NewString()
	started := m.now()
	m.jobs[id] = &JobStatus{
		ID:        id,
		Table:     job.Table,
		Source:    job.Source.Name(),
		Status:    "Queued",
		StartedAt: started,
	}
	m.order = append(m.order, id)

	updates := make(chan Progress, 8)
	go func() {
		for p := range updates {
			p := p
			if !m.loop.Post(func() { m.apply(id, job.Table, started, p) }) {
				m.logger.Warn("import progress dropped, loop stopped", zap.String("job", id))
			}
		}
	}()
	go func() {
		defer close(updates)
		if job.Cleanup != nil {
			defer job.Cleanup()
		}
		m.worker.Run(context.Background(), job, updates)
	}()

	m.logger.Info("import started", zap.String("job", id), zap.String("table", string(job.Table)))
	return id, nil
}

// Status returns a copy of the job state.
func (m *Manager) Status(id string) (JobStatus, error) {
	st, ok := m.jobs[id]
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return *st, nil
}

// Jobs lists every job in start order.
func (m *Manager) Jobs() []JobStatus {
	out := make([]JobStatus, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.jobs[id])
	}
	return out
}

func (m *Manager) apply(id string, table Table, started time.Time, p Progress) {
	st, ok := m.jobs[id]
	if !ok {
		return
	}
	st.Percent = p.Percent
	st.Status = p.Status
	if !p.Done {
		return
	}

	finished := m.now()
	st.Done = true
	st.Success = p.Success
	st.Message = p.Message
	st.Result = p.Result
	st.FinishedAt = &finished

	outcome := metrics.ImportFailed
	if p.Success {
		outcome = metrics.ImportSucceeded
	}
	m.recorder.ObserveImport(string(table), outcome, p.Result.Imported, p.Result.Failed, finished.Sub(started))

	if p.Result.Imported > 0 {
		m.bus.Announce(table.Topic())
	}
}
