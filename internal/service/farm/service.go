// Package farm holds the mutation paths for every record type. Each write validates its input,
// checks uniqueness by reading first, commits, and then announces the topic on the bus. Every
// call runs on the event loop.
package farm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/domain/validation"
	"github.com/mamadbah2/dashpoultry/internal/metrics"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicate          = errors.New("duplicate record")
	ErrNotFound           = sqlite.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Executor runs fn on the single control thread and waits for it.
type Executor interface {
	Call(ctx context.Context, fn func() error) error
}

// Bus is the part of the state bus the service drives.
type Bus interface {
	Announce(topic statebus.Topic)
	Summaries(ctx context.Context) (models.Summaries, error)
}

// Store is the persistence the service writes through.
type Store interface {
	CreateBatch(ctx context.Context, b models.Batch) error
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	BatchExists(ctx context.Context, id string) (bool, error)
	ListBatches(ctx context.Context) ([]models.Batch, error)
	BatchIDs(ctx context.Context) ([]string, error)
	UpdateBatch(ctx context.Context, b models.Batch) error
	RenameBatch(ctx context.Context, oldID string, b models.Batch) error
	DeleteBatch(ctx context.Context, id string) error

	AddFeedWater(ctx context.Context, e models.FeedWaterEntry) error
	ListFeedWater(ctx context.Context, batchID string) ([]models.FeedWaterEntry, error)
	ReplaceFeedWater(ctx context.Context, oldBatchID string, oldDate models.Date, e models.FeedWaterEntry) error
	DeleteFeedWater(ctx context.Context, batchID string, date models.Date) error

	AddMortality(ctx context.Context, m models.MortalityRecord) error
	ListMortality(ctx context.Context, batchID string) ([]models.MortalityRecord, error)
	UpdateMortality(ctx context.Context, old, updated models.MortalityRecord) error
	DeleteMortality(ctx context.Context, m models.MortalityRecord) error

	AddVaccination(ctx context.Context, v models.VaccinationRecord) error
	ListVaccinations(ctx context.Context, batchID string) ([]models.VaccinationRecord, error)
	UpdateVaccination(ctx context.Context, old, updated models.VaccinationRecord) error
	DeleteVaccination(ctx context.Context, v models.VaccinationRecord) error

	CreateWorker(ctx context.Context, w models.Worker) error
	GetWorker(ctx context.Context, id string) (models.Worker, error)
	WorkerExists(ctx context.Context, id string) (bool, error)
	ListWorkers(ctx context.Context) ([]models.Worker, error)
	ActiveWorkers(ctx context.Context) ([]models.Worker, error)
	UpdateWorker(ctx context.Context, w models.Worker) error
	DeleteWorker(ctx context.Context, id string) error

	AddExpense(ctx context.Context, e models.Expense) error
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, old, updated models.Expense) error
	DeleteExpense(ctx context.Context, e models.Expense) error

	AddRevenue(ctx context.Context, r models.Revenue) error
	ListRevenue(ctx context.Context, batchID string) ([]models.Revenue, error)
	DeleteRevenue(ctx context.Context, r models.Revenue) error

	GetAdmin(ctx context.Context, username string) (models.AdminCredential, error)
	UpdateAdminPassword(ctx context.Context, username, hash string) error

	Analytics(ctx context.Context) (models.Analytics, error)
}

// Service exposes one method per create, edit and delete action.
type Service struct {
	store     Store
	bus       Bus
	exec      Executor
	validator *validation.Validator
	recorder  metrics.Recorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, bus Bus, exec Executor, recorder metrics.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Service{
		store:     store,
		bus:       bus,
		exec:      exec,
		validator: validation.New(),
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Today is the current calendar day on the service clock.
func (s *Service) Today() models.Date {
	return models.DateOf(s.now())
}

func (s *Service) validate(v interface{}) error {
	if err := s.validator.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// mutate runs write on the loop and announces topic once it has committed.
func (s *Service) mutate(ctx context.Context, topic statebus.Topic, write func() error) error {
	return s.exec.Call(ctx, func() error {
		if err := write(); err != nil {
			return err
		}
		s.recorder.IncMutation(string(topic))
		s.bus.Announce(topic)
		return nil
	})
}

// read runs fn on the loop without announcing.
func (s *Service) read(ctx context.Context, fn func() error) error {
	return s.exec.Call(ctx, fn)
}

func (s *Service) requireBatch(ctx context.Context, id string) error {
	exists, err := s.store.BatchExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: batch %s does not exist", ErrValidation, id)
	}
	return nil
}

// Summaries reads the four dashboard summaries through the bus.
func (s *Service) Summaries(ctx context.Context) (models.Summaries, error) {
	var out models.Summaries
	err := s.read(ctx, func() error {
		var err error
		out, err = s.bus.Summaries(ctx)
		return err
	})
	return out, err
}

// Analytics reads the profit and loss breakdown.
func (s *Service) Analytics(ctx context.Context) (models.Analytics, error) {
	var out models.Analytics
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.Analytics(ctx)
		return err
	})
	return out, err
}
