package farm

import (
	"context"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func (s *Service) CreateWorker(ctx context.Context, w models.Worker) error {
	if w.Status == "" {
		w.Status = models.WorkerActive
	}
	if err := s.validate(w); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicWorker, func() error {
		exists, err := s.store.WorkerExists(ctx, w.WorkerID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: worker %s already exists", ErrDuplicate, w.WorkerID)
		}
		return s.store.CreateWorker(ctx, w)
	})
}

// UpdateWorker rewrites the worker with the same id. The id itself cannot change.
func (s *Service) UpdateWorker(ctx context.Context, w models.Worker) error {
	if err := s.validate(w); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicWorker, func() error {
		return s.store.UpdateWorker(ctx, w)
	})
}

func (s *Service) DeleteWorker(ctx context.Context, id string) error {
	return s.mutate(ctx, statebus.TopicWorker, func() error {
		return s.store.DeleteWorker(ctx, id)
	})
}

func (s *Service) GetWorker(ctx context.Context, id string) (models.Worker, error) {
	var out models.Worker
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.GetWorker(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	var out []models.Worker
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.ListWorkers(ctx)
		return err
	})
	return out, err
}
