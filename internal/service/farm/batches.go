package farm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func (s *Service) CreateBatch(ctx context.Context, b models.Batch) error {
	if err := s.validate(b); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicBatch, func() error {
		exists, err := s.store.BatchExists(ctx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: batch %s already exists", ErrDuplicate, b.ID)
		}
		if err := s.store.CreateBatch(ctx, b); err != nil {
			return err
		}
		s.logger.Info("batch created", zap.String("batch_id", b.ID), zap.Int("num_chicks", b.NumChicks))
		return nil
	})
}

// UpdateBatch rewrites the batch stored under oldID. A changed id renames the batch and moves
// its dependent rows.
func (s *Service) UpdateBatch(ctx context.Context, oldID string, b models.Batch) error {
	if err := s.validate(b); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicBatch, func() error {
		if oldID == "" || oldID == b.ID {
			return s.store.UpdateBatch(ctx, b)
		}

		exists, err := s.store.BatchExists(ctx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: batch %s already exists", ErrDuplicate, b.ID)
		}
		if err := s.store.RenameBatch(ctx, oldID, b); err != nil {
			return err
		}
		s.logger.Info("batch renamed", zap.String("from", oldID), zap.String("to", b.ID))
		return nil
	})
}

// DeleteBatch removes the batch row. Logs that reference it are kept.
func (s *Service) DeleteBatch(ctx context.Context, id string) error {
	return s.mutate(ctx, statebus.TopicBatch, func() error {
		return s.store.DeleteBatch(ctx, id)
	})
}

func (s *Service) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	var out models.Batch
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.GetBatch(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) ListBatches(ctx context.Context) ([]models.Batch, error) {
	var out []models.Batch
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.ListBatches(ctx)
		return err
	})
	return out, err
}
