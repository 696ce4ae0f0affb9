package farm

import (
	"context"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func (s *Service) validateFeedWater(e models.FeedWaterEntry) error {
	if err := s.validate(e); err != nil {
		return err
	}
	if e.FeedKg == 0 && e.WaterL == 0 {
		return fmt.Errorf("%w: feed or water quantity is required", ErrValidation)
	}
	return nil
}

func (s *Service) AddFeedWater(ctx context.Context, e models.FeedWaterEntry) error {
	if err := s.validateFeedWater(e); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicFeedWater, func() error {
		if err := s.requireBatch(ctx, e.BatchID); err != nil {
			return err
		}
		return s.store.AddFeedWater(ctx, e)
	})
}

// UpdateFeedWater replaces every log of the old (batch, date) pair with e.
func (s *Service) UpdateFeedWater(ctx context.Context, oldBatchID string, oldDate models.Date, e models.FeedWaterEntry) error {
	if err := s.validateFeedWater(e); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicFeedWater, func() error {
		if e.BatchID != oldBatchID {
			if err := s.requireBatch(ctx, e.BatchID); err != nil {
				return err
			}
		}
		return s.store.ReplaceFeedWater(ctx, oldBatchID, oldDate, e)
	})
}

func (s *Service) DeleteFeedWater(ctx context.Context, batchID string, date models.Date) error {
	return s.mutate(ctx, statebus.TopicFeedWater, func() error {
		return s.store.DeleteFeedWater(ctx, batchID, date)
	})
}

func (s *Service) ListFeedWater(ctx context.Context, batchID string) ([]models.FeedWaterEntry, error) {
	var out []models.FeedWaterEntry
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.ListFeedWater(ctx, batchID)
		return err
	})
	return out, err
}
