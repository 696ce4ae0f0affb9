package farm

import (
	"context"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func (s *Service) AddMortality(ctx context.Context, m models.MortalityRecord) error {
	if err := s.validate(m); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicMortality, func() error {
		if err := s.requireBatch(ctx, m.BatchID); err != nil {
			return err
		}
		return s.store.AddMortality(ctx, m)
	})
}

// UpdateMortality rewrites every record equal to old.
func (s *Service) UpdateMortality(ctx context.Context, old, updated models.MortalityRecord) error {
	if err := s.validate(updated); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicMortality, func() error {
		return s.store.UpdateMortality(ctx, old, updated)
	})
}

func (s *Service) DeleteMortality(ctx context.Context, m models.MortalityRecord) error {
	return s.mutate(ctx, statebus.TopicMortality, func() error {
		return s.store.DeleteMortality(ctx, m)
	})
}

func (s *Service) ListMortality(ctx context.Context, batchID string) ([]models.MortalityRecord, error) {
	var out []models.MortalityRecord
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.ListMortality(ctx, batchID)
		return err
	})
	return out, err
}

func (s *Service) AddVaccination(ctx context.Context, v models.VaccinationRecord) error {
	if v.Status == "" {
		v.Status = models.VaccinationScheduled
	}
	if err := s.validate(v); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicVaccination, func() error {
		if err := s.requireBatch(ctx, v.BatchID); err != nil {
			return err
		}
		return s.store.AddVaccination(ctx, v)
	})
}

// UpdateVaccination rewrites every record with the (batch, date, vaccine) of old.
func (s *Service) UpdateVaccination(ctx context.Context, old, updated models.VaccinationRecord) error {
	if err := s.validate(updated); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicVaccination, func() error {
		return s.store.UpdateVaccination(ctx, old, updated)
	})
}

func (s *Service) DeleteVaccination(ctx context.Context, v models.VaccinationRecord) error {
	return s.mutate(ctx, statebus.TopicVaccination, func() error {
		return s.store.DeleteVaccination(ctx, v)
	})
}

func (s *Service) ListVaccinations(ctx context.Context, batchID string) ([]models.VaccinationRecord, error) {
	var out []models.VaccinationRecord
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.ListVaccinations(ctx, batchID)
		return err
	})
	return out, err
}
