package farm

import (
	"context"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func (s *Service) AddExpense(ctx context.Context, e models.Expense) error {
	if e.PaymentMethod == "" {
		e.PaymentMethod = models.PaymentCash
	}
	if err := s.validate(e); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicExpense, func() error {
		return s.store.AddExpense(ctx, e)
	})
}

// UpdateExpense rewrites every expense equal to old.
func (s *Service) UpdateExpense(ctx context.Context, old, updated models.Expense) error {
	if err := s.validate(updated); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicExpense, func() error {
		return s.store.UpdateExpense(ctx, old, updated)
	})
}

func (s *Service) DeleteExpense(ctx context.Context, e models.Expense) error {
	return s.mutate(ctx, statebus.TopicExpense, func() error {
		return s.store.DeleteExpense(ctx, e)
	})
}

func (s *Service) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var out []models.Expense
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.ListExpenses(ctx)
		return err
	})
	return out, err
}

func (s *Service) AddRevenue(ctx context.Context, r models.Revenue) error {
	if err := s.validate(r); err != nil {
		return err
	}

	return s.mutate(ctx, statebus.TopicRevenue, func() error {
		if err := s.requireBatch(ctx, r.BatchID); err != nil {
			return err
		}
		return s.store.AddRevenue(ctx, r)
	})
}

func (s *Service) DeleteRevenue(ctx context.Context, r models.Revenue) error {
	return s.mutate(ctx, statebus.TopicRevenue, func() error {
		return s.store.DeleteRevenue(ctx, r)
	})
}

func (s *Service) ListRevenue(ctx context.Context, batchID string) ([]models.Revenue, error) {
	var out []models.Revenue
	err := s.read(ctx, func() error {
		var err error
		out, err = s.store.ListRevenue(ctx, batchID)
		return err
	})
	return out, err
}
