package farm

import (
	"context"
	"errors"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/pkg/password"
)

// WorkerRef names an active worker in selection lists.
type WorkerRef struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
}

// Lookups are the option lists offered when entering records.
type Lookups struct {
	ExpenseCategories   []models.ExpenseCategory   `json:"expense_categories"`
	PaymentMethods      []models.PaymentMethod     `json:"payment_methods"`
	VaccineTypes        []string                   `json:"vaccine_types"`
	VaccinationStatuses []models.VaccinationStatus `json:"vaccination_statuses"`
	WorkerRoles         []string                   `json:"worker_roles"`
	WorkerStatuses      []models.WorkerStatus      `json:"worker_statuses"`
	BatchIDs            []string                   `json:"batch_ids"`
	ActiveWorkers       []WorkerRef                `json:"active_workers"`
}

func (s *Service) Lookups(ctx context.Context) (Lookups, error) {
	out := Lookups{
		ExpenseCategories: models.ExpenseCategories,
		PaymentMethods:    models.PaymentMethods,
		VaccineTypes:      models.VaccineTypes,
		VaccinationStatuses: []models.VaccinationStatus{
			models.VaccinationScheduled, models.VaccinationCompleted,
			models.VaccinationCancelled, models.VaccinationPostponed,
		},
		WorkerRoles: models.WorkerRoles,
		WorkerStatuses: []models.WorkerStatus{
			models.WorkerActive, models.WorkerInactive, models.WorkerOnLeave, models.WorkerTerminated,
		},
	}

	err := s.read(ctx, func() error {
		ids, err := s.store.BatchIDs(ctx)
		if err != nil {
			return err
		}
		active, err := s.store.ActiveWorkers(ctx)
		if err != nil {
			return err
		}

		out.BatchIDs = ids
		for _, w := range active {
			out.ActiveWorkers = append(out.ActiveWorkers, WorkerRef{WorkerID: w.WorkerID, Name: w.Name})
		}
		return nil
	})
	if err != nil {
		return Lookups{}, fmt.Errorf("load lookups: %w", err)
	}
	return out, nil
}

// Authenticate checks the admin credentials against the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, username, plain string) error {
	return s.read(ctx, func() error {
		return s.authenticate(ctx, username, plain)
	})
}

func (s *Service) authenticate(ctx context.Context, username, plain string) error {
	cred, err := s.store.GetAdmin(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if err := password.Compare(cred.PasswordHash, plain); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

const minPasswordLength = 4

// ChangePassword replaces the admin password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, username, current, next string) error {
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	return s.read(ctx, func() error {
		if err := s.authenticate(ctx, username, current); err != nil {
			return err
		}
		hash, err := password.Hash(next)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		return s.store.UpdateAdminPassword(ctx, username, hash)
	})
}

// ResetPassword sets the admin password without the current one. Used from the CLI.
func (s *Service) ResetPassword(ctx context.Context, username, next string) error {
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	return s.read(ctx, func() error {
		hash, err := password.Hash(next)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		return s.store.UpdateAdminPassword(ctx, username, hash)
	})
}
