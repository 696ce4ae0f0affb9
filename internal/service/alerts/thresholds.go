package alerts

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownThreshold is returned by SetThreshold for a name outside Thresholds.
	ErrUnknownThreshold = errors.New("unknown threshold")
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Thresholds are the alert limits. MortalityRate is a fraction of the placed chicks.
type Thresholds struct {
	MortalityRate      float64 `yaml:"mortality_rate" json:"mortality_rate"`
	FeedLowKg          float64 `yaml:"feed_low" json:"feed_low"`
	WaterLowL          float64 `yaml:"water_low" json:"water_low"`
	VaccinationDueDays int     `yaml:"vaccination_due" json:"vaccination_due"`
	BatchEndDays       int     `yaml:"batch_end" json:"batch_end"`
	ExpenseHigh        float64 `yaml:"expense_high" json:"expense_high"`
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MortalityRate:      0.05,
		FeedLowKg:          100,
		WaterLowL:          500,
		VaccinationDueDays: 7,
		BatchEndDays:       3,
		ExpenseHigh:        10000,
	}
}

// LoadThresholds overlays the YAML file at path on the defaults. An empty path keeps the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return t, fmt.Errorf("open thresholds: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return DefaultThresholds(), fmt.Errorf("decode thresholds %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return DefaultThresholds(), err
	}
	return t, nil
}

func (t Thresholds) Validate() error {
	switch {
	case t.MortalityRate < 0 || t.MortalityRate > 1:
		return fmt.Errorf("%w: mortality_rate must be between 0 and 1, got %v", ErrInvalidThreshold, t.MortalityRate)
	case t.FeedLowKg < 0, t.WaterLowL < 0, t.ExpenseHigh < 0:
		return fmt.Errorf("%w: feed_low, water_low and expense_high must not be negative", ErrInvalidThreshold)
	case t.VaccinationDueDays < 0, t.BatchEndDays < 0:
		return fmt.Errorf("%w: vaccination_due and batch_end must not be negative", ErrInvalidThreshold)
	}
	return nil
}

func (t *Thresholds) set(name string, value float64) error {
	next := *t
	switch name {
	case "mortality_rate":
		next.MortalityRate = value
	case "feed_low":
		next.FeedLowKg = value
	case "water_low":
		next.WaterLowL = value
	case "vaccination_due":
		next.VaccinationDueDays = int(value)
	case "batch_end":
		next.BatchEndDays = int(value)
	case "expense_high":
		next.ExpenseHigh = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownThreshold, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*t = next
	return nil
}
