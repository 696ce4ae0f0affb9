// Package commands turns quick-entry chat commands into farm mutations.
package commands

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// Farm is the subset of the farm service the dispatcher writes through.
type Farm interface {
	Today() models.Date
	AddFeedWater(ctx context.Context, e models.FeedWaterEntry) error
	AddMortality(ctx context.Context, m models.MortalityRecord) error
	AddVaccination(ctx context.Context, v models.VaccinationRecord) error
	AddExpense(ctx context.Context, e models.Expense) error
	AddRevenue(ctx context.Context, r models.Revenue) error
	Summaries(ctx context.Context) (models.Summaries, error)
}

var usage = map[models.CommandType]string{
	models.CommandFeed:      "/feed <batch> <kg> [water litres]",
	models.CommandWater:     "/water <batch> <litres>",
	models.CommandMortality: "/mortality <batch> <count> [reason]",
	models.CommandExpense:   "/expense <category> <amount> [description]",
	models.CommandRevenue:   "/revenue <batch> <amount>",
	models.CommandVaccinate: "/vaccinate <batch> <vaccine name>",
	models.CommandSummary:   "/summary",
}

var helpOrder = []models.CommandType{
	models.CommandFeed, models.CommandWater, models.CommandMortality, models.CommandExpense,
	models.CommandRevenue, models.CommandVaccinate, models.CommandSummary,
}

// Service executes parsed commands against the farm.
type Service struct {
	farm   Farm
	logger *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(farm Farm, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{farm: farm, logger: logger}
}

// HandleCommand performs cmd and returns the confirmation to send back. Writes are dated today.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (models.AutomationReply, error) {
	s.logger.Debug("dispatching command",
		zap.String("command", string(cmd.Type)),
		zap.String("sender", sender),
		zap.Strings("args", cmd.Args),
	)

	today := s.farm.Today()
	var (
		title   string
		message string
		err     error
	)

	switch cmd.Type {
	case models.CommandFeed, models.CommandWater:
		title = "Feed & Water"
		message, err = s.feedWater(ctx, cmd, today)
	case models.CommandMortality:
		title = "Mortality Update"
		message, err = s.mortality(ctx, cmd, today)
	case models.CommandExpense:
		title = "Expense Logging"
		message, err = s.expense(ctx, cmd, today)
	case models.CommandRevenue:
		title = "Sales Report"
		message, err = s.revenue(ctx, cmd, today)
	case models.CommandVaccinate:
		title = "Vaccination"
		message, err = s.vaccinate(ctx, cmd, today)
	case models.CommandSummary:
		return models.AutomationReply{Title: "Farm Summary", Message: s.summary(ctx)}, nil
	default:
		return Help(), nil
	}
	if err != nil {
		return models.AutomationReply{}, err
	}

	if short := s.summary(ctx); short != "" {
		message += "\n" + short
	}
	return models.AutomationReply{Title: title, Message: message}, nil
}

// Help lists every supported command.
func Help() models.AutomationReply {
	lines := make([]string, 0, len(helpOrder))
	for _, t := range helpOrder {
		lines = append(lines, usage[t])
	}
	return models.AutomationReply{
		Title:   "Command Help",
		Message: "Supported commands:\n" + strings.Join(lines, "\n"),
	}
}

func (s *Service) feedWater(ctx context.Context, cmd models.Command, today models.Date) (string, error) {
	if len(cmd.Args) < 2 {
		return "", invalid(cmd.Type)
	}
	first, err := parseAmount(cmd.Args[1])
	if err != nil {
		return "", invalid(cmd.Type)
	}

	entry := models.FeedWaterEntry{BatchID: cmd.Args[0], Date: today}
	if cmd.Type == models.CommandWater {
		entry.WaterL = first
	} else {
		entry.FeedKg = first
		if len(cmd.Args) > 2 {
			water, err := parseAmount(cmd.Args[2])
			if err != nil {
				return "", invalid(cmd.Type)
			}
			entry.WaterL = water
		}
	}

	if err := s.farm.AddFeedWater(ctx, entry); err != nil {
		return "", err
	}

	parts := make([]string, 0, 2)
	if entry.FeedKg > 0 {
		parts = append(parts, fmt.Sprintf("%.2f kg feed", entry.FeedKg))
	}
	if entry.WaterL > 0 {
		parts = append(parts, fmt.Sprintf("%.2f L water", entry.WaterL))
	}
	return fmt.Sprintf("Logged %s for batch %s on %s.", strings.Join(parts, " and "), entry.BatchID, entry.Date), nil
}

func (s *Service) mortality(ctx context.Context, cmd models.Command, today models.Date) (string, error) {
	if len(cmd.Args) < 2 {
		return "", invalid(cmd.Type)
	}
	count, err := strconv.Atoi(cmd.Args[1])
	if err != nil {
		return "", invalid(cmd.Type)
	}

	record := models.MortalityRecord{
		BatchID: cmd.Args[0],
		Date:    today,
		Count:   count,
		Reason:  strings.Join(cmd.Args[2:], " "),
	}
	if err := s.farm.AddMortality(ctx, record); err != nil {
		return "", err
	}

	message := fmt.Sprintf("Mortality logged for batch %s on %s: %d birds.", record.BatchID, record.Date, record.Count)
	if record.Reason != "" {
		message += fmt.Sprintf(" Reason: %s.", record.Reason)
	}
	return message, nil
}

func (s *Service) expense(ctx context.Context, cmd models.Command, today models.Date) (string, error) {
	if len(cmd.Args) < 2 {
		return "", invalid(cmd.Type)
	}
	category, ok := matchCategory(cmd.Args[0])
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArguments, cmd.Args[0])
	}
	amount, err := parseAmount(cmd.Args[1])
	if err != nil {
		return "", invalid(cmd.Type)
	}

	expense := models.Expense{
		Date:          today,
		Category:      category,
		Amount:        amount,
		Description:   strings.Join(cmd.Args[2:], " "),
		PaymentMethod: models.PaymentCash,
	}
	if err := s.farm.AddExpense(ctx, expense); err != nil {
		return "", err
	}
	return fmt.Sprintf("Expense logged: %s %.2f on %s.", expense.Category, expense.Amount, expense.Date), nil
}

func (s *Service) revenue(ctx context.Context, cmd models.Command, today models.Date) (string, error) {
	if len(cmd.Args) < 2 {
		return "", invalid(cmd.Type)
	}
	amount, err := parseAmount(cmd.Args[1])
	if err != nil {
		return "", invalid(cmd.Type)
	}

	rev := models.Revenue{BatchID: cmd.Args[0], Date: today, Amount: amount}
	if err := s.farm.AddRevenue(ctx, rev); err != nil {
		return "", err
	}
	return fmt.Sprintf("Revenue recorded for batch %s: %.2f on %s.", rev.BatchID, rev.Amount, rev.Date), nil
}

func (s *Service) vaccinate(ctx context.Context, cmd models.Command, today models.Date) (string, error) {
	if len(cmd.Args) < 2 {
		return "", invalid(cmd.Type)
	}

	record := models.VaccinationRecord{
		BatchID: cmd.Args[0],
		Date:    today,
		Vaccine: strings.Join(cmd.Args[1:], " "),
		Status:  models.VaccinationCompleted,
	}
	if err := s.farm.AddVaccination(ctx, record); err != nil {
		return "", err
	}
	return fmt.Sprintf("Vaccination %s recorded for batch %s on %s.", record.Vaccine, record.BatchID, record.Date), nil
}

func (s *Service) summary(ctx context.Context) string {
	sum, err := s.farm.Summaries(ctx)
	if err != nil {
		s.logger.Debug("summary for reply failed", zap.Error(err))
		return ""
	}
	return fmt.Sprintf("Batches %d | Feed %.2f kg | Water %.2f L | Mortality %d (%.2f%%) | Profit %.2f",
		sum.Batch.Total,
		sum.Batch.FeedKg,
		sum.Batch.WaterL,
		sum.Health.TotalMortality,
		sum.Health.MortalityRate,
		sum.Financial.Profit,
	)
}

func invalid(t models.CommandType) error {
	return fmt.Errorf("%w: usage %s", ErrInvalidArguments, usage[t])
}

func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%q is not a finite amount", raw)
	}
	return v, nil
}

func matchCategory(raw string) (models.ExpenseCategory, bool) {
	for _, c := range models.ExpenseCategories {
		if strings.EqualFold(string(c), raw) {
			return c, true
		}
	}
	return "", false
}
