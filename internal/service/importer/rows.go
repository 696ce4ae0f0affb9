package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// record is one source row keyed by field name.
type record map[string]string

func (r record) get(name string) string {
	return strings.TrimSpace(r[name])
}

var dateLayouts = []string{models.DateLayout, "2006/01/02", "1/2/2006", "1/2/06", "02-01-2006"}

func (r record) date(name string) (models.Date, error) {
	raw := r.get(name)
	if raw == "" {
		return models.Date{}, nil
	}
	if d, err := models.ParseDate(raw); err == nil {
		return d, nil
	}
	for _, layout := range dateLayouts[1:] {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.DateOf(t), nil
		}
	}
	return models.Date{}, fmt.Errorf("%s: invalid date %q", name, raw)
}

func (r record) float(name string) (float64, error) {
	raw := strings.ReplaceAll(r.get(name), ",", "")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", name, r.get(name))
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%s: %q is not a finite number", name, r.get(name))
	}
	return v, nil
}

func (r record) int(name string) (int, error) {
	v, err := r.float(name)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%s: %q is not a whole number", name, r.get(name))
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%s: %q is out of range", name, r.get(name))
	}
	return int(v), nil
}

// decoder collects the first conversion error so row builders stay linear.
type decoder struct {
	rec record
	err error
}

func (d *decoder) str(name string) string { return d.rec.get(name) }

func (d *decoder) date(name string) models.Date {
	v, err := d.rec.date(name)
	d.keep(err)
	return v
}

func (d *decoder) float(name string) float64 {
	v, err := d.rec.float(name)
	d.keep(err)
	return v
}

func (d *decoder) int(name string) int {
	v, err := d.rec.int(name)
	d.keep(err)
	return v
}

func (d *decoder) keep(err error) {
	if d.err == nil {
		d.err = err
	}
}

func decodeBatch(rec record) (models.Batch, error) {
	d := &decoder{rec: rec}
	b := models.Batch{
		ID:            d.str("batch_id"),
		NumChicks:     d.int("num_chicks"),
		Breed:         d.str("breed"),
		DateIn:        d.date("date_in"),
		ExpectedOut:   d.date("expected_out"),
		MortalityRate: d.float("mortality_rate"),
	}
	if d.err == nil && b.DateIn.IsZero() {
		d.err = fmt.Errorf("date_in is required")
	}
	return b, d.err
}

func decodeFeedWater(rec record) (models.FeedWaterEntry, error) {
	d := &decoder{rec: rec}
	e := models.FeedWaterEntry{
		BatchID: d.str("batch_id"),
		Date:    d.date("date"),
		FeedKg:  d.float("feed_kg"),
		WaterL:  d.float("water_l"),
	}
	if d.err == nil && e.FeedKg == 0 && e.WaterL == 0 {
		d.err = fmt.Errorf("feed_kg or water_l must be positive")
	}
	return e, d.err
}

func decodeVaccination(rec record) (models.VaccinationRecord, error) {
	d := &decoder{rec: rec}
	v := models.VaccinationRecord{
		BatchID: d.str("batch_id"),
		Date:    d.date("date"),
		Vaccine: d.str("vaccine"),
		Status:  models.VaccinationStatus(d.str("status")),
	}
	if v.Status == "" {
		v.Status = models.VaccinationScheduled
	}
	return v, d.err
}

func decodeMortality(rec record) (models.MortalityRecord, error) {
	d := &decoder{rec: rec}
	m := models.MortalityRecord{
		BatchID: d.str("batch_id"),
		Date:    d.date("date"),
		Count:   d.int("count"),
		Reason:  d.str("reason"),
	}
	return m, d.err
}

func decodeWorker(rec record) (models.Worker, error) {
	d := &decoder{rec: rec}
	w := models.Worker{
		WorkerID: d.str("worker_id"),
		Name:     d.str("name"),
		Role:     d.str("role"),
		Phone:    d.str("phone"),
		Email:    d.str("email"),
		Address:  d.str("address"),
		Salary:   d.float("salary"),
		HireDate: d.date("hire_date"),
		Status:   models.WorkerStatus(d.str("status")),
	}
	if w.Status == "" {
		w.Status = models.WorkerActive
	}
	return w, d.err
}

func decodeExpense(rec record) (models.Expense, error) {
	d := &decoder{rec: rec}
	e := models.Expense{
		Date:          d.date("date"),
		Category:      models.ExpenseCategory(d.str("category")),
		Amount:        d.float("amount"),
		Description:   d.str("description"),
		PaymentMethod: models.PaymentMethod(d.str("payment_method")),
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = models.PaymentCash
	}
	return e, d.err
}

func decodeRevenue(rec record) (models.Revenue, error) {
	d := &decoder{rec: rec}
	r := models.Revenue{
		BatchID: d.str("batch_id"),
		Amount:  d.float("amount"),
		Date:    d.date("date"),
	}
	return r, d.err
}
