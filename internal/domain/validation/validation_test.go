package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(models.Batch{NumChicks: 10})
	require.Error(t, err)

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "required", fields["batch_id"])
	require.Equal(t, "required", fields["breed"])
}

func TestStructChecksDatesAndEnums(t *testing.T) {
	v := New()

	err := v.Struct(models.VaccinationRecord{BatchID: "B001", Vaccine: "Fowl Pox", Status: "Maybe"})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "required", fields["date"])
	require.Equal(t, "enum", fields["status"])

	ok := models.VaccinationRecord{
		BatchID: "B001",
		Date:    models.NewDate(2024, 6, 10),
		Vaccine: "Fowl Pox",
		Status:  models.VaccinationScheduled,
	}
	require.NoError(t, v.Struct(ok))
}

func TestStructRejectsNonPositiveAmount(t *testing.T) {
	v := New()

	err := v.Struct(models.Expense{
		Date:          models.NewDate(2024, 6, 1),
		Category:      models.CategoryFeed,
		Amount:        0,
		PaymentMethod: models.PaymentCash,
	})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "gt", fields["amount"])
}

func TestStructRejectsNonFiniteNumbers(t *testing.T) {
	v := New()

	for _, amount := range []float64{math.Inf(1), math.NaN()} {
		err := v.Struct(models.Revenue{Date: models.NewDate(2024, 6, 1), BatchID: "B001", Amount: amount})
		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Equal(t, "finite", fields["amount"])
	}

	err := v.Struct(models.FeedWaterEntry{BatchID: "B001", Date: models.NewDate(2024, 6, 1), FeedKg: math.Inf(1)})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "finite", fields["feed_kg"])

	require.NoError(t, v.Struct(models.Worker{WorkerID: "W1", Name: "Awa", Salary: 12000, Status: models.WorkerActive}))
}
