package models

// Batch is a cohort of chicks raised together, keyed by a user-assigned id.
type Batch struct {
	ID            string  `json:"batch_id" validate:"required"`
	NumChicks     int     `json:"num_chicks" validate:"gte=0"`
	Breed         string  `json:"breed" validate:"required"`
	DateIn        Date    `json:"date_in"`
	ExpectedOut   Date    `json:"expected_out"`
	MortalityRate float64 `json:"mortality_rate" validate:"finite,gte=0"`
}

// FeedLog is one day of feed consumption for a batch.
type FeedLog struct {
	BatchID    string  `json:"batch_id"`
	Date       Date    `json:"date"`
	QuantityKg float64 `json:"quantity_kg"`
}

// WaterLog is one day of water consumption for a batch.
type WaterLog struct {
	BatchID   string  `json:"batch_id"`
	Date      Date    `json:"date"`
	QuantityL float64 `json:"quantity_l"`
}

// FeedWaterEntry is the combined per-day feed and water reading. A zero quantity means the
// resource was not logged that day.
type FeedWaterEntry struct {
	BatchID string  `json:"batch_id" validate:"required"`
	Date    Date    `json:"date" validate:"required"`
	FeedKg  float64 `json:"feed_kg" validate:"finite,gte=0"`
	WaterL  float64 `json:"water_l" validate:"finite,gte=0"`
}

// MortalityRecord captures deaths in a batch. Rows are additive.
type MortalityRecord struct {
	BatchID string `json:"batch_id" validate:"required"`
	Date    Date   `json:"date" validate:"required"`
	Count   int    `json:"count" validate:"gt=0"`
	Reason  string `json:"reason"`
}

// VaccinationRecord captures a scheduled or administered vaccine.
type VaccinationRecord struct {
	BatchID string            `json:"batch_id" validate:"required"`
	Date    Date              `json:"date" validate:"required"`
	Vaccine string            `json:"vaccine" validate:"required"`
	Status  VaccinationStatus `json:"status" validate:"enum"`
}

// Worker is a farm employee.
type Worker struct {
	WorkerID string       `json:"worker_id" validate:"required"`
	Name     string       `json:"name" validate:"required"`
	Role     string       `json:"role"`
	Phone    string       `json:"phone"`
	Email    string       `json:"email" validate:"omitempty,email"`
	Address  string       `json:"address"`
	Salary   float64      `json:"salary" validate:"finite,gte=0"`
	HireDate Date         `json:"hire_date"`
	Status   WorkerStatus `json:"status" validate:"enum"`
}

// Expense is an operating cost. It has no key beyond its full tuple.
type Expense struct {
	Date          Date            `json:"date" validate:"required"`
	Category      ExpenseCategory `json:"category" validate:"enum"`
	Amount        float64         `json:"amount" validate:"finite,gt=0"`
	Description   string          `json:"description"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"enum"`
}

// Revenue is income attributed to a batch.
type Revenue struct {
	Date    Date    `json:"date" validate:"required"`
	BatchID string  `json:"batch_id" validate:"required"`
	Amount  float64 `json:"amount" validate:"finite,gt=0"`
}

// AdminCredential is the single operator account.
type AdminCredential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
