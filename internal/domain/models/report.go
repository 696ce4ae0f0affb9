package models

import "time"

// DailyReport is the per-day roll-up archived to MongoDB.
type DailyReport struct {
	Date          time.Time `bson:"date" json:"date"`
	FeedConsumed  float64   `bson:"feed_consumed" json:"feed_consumed"`
	WaterConsumed float64   `bson:"water_consumed" json:"water_consumed"`
	Mortality     int       `bson:"mortality" json:"mortality"`
	Vaccinations  int       `bson:"vaccinations" json:"vaccinations"`
	Revenue       float64   `bson:"revenue" json:"revenue"`
	Expenses      float64   `bson:"expenses" json:"expenses"`
	Profit        float64   `bson:"profit" json:"profit"`
	ActiveBatches int       `bson:"active_batches" json:"active_batches"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// PeriodTotals are raw sums over an inclusive date range.
type PeriodTotals struct {
	From          Date    `json:"from"`
	To            Date    `json:"to"`
	FeedKg        float64 `json:"feed_kg"`
	WaterL        float64 `json:"water_l"`
	Mortality     int     `json:"mortality"`
	Vaccinations  int     `json:"vaccinations"`
	Revenue       float64 `json:"revenue"`
	Expenses      float64 `json:"expenses"`
	ActiveBatches int     `json:"active_batches"`
	Birds         int     `json:"birds"`
}
