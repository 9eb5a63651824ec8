package models

import "time"

// KPISnapshot is the persisted daily KPI figure of one metric, optionally
// scoped to a branch.
type KPISnapshot struct {
	Date            time.Time `bson:"date" json:"date"`
	Branch          string    `bson:"branch,omitempty" json:"branch,omitempty"`
	Metric          string    `bson:"metric" json:"metric"`
	TotalValue      float64   `bson:"total_value" json:"total_value"`
	DailyValue      float64   `bson:"daily_value" json:"daily_value"`
	MonthlyValue    float64   `bson:"monthly_value" json:"monthly_value"`
	DailyProgress   float64   `bson:"daily_progress" json:"daily_progress"`
	MonthlyProgress float64   `bson:"monthly_progress" json:"monthly_progress"`
	Trend           string    `bson:"trend" json:"trend"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
