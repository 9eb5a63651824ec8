package models

// Metric is a numeric sales field used for KPI aggregation, with its fixed
// daily and monthly targets in cedis.
type Metric struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	DailyTarget   float64 `json:"daily_target"`
	MonthlyTarget float64 `json:"monthly_target"`
}

// MetricNetSales is the default metric and the fallback for unknown keys.
const MetricNetSales = "net_sales"

// Metrics lists the supported KPI metrics in display order.
var Metrics = []Metric{
	{Key: MetricNetSales, Label: "Net Sales", DailyTarget: 8000, MonthlyTarget: 160000},
	{Key: "expenditure", Label: "Expenditure", DailyTarget: 5000, MonthlyTarget: 100000},
	{Key: "total_actuals_in_cedis", Label: "Actuals", DailyTarget: 5000, MonthlyTarget: 100000},
	{Key: "total_credit", Label: "Credit", DailyTarget: 7000, MonthlyTarget: 140000},
	{Key: "total_collections", Label: "Collections", DailyTarget: 9000, MonthlyTarget: 180000},
	{Key: "total_sales_in_cedis", Label: "Sales", DailyTarget: 9000, MonthlyTarget: 180000},
	{Key: "total_variation_in_cedis", Label: "Variation", DailyTarget: 9000, MonthlyTarget: 180000},
}

// LookupMetric resolves key to a metric, falling back to net sales.
func LookupMetric(key string) (Metric, bool) {
	for _, m := range Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metrics[0], false
}
