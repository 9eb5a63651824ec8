package engine

import (
	"math"
	"time"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// Trend is a threshold classification of daily progress.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

const (
	trendUpAbove   = 50.0
	trendDownBelow = 30.0
	progressCap    = 100.0
)

// KPIs is the aggregation of one metric over a filtered view.
type KPIs struct {
	Metric          models.Metric `json:"metric"`
	Year            int           `json:"year"`
	Month           int           `json:"month"`
	Day             int           `json:"day"`
	TotalValue      float64       `json:"total_value"`
	DailyValue      float64       `json:"daily_value"`
	MonthlyValue    float64       `json:"monthly_value"`
	DailyProgress   float64       `json:"daily_progress"`
	MonthlyProgress float64       `json:"monthly_progress"`
	Trend           Trend         `json:"trend"`
}

// ComputeKPIs sums metric over the view and measures the day and month
// selected by the filter against the metric's targets. When the filter has
// no month or day the current date (now, in the store's zone) is used; the
// year comes from the filter's leading digits, else the current year.
func ComputeKPIs(v View, metric models.Metric, f Filter, now time.Time) KPIs {
	now = now.In(v.Store().Location())
	year, month, day := resolvePeriod(f, now)

	out := KPIs{
		Metric: metric,
		Year:   year,
		Month:  month,
		Day:    day,
		Trend:  TrendNeutral,
	}
	if v.Len() == 0 {
		return out
	}

	for i := 0; i < v.Len(); i++ {
		value := v.Record(i).Get(metric.Key).Float()
		if math.IsNaN(value) {
			value = 0
		}
		out.TotalValue += value

		parts := v.Date(i)
		if !parts.OK || parts.Year != year || parts.Month != month {
			continue
		}
		out.MonthlyValue += value
		if parts.Day == day {
			out.DailyValue += value
		}
	}

	out.DailyProgress = Progress(out.DailyValue, metric.DailyTarget)
	out.MonthlyProgress = Progress(out.MonthlyValue, metric.MonthlyTarget)
	out.Trend = ClassifyTrend(out.DailyProgress)
	return out
}

// Progress is value as a percentage of target, capped at 100. Negative
// values are not floored.
func Progress(value, target float64) float64 {
	if target == 0 {
		return 0
	}
	return math.Min(progressCap, value/target*100)
}

// ClassifyTrend maps daily progress onto up (> 50), down (< 30) or neutral.
func ClassifyTrend(dailyProgress float64) Trend {
	switch {
	case dailyProgress > trendUpAbove:
		return TrendUp
	case dailyProgress < trendDownBelow:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// resolvePeriod picks the KPI day. An unparseable month or day resolves to
// -1 so that nothing matches.
func resolvePeriod(f Filter, now time.Time) (year, month, day int) {
	year = now.Year()
	if y, ok := models.ParseLeadingInt(f.Year); ok && y != 0 {
		year = y
	}

	month = int(now.Month())
	if f.Month != "" {
		month = -1
		if m, ok := models.ParseLeadingInt(f.Month); ok {
			month = m
		}
	}

	day = now.Day()
	if f.Day != "" {
		day = -1
		if d, ok := models.ParseLeadingInt(f.Day); ok {
			day = d
		}
	}
	return year, month, day
}
