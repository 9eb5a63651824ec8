package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/engine"
)

const dateLayout = "2006-01-02"

// DailySnapshots computes today's KPIs of every metric across all branches.
func (s *Service) DailySnapshots(ctx context.Context) ([]models.KPISnapshot, error) {
	now := s.Now()
	f := engine.Filter{
		Year:  fmt.Sprintf("%04d", now.Year()),
		Month: fmt.Sprintf("%02d", int(now.Month())),
		Day:   fmt.Sprintf("%02d", now.Day()),
	}

	store, err := s.Ensure(ctx, models.DatasetSales, engine.Filter{Year: f.Year})
	if err != nil {
		return nil, err
	}
	view := store.All()

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	out := make([]models.KPISnapshot, 0, len(models.Metrics))
	for _, metric := range models.Metrics {
		kpis := engine.ComputeKPIs(view, metric, f, now)
		out = append(out, snapshotFromKPIs(day, models.AllBranches, kpis, now))
	}
	return out, nil
}

func snapshotFromKPIs(day time.Time, branch string, kpis engine.KPIs, createdAt time.Time) models.KPISnapshot {
	return models.KPISnapshot{
		Date:            day,
		Branch:          branch,
		Metric:          kpis.Metric.Key,
		TotalValue:      kpis.TotalValue,
		DailyValue:      kpis.DailyValue,
		MonthlyValue:    kpis.MonthlyValue,
		DailyProgress:   kpis.DailyProgress,
		MonthlyProgress: kpis.MonthlyProgress,
		Trend:           string(kpis.Trend),
		CreatedAt:       createdAt,
	}
}

// FormatDigest renders snapshots as the manager's daily message.
func FormatDigest(snapshots []models.KPISnapshot) string {
	if len(snapshots) == 0 {
		return "Daily KPIs: no sales recorded yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daily KPIs (%s)", snapshots[0].Date.Format(dateLayout))
	for _, snap := range snapshots {
		label := snap.Metric
		if m, ok := models.LookupMetric(snap.Metric); ok {
			label = m.Label
		}
		fmt.Fprintf(&b, "\n- %s: today %s (%.1f%%), month %s (%.1f%%) %s",
			label,
			formatCedis(snap.DailyValue), snap.DailyProgress,
			formatCedis(snap.MonthlyValue), snap.MonthlyProgress,
			trendMarker(snap.Trend),
		)
	}
	return b.String()
}

// KPISummary answers a KPI question for one metric, optionally one branch.
func (s *Service) KPISummary(ctx context.Context, metricKey, branch string) (string, error) {
	f := engine.Filter{Branch: branch}
	kpis, err := s.KPIs(ctx, f, metricKey)
	if err != nil {
		return "", err
	}

	scope := models.AllBranches
	if f.BranchValue() != "" {
		scope = f.BranchValue()
	}
	return fmt.Sprintf("%s, %s (%04d-%02d-%02d): today %s of %s target (%.1f%%), month %s of %s (%.1f%%). Trend %s.",
		kpis.Metric.Label, scope, kpis.Year, kpis.Month, kpis.Day,
		formatCedis(kpis.DailyValue), formatCedis(kpis.Metric.DailyTarget), kpis.DailyProgress,
		formatCedis(kpis.MonthlyValue), formatCedis(kpis.Metric.MonthlyTarget), kpis.MonthlyProgress,
		kpis.Trend,
	), nil
}

// StockSummary lists the year's fuel totals per branch.
func (s *Service) StockSummary(ctx context.Context) (string, error) {
	store, err := s.Ensure(ctx, models.DatasetStock, engine.Filter{})
	if err != nil {
		return "", err
	}
	year := s.QueryFor(models.DatasetStock, engine.Filter{}).Year
	if store.Len() == 0 {
		return fmt.Sprintf("Stock summary (%s): no records yet.", year), nil
	}

	view := engine.SortView(store.All(), engine.SortSpec{Key: models.FieldBranch, Direction: engine.Ascending})
	var totalAGO, totalPMS float64
	var b strings.Builder
	fmt.Fprintf(&b, "Stock summary (%s)", year)
	for i := 0; i < view.Len(); i++ {
		rec := view.Record(i)
		ago := rec.Get(models.FieldTotalAGO).Float()
		pms := rec.Get(models.FieldTotalPMS).Float()
		totalAGO += ago
		totalPMS += pms
		fmt.Fprintf(&b, "\n- %s: AGO %s L, PMS %s L", rec.Branch(), engine.FormatNumber(ago), engine.FormatNumber(pms))
	}
	fmt.Fprintf(&b, "\nTotal: AGO %s L, PMS %s L", engine.FormatNumber(totalAGO), engine.FormatNumber(totalPMS))
	return b.String(), nil
}

// TruckSummary reports today's truck deliveries grouped by destination.
func (s *Service) TruckSummary(ctx context.Context) (string, error) {
	now := s.Now()
	f := engine.Filter{
		Year:  fmt.Sprintf("%04d", now.Year()),
		Month: fmt.Sprintf("%d", int(now.Month())),
		Day:   fmt.Sprintf("%d", now.Day()),
	}
	store, err := s.Ensure(ctx, models.DatasetTrucks, f)
	if err != nil {
		return "", err
	}

	view := engine.ApplyFilters(store, f)
	if view.Len() == 0 {
		s.logger.Debug("no truck trips today", zap.Int("records", store.Len()))
		return fmt.Sprintf("Trucks (%s): no deliveries logged.", now.Format(dateLayout)), nil
	}

	volumes := make(map[string]float64)
	var total float64
	for i := 0; i < view.Len(); i++ {
		rec := view.Record(i)
		dest := rec.Get(models.FieldDestination).Str()
		if dest == "" {
			dest = "Unknown"
		}
		v := rec.Get(models.FieldAGO).Float() + rec.Get(models.FieldPMS).Float()
		volumes[dest] += v
		total += v
	}

	dests := make([]string, 0, len(volumes))
	for d := range volumes {
		dests = append(dests, d)
	}
	sort.Strings(dests)

	var b strings.Builder
	fmt.Fprintf(&b, "Trucks (%s): %d trips, %s L", now.Format(dateLayout), view.Len(), engine.FormatNumber(total))
	for _, d := range dests {
		fmt.Fprintf(&b, "\n- %s: %s L", d, engine.FormatNumber(volumes[d]))
	}
	return b.String(), nil
}

func formatCedis(v float64) string {
	return "GH₵" + decimal.NewFromFloat(v).StringFixed(2)
}

func trendMarker(trend string) string {
	switch engine.Trend(trend) {
	case engine.TrendUp:
		return "▲"
	case engine.TrendDown:
		return "▼"
	default:
		return "■"
	}
}
