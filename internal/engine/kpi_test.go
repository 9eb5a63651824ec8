package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

var netSalesMetric = models.Metric{Key: "net_sales", Label: "Net Sales", DailyTarget: 8000, MonthlyTarget: 160000}

var kpiNow = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

const kpiStoreJSON = `[
	{"branch": "Tema", "date": "2025-03-05T09:00:00Z", "net_sales": 4000},
	{"branch": "Tema", "date": "2025-03-04T09:00:00Z", "net_sales": 1000},
	{"branch": "Tema", "date": "2025-02-05T09:00:00Z", "net_sales": 500},
	{"branch": "Tema", "net_sales": "250 cedis"}
]`

func TestComputeKPIsHalfOfDailyTargetIsNeutral(t *testing.T) {
	store := newTestStore(t, `[{"branch": "Tema", "date": "2025-03-05T09:00:00Z", "net_sales": 4000}]`)
	f := Filter{Year: "2025", Month: "03", Day: "05"}

	kpis := ComputeKPIs(ApplyFilters(store, f), netSalesMetric, f, kpiNow)

	assert.Equal(t, 4000.0, kpis.DailyValue)
	assert.Equal(t, 50.0, kpis.DailyProgress)
	assert.Equal(t, TrendNeutral, kpis.Trend)
	assert.InDelta(t, 2.5, kpis.MonthlyProgress, 1e-9)
}

func TestComputeKPIsDefaultsToToday(t *testing.T) {
	store := newTestStore(t, kpiStoreJSON)

	kpis := ComputeKPIs(store.All(), netSalesMetric, Filter{}, kpiNow)

	assert.Equal(t, 2025, kpis.Year)
	assert.Equal(t, 3, kpis.Month)
	assert.Equal(t, 5, kpis.Day)
	assert.Equal(t, 5750.0, kpis.TotalValue)
	assert.Equal(t, 5000.0, kpis.MonthlyValue)
	assert.Equal(t, 4000.0, kpis.DailyValue)
}

func TestComputeKPIsUsesFilterPeriod(t *testing.T) {
	store := newTestStore(t, kpiStoreJSON)
	f := Filter{Year: "2025", Month: "2", Day: "5"}

	kpis := ComputeKPIs(store.All(), netSalesMetric, f, kpiNow)

	assert.Equal(t, 500.0, kpis.MonthlyValue)
	assert.Equal(t, 500.0, kpis.DailyValue)
	assert.Equal(t, TrendDown, kpis.Trend)
}

func TestComputeKPIsUnparseableMonthMatchesNothing(t *testing.T) {
	store := newTestStore(t, kpiStoreJSON)

	kpis := ComputeKPIs(store.All(), netSalesMetric, Filter{Month: "xx"}, kpiNow)

	assert.Equal(t, 5750.0, kpis.TotalValue)
	assert.Zero(t, kpis.MonthlyValue)
	assert.Zero(t, kpis.DailyValue)
}

func TestComputeKPIsCapsProgress(t *testing.T) {
	store := newTestStore(t, `[{"branch": "Wa", "date": "2025-03-05T09:00:00Z", "net_sales": 20000}]`)

	kpis := ComputeKPIs(store.All(), netSalesMetric, Filter{}, kpiNow)

	assert.Equal(t, 100.0, kpis.DailyProgress)
	assert.Equal(t, 12.5, kpis.MonthlyProgress)
	assert.Equal(t, TrendUp, kpis.Trend)
}

func TestComputeKPIsEmptyView(t *testing.T) {
	store := NewStore(nil, time.UTC)

	kpis := ComputeKPIs(store.All(), netSalesMetric, Filter{}, kpiNow)

	require.Equal(t, KPIs{Metric: netSalesMetric, Year: 2025, Month: 3, Day: 5, Trend: TrendNeutral}, kpis)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 50.0, Progress(4000, 8000))
	assert.Equal(t, 100.0, Progress(9000, 8000))
	assert.Equal(t, -10.0, Progress(-800, 8000))
	assert.Zero(t, Progress(100, 0))
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		progress float64
		want     Trend
	}{
		{progress: 100, want: TrendUp},
		{progress: 50.1, want: TrendUp},
		{progress: 50, want: TrendNeutral},
		{progress: 30, want: TrendNeutral},
		{progress: 29.9, want: TrendDown},
		{progress: 0, want: TrendDown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTrend(tt.progress), "progress %v", tt.progress)
	}
}
