package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartStoreJSON = `[
	{"branch": "Tema", "net_sales": 100},
	{"branch": "Wa", "net_sales": 50},
	{"branch": "Tema", "net_sales": 200},
	{"branch": "", "net_sales": 5},
	{"branch": "Obuasi", "net_sales": "75"}
]`

func TestBuildChartBar(t *testing.T) {
	store := newTestStore(t, chartStoreJSON)

	chart, err := BuildChart(store.All(), "branch", "net_sales", ChartBar)

	require.NoError(t, err)
	assert.Equal(t, "Net_sales by Branch", chart.Title)
	assert.Equal(t, []ChartPoint{
		{Label: "Tema", Value: 200},
		{Label: "Tema", Value: 100},
		{Label: "Obuasi", Value: 75},
		{Label: "Wa", Value: 50},
		{Label: "Unknown", Value: 5},
	}, chart.Points)
}

func TestBuildChartBarKeepsTopTen(t *testing.T) {
	raw := "["
	for i := 1; i <= 12; i++ {
		if i > 1 {
			raw += ","
		}
		raw += `{"branch": "B", "net_sales": ` + FormatNumber(float64(i)) + `}`
	}
	raw += "]"
	store := newTestStore(t, raw)

	chart, err := BuildChart(store.All(), "branch", "net_sales", ChartBar)

	require.NoError(t, err)
	require.Len(t, chart.Points, 10)
	assert.Equal(t, 12.0, chart.Points[0].Value)
	assert.Equal(t, 3.0, chart.Points[9].Value)
}

func TestBuildChartLineSumsPerLabel(t *testing.T) {
	store := newTestStore(t, chartStoreJSON)

	chart, err := BuildChart(store.All(), "branch", "net_sales", ChartLine)

	require.NoError(t, err)
	assert.Equal(t, []ChartPoint{
		{Label: "Obuasi", Value: 75},
		{Label: "Tema", Value: 300},
		{Label: "Unknown", Value: 5},
		{Label: "Wa", Value: 50},
	}, chart.Points)
}

func TestBuildChartPieOrdersByValue(t *testing.T) {
	store := newTestStore(t, chartStoreJSON)

	chart, err := BuildChart(store.All(), "branch", "net_sales", ChartPie)

	require.NoError(t, err)
	assert.Equal(t, []ChartPoint{
		{Label: "Tema", Value: 300},
		{Label: "Obuasi", Value: 75},
		{Label: "Wa", Value: 50},
		{Label: "Unknown", Value: 5},
	}, chart.Points)
}

func TestBuildChartRejectsUnknownKind(t *testing.T) {
	store := newTestStore(t, chartStoreJSON)

	_, err := BuildChart(store.All(), "branch", "net_sales", ChartKind("radar"))
	require.ErrorIs(t, err, ErrInvalidChart)

	_, err = BuildChart(store.All(), "", "net_sales", ChartBar)
	require.ErrorIs(t, err, ErrInvalidChart)
}
