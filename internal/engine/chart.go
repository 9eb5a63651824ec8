package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// ChartKind selects how a chart aggregates the view.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

const (
	chartTopN    = 10
	unknownLabel = "Unknown"
)

// ErrInvalidChart is returned for empty axes or an unknown chart kind.
var ErrInvalidChart = errors.New("invalid chart")

// ChartPoint is one labelled value of a chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Chart is a render-ready single-series chart.
type Chart struct {
	Kind   ChartKind    `json:"kind"`
	Title  string       `json:"title"`
	XAxis  string       `json:"x_axis"`
	YAxis  string       `json:"y_axis"`
	Points []ChartPoint `json:"points"`
}

// BuildChart aggregates y over x. Bar charts plot the ten rows with the
// largest y, line charts sum y per x label in label order, and pie charts
// sum y per x label keeping the ten largest slices.
func BuildChart(v View, xKey, yKey string, kind ChartKind) (Chart, error) {
	if xKey == "" || yKey == "" {
		return Chart{}, fmt.Errorf("%w: axes must not be empty", ErrInvalidChart)
	}

	chart := Chart{
		Kind:  kind,
		Title: fmt.Sprintf("%s by %s", capitalize(yKey), capitalize(xKey)),
		XAxis: xKey,
		YAxis: yKey,
	}

	switch kind {
	case ChartBar:
		idx := v.indices()
		store := v.store
		sort.SliceStable(idx, func(i, j int) bool {
			return store.Record(idx[i]).Get(yKey).Float() > store.Record(idx[j]).Get(yKey).Float()
		})
		if len(idx) > chartTopN {
			idx = idx[:chartTopN]
		}
		chart.Points = make([]ChartPoint, 0, len(idx))
		for _, i := range idx {
			rec := store.Record(i)
			chart.Points = append(chart.Points, ChartPoint{
				Label: chartLabel(rec.Get(xKey)),
				Value: rec.Get(yKey).Float(),
			})
		}
	case ChartLine:
		points := sumByLabel(v, xKey, yKey)
		sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })
		chart.Points = points
	case ChartPie:
		points := sumByLabel(v, xKey, yKey)
		sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })
		if len(points) > chartTopN {
			points = points[:chartTopN]
		}
		chart.Points = points
	default:
		return Chart{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidChart, kind)
	}

	return chart, nil
}

// sumByLabel groups the view by x label in first-seen order.
func sumByLabel(v View, xKey, yKey string) []ChartPoint {
	pos := make(map[string]int)
	var points []ChartPoint
	for i := 0; i < v.Len(); i++ {
		rec := v.Record(i)
		label := chartLabel(rec.Get(xKey))
		p, ok := pos[label]
		if !ok {
			p = len(points)
			pos[label] = p
			points = append(points, ChartPoint{Label: label})
		}
		points[p].Value += rec.Get(yKey).Float()
	}
	return points
}

func chartLabel(v models.Value) string {
	switch v.Kind() {
	case models.KindNumber:
		if v.Num() == 0 {
			return unknownLabel
		}
		return FormatNumber(v.Num())
	case models.KindText:
		if v.Str() == "" {
			return unknownLabel
		}
		return v.Str()
	case models.KindDate:
		return v.Time().Format(dateOnlyLayout)
	default:
		return unknownLabel
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
