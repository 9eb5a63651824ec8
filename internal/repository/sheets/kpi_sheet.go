package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

const sheetDateLayout = "2006-01-02"

// KPIHeader is the first row written to an empty KPI sheet.
var KPIHeader = []interface{}{
	"Date", "Branch", "Metric", "Total", "Daily", "Monthly", "Daily %", "Monthly %", "Trend", "Recorded At",
}

// KPISheet appends daily KPI snapshots to a sheet, one row per metric.
type KPISheet struct {
	repo       Repository
	sheetRange string
	logger     *zap.Logger
}

// NewKPISheet wraps repo for the given range (e.g. "KPIs!A:J").
func NewKPISheet(repo Repository, sheetRange string, logger *zap.Logger) *KPISheet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KPISheet{repo: repo, sheetRange: sheetRange, logger: logger}
}

// Append writes the snapshots not already present for their date, branch
// and metric, and returns how many rows were added.
func (k *KPISheet) Append(ctx context.Context, snapshots []models.KPISnapshot) (int, error) {
	existing, err := k.repo.ReadRange(ctx, k.sheetRange)
	if err != nil {
		return 0, fmt.Errorf("load kpi sheet: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		if len(row) < 3 {
			continue
		}
		seen[rowKey(fmt.Sprint(row[0]), fmt.Sprint(row[1]), fmt.Sprint(row[2]))] = struct{}{}
	}

	var rows [][]interface{}
	if len(existing) == 0 {
		rows = append(rows, KPIHeader)
	}
	added := 0
	for _, snap := range snapshots {
		key := rowKey(snap.Date.Format(sheetDateLayout), snap.Branch, snap.Metric)
		if _, ok := seen[key]; ok {
			k.logger.Debug("skip kpi row already in sheet", zap.String("key", key))
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, KPIRow(snap))
		added++
	}
	if added == 0 {
		return 0, nil
	}

	if err := k.repo.AppendRows(ctx, k.sheetRange, rows); err != nil {
		return 0, err
	}
	return added, nil
}

// KPIRow renders one snapshot in KPIHeader order.
func KPIRow(snap models.KPISnapshot) []interface{} {
	return []interface{}{
		snap.Date.Format(sheetDateLayout),
		snap.Branch,
		snap.Metric,
		snap.TotalValue,
		snap.DailyValue,
		snap.MonthlyValue,
		snap.DailyProgress,
		snap.MonthlyProgress,
		snap.Trend,
		snap.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func rowKey(date, branch, metric string) string {
	return date + "|" + branch + "|" + metric
}
