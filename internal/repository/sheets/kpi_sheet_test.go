package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

type fakeRepository struct {
	rows    [][]interface{}
	readErr error
	appends int
}

func (f *fakeRepository) AppendRows(_ context.Context, _ string, rows [][]interface{}) error {
	f.appends++
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeRepository) ReadRange(context.Context, string) ([][]interface{}, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows, nil
}

func snapshot(metric string) models.KPISnapshot {
	day := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	return models.KPISnapshot{
		Date:          day,
		Branch:        models.AllBranches,
		Metric:        metric,
		DailyValue:    4000,
		DailyProgress: 50,
		Trend:         "neutral",
		CreatedAt:     day.Add(20 * time.Hour),
	}
}

func TestKPISheetAppendWritesHeaderOnce(t *testing.T) {
	repo := &fakeRepository{}
	sheet := NewKPISheet(repo, "KPIs!A:J", nil)
	ctx := context.Background()

	added, err := sheet.Append(ctx, []models.KPISnapshot{snapshot("net_sales"), snapshot("expenditure")})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	require.Len(t, repo.rows, 3)
	assert.Equal(t, KPIHeader, repo.rows[0])
	assert.Equal(t, "2025-03-05", repo.rows[1][0])
	assert.Equal(t, "2025-03-05 20:00:00", repo.rows[1][9])

	added, err = sheet.Append(ctx, []models.KPISnapshot{snapshot("net_sales"), snapshot("total_credit")})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.Len(t, repo.rows, 4)
	assert.Equal(t, "total_credit", repo.rows[3][2])

	added, err = sheet.Append(ctx, []models.KPISnapshot{snapshot("net_sales")})
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, 2, repo.appends)
}

func TestKPISheetAppendReadError(t *testing.T) {
	sheet := NewKPISheet(&fakeRepository{readErr: errors.New("quota")}, "KPIs!A:J", nil)

	_, err := sheet.Append(context.Background(), []models.KPISnapshot{snapshot("net_sales")})

	require.Error(t, err)
}
