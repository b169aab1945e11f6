package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aquaplan/internal/types"
)

func scenarioValues(createdAt time.Time) []any {
	return []any{
		"scn-1", "batch-1", createdAt,
		"tgc-1", "Spring smolt TGC", "0.0024", "0.333333", "1",
		"prof-1", "Site 12 seasonal",
		"mort-1", "Baseline mortality", "0.0005", "daily",
	}
}

func TestLatestScenarioForBatch(t *testing.T) {
	createdAt := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	mockDB := new(mockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, []any{"batch-1"}).
		Return(valueRow(scenarioValues(createdAt)...))
	mockDB.On("Query", mock.Anything, mock.Anything, []any{"prof-1"}).
		Return(&mockRows{rows: [][]any{
			{1, "6.50"},
			{2, "6.80"},
			{3, "7.10"},
		}}, nil)

	repo := NewScenarioRepository(mockDB)
	sc, err := repo.LatestScenarioForBatch(context.Background(), "batch-1")

	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, "scn-1", sc.ID)
	assert.Equal(t, "tgc-1", sc.Growth.ID)
	assert.Equal(t, "0.0024", sc.Growth.TGCValue.String())
	assert.Equal(t, "prof-1", sc.Growth.Profile.ID)
	assert.Equal(t, "Site 12 seasonal", sc.Growth.Profile.Name)
	require.Len(t, sc.Growth.Profile.Points, 3)
	assert.Equal(t, 2, sc.Growth.Profile.Points[1].DayNumber)
	assert.Equal(t, "6.8", sc.Growth.Profile.Points[1].TemperatureC.String())
	assert.Equal(t, "mort-1", sc.Mortality.ID)
	assert.Equal(t, "0.0005", sc.Mortality.DailyRate.String())
	assert.Equal(t, types.MortalityDaily, sc.Mortality.Frequency)
	mockDB.AssertExpectations(t)
}

func TestLatestScenarioForBatchNone(t *testing.T) {
	mockDB := new(mockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, []any{"batch-x"}).
		Return(errRow(pgx.ErrNoRows))

	repo := NewScenarioRepository(mockDB)
	sc, err := repo.LatestScenarioForBatch(context.Background(), "batch-x")

	require.NoError(t, err)
	assert.Nil(t, sc)
}

func TestScenarioByProjectionRunNone(t *testing.T) {
	mockDB := new(mockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, []any{"run-x"}).
		Return(errRow(pgx.ErrNoRows))

	repo := NewScenarioRepository(mockDB)
	sc, err := repo.ScenarioByProjectionRun(context.Background(), "run-x")

	require.NoError(t, err)
	assert.Nil(t, sc)
}

// A scenario row with a NULL growth model reference is a configuration
// problem, not a query failure.
func TestScenarioMissingGrowthModel(t *testing.T) {
	createdAt := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	values := scenarioValues(createdAt)
	for i := 3; i <= 9; i++ {
		values[i] = nil
	}

	mockDB := new(mockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, []any{"batch-1"}).
		Return(valueRow(values...))

	repo := NewScenarioRepository(mockDB)
	_, err := repo.LatestScenarioForBatch(context.Background(), "batch-1")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeConfigNoGrowthModel, appErr.Code)
	assert.Equal(t, "scn-1", appErr.Details["scenario_id"])
}

func TestScenarioMissingMortalityModel(t *testing.T) {
	createdAt := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	values := scenarioValues(createdAt)
	for i := 10; i <= 13; i++ {
		values[i] = nil
	}

	mockDB := new(mockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, []any{"batch-1"}).
		Return(valueRow(values...))

	repo := NewScenarioRepository(mockDB)
	_, err := repo.LatestScenarioForBatch(context.Background(), "batch-1")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeConfigNoMortalityModel, appErr.Code)
}

// A mortality row with a NULL frequency defaults to daily.
func TestScenarioDefaultsMortalityFrequency(t *testing.T) {
	createdAt := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	values := scenarioValues(createdAt)
	values[13] = nil

	mockDB := new(mockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, []any{"batch-1"}).
		Return(valueRow(values...))
	mockDB.On("Query", mock.Anything, mock.Anything, []any{"prof-1"}).
		Return(&mockRows{}, nil)

	repo := NewScenarioRepository(mockDB)
	sc, err := repo.LatestScenarioForBatch(context.Background(), "batch-1")

	require.NoError(t, err)
	assert.Equal(t, types.MortalityDaily, sc.Mortality.Frequency)
}
