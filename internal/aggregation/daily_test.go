package aggregation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/bike-demand/internal/database"
)

func TestDailyAggregator_Aggregate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO daily_demand_summary").
		WithArgs(day, day.AddDate(0, 0, 1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	agg := NewDailyAggregator(&database.DB{DB: sqlDB})
	n, err := agg.Aggregate(context.Background(), day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyAggregator_AggregatePreviousDay(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	yesterday := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO daily_demand_summary").
		WithArgs(yesterday, yesterday.AddDate(0, 0, 1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	agg := NewDailyAggregator(&database.DB{DB: sqlDB})
	_, err = agg.AggregatePreviousDay(context.Background(), time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyAggregator_AggregateError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("INSERT INTO daily_demand_summary").WillReturnError(errors.New("relation does not exist"))

	agg := NewDailyAggregator(&database.DB{DB: sqlDB})
	_, err = agg.Aggregate(context.Background(), time.Now())
	assert.ErrorContains(t, err, "relation does not exist")
}

func TestNextRunTime(t *testing.T) {
	morning := time.Date(2024, 7, 1, 0, 1, 0, 0, time.UTC)
	next, err := NextRunTime(morning, "00:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC), next)

	evening := time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC)
	next, err = NextRunTime(evening, "00:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 2, 0, 5, 0, 0, time.UTC), next)

	exact := time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC)
	next, err = NextRunTime(exact, "00:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 2, 0, 5, 0, 0, time.UTC), next)
}

func TestNextRunTime_Invalid(t *testing.T) {
	for _, in := range []string{"", "noon", "25:00", "12:60"} {
		_, err := NextRunTime(time.Now(), in)
		assert.Error(t, err, "input %q", in)
	}
}
