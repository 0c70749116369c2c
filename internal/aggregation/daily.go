// Package aggregation rolls archived predictions up into daily summaries.
package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smukkama/bike-demand/internal/database"
)

// DailyAggregator performs daily aggregation
type DailyAggregator struct {
	db *database.DB
}

// NewDailyAggregator creates a new daily aggregator
func NewDailyAggregator(db *database.DB) *DailyAggregator {
	return &DailyAggregator{db: db}
}

// Aggregate summarises every prediction received on the given UTC date
func (d *DailyAggregator) Aggregate(ctx context.Context, targetDate time.Time) (int64, error) {
	date := targetDate.UTC().Truncate(24 * time.Hour)

	query := `
		INSERT INTO daily_demand_summary (
			date, model_name,
			requests, cached_requests,
			min_prediction, avg_prediction, max_prediction
		)
		SELECT
			$1::date AS date,
			model_name,
			COUNT(*) AS requests,
			COUNT(*) FILTER (WHERE cached) AS cached_requests,
			MIN(prediction) AS min_prediction,
			AVG(prediction) AS avg_prediction,
			MAX(prediction) AS max_prediction
		FROM
			prediction_events
		WHERE
			received_at >= $1 AND received_at < $2
		GROUP BY
			model_name
		ON CONFLICT (date, model_name) DO UPDATE
		SET
			requests = EXCLUDED.requests,
			cached_requests = EXCLUDED.cached_requests,
			min_prediction = EXCLUDED.min_prediction,
			avg_prediction = EXCLUDED.avg_prediction,
			max_prediction = EXCLUDED.max_prediction
	`

	result, err := d.db.ExecContext(ctx, query, date, date.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate daily demand: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	logrus.WithField("date", date.Format("2006-01-02")).
		WithField("models", rowsAffected).
		Infoln("daily aggregation completed")

	return rowsAffected, nil
}

// AggregatePreviousDay aggregates the previous full day relative to now
func (d *DailyAggregator) AggregatePreviousDay(ctx context.Context, now time.Time) (int64, error) {
	return d.Aggregate(ctx, now.UTC().AddDate(0, 0, -1))
}

// NextRunTime returns the next occurrence of timeOfDay ("HH:MM") after now
func NextRunTime(now time.Time, timeOfDay string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(timeOfDay, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s (expected HH:MM)", timeOfDay)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day: %s", timeOfDay)
	}

	todayRun := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(todayRun) {
		return todayRun, nil
	}
	return todayRun.AddDate(0, 0, 1), nil
}
