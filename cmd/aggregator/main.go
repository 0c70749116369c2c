package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smukkama/bike-demand/internal/aggregation"
	"github.com/smukkama/bike-demand/internal/database"
	"github.com/smukkama/bike-demand/internal/logging"
	"github.com/smukkama/bike-demand/internal/timer"
	"github.com/smukkama/bike-demand/pkg/config"
)

const aggregationTimeout = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.JSON); err != nil {
		logrus.WithError(err).Warnln("Falling back to info logging")
	}

	logrus.Infoln("Starting Aggregation Service...")

	// Validate the schedule before connecting anywhere
	if _, err := aggregation.NextRunTime(time.Now(), cfg.Aggregation.DailyTime); err != nil {
		logrus.WithError(err).Fatalln("Invalid AGGREGATION_DAILY_TIME")
	}

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to connect to database")
	}
	defer db.Close()

	scheduler := timer.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	dailyAgg := aggregation.NewDailyAggregator(db)
	scheduleDailyAggregation(scheduler, dailyAgg, cfg.Aggregation.DailyTime)

	logrus.Infoln("Aggregation Service is running")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logrus.Infoln("Shutting down gracefully...")
}

func scheduleDailyAggregation(s *timer.Scheduler, agg *aggregation.DailyAggregator, timeOfDay string) {
	taskID := "daily-aggregation"

	var scheduleNext func()
	scheduleNext = func() {
		nextRun, err := aggregation.NextRunTime(time.Now(), timeOfDay)
		if err != nil {
			logrus.WithError(err).Errorln("Failed to calculate daily run time")
			return
		}
		logrus.WithField("at", nextRun.Format("2006-01-02 15:04:05")).
			Infoln("Next daily aggregation scheduled")

		callback := func() {
			ctx, cancel := context.WithTimeout(context.Background(), aggregationTimeout)
			if _, err := agg.AggregatePreviousDay(ctx, time.Now()); err != nil {
				logrus.WithError(err).Errorln("Daily aggregation failed")
			}
			cancel()

			scheduleNext()
		}

		if err := s.Schedule(taskID, nextRun, callback); err != nil {
			logrus.WithError(err).Warnln("Daily aggregation not scheduled")
		}
	}

	scheduleNext()
}
