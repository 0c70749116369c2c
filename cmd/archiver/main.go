package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smukkama/bike-demand/internal/database"
	"github.com/smukkama/bike-demand/internal/logging"
	"github.com/smukkama/bike-demand/internal/queue"
	"github.com/smukkama/bike-demand/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.JSON); err != nil {
		logrus.WithError(err).Warnln("Falling back to info logging")
	}

	logrus.Infoln("Starting Prediction Archiver...")

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := db.RunMigrations("migrations"); err != nil {
			logrus.WithError(err).Fatalln("Failed to run migrations")
		}
	}

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPredictions, cfg.Kafka.ConsumerGroup)
	defer consumer.Close()

	batchWriter := queue.NewBatchWriter(consumer, db, cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval)
	if err := batchWriter.Start(context.Background()); err != nil {
		logrus.WithError(err).Fatalln("Failed to start batch writer")
	}

	// Print consumer stats periodically
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := consumer.Stats()
			archived := batchWriter.Stats()
			logrus.WithField("messages", stats.Messages).
				WithField("errors", stats.Errors).
				WithField("archived", archived.Archived).
				WithField("skipped", archived.Skipped).
				WithField("failed", archived.Failed).
				Infoln("archiver stats")
		}
	}()

	logrus.WithField("topic", cfg.Kafka.TopicPredictions).
		WithField("group", cfg.Kafka.ConsumerGroup).
		WithField("batch", cfg.Kafka.BatchSize).
		WithField("flush", cfg.Kafka.FlushInterval).
		Infoln("Prediction Archiver is running")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logrus.Infoln("Shutting down gracefully...")
	batchWriter.Stop()
	logrus.Infoln("Prediction Archiver stopped")
}
