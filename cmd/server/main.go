package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/smukkama/bike-demand/internal/cache"
	"github.com/smukkama/bike-demand/internal/database"
	"github.com/smukkama/bike-demand/internal/logging"
	"github.com/smukkama/bike-demand/internal/model"
	"github.com/smukkama/bike-demand/internal/queue"
	"github.com/smukkama/bike-demand/internal/server"
	"github.com/smukkama/bike-demand/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatalln("Failed to load configuration")
	}

	if err := logging.Setup(cfg.Log.Level, cfg.Log.JSON); err != nil {
		logrus.WithError(err).Warnln("Falling back to info logging")
	}

	logrus.Infoln("Starting Bike Demand Predictor...")

	coefficients := model.DefaultCoefficients()

	// Coefficient overrides from Postgres
	if cfg.Database.Enabled {
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

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		overrides, err := db.LoadCoefficients(ctx, cfg.Database.ModelName)
		cancel()
		if err != nil {
			logrus.WithError(err).Fatalln("Failed to load model coefficients")
		}
		coefficients = coefficients.Merge(overrides)
		logrus.WithField("overrides", len(overrides)).
			WithField("model", cfg.Database.ModelName).
			Infoln("Loaded model coefficients")
	}

	predictor := model.New(cfg.Database.ModelName, coefficients)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := server.Options{
		Limiter:  server.NewLimiter(cfg.RateLimit),
		Registry: registry,
	}

	// Prediction cache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		predictionCache := cache.NewPredictionCache(redisClient, cfg.Redis.TTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := predictionCache.Ping(ctx); err != nil {
			logrus.WithError(err).Warnln("Redis unavailable, serving without cache")
		} else {
			opts.Cache = predictionCache
			logrus.WithField("addr", cfg.Redis.Addr).Infoln("Prediction cache enabled")
		}
		cancel()
	}

	// Prediction events
	if cfg.Kafka.Enabled {
		if err := queue.CreateTopic(
			cfg.Kafka.Brokers,
			cfg.Kafka.TopicPredictions,
			cfg.Kafka.NumPartitions,
			1, // replication factor
		); err != nil {
			logrus.WithError(err).Warnln("Topic creation failed (may already exist)")
		}

		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPredictions)
		defer producer.Close()
		opts.Publisher = producer
		logrus.WithField("topic", cfg.Kafka.TopicPredictions).Infoln("Kafka producer initialized")
	}

	srv := server.New(&cfg.HTTP, predictor, opts)
	if err := srv.Start(); err != nil {
		logrus.WithError(err).Fatalln("Failed to start HTTP server")
	}

	logrus.WithField("addr", cfg.HTTP.Addr()).Infoln("Bike Demand Predictor is running")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logrus.Infoln("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logrus.WithError(err).Errorln("HTTP server shutdown incomplete")
	}
}
