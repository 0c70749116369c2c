package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		logrus.WithField("migration", filename).Infoln("running migration")

		content, err := os.ReadFile(filepath.Join(migrationsDir, filename))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	return nil
}

// LoadCoefficients returns every stored term for a model. An unknown model yields an empty map.
func (db *DB) LoadCoefficients(ctx context.Context, modelName string) (map[string]float64, error) {
	query := `
		SELECT term, value
		FROM model_coefficients
		WHERE model_name = $1
		ORDER BY term
	`

	rows, err := db.QueryContext(ctx, query, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to query coefficients: %w", err)
	}
	defer rows.Close()

	coefficients := make(map[string]float64)
	for rows.Next() {
		var c ModelCoefficient
		if err := rows.Scan(&c.Term, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan coefficient: %w", err)
		}
		coefficients[c.Term] = c.Value
	}

	return coefficients, rows.Err()
}

// UpsertCoefficient inserts or updates a single model term
func (db *DB) UpsertCoefficient(ctx context.Context, c *ModelCoefficient) error {
	query := `
		INSERT INTO model_coefficients (model_name, term, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (model_name, term) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = CURRENT_TIMESTAMP
	`
	if _, err := db.ExecContext(ctx, query, c.ModelName, c.Term, c.Value); err != nil {
		return fmt.Errorf("failed to upsert coefficient %s/%s: %w", c.ModelName, c.Term, err)
	}
	return nil
}

// InsertPredictions archives a batch in one transaction. Redelivered ids are ignored.
func (db *DB) InsertPredictions(ctx context.Context, records []*PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prediction_events (
			id, received_at, model_name, year, month, weekday,
			temperature, humidity, windspeed, weather, season,
			holiday, workingday, prediction, cached
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.ReceivedAt, r.ModelName, r.Year, r.Month, r.Weekday,
			r.Temperature, r.Humidity, r.Windspeed, r.Weather, r.Season,
			r.Holiday, r.Workingday, r.Prediction, r.Cached,
		); err != nil {
			return fmt.Errorf("failed to insert prediction %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}
	return nil
}
