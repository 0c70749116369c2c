package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{sqlDB}, mock
}

func TestDB_LoadCoefficients(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"term", "value"}).
		AddRow("const", 0.5).
		AddRow("temp", 0.6)
	mock.ExpectQuery("SELECT term, value").WithArgs("linear-v2").WillReturnRows(rows)

	coefficients, err := db.LoadCoefficients(context.Background(), "linear-v2")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"const": 0.5, "temp": 0.6}, coefficients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_LoadCoefficients_UnknownModel(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT term, value").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"term", "value"}))

	coefficients, err := db.LoadCoefficients(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, coefficients)
}

func TestDB_LoadCoefficients_QueryError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT term, value").WillReturnError(errors.New("connection reset"))

	_, err := db.LoadCoefficients(context.Background(), "linear-v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDB_UpsertCoefficient(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO model_coefficients").
		WithArgs("linear-v1", "temp", 0.7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.UpsertCoefficient(context.Background(), &ModelCoefficient{
		ModelName: "linear-v1",
		Term:      "temp",
		Value:     0.7,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_RunMigrations(t *testing.T) {
	db, mock := newMockDB(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_second.sql"), []byte("CREATE INDEX second_idx"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_first.sql"), []byte("CREATE TABLE first_table"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	mock.ExpectExec("CREATE TABLE first_table").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX second_idx").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.RunMigrations(dir))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func predictionRecord(id string) *PredictionRecord {
	return &PredictionRecord{
		ID:          id,
		ReceivedAt:  time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
		ModelName:   "linear-v1",
		Year:        1,
		Month:       "Jul",
		Weekday:     "Mon",
		Temperature: 25.5,
		Humidity:    65,
		Windspeed:   12.5,
		Weather:     "Clear",
		Season:      "Summer",
		Holiday:     0,
		Workingday:  1,
		Prediction:  612,
	}
}

func TestDB_InsertPredictions(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO prediction_events")
	for _, id := range []string{"a", "b"} {
		prep.ExpectExec().
			WithArgs(id, sqlmock.AnyArg(), "linear-v1", 1, "Jul", "Mon",
				25.5, 65.0, 12.5, "Clear", "Summer", 0, 1, 612, false).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := db.InsertPredictions(context.Background(), []*PredictionRecord{predictionRecord("a"), predictionRecord("b")})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_InsertPredictions_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO prediction_events").
		ExpectExec().
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := db.InsertPredictions(context.Background(), []*PredictionRecord{predictionRecord("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_InsertPredictions_Empty(t *testing.T) {
	db, mock := newMockDB(t)

	require.NoError(t, db.InsertPredictions(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
