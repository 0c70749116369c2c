package database

import (
	"time"
)

// ModelCoefficient is one stored regression weight
type ModelCoefficient struct {
	ModelName string
	Term      string
	Value     float64
	UpdatedAt time.Time
}

// PredictionRecord is one archived prediction event
type PredictionRecord struct {
	ID          string
	ReceivedAt  time.Time
	ModelName   string
	Year        int
	Month       string
	Weekday     string
	Temperature float64
	Humidity    float64
	Windspeed   float64
	Weather     string
	Season      string
	Holiday     int
	Workingday  int
	Prediction  int
	Cached      bool
}
