package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PredictRequest is the body of POST /predict
type PredictRequest struct {
	Year        int     `json:"year"`
	Month       string  `json:"month"`
	Weekday     string  `json:"weekday"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Windspeed   float64 `json:"windspeed"`
	Weather     string  `json:"weather"`
	Season      string  `json:"season"`
	Holiday     int     `json:"holiday"`
	Workingday  int     `json:"workingday"`
}

// PredictResponse is returned by POST /predict on success
type PredictResponse struct {
	Prediction float64 `json:"prediction"`
	Status     string  `json:"status,omitempty"`
}

// ErrorResponse is returned on any non-success status
type ErrorResponse struct {
	Error string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// Status constants
const (
	StatusSuccess = "success"
	StatusHealthy = "healthy"
)

// RequiredFields lists the request keys that must be present, in check order.
var RequiredFields = []string{
	"year", "temperature", "humidity", "windspeed",
	"season", "month", "weather", "weekday",
}

var (
	ErrInvalidJSON = &RequestError{"Invalid JSON data"}
	ErrNotJSON     = &RequestError{"Request must be JSON"}
)

// RequestError is a client-side problem with a prediction request
type RequestError struct {
	msg string
}

func (e *RequestError) Error() string {
	return e.msg
}

// ParsePredictRequest decodes and validates a prediction request body.
// holiday defaults to 0 and workingday to 1 when absent.
func ParsePredictRequest(data []byte) (*PredictRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, ErrInvalidJSON
	}
	if fields == nil {
		return nil, ErrInvalidJSON
	}

	for _, name := range RequiredFields {
		if _, ok := fields[name]; !ok {
			return nil, &RequestError{fmt.Sprintf("Missing required field: %s", name)}
		}
	}

	req := PredictRequest{Workingday: 1}
	if err := json.Unmarshal(data, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &RequestError{fmt.Sprintf("Invalid value for field: %s", typeErr.Field)}
		}
		return nil, ErrInvalidJSON
	}

	return &req, nil
}

// EncodeMessage encodes a message to JSON
func EncodeMessage(msg interface{}) ([]byte, error) {
	return json.Marshal(msg)
}

// NewPredictResponse creates a successful prediction response
func NewPredictResponse(prediction int) *PredictResponse {
	return &PredictResponse{
		Prediction: float64(prediction),
		Status:     StatusSuccess,
	}
}
