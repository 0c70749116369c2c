package protocol

import (
	"encoding/json"
	"time"
)

// PredictionEvent is the message format published to Kafka for every served prediction
type PredictionEvent struct {
	ID         string         `json:"id"`
	ReceivedAt time.Time      `json:"received_at"`
	Model      string         `json:"model"`
	Request    PredictRequest `json:"request"`
	Prediction int            `json:"prediction"`
	Cached     bool           `json:"cached"`
}

// EncodePredictionEvent encodes a PredictionEvent to JSON
func EncodePredictionEvent(event *PredictionEvent) ([]byte, error) {
	return json.Marshal(event)
}

// DecodePredictionEvent decodes JSON to PredictionEvent
func DecodePredictionEvent(data []byte) (*PredictionEvent, error) {
	var event PredictionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
