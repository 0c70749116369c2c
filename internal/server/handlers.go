package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smukkama/bike-demand/internal/form"
	"github.com/smukkama/bike-demand/internal/metrics"
	"github.com/smukkama/bike-demand/internal/protocol"
)

const (
	maxBodyBytes   = 1 << 20
	publishTimeout = 5 * time.Second

	msgRateLimited = "Too many requests, please slow down"
)

type numericInput struct {
	ID    string
	Label string
	Min   string
	Max   string
}

type indexPage struct {
	Title       string
	SubmitLabel string
	Months      []string
	Weekdays    []string
	Weathers    []string
	Seasons     []string
	Numeric     []numericInput
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	labels := map[form.Field]string{
		form.FieldTemperature: "Temperature (°C)",
		form.FieldHumidity:    "Humidity (%)",
		form.FieldWindspeed:   "Wind speed (km/h)",
	}

	page := indexPage{
		Title:       "Bike Sharing Demand Predictor",
		SubmitLabel: form.SubmitLabelIdle,
		Months:      form.Months,
		Weekdays:    form.Weekdays,
		Weathers:    form.Weathers,
		Seasons:     form.Seasons,
	}
	for _, f := range form.BoundedFields {
		b := form.DefaultBounds[f]
		page.Numeric = append(page.Numeric, numericInput{ID: string(f), Label: labels[f], Min: b.Min, Max: b.Max})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		logrus.WithError(err).Errorln("failed to render index page")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, &protocol.HealthResponse{Status: protocol.StatusHealthy}, http.StatusOK)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("prediction panic: %v", rec)
			logrus.WithError(err).Errorln("prediction failed")
			s.countOutcome(metrics.OutcomeError)
			renderError(w, err.Error(), http.StatusInternalServerError)
		}
	}()

	if s.limiter != nil && !s.limiter.Allow() {
		s.countOutcome(metrics.OutcomeLimited)
		renderError(w, msgRateLimited, http.StatusTooManyRequests)
		return
	}

	if !isJSON(r) {
		s.reject(w, protocol.ErrNotJSON)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.reject(w, protocol.ErrInvalidJSON)
		return
	}

	req, err := protocol.ParsePredictRequest(body)
	if err != nil {
		var reqErr *protocol.RequestError
		if errors.As(err, &reqErr) {
			s.reject(w, reqErr)
			return
		}
		s.countOutcome(metrics.OutcomeError)
		renderError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	receivedAt := time.Now().UTC()
	prediction, cached := s.predict(r.Context(), *req)

	s.countOutcome(metrics.OutcomeSuccess)
	if s.metrics != nil {
		s.metrics.PredictionValue.Observe(float64(prediction))
	}

	s.publish(r.Context(), &protocol.PredictionEvent{
		ID:         uuid.NewString(),
		ReceivedAt: receivedAt,
		Model:      s.predictor.Name(),
		Request:    *req,
		Prediction: prediction,
		Cached:     cached,
	})

	renderJSON(w, protocol.NewPredictResponse(prediction), http.StatusOK)
}

// predict consults the cache before the model. Cache faults degrade to a model call.
func (s *Server) predict(ctx context.Context, req protocol.PredictRequest) (int, bool) {
	name := s.predictor.Name()

	if s.cache != nil {
		prediction, ok, err := s.cache.Get(ctx, name, req)
		if err != nil {
			logrus.WithError(err).Warnln("prediction cache lookup failed")
		} else {
			if s.metrics != nil {
				s.metrics.CacheResult(ok)
			}
			if ok {
				return prediction, true
			}
		}
	}

	prediction := s.predictor.Predict(req)

	if s.cache != nil {
		if err := s.cache.Set(ctx, name, req, prediction); err != nil {
			logrus.WithError(err).Warnln("failed to cache prediction")
		}
	}
	return prediction, false
}

// publish sends the event in the background; failures never reach the caller
func (s *Server) publish(ctx context.Context, event *protocol.PredictionEvent) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		if err := s.publisher.PublishPrediction(ctx, event); err != nil {
			if s.metrics != nil {
				s.metrics.EventFailures.Inc()
			}
			logrus.WithError(err).
				WithField("event", event.ID).
				Warnln("failed to publish prediction event")
		}
	}()
}

func (s *Server) reject(w http.ResponseWriter, err *protocol.RequestError) {
	s.countOutcome(metrics.OutcomeRejected)
	renderError(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.PredictionCount.WithLabelValues(outcome).Inc()
	}
}

// isJSON accepts application/json and any +json media type
func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
