package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's request id or assigns a fresh one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// accessLog logs and times every request
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrap := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		start := time.Now()
		next.ServeHTTP(wrap, r)

		status := wrap.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, status, elapsed.Seconds())
		}

		// Health probes and scrapes would drown the log.
		if strings.HasPrefix(route, "/health") || strings.HasPrefix(route, "/metrics") {
			return
		}

		logr := logrus.WithContext(r.Context()).
			WithField("request_id", w.Header().Get(requestIDHeader)).
			WithField("status", status).
			WithField("dur[ms]", elapsed.Milliseconds())
		logLine := "HTTP: " + r.Method + " " + r.URL.RequestURI()
		if status >= http.StatusInternalServerError {
			logr.Errorln(logLine)
		} else {
			logr.Infoln(logLine)
		}
	})
}
