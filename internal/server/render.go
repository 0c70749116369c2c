package server

import (
	"encoding/json"
	"net/http"

	"github.com/smukkama/bike-demand/internal/protocol"
)

func renderJSON(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func renderError(w http.ResponseWriter, message string, status int) {
	renderJSON(w, &protocol.ErrorResponse{Error: message}, status)
}
