package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jnovack/rusqbin/pkg/bins"
	"github.com/jnovack/rusqbin/pkg/capture"
)

// ErrUnforeseen reports a routing state the handlers cannot act on.
var ErrUnforeseen = errors.New("unforeseen request state")

// writeJSON writes v as indented JSON with an explicit Content-Length.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		reqLogger(r).Error().Err(err).Msg("encode response")
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// writeStatus writes an empty response.
func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(code)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bins.ErrBinNotFound):
		reqLogger(r).Info().Err(err).Msg("bin not found")
		writeStatus(w, http.StatusNotFound)
	case errors.Is(err, capture.ErrMalformed):
		reqLogger(r).Info().Err(err).Msg("malformed request")
		writeStatus(w, http.StatusBadRequest)
	case errors.Is(err, bins.ErrPoisoned):
		reqLogger(r).Error().Err(err).Msg("bin store unusable")
		writeStatus(w, http.StatusInternalServerError)
	default:
		reqLogger(r).Error().Err(err).Msg("request failed")
		writeStatus(w, http.StatusInternalServerError)
	}
}
