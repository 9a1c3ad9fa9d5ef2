package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ductclean/internal/metrics"
	"ductclean/internal/service"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps the lifecycle error taxonomy onto HTTP status
// codes. Delivery warnings are not errors and must be handled first by
// the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrDuplicateInvoice),
		errors.Is(err, service.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrQuoteExpired):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeEntity emits the entity, folding a delivery warning into the
// payload: the transition committed, so the status stays 2xx.
func writeEntity(w http.ResponseWriter, statusCode int, entity any, err error) bool {
	if err == nil {
		writeJSON(w, statusCode, entity)
		return true
	}
	if warn, ok := service.AsDeliveryWarning(err); ok {
		writeJSON(w, statusCode, map[string]any{
			"data":    entity,
			"warning": warn.Error(),
		})
		return true
	}
	writeServiceError(w, err)
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path), strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// endpointLabel collapses entity ids out of the path so the metric
// cardinality stays bounded.
func endpointLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/")
	if trimmed == path {
		return path
	}
	parts := strings.Split(trimmed, "/")
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + "/{id}"
	default:
		return parts[0] + "/{id}/" + strings.Join(parts[2:], "/")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
