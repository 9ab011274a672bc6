package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/service"
)

type errorResponse struct {
	Error    string        `json:"error"`
	Conflict *conflictInfo `json:"conflict,omitempty"`
}

type conflictInfo struct {
	BookingID int64     `json:"booking_id,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrInvalidInterval), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrConflict), errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, booking.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError reports err to the client. Internal errors are logged
// and replaced by a generic message.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	switch status {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
		resp.Error = "temporarily unavailable, retry later"
		s.logger.Warn().Err(err).Str("request_id", requestID(r.Context())).Msg("transient failure")
	case http.StatusInternalServerError:
		resp.Error = "internal error"
		s.logger.Error().Err(err).Str("request_id", requestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	case http.StatusConflict:
		var c *booking.ConflictError
		if errors.As(err, &c) {
			resp.Conflict = &conflictInfo{BookingID: c.BookingID, Start: c.Start, End: c.End}
		}
	}
	writeJSON(w, status, resp)
}
