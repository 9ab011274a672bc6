package api

import (
	"net/http"
	"time"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/model"
	"kitchenhub/internal/service"
)

type createBookingRequest struct {
	KitchenID int64     `json:"kitchen_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Timezone  string    `json:"tz"`
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

// handleCreateBooking requests a booking for the session's renter.
// POST /api/v1/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if !s.limiter.Allow(sess.UserID) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "too many booking requests")
		return
	}

	var req createBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.KitchenID <= 0 {
		writeError(w, http.StatusBadRequest, "kitchen_id is required")
		return
	}
	loc, err := location(req.Timezone, s.deps.Bookings.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.deps.Bookings.CreateBooking(r.Context(), sess, service.CreateRequest{
		KitchenID: req.KitchenID,
		Start:     req.Start,
		End:       req.End,
		Location:  loc,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GET /api/v1/bookings?tab=upcoming|past|cancelled
func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	tab, err := booking.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.deps.Bookings.ListBookings(r.Context(), sess, tab)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tab": tab, "bookings": list})
}

// GET /api/v1/bookings/{id}
func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.deps.Bookings.GetBooking(r.Context(), sess, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// POST /api/v1/bookings/{id}/status
func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to, err := model.ParseStatus(string(req.Status))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.deps.Bookings.UpdateStatus(r.Context(), sess, id, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
