package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kitchenhub/internal/model"
	"kitchenhub/internal/service"
	"kitchenhub/internal/slots"
)

type kitchenRequest struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Address      string            `json:"address"`
	City         string            `json:"city"`
	Category     string            `json:"category"`
	KitchenType  model.KitchenType `json:"kitchen_type"`
	AreaSqm      float64           `json:"area_sqm"`
	PricePerHour decimal.Decimal   `json:"price_per_hour"`
	OpenHour     int               `json:"open_hour"`
	CloseHour    int               `json:"close_hour"`
	Amenities    []string          `json:"amenities"`
	ImageURLs    []string          `json:"image_urls"`
}

type kitchenPatchRequest struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	Address      *string            `json:"address"`
	City         *string            `json:"city"`
	Category     *string            `json:"category"`
	KitchenType  *model.KitchenType `json:"kitchen_type"`
	AreaSqm      *float64           `json:"area_sqm"`
	PricePerHour *decimal.Decimal   `json:"price_per_hour"`
	OpenHour     *int               `json:"open_hour"`
	CloseHour    *int               `json:"close_hour"`
	Amenities    []string           `json:"amenities"`
	ImageURLs    []string           `json:"image_urls"`
	IsActive     *bool              `json:"is_active"`
}

type availabilityResponse struct {
	KitchenID    int64            `json:"kitchen_id"`
	Date         string           `json:"date"`
	Timezone     string           `json:"timezone"`
	PricePerHour decimal.Decimal  `json:"price_per_hour"`
	Slots        []slots.SlotInfo `json:"slots"`
	Free         int              `json:"free"`
	FreeRuns     []slots.Run      `json:"free_runs"`
	Durations    []int            `json:"durations,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleListKitchens searches the catalog.
// GET /api/v1/kitchens?q=&city=&category=&type=&owner_id=&min_price=&max_price=&min_area=&max_area=&limit=&offset=
func (s *HTTPServer) handleListKitchens(w http.ResponseWriter, r *http.Request) {
	sess, _, err := sessionFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid session: "+err.Error())
		return
	}

	q := r.URL.Query()
	f := model.KitchenFilter{
		Query:       strings.TrimSpace(q.Get("q")),
		City:        strings.TrimSpace(q.Get("city")),
		Category:    q.Get("category"),
		KitchenType: model.KitchenType(q.Get("type")),
	}
	var errs []error
	var e error
	f.OwnerID, e = queryInt64(r, "owner_id")
	errs = append(errs, e)
	f.MinPrice, e = queryDecimal(r, "min_price")
	errs = append(errs, e)
	f.MaxPrice, e = queryDecimal(r, "max_price")
	errs = append(errs, e)
	f.MinArea, e = queryFloat(r, "min_area")
	errs = append(errs, e)
	f.MaxArea, e = queryFloat(r, "max_area")
	errs = append(errs, e)
	f.Limit, e = queryInt(r, "limit", 50)
	errs = append(errs, e)
	f.Offset, e = queryInt(r, "offset", 0)
	errs = append(errs, e)
	for _, e := range errs {
		if e != nil {
			writeError(w, http.StatusBadRequest, e.Error())
			return
		}
	}

	kitchens, err := s.deps.Kitchens.List(r.Context(), sess, f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kitchens": kitchens})
}

// GET /api/v1/kitchens/cities
func (s *HTTPServer) handleCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.deps.Kitchens.Cities(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": cities})
}

// POST /api/v1/kitchens
func (s *HTTPServer) handleCreateKitchen(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req kitchenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	k, err := s.deps.Kitchens.Create(r.Context(), sess, model.Kitchen{
		Title:        req.Title,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		Category:     req.Category,
		KitchenType:  req.KitchenType,
		AreaSqm:      req.AreaSqm,
		PricePerHour: req.PricePerHour,
		OpenHour:     req.OpenHour,
		CloseHour:    req.CloseHour,
		Amenities:    req.Amenities,
		ImageURLs:    req.ImageURLs,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, k)
}

// GET /api/v1/kitchens/{id}
func (s *HTTPServer) handleGetKitchen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	k, err := s.deps.Kitchens.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

// PATCH /api/v1/kitchens/{id}
func (s *HTTPServer) handleUpdateKitchen(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req kitchenPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	k, err := s.deps.Kitchens.Update(r.Context(), sess, id, service.KitchenPatch{
		Title:        req.Title,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		Category:     req.Category,
		KitchenType:  req.KitchenType,
		AreaSqm:      req.AreaSqm,
		PricePerHour: req.PricePerHour,
		OpenHour:     req.OpenHour,
		CloseHour:    req.CloseHour,
		Amenities:    req.Amenities,
		ImageURLs:    req.ImageURLs,
		IsActive:     req.IsActive,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

// handleAvailability returns the hourly slot grid of one day.
// With ?start=RFC3339 it also lists the lengths in hours bookable from start.
// GET /api/v1/kitchens/{id}/availability?date=YYYY-MM-DD&tz=Area/City&start=
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	loc, err := location(r.URL.Query().Get("tz"), s.deps.Bookings.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	day := time.Now().In(loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err = time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
			return
		}
	}

	avail, err := s.deps.Bookings.DayAvailability(r.Context(), id, day, loc)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := availabilityResponse{
		KitchenID:    id,
		Date:         avail.Date.Format(dateLayout),
		Timezone:     loc.String(),
		PricePerHour: avail.Kitchen.PricePerHour,
		Slots:        slots.ToSlotInfo(avail.Slots),
		Free:         len(slots.SelectableSlots(avail.Slots)),
		FreeRuns:     slots.FreeRuns(avail.Slots),
	}
	if r.URL.Query().Get("start") != "" {
		start, err := queryTime(r, "start")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Durations = slots.DurationOptions(avail.Slots, start)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/v1/kitchens/{id}/quote?start=RFC3339&end=RFC3339
func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := queryTime(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := s.deps.Bookings.Quote(r.Context(), id, start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
