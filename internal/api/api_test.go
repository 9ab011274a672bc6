package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/db"
	"kitchenhub/internal/model"
	"kitchenhub/internal/report"
	"kitchenhub/internal/service"
)

const (
	testKey           = "test-key"
	ownerID     int64 = 10
	renterID    int64 = 20
	otherRenter int64 = 30
)

var testNow = time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	srv     *httptest.Server
	kitchen *model.Kitchen
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	store, err := db.NewDB(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	k, err := model.NewKitchen(model.Kitchen{
		OwnerID:      ownerID,
		Title:        "Loft",
		City:         "Berlin",
		PricePerHour: decimal.NewFromInt(500),
		IsActive:     true,
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateKitchen(context.Background(), k))

	retry := service.RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	deps := Deps{
		Bookings: service.NewBookingService(store, store, nil, service.BookingOptions{
			Retry:    retry,
			Location: time.UTC,
			Now:      func() time.Time { return testNow },
		}, logger),
		Kitchens: service.NewKitchenService(store, nil, retry, logger),
		Messages: service.NewMessageService(store, retry, logger),
		Profiles: service.NewProfileService(store, retry, logger),
		Reports:  report.NewGenerator(store, logger),
	}

	if opts.APIKeys == nil {
		opts.APIKeys = []string{testKey}
	}
	s := NewHTTPServer(deps, opts, logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, kitchen: k}
}

func (e *testEnv) do(t *testing.T, method, path string, userID int64, role model.Role, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("x-api-key", testKey)
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprint(userID))
		req.Header.Set("X-User-Role", string(role))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func bookingBody(kitchenID int64, start, end time.Time) map[string]any {
	return map[string]any{"kitchen_id": kitchenID, "start": start.Format(time.RFC3339), "end": end.Format(time.RFC3339)}
}

func at(day, hour int) time.Time {
	return time.Date(2026, 7, day, hour, 0, 0, 0, time.UTC)
}

func TestAPIKeyRequired(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, err := http.Get(env.srv.URL + "/api/v1/kitchens")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	ok := env.do(t, http.MethodGet, "/api/v1/kitchens", 0, "", nil)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestKitchenRoutes(t *testing.T) {
	env := newTestEnv(t, Options{})

	list := decode[struct {
		Kitchens []model.Kitchen `json:"kitchens"`
	}](t, env.do(t, http.MethodGet, "/api/v1/kitchens?city=Berlin", 0, "", nil))
	require.Len(t, list.Kitchens, 1)
	assert.Equal(t, "Loft", list.Kitchens[0].Title)

	cities := decode[map[string][]string](t, env.do(t, http.MethodGet, "/api/v1/kitchens/cities", 0, "", nil))
	assert.Equal(t, []string{"Berlin"}, cities["cities"])

	created := env.do(t, http.MethodPost, "/api/v1/kitchens", ownerID, model.RoleOwner, map[string]any{
		"title": "Bakery", "city": "Berlin", "price_per_hour": "750", "kitchen_type": "industrial",
	})
	require.Equal(t, http.StatusCreated, created.StatusCode)
	k := decode[model.Kitchen](t, created)
	assert.Equal(t, ownerID, k.OwnerID)

	renterCreate := env.do(t, http.MethodPost, "/api/v1/kitchens", renterID, model.RoleRenter, map[string]any{"title": "Nope"})
	assert.Equal(t, http.StatusForbidden, renterCreate.StatusCode)

	patched := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/kitchens/%d", k.ID), ownerID, model.RoleOwner, map[string]any{"title": "Big bakery"})
	require.Equal(t, http.StatusOK, patched.StatusCode)
	assert.Equal(t, "Big bakery", decode[model.Kitchen](t, patched).Title)

	badPatch := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/kitchens/%d", k.ID), ownerID, model.RoleOwner, map[string]any{"open_hour": 23})
	assert.Equal(t, http.StatusBadRequest, badPatch.StatusCode)

	missing := env.do(t, http.MethodGet, "/api/v1/kitchens/999", 0, "", nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	badID := env.do(t, http.MethodGet, "/api/v1/kitchens/abc", 0, "", nil)
	assert.Equal(t, http.StatusBadRequest, badID.StatusCode)
}

func TestAvailabilityAndQuote(t *testing.T) {
	env := newTestEnv(t, Options{})
	path := fmt.Sprintf("/api/v1/kitchens/%d", env.kitchen.ID)

	created := env.do(t, http.MethodPost, "/api/v1/bookings", renterID, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 12), at(2, 14)))
	require.Equal(t, http.StatusCreated, created.StatusCode)

	resp := env.do(t, http.MethodGet, path+"/availability?date=2026-07-02", 0, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail := decode[availabilityResponse](t, resp)
	require.Len(t, avail.Slots, 14)
	assert.Equal(t, "2026-07-02", avail.Date)
	assert.Equal(t, "booked", avail.Slots[4].State)
	assert.Equal(t, "booked", avail.Slots[5].State)
	assert.Equal(t, "available", avail.Slots[6].State)
	assert.Equal(t, 12, avail.Free)
	require.Len(t, avail.FreeRuns, 2)
	assert.Equal(t, 4, avail.FreeRuns[0].Hours)
	assert.True(t, at(2, 14).Equal(avail.FreeRuns[1].Start))
	assert.Equal(t, 8, avail.FreeRuns[1].Hours)
	assert.Empty(t, avail.Durations)

	pastDay := env.do(t, http.MethodGet, path+"/availability?date=2026-06-30", 0, "", nil)
	require.Equal(t, http.StatusOK, pastDay.StatusCode)
	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(pastDay.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw["free_runs"]), "no free time encodes as an empty list")

	withStart := env.do(t, http.MethodGet, path+"/availability?date=2026-07-02&start=2026-07-02T10:00:00Z", 0, "", nil)
	require.Equal(t, http.StatusOK, withStart.StatusCode)
	assert.Equal(t, []int{1, 2}, decode[availabilityResponse](t, withStart).Durations)

	badTZ := env.do(t, http.MethodGet, path+"/availability?date=2026-07-02&tz=Mars/Olympus", 0, "", nil)
	assert.Equal(t, http.StatusBadRequest, badTZ.StatusCode)

	q := env.do(t, http.MethodGet, path+"/quote?start=2026-07-02T10:00:00Z&end=2026-07-02T11:30:00Z", 0, "", nil)
	require.Equal(t, http.StatusOK, q.StatusCode)
	quote := decode[struct {
		Hours int             `json:"hours"`
		Total decimal.Decimal `json:"total"`
	}](t, q)
	assert.Equal(t, 2, quote.Hours)
	assert.True(t, decimal.NewFromInt(1000).Equal(quote.Total))
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodPost, "/api/v1/bookings", renterID, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 10), at(2, 12)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	b := decode[model.Booking](t, resp)
	assert.Equal(t, model.StatusPending, b.Status)

	overlap := env.do(t, http.MethodPost, "/api/v1/bookings", otherRenter, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 11), at(2, 13)))
	require.Equal(t, http.StatusConflict, overlap.StatusCode)
	conflict := decode[errorResponse](t, overlap)
	require.NotNil(t, conflict.Conflict)
	assert.Equal(t, b.ID, conflict.Conflict.BookingID)

	backToBack := env.do(t, http.MethodPost, "/api/v1/bookings", otherRenter, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 12), at(2, 13)))
	assert.Equal(t, http.StatusCreated, backToBack.StatusCode)

	inverted := env.do(t, http.MethodPost, "/api/v1/bookings", renterID, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 15), at(2, 14)))
	assert.Equal(t, http.StatusBadRequest, inverted.StatusCode)

	noSession := env.do(t, http.MethodPost, "/api/v1/bookings", 0, "", bookingBody(env.kitchen.ID, at(2, 15), at(2, 16)))
	assert.Equal(t, http.StatusUnauthorized, noSession.StatusCode)

	statusPath := fmt.Sprintf("/api/v1/bookings/%d/status", b.ID)
	renterConfirm := env.do(t, http.MethodPost, statusPath, renterID, model.RoleRenter, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, renterConfirm.StatusCode)

	confirm := env.do(t, http.MethodPost, statusPath, ownerID, model.RoleOwner, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, confirm.StatusCode)
	view := decode[service.BookingView](t, confirm)
	assert.Equal(t, model.StatusConfirmed, view.Status)

	again := env.do(t, http.MethodPost, statusPath, ownerID, model.RoleOwner, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, again.StatusCode)

	unknown := env.do(t, http.MethodPost, statusPath, ownerID, model.RoleOwner, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, unknown.StatusCode)

	get := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", b.ID), otherRenter, model.RoleRenter, nil)
	assert.Equal(t, http.StatusForbidden, get.StatusCode)

	cancel := env.do(t, http.MethodPost, statusPath, renterID, model.RoleRenter, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, cancel.StatusCode)

	// The freed interval can be booked again.
	rebook := env.do(t, http.MethodPost, "/api/v1/bookings", otherRenter, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 10), at(2, 12)))
	assert.Equal(t, http.StatusCreated, rebook.StatusCode)

	list := decode[struct {
		Bookings []service.BookingView `json:"bookings"`
	}](t, env.do(t, http.MethodGet, "/api/v1/bookings?tab=cancelled", renterID, model.RoleRenter, nil))
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, b.ID, list.Bookings[0].ID)

	owned := decode[struct {
		Bookings []service.BookingView `json:"bookings"`
	}](t, env.do(t, http.MethodGet, "/api/v1/bookings", ownerID, model.RoleOwner, nil))
	assert.Len(t, owned.Bookings, 2)

	badTab := env.do(t, http.MethodGet, "/api/v1/bookings?tab=archive", renterID, model.RoleRenter, nil)
	assert.Equal(t, http.StatusBadRequest, badTab.StatusCode)
}

func TestCreateRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{CreateRatePerMinute: 1})

	first := env.do(t, http.MethodPost, "/api/v1/bookings", renterID, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 10), at(2, 11)))
	assert.Equal(t, http.StatusCreated, first.StatusCode)

	second := env.do(t, http.MethodPost, "/api/v1/bookings", renterID, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 12), at(2, 13)))
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	other := env.do(t, http.MethodPost, "/api/v1/bookings", otherRenter, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 12), at(2, 13)))
	assert.Equal(t, http.StatusCreated, other.StatusCode)
}

func TestMessages(t *testing.T) {
	env := newTestEnv(t, Options{})
	path := fmt.Sprintf("/api/v1/messages/%d", ownerID)

	sent := env.do(t, http.MethodPost, path, renterID, model.RoleRenter, map[string]any{"body": "Is the oven gas?"})
	require.Equal(t, http.StatusCreated, sent.StatusCode)
	m := decode[model.Message](t, sent)

	empty := env.do(t, http.MethodPost, path, renterID, model.RoleRenter, map[string]any{"body": "  "})
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)

	conv := decode[struct {
		Messages []model.Message `json:"messages"`
		LastID   int64           `json:"last_id"`
	}](t, env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/%d", renterID), ownerID, model.RoleOwner, nil))
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, m.ID, conv.LastID)

	poll := decode[struct {
		Messages []model.Message `json:"messages"`
	}](t, env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/%d?after_id=%d", renterID, m.ID), ownerID, model.RoleOwner, nil))
	assert.Empty(t, poll.Messages)

	contacts := decode[struct {
		Contacts []model.Contact `json:"contacts"`
	}](t, env.do(t, http.MethodGet, "/api/v1/messages/contacts", ownerID, model.RoleOwner, nil))
	require.Len(t, contacts.Contacts, 1)
	assert.Equal(t, renterID, contacts.Contacts[0].UserID)
	assert.Equal(t, 0, contacts.Contacts[0].Unread, "reading the conversation marks it read")
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t, Options{})
	created := env.do(t, http.MethodPost, "/api/v1/bookings", renterID, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 10), at(2, 12)))
	require.Equal(t, http.StatusCreated, created.StatusCode)

	blank := decode[model.ProfileSummary](t, env.do(t, http.MethodGet, "/api/v1/profile", renterID, model.RoleRenter, nil))
	assert.Equal(t, renterID, blank.UserID)
	assert.Empty(t, blank.FirstName)
	assert.Equal(t, 1, blank.Bookings)

	bad := env.do(t, http.MethodPut, "/api/v1/profile", renterID, model.RoleRenter, map[string]any{"first_name": "Anna", "phone": "call me"})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	saved := env.do(t, http.MethodPut, "/api/v1/profile", renterID, model.RoleRenter,
		map[string]any{"first_name": "Anna", "last_name": "Petrova", "phone": "+49 30 1234567"})
	require.Equal(t, http.StatusOK, saved.StatusCode)

	mine := decode[model.ProfileSummary](t, env.do(t, http.MethodGet, "/api/v1/profile", renterID, model.RoleRenter, nil))
	assert.Equal(t, "Petrova", mine.LastName)
	assert.Equal(t, "+49 30 1234567", mine.Phone)

	owner := decode[model.ProfileSummary](t, env.do(t, http.MethodGet, "/api/v1/profile", ownerID, model.RoleOwner, nil))
	assert.Equal(t, 1, owner.Kitchens)

	public := decode[model.Profile](t, env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/profile", renterID), ownerID, model.RoleOwner, nil))
	assert.Equal(t, "Anna", public.FirstName)
	assert.Empty(t, public.Phone)

	sent := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d", ownerID), renterID, model.RoleRenter, map[string]any{"body": "Hi"})
	require.Equal(t, http.StatusCreated, sent.StatusCode)
	contacts := decode[struct {
		Contacts []model.Contact `json:"contacts"`
	}](t, env.do(t, http.MethodGet, "/api/v1/messages/contacts", ownerID, model.RoleOwner, nil))
	require.Len(t, contacts.Contacts, 1)
	assert.Equal(t, "Anna Petrova", contacts.Contacts[0].Name)
}

func TestOwnerReport(t *testing.T) {
	env := newTestEnv(t, Options{})
	created := env.do(t, http.MethodPost, "/api/v1/bookings", renterID, model.RoleRenter, bookingBody(env.kitchen.ID, at(2, 10), at(2, 12)))
	require.Equal(t, http.StatusCreated, created.StatusCode)

	resp := env.do(t, http.MethodGet, "/api/v1/reports/bookings.xlsx?month=2026-07", ownerID, model.RoleOwner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "bookings_2026_07.xlsx")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))

	renter := env.do(t, http.MethodGet, "/api/v1/reports/bookings.xlsx?month=2026-07", renterID, model.RoleRenter, nil)
	assert.Equal(t, http.StatusForbidden, renter.StatusCode)

	bad := env.do(t, http.MethodGet, "/api/v1/reports/bookings.xlsx?month=July", ownerID, model.RoleOwner, nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&booking.InvalidIntervalError{Reason: "x"}, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", service.ErrInvalidInput), http.StatusBadRequest},
		{booking.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("kitchen 1: %w", booking.ErrNotFound), http.StatusNotFound},
		{&booking.ConflictError{}, http.StatusConflict},
		{&booking.TransitionError{From: "cancelled", To: "confirmed"}, http.StatusConflict},
		{&booking.TransientError{Op: "x", Err: errors.New("locked")}, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
