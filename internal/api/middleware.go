package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"kitchenhub/internal/metrics"
	"kitchenhub/internal/model"
)

type ctxKey int

const requestIDKey ctxKey = iota

// statusRecorder captures the response code for metrics and logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// route registers h under pattern and records per-route metrics.
func (s *HTTPServer) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		metrics.IncHTTP(pattern, strconv.Itoa(rec.status))
		s.logger.Debug().
			Str("request_id", requestID(r.Context())).
			Str("route", pattern).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}

func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *HTTPServer) withAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.apiKeys) > 0 {
			if _, ok := s.apiKeys[r.Header.Get("x-api-key")]; !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// sessionFrom reads the acting user. ok is false when no user headers are set.
func sessionFrom(r *http.Request) (sess model.Session, ok bool, err error) {
	rawID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	rawRole := strings.TrimSpace(r.Header.Get("X-User-Role"))
	if rawID == "" && rawRole == "" {
		return model.Session{}, false, nil
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return model.Session{}, false, err
	}
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return model.Session{}, false, err
	}
	sess, err = model.NewSession(id, role)
	if err != nil {
		return model.Session{}, false, err
	}
	return sess, true, nil
}

// requireSession writes 401 and returns false when the request has no valid session.
func requireSession(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	sess, ok, err := sessionFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid session: "+err.Error())
		return model.Session{}, false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "session required")
		return model.Session{}, false
	}
	return sess, true
}

// renterLimiter caps booking requests per user. A limiter idle for longer
// than its full refill time is indistinguishable from a new one, so such
// entries are dropped during periodic sweeps.
type renterLimiter struct {
	mu        sync.Mutex
	limiters  map[int64]*userLimiter
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newRenterLimiter(perMinute int) *renterLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &renterLimiter{
		limiters: make(map[int64]*userLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     time.Minute,
		now:      time.Now,
	}
}

func (l *renterLimiter) Allow(userID int64) bool {
	if l == nil {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	u, ok := l.limiters[userID]
	if !ok {
		u = &userLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = u
	}
	u.lastSeen = now
	return u.lim.AllowN(now, 1)
}

// sweep drops limiters not used for l.idle. Callers hold l.mu.
func (l *renterLimiter) sweep(now time.Time) {
	for id, u := range l.limiters {
		if now.Sub(u.lastSeen) >= l.idle {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}

func (l *renterLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
