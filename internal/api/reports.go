package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// handleOwnerReport streams the owner's monthly bookings workbook.
// GET /api/v1/reports/bookings.xlsx?month=YYYY-MM&tz=
func (s *HTTPServer) handleOwnerReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	loc, err := location(r.URL.Query().Get("tz"), s.deps.Bookings.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	month := time.Now().In(loc)
	if raw := r.URL.Query().Get("month"); raw != "" {
		month, err = time.ParseInLocation("2006-01", raw, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month; expected YYYY-MM")
			return
		}
	}

	// Buffered so that a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := s.deps.Reports.OwnerMonth(r.Context(), sess, month.Year(), month.Month(), loc, &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings_%s.xlsx"`, month.Format("2006_01")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
