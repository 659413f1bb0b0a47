package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/theogognf/toi/pkg/types"
)

// DateTimeHandler answers date and time questions so the assistant never
// has to compute them.
type DateTimeHandler struct {
	now func() time.Time
}

// NewDateTimeHandler creates a DateTimeHandler on the wall clock.
func NewDateTimeHandler() *DateTimeHandler {
	return &DateTimeHandler{now: time.Now}
}

// Now handles GET /datetime/now.
func (h *DateTimeHandler) Now(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, types.DateTimeResponse{Datetime: h.now().UTC()})
}

// Shift handles POST /datetime/shift.
func (h *DateTimeHandler) Shift(w http.ResponseWriter, r *http.Request) {
	var req types.DateTimeShiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	shifted, err := h.shift(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, types.DateTimeResponse{Datetime: shifted})
}

func (h *DateTimeHandler) shift(req types.DateTimeShiftRequest) (time.Time, error) {
	start := h.now().UTC()
	if req.Datetime != nil {
		start = req.Datetime.UTC()
	}

	var total time.Duration
	for _, part := range []struct {
		n    int64
		unit time.Duration
	}{
		{req.Weeks, 7 * 24 * time.Hour},
		{req.Days, 24 * time.Hour},
		{req.Hours, time.Hour},
		{req.Minutes, time.Minute},
		{req.Seconds, time.Second},
	} {
		d, ok := scale(part.n, part.unit)
		if !ok {
			return time.Time{}, types.Validation("datetime shift overflowed")
		}
		sum := total + d
		if (d > 0 && sum < total) || (d < 0 && sum > total) {
			return time.Time{}, types.Validation("datetime shift overflowed")
		}
		total = sum
	}

	shifted := start.Add(total)
	if y := shifted.Year(); y < 1 || y > 9999 {
		return time.Time{}, types.Validation("datetime shift overflowed")
	}
	return shifted, nil
}

func scale(n int64, unit time.Duration) (time.Duration, bool) {
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

type weekdayParams struct {
	Datetime *time.Time `json:"datetime,omitempty"`
}

// Weekday handles GET /datetime/weekday.
func (h *DateTimeHandler) Weekday(w http.ResponseWriter, r *http.Request) {
	var params weekdayParams
	if err := decodeQuery(r.URL.Query(), &params); err != nil {
		respondError(w, r, err)
		return
	}
	t := h.now().UTC()
	if params.Datetime != nil {
		t = *params.Datetime
	}
	respondJSON(w, r, http.StatusOK, types.WeekdayResponse{Weekday: t.Weekday().String()})
}
