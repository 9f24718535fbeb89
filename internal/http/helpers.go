package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moneytracker/internal/core"
)

// parseYearMonth reads year and month from the query. ok is false when
// neither is present.
func parseYearMonth(r *http.Request) (year, month int, ok bool, err error) {
	q := r.URL.Query()
	ys, ms := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if ys == "" && ms == "" {
		return 0, 0, false, nil
	}

	now := time.Now()
	year, month = now.Year(), int(now.Month())
	if ys != "" {
		if year, err = strconv.Atoi(ys); err != nil || year < 1 {
			return 0, 0, false, fmt.Errorf("invalid year %q", ys)
		}
	}
	if ms != "" {
		if month, err = strconv.Atoi(ms); err != nil || month < 1 || month > 12 {
			return 0, 0, false, fmt.Errorf("invalid month %q", ms)
		}
	}
	return year, month, true, nil
}

// parseDateRange reads start and end from the query. ok is false when
// neither is present; both are required otherwise.
func parseDateRange(r *http.Request) (start, end core.Date, ok bool, err error) {
	q := r.URL.Query()
	ss, es := q.Get("start"), q.Get("end")
	if ss == "" && es == "" {
		return core.Date{}, core.Date{}, false, nil
	}
	if start, err = core.ParseDate(ss); err != nil {
		return core.Date{}, core.Date{}, false, err
	}
	if end, err = core.ParseDate(es); err != nil {
		return core.Date{}, core.Date{}, false, err
	}
	return start, end, true, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
