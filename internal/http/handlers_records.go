package http

import (
	"net/http"
	"strings"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
)

// handleListRecords returns records newest first. year+month or start+end
// narrow the date window; kind and tag filter further.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	year, month, byMonth, err := parseYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	start, end, byRange, err := parseDateRange(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var records []core.Record
	switch {
	case byMonth && byRange:
		BadRequestError("use either year/month or start/end, not both").Write(w)
		return
	case byMonth:
		records = s.app.Records.QueryByMonth(year, month)
	case byRange:
		records = s.app.Records.QueryByDateRange(start, end)
	default:
		records = s.app.Records.All()
	}

	if kind := core.Kind(strings.ToLower(r.URL.Query().Get("kind"))); kind != "" {
		records = filterRecords(records, func(rec core.Record) bool { return rec.Kind == kind })
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		records = filterRecords(records, func(rec core.Record) bool { return rec.HasTag(tag) })
	}

	NewJSONResponse().Body(map[string]any{
		"records":    records,
		"statistics": s.app.Records.StatisticsOf(records),
	}).Write(w)
}

func filterRecords(rs []core.Record, keep func(core.Record) bool) []core.Record {
	out := make([]core.Record, 0, len(rs))
	for _, r := range rs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := req.toInput()
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	rec := s.app.Records.Add(r.Context(), in)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Record created",
		log.NewFields().WithRecord(rec.ID, core.FormatAmount(rec.Amount), string(rec.Kind)).ToSlice()...)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/records/"+rec.ID).
		Body(rec).
		Write(w)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.app.Records.Get(r.PathValue("id"))
	if !ok {
		NotFoundError("record not found").Write(w)
		return
	}
	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req patchRecordRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	rec, ok := s.app.Records.Update(r.Context(), r.PathValue("id"), patch)
	if !ok {
		NotFoundError("record not found").Write(w)
		return
	}
	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.app.Records.Remove(r.Context(), id) {
		NotFoundError("record not found").Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Record deleted", log.FieldRecordID, id)
	NewJSONResponse().Write(w)
}

func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	s.app.Records.Clear(r.Context())
	log.FromContext(r.Context()).WarnContext(r.Context(), "All records cleared", log.FieldOperation, log.OpClear)
	NewJSONResponse().Write(w)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{"months": s.app.Records.AvailableMonths()}).Write(w)
}

// handleStatistics returns totals for one month, or for the whole ledger
// when no month is given. Results are cached per store revision.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	year, month, byMonth, err := parseYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rev := s.app.Records.Revision()
	var overview core.MonthOverview
	if byMonth {
		overview = s.stats.Overview(rev, year, month, func() core.MonthOverview {
			return core.Overview(year, month, s.app.Records.QueryByMonth(year, month))
		})
	} else {
		overview = s.stats.Overview(rev, 0, 0, func() core.MonthOverview {
			return core.Overview(0, 0, s.app.Records.All())
		})
	}
	NewJSONResponse().Body(overview).Write(w)
}
