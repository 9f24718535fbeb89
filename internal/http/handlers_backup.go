package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"moneytracker/internal/backup"
	"moneytracker/internal/log"
)

func attachment(name string, now time.Time, ext string) string {
	return fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s_%s.%s", name, now.Format("20060102"), ext))
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	doc := backup.Snapshot(s.app, now)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("moneytracker", now, "json"))
	if err := backup.WriteJSON(w, doc); err != nil {
		// Headers are already out; all we can do is log
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write export", log.FieldError, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger exported",
		log.FieldOperation, log.OpExport,
		"records", len(doc.Records),
		"tags", len(doc.Tags))
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var buf bytes.Buffer
	if err := backup.WriteXLSX(&buf, backup.Snapshot(s.app, now)); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to build workbook", log.FieldError, err)
		InternalServerError("failed to build workbook").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment("moneytracker", now, "xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleImport replaces the ledger with an uploaded backup document.
// Collections missing from the document are left untouched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := backup.ReadJSON(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	backup.Restore(r.Context(), s.app, doc)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger imported",
		log.FieldOperation, log.OpImport,
		"records", len(doc.Records),
		"tags", len(doc.Tags))

	NewJSONResponse().Body(map[string]any{
		"records": s.app.Records.Len(),
		"tags":    len(s.app.Tags.All()),
	}).Write(w)
}
