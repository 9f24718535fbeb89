package sheets

import (
	"context"
	"strings"

	"moneytracker/internal/core"
)

// Mirror receives full snapshots of the ledger and renders them somewhere
// outside the kv store. Implementations overwrite what they wrote before.
type Mirror interface {
	Mirror(ctx context.Context, records []core.Record, tags []core.Tag) error
}

// Header is the first row of every mirrored sheet.
var Header = []any{"Date", "Kind", "Amount", "Tags", "Note", "ID", "Created", "Updated"}

// Rows renders records as sheet rows, header first. Tag ids that no longer
// resolve to a tag are written as the raw id.
func Rows(records []core.Record, tags []core.Tag) [][]any {
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, Header)
	for _, r := range records {
		labels := make([]string, 0, len(r.TagIDs))
		for _, id := range r.TagIDs {
			if n, ok := names[id]; ok {
				labels = append(labels, n)
			} else {
				labels = append(labels, id)
			}
		}
		updated := ""
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.UTC().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []any{
			r.Date.String(),
			string(r.Kind),
			core.FormatAmount(r.Amount),
			strings.Join(labels, ", "),
			r.Note,
			r.ID,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			updated,
		})
	}
	return rows
}
