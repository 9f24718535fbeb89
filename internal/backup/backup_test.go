package backup

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"moneytracker/internal/core"
)

type fakeLedger struct {
	records []core.Record
	tags    []core.Tag

	importedRecords int
	importedTags    int
}

func (f *fakeLedger) ExportRecords() []core.Record { return f.records }
func (f *fakeLedger) ExportTags() []core.Tag       { return f.tags }

func (f *fakeLedger) ImportRecords(_ context.Context, rs []core.Record) {
	f.records = rs
	f.importedRecords++
}

func (f *fakeLedger) ImportTags(_ context.Context, ts []core.Tag) {
	f.tags = ts
	f.importedTags++
}

func sampleLedger() *fakeLedger {
	created := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	return &fakeLedger{
		records: []core.Record{
			{ID: "r1", Amount: decimal.RequireFromString("42.5"), Kind: core.KindExpense,
				Date: core.NewDate(2024, 3, 2), TagIDs: []string{"t1", "gone"}, Note: "dinner", CreatedAt: created},
			{ID: "r2", Amount: decimal.NewFromInt(1200), Kind: core.KindIncome,
				Date: core.NewDate(2024, 3, 1), TagIDs: []string{}, CreatedAt: created},
		},
		tags: []core.Tag{
			{ID: "t1", Name: "restaurant", Color: "#ff976a", Kind: core.KindExpense, CreatedAt: created},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	src := sampleLedger()
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	doc := Snapshot(src, now)
	assert.Equal(t, Version, doc.Version)
	assert.Equal(t, time.UTC, doc.ExportedAt.Location())

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	assert.Contains(t, buf.String(), `"exported_at"`)

	got, err := ReadJSON(&buf)
	require.NoError(t, err)

	dst := &fakeLedger{}
	Restore(context.Background(), dst, got)
	require.Len(t, dst.records, 2)
	require.Len(t, dst.tags, 1)
	assert.Equal(t, "r1", dst.records[0].ID)
	assert.True(t, dst.records[0].Amount.Equal(decimal.RequireFromString("42.5")))
	assert.Equal(t, []string{"t1", "gone"}, dst.records[0].TagIDs)
	assert.Equal(t, "restaurant", dst.tags[0].Name)
}

func TestRestoreSkipsMissingCollections(t *testing.T) {
	doc, err := ReadJSON(strings.NewReader(`{"version":1,"tags":[]}`))
	require.NoError(t, err)

	dst := sampleLedger()
	Restore(context.Background(), dst, doc)
	assert.Equal(t, 0, dst.importedRecords)
	assert.Equal(t, 1, dst.importedTags)
	assert.Len(t, dst.records, 2)
	assert.Empty(t, dst.tags)
}

func TestReadJSONRejectsNewerVersion(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"version":99}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backup version")
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	doc := Snapshot(sampleLedger(), time.Now())

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, doc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RecordsSheet, TagsSheet}, f.GetSheetList())

	rows, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "2024-03-02", rows[1][0])
	assert.Equal(t, "42.50", rows[1][2])
	assert.Equal(t, "restaurant, gone", rows[1][3])

	tagRows, err := f.GetRows(TagsSheet)
	require.NoError(t, err)
	require.Len(t, tagRows, 2)
	assert.Equal(t, []string{"restaurant", "expense", "#ff976a", "t1", "2024-03-02 09:30:00"}, tagRows[1])
}
