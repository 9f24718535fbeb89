// Package backup moves the whole ledger in and out of files: a JSON
// document that can be restored, and an XLSX workbook for spreadsheets.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"moneytracker/internal/core"
)

// Version is written into every exported document.
const Version = 1

// Document is the on-disk backup format.
type Document struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Records    []core.Record `json:"records"`
	Tags       []core.Tag    `json:"tags"`
}

// Ledger is the part of the record and tag stores a backup needs.
type Ledger interface {
	ExportRecords() []core.Record
	ExportTags() []core.Tag
	ImportRecords(ctx context.Context, records []core.Record)
	ImportTags(ctx context.Context, tags []core.Tag)
}

// Snapshot captures the current ledger contents.
func Snapshot(l Ledger, now time.Time) Document {
	return Document{
		Version:    Version,
		ExportedAt: now.UTC(),
		Records:    l.ExportRecords(),
		Tags:       l.ExportTags(),
	}
}

// Restore replaces the ledger contents with the document. A collection that
// is absent from the document is left as it is.
func Restore(ctx context.Context, l Ledger, doc Document) {
	if doc.Tags != nil {
		l.ImportTags(ctx, doc.Tags)
	}
	if doc.Records != nil {
		l.ImportRecords(ctx, doc.Records)
	}
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// ReadJSON decodes a backup document. Documents from a newer format version
// are rejected; everything else is passed through as is.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version > Version {
		return Document{}, fmt.Errorf("unsupported backup version %d (max %d)", doc.Version, Version)
	}
	return doc, nil
}
