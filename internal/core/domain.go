package core

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
	KindBoth    Kind = "both"
)

type (
	// Kind classifies a record (expense or income) or scopes a tag
	// (expense, income or both).
	Kind string

	// Record is a single dated income or expense entry.
	Record struct {
		ID        string          `json:"id"`
		Amount    decimal.Decimal `json:"amount"`
		Kind      Kind            `json:"kind"`
		Date      Date            `json:"date"`
		TagIDs    []string        `json:"tag_ids"`
		Note      string          `json:"note"`
		CreatedAt time.Time       `json:"created_at"`
		UpdatedAt time.Time       `json:"updated_at"`
	}

	// Tag is a user-defined category label.
	Tag struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Color     string    `json:"color"`
		Kind      Kind      `json:"kind"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// RecordInput carries caller-supplied fields for a new record. Zero Date
	// means today, nil TagIDs means no tags.
	RecordInput struct {
		Amount decimal.Decimal
		Kind   Kind
		Date   Date
		TagIDs []string
		Note   string
	}

	// RecordPatch lists the fields to change on an existing record. Nil
	// fields are left untouched.
	RecordPatch struct {
		Amount *decimal.Decimal
		Kind   *Kind
		Date   *Date
		TagIDs *[]string
		Note   *string
	}

	// TagInput carries caller-supplied fields for a new tag.
	TagInput struct {
		Name  string
		Color string
		Kind  Kind
	}

	// TagPatch lists the fields to change on an existing tag.
	TagPatch struct {
		Name  *string
		Color *string
		Kind  *Kind
	}
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindExpense, KindIncome, KindBoth:
		return true
	default:
		return false
	}
}

// Accepts reports whether a tag of kind k may be offered on an entry of
// kind want.
func (k Kind) Accepts(want Kind) bool {
	return k == want || k == KindBoth
}

// HasTag reports whether the record references tagID.
func (r Record) HasTag(tagID string) bool {
	return slices.Contains(r.TagIDs, tagID)
}

// Clone returns a copy of r that shares no slices with it.
func (r Record) Clone() Record {
	r.TagIDs = slices.Clone(r.TagIDs)
	return r
}

// Apply merges p over r field by field.
func (p RecordPatch) Apply(r Record) Record {
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.TagIDs != nil {
		r.TagIDs = slices.Clone(*p.TagIDs)
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
	return r
}

// Apply merges p over t field by field. A new name is trimmed.
func (p TagPatch) Apply(t Tag) Tag {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	return t
}
