package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"moneytracker/internal/core"
)

// maxBodyBytes caps JSON request bodies; imports get maxImportBytes.
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20
)

// decodeJSON reads a single JSON object from the body. Unknown fields are
// rejected so that typos do not silently drop data.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseAmount accepts a JSON number or a string such as "12,34".
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, core.NewValidationError("amount", core.ErrInvalidAmount)
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, core.NewValidationError("amount", core.ErrInvalidAmount)
		}
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, core.NewValidationError("amount", err)
	}
	return d, nil
}

func parseRecordKind(k core.Kind) (core.Kind, error) {
	k = core.Kind(strings.ToLower(strings.TrimSpace(string(k))))
	if k != core.KindExpense && k != core.KindIncome {
		return "", core.NewValidationError("kind", core.ErrInvalidKind)
	}
	return k, nil
}

type createRecordRequest struct {
	Amount json.RawMessage `json:"amount"`
	Kind   core.Kind       `json:"kind"`
	Date   string          `json:"date"`
	TagIDs []string        `json:"tag_ids"`
	Note   string          `json:"note"`
}

// toInput validates the request. An empty date means today.
func (req createRecordRequest) toInput() (core.RecordInput, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.RecordInput{}, err
	}
	kind, err := parseRecordKind(req.Kind)
	if err != nil {
		return core.RecordInput{}, err
	}
	var date core.Date
	if strings.TrimSpace(req.Date) != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			return core.RecordInput{}, core.NewValidationError("date", core.ErrInvalidDate)
		}
	}
	return core.RecordInput{
		Amount: amount,
		Kind:   kind,
		Date:   date,
		TagIDs: req.TagIDs,
		Note:   sanitizeInput(req.Note),
	}, nil
}

type patchRecordRequest struct {
	Amount json.RawMessage `json:"amount"`
	Kind   *core.Kind      `json:"kind"`
	Date   *string         `json:"date"`
	TagIDs *[]string       `json:"tag_ids"`
	Note   *string         `json:"note"`
}

func (req patchRecordRequest) toPatch() (core.RecordPatch, error) {
	var patch core.RecordPatch
	if len(req.Amount) > 0 {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return core.RecordPatch{}, err
		}
		patch.Amount = &amount
	}
	if req.Kind != nil {
		kind, err := parseRecordKind(*req.Kind)
		if err != nil {
			return core.RecordPatch{}, err
		}
		patch.Kind = &kind
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			return core.RecordPatch{}, core.NewValidationError("date", core.ErrInvalidDate)
		}
		patch.Date = &date
	}
	if req.TagIDs != nil {
		ids := *req.TagIDs
		if ids == nil {
			ids = []string{}
		}
		patch.TagIDs = &ids
	}
	if req.Note != nil {
		note := sanitizeInput(*req.Note)
		patch.Note = &note
	}
	return patch, nil
}

type createTagRequest struct {
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Kind  core.Kind `json:"kind"`
}

// toInput normalizes the request. A missing kind is left empty so the store
// applies its default.
func (req createTagRequest) toInput() (core.TagInput, error) {
	kind := core.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind))))
	if kind != "" && !kind.IsValid() {
		return core.TagInput{}, core.NewValidationError("kind", core.ErrInvalidKind)
	}
	return core.TagInput{
		Name:  sanitizeInput(req.Name),
		Color: strings.TrimSpace(req.Color),
		Kind:  kind,
	}, nil
}

type patchTagRequest struct {
	Name  *string    `json:"name"`
	Color *string    `json:"color"`
	Kind  *core.Kind `json:"kind"`
}

func (req patchTagRequest) toPatch() (core.TagPatch, error) {
	var patch core.TagPatch
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if name == "" {
			return core.TagPatch{}, core.NewValidationError("name", core.ErrEmptyName)
		}
		patch.Name = &name
	}
	if req.Color != nil {
		color := strings.TrimSpace(*req.Color)
		patch.Color = &color
	}
	if req.Kind != nil {
		kind := core.Kind(strings.ToLower(strings.TrimSpace(string(*req.Kind))))
		if !kind.IsValid() {
			return core.TagPatch{}, core.NewValidationError("kind", core.ErrInvalidKind)
		}
		patch.Kind = &kind
	}
	return patch, nil
}
