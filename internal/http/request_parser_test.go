package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moneytracker/internal/core"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`12.5`, "12.5", false},
		{`"12,50"`, "12.5", false},
		{`"-3"`, "-3", false},
		{`"abc"`, "", true},
		{`null`, "", true},
		{``, "", true},
		{`true`, "", true},
	}
	for _, tc := range cases {
		got, err := parseAmount(json.RawMessage(tc.raw))
		if tc.wantErr {
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Field != "amount" {
				t.Fatalf("%q: expected amount validation error, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.raw, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%q: got %s want %s", tc.raw, got, tc.want)
		}
	}
}

func TestCreateRecordRequestDefaults(t *testing.T) {
	req := createRecordRequest{Amount: json.RawMessage(`5`), Kind: " Income ", Note: "  salary\x00 "}
	in, err := req.toInput()
	if err != nil {
		t.Fatalf("toInput: %v", err)
	}
	if in.Kind != core.KindIncome {
		t.Fatalf("kind=%q", in.Kind)
	}
	if !in.Date.IsZero() {
		t.Fatalf("empty date must stay zero so the store picks today, got %s", in.Date)
	}
	if in.Note != "salary" {
		t.Fatalf("note=%q", in.Note)
	}
}

func TestPatchRecordRequest(t *testing.T) {
	note := "x"
	date := "2024-02-29"
	ids := []string{"a"}
	patch, err := patchRecordRequest{Note: &note, Date: &date, TagIDs: &ids}.toPatch()
	if err != nil {
		t.Fatalf("toPatch: %v", err)
	}
	if patch.Amount != nil || patch.Kind != nil {
		t.Fatalf("absent fields must stay nil")
	}
	if *patch.Note != "x" || patch.Date.String() != "2024-02-29" || len(*patch.TagIDs) != 1 {
		t.Fatalf("unexpected patch %+v", patch)
	}

	bad := "2024-02-30"
	if _, err := (patchRecordRequest{Date: &bad}).toPatch(); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	kind := core.KindBoth
	if _, err := (patchRecordRequest{Kind: &kind}).toPatch(); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("records cannot be of kind both, got %v", err)
	}
}

func TestPatchTagRequest(t *testing.T) {
	blank := "  "
	if _, err := (patchTagRequest{Name: &blank}).toPatch(); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected empty name error, got %v", err)
	}
	kind := core.Kind("BOTH")
	patch, err := patchTagRequest{Kind: &kind}.toPatch()
	if err != nil || *patch.Kind != core.KindBoth {
		t.Fatalf("unexpected patch %+v err=%v", patch, err)
	}
}

func TestCreateTagRequestKind(t *testing.T) {
	in, err := createTagRequest{Name: " Pets ", Kind: " Expense "}.toInput()
	if err != nil || in.Kind != core.KindExpense || in.Name != "Pets" {
		t.Fatalf("unexpected input %+v err=%v", in, err)
	}
	if in, err := (createTagRequest{Name: "x"}).toInput(); err != nil || in.Kind != "" {
		t.Fatalf("missing kind: input %+v err=%v", in, err)
	}
	if _, err := (createTagRequest{Name: "x", Kind: "transfer"}).toInput(); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected invalid kind error, got %v", err)
	}
}

func TestDecodeJSONBodyLimit(t *testing.T) {
	body := `{"note":"` + strings.Repeat("a", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst patchRecordRequest
	if err := decodeJSON(httptest.NewRecorder(), req, 16, &dst); err == nil {
		t.Fatalf("oversized body accepted")
	}
}

func TestParseYearMonth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?year=2024&month=2", nil)
	y, m, ok, err := parseYearMonth(req)
	if err != nil || !ok || y != 2024 || m != 2 {
		t.Fatalf("got %d-%d ok=%v err=%v", y, m, ok, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, _, ok, err := parseYearMonth(req); ok || err != nil {
		t.Fatalf("no params must report ok=false, got ok=%v err=%v", ok, err)
	}

	for _, q := range []string{"?month=0", "?month=13", "?year=-1", "?year=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/"+q, nil)
		if _, _, _, err := parseYearMonth(req); err == nil {
			t.Fatalf("%s accepted", q)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"normal text", "normal text"},
		{"  padded  ", "padded"},
		{"with\x00null", "withnull"},
		{"keeps\ttabs\nand newlines", "keeps\ttabs\nand newlines"},
		{"bell\x07", "bell"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.expected {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
