package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"

	"moneytracker/internal/core"
)

type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	lastBody map[string]any
	failOn   string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	if f.failOn != "" && strings.Contains(r.URL.Path, f.failOn) {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
		return
	}
	body, _ := io.ReadAll(r.Body)
	if len(body) > 0 {
		_ = json.Unmarshal(body, &f.lastBody)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{}`))
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Ledger"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMirror_ClearsThenWrites(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	records := []core.Record{{
		ID:     "r1",
		Amount: decimal.RequireFromString("9.90"),
		Kind:   core.KindExpense,
		Date:   core.NewDate(2024, 5, 1),
		TagIDs: []string{"t1"},
	}}
	tags := []core.Tag{{ID: "t1", Name: "transport"}}

	if err := c.Mirror(context.Background(), records, tags); err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected clear + update, got %v", fake.calls)
	}
	if !strings.HasPrefix(fake.calls[0], "POST ") || !strings.HasSuffix(fake.calls[0], ":clear") {
		t.Errorf("first call should clear the range, got %s", fake.calls[0])
	}
	if !strings.HasPrefix(fake.calls[1], "PUT ") {
		t.Errorf("second call should update values, got %s", fake.calls[1])
	}

	values, _ := fake.lastBody["values"].([]any)
	if len(values) != 2 {
		t.Fatalf("expected header + 1 row, got %v", fake.lastBody)
	}
	row, _ := values[1].([]any)
	if row[3] != "transport" || row[2] != "9.90" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestMirror_QuotesFormulaText(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	records := []core.Record{{
		ID:     "r1",
		Amount: decimal.RequireFromString("-3"),
		Kind:   core.KindExpense,
		Date:   core.NewDate(2024, 5, 1),
		Note:   `=IMPORTXML("http://x","//a")`,
		TagIDs: []string{"t1"},
	}}
	tags := []core.Tag{{ID: "t1", Name: "@home"}}

	if err := c.Mirror(context.Background(), records, tags); err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}
	values, _ := fake.lastBody["values"].([]any)
	if len(values) != 2 {
		t.Fatalf("expected header + 1 row, got %v", fake.lastBody)
	}
	row, _ := values[1].([]any)
	if row[4] != `'=IMPORTXML("http://x","//a")` {
		t.Errorf("note not quoted: %v", row[4])
	}
	if row[3] != "'@home" {
		t.Errorf("tag name not quoted: %v", row[3])
	}
	if row[2] != "-3.00" {
		t.Errorf("amount should stay numeric, got %v", row[2])
	}
	if records[0].Note != `=IMPORTXML("http://x","//a")` {
		t.Errorf("record mutated: %q", records[0].Note)
	}
}

func TestEscapeFormulas(t *testing.T) {
	rows := [][]any{{"2024-05-01", "expense", "-1.00", "+tag", "-note", "", "plain"}}
	got := escapeFormulas(rows)
	want := []any{"2024-05-01", "expense", "-1.00", "'+tag", "'-note", "", "plain"}
	for i := range want {
		if got[0][i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, got[0][i], want[i])
		}
	}
	if rows[0][3] != "+tag" {
		t.Errorf("input rows mutated: %v", rows[0])
	}
}

func TestMirror_PropagatesAPIErrors(t *testing.T) {
	fake := &fakeSheets{failOn: ":clear"}
	c := newTestClient(t, fake)

	err := c.Mirror(context.Background(), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "clear Ledger!A:Z") {
		t.Fatalf("expected clear error, got %v", err)
	}
}

func TestMirror_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "x", sheetName: "y"}
	if err := c.Mirror(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for uninitialised client")
	}
}
