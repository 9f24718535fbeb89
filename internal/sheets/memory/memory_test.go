package memory

import (
	"context"
	"testing"

	"moneytracker/internal/core"
)

func TestMirrorKeepsLatestSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Mirror(ctx, []core.Record{{ID: "a"}, {ID: "b"}}, nil)
	_ = s.Mirror(ctx, []core.Record{{ID: "c"}}, nil)

	if s.Syncs() != 2 {
		t.Fatalf("Syncs() = %d", s.Syncs())
	}
	rows := s.Rows()
	if len(rows) != 2 || rows[1][5] != "c" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
