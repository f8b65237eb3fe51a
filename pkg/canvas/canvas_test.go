package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/sketchcanvas/pkg/config"
)

func TestSplitDrawings(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"empty array", "[]", 0, false},
		{"padded", "  [ {\"type\":\"circle\"} ]\n", 1, false},
		{"mixed elements", `[{"type":"line"}, 3, "x", null]`, 4, false},
		{"object", `{"type":"circle"}`, 0, true},
		{"null", "null", 0, true},
		{"blank", "", 0, true},
		{"broken", `[{"type":"circle"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitDrawings(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDrawings) {
					t.Fatalf("err = %v, want ErrInvalidDrawings", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || len(got) != tt.want {
				t.Errorf("got %d elements (%v), want %d", len(got), got, tt.want)
			}
		})
	}
}

func TestJoinDrawings(t *testing.T) {
	if got := JoinDrawings(nil); got != "[]" {
		t.Errorf("JoinDrawings(nil) = %s", got)
	}
	in := `[{"type":"circle","x":1},{"type":"line"}]`
	d, err := SplitDrawings(in)
	if err != nil {
		t.Fatal(err)
	}
	if got := JoinDrawings(d); got != in {
		t.Errorf("JoinDrawings = %s, want %s", got, in)
	}
	if !json.Valid([]byte(JoinDrawings(d))) {
		t.Error("joined drawings are not valid JSON")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Store{Backend: config.BackendMemory})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("memory backend = %T", s)
	}

	dir := t.TempDir()
	s, err = Open(ctx, config.Store{Backend: config.BackendFile, Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := s.(*FileStore); !ok || fs.Dir() != dir {
		t.Errorf("file backend = %T %v", s, s)
	}

	if _, err := Open(ctx, config.Store{Backend: "sqlite"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestSortSummaries(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	list := []Summary{
		{ID: "c", UpdatedAt: t0},
		{ID: "a", UpdatedAt: t0.Add(time.Minute)},
		{ID: "d", UpdatedAt: t0},
		{ID: "b", UpdatedAt: t0.Add(time.Hour)},
	}
	sortSummaries(list)

	var got []string
	for _, s := range list {
		got = append(got, s.ID)
	}
	if strings.Join(got, "") != "bacd" {
		t.Errorf("order = %v, want [b a c d]", got)
	}
}
