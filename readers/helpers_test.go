package readers

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// lines renders n rows with row, prefixed by an optional header.
func lines(header string, n int, row func(i int) string) string {
	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteByte('\n')
	}
	for i := 0; i < n; i++ {
		b.WriteString(row(i))
		b.WriteByte('\n')
	}
	return b.String()
}

// wave returns a smooth small-amplitude value for sample i on axis k.
func wave(i, k int) float64 {
	return math.Sin(float64(i)/7 + float64(k))
}

func mustRead(t *testing.T, source, root string, opts Options) *Result {
	t.Helper()
	r, err := New(source, opts)
	if err != nil {
		t.Fatalf("New(%q) error: %v", source, err)
	}
	res, err := r.Read(root)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return res
}

func outcomeByID(t *testing.T, res *Result, id string) SessionOutcome {
	t.Helper()
	for _, s := range res.Sessions {
		if s.Session == id {
			return s
		}
	}
	ids := make([]string, 0, len(res.Sessions))
	for _, s := range res.Sessions {
		ids = append(ids, s.Session)
	}
	t.Fatalf("session %q not found in %v", id, ids)
	return SessionOutcome{}
}
