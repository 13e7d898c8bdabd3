package harnorm

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary maps one source's raw label tokens onto canonical activities.
// It is immutable after construction; lookups are case-sensitive and ignore
// surrounding whitespace.
type Vocabulary struct {
	name    string
	entries map[string]Activity
}

// NewVocabulary copies entries into a new vocabulary. Every target must be a
// canonical activity.
func NewVocabulary(name string, entries map[string]Activity) (Vocabulary, error) {
	out := make(map[string]Activity, len(entries))
	for token, code := range entries {
		key := strings.TrimSpace(token)
		if key == "" {
			return Vocabulary{}, fmt.Errorf("vocabulary %s: empty token", name)
		}
		if !code.Valid() {
			return Vocabulary{}, fmt.Errorf("vocabulary %s: token %q maps to non-canonical code %d", name, token, int(code))
		}
		if prev, ok := out[key]; ok && prev != code {
			return Vocabulary{}, fmt.Errorf("vocabulary %s: token %q maps to both %d and %d", name, key, int(prev), int(code))
		}
		out[key] = code
	}
	return Vocabulary{name: name, entries: out}, nil
}

// MustVocabulary is NewVocabulary for static tables.
func MustVocabulary(name string, entries map[string]Activity) Vocabulary {
	v, err := NewVocabulary(name, entries)
	if err != nil {
		panic(err)
	}
	return v
}

// Name returns the vocabulary's source name.
func (v Vocabulary) Name() string { return v.name }

// Resolve maps a raw token to its activity. Unknown tokens return
// ErrUnmappedLabel; there is no fallback code.
func (v Vocabulary) Resolve(raw string) (Activity, error) {
	code, ok := v.entries[strings.TrimSpace(raw)]
	if !ok {
		return Unknown, fmt.Errorf("%w: %q not in %s vocabulary", ErrUnmappedLabel, strings.TrimSpace(raw), v.name)
	}
	return code, nil
}

// Tokens returns the declared raw tokens in sorted order.
func (v Vocabulary) Tokens() []string {
	out := make([]string, 0, len(v.entries))
	for token := range v.entries {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// LabelRow is one raw label table entry. Trial is the ordinal position for
// ordinal joins; Start and End are inclusive sample indices for range joins.
type LabelRow struct {
	Trial int
	Start int
	End   int
	Raw   string
}

// LabelTable is the per-session label sequence as read from disk.
type LabelTable struct {
	Rows []LabelRow
}

// Len returns the number of rows.
func (t LabelTable) Len() int { return len(t.Rows) }

// LabeledRow is a label row whose raw token has been resolved.
type LabeledRow struct {
	LabelRow
	Activity Activity
}

// ResolveTable maps every row of the table through v. The first unmapped token
// fails the whole table.
func (v Vocabulary) ResolveTable(t LabelTable) ([]LabeledRow, error) {
	out := make([]LabeledRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		code, err := v.Resolve(row.Raw)
		if err != nil {
			return nil, fmt.Errorf("label row %d: %w", i, err)
		}
		out = append(out, LabeledRow{LabelRow: row, Activity: code})
	}
	return out, nil
}
