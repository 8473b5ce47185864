package tools

import (
	"context"
	"strings"
)

// History remembers the searches issued during one run so near-duplicates can be refused.
// It is not safe for concurrent use; a run is single-threaded.
type History struct {
	threshold float64
	queries   []string
}

func NewHistory(threshold float64) *History {
	return &History{threshold: threshold}
}

// Similar returns an earlier query whose similarity to q exceeds the threshold.
func (h *History) Similar(q string) (string, bool) {
	n := Normalize(q)
	for _, past := range h.queries {
		if jaccard(n, past) > h.threshold {
			return past, true
		}
	}
	return "", false
}

func (h *History) Add(q string) {
	h.queries = append(h.queries, Normalize(q))
}

func (h *History) Queries() []string {
	return append([]string(nil), h.queries...)
}

// Normalize lower-cases q and collapses whitespace.
func Normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Split(s, " ") {
		out[w] = struct{}{}
	}
	return out
}

type historyKey struct{}

// WithHistory scopes a search history to ctx; its lifetime is the run's.
func WithHistory(ctx context.Context, h *History) context.Context {
	return context.WithValue(ctx, historyKey{}, h)
}

func historyFrom(ctx context.Context) *History {
	h, _ := ctx.Value(historyKey{}).(*History)
	return h
}
