package buffer

import "strings"

// Evidence accumulates the text collected by every execution round of a run.
// Entries are only ever appended.
type Evidence struct {
	Items []Entry `json:"entries"`
}

type Entry struct {
	Round int    `json:"round"`
	Text  string `json:"text"`
}

func (e *Evidence) Add(round int, text string) {
	if text == "" {
		return
	}
	e.Items = append(e.Items, Entry{Round: round, Text: text})
}

func (e *Evidence) Len() int {
	return len(e.Items)
}

func (e *Evidence) String() string {
	var b strings.Builder
	for _, item := range e.Items {
		b.WriteString(item.Text)
	}
	return b.String()
}
