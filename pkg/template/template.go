package template

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

var (
	mu    sync.RWMutex
	cache = map[string]*template.Template{}
)

var funcs = template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"upper": func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"join": func(items []string, sep, empty string) string {
		if len(items) == 0 {
			return empty
		}
		return strings.Join(items, sep)
	},
}

// Parse renders text with fields. Parsed templates are cached by their source.
func Parse(text string, fields any) (string, error) {
	tmpl, err := lookup(text)
	if err != nil {
		return "", err
	}
	var result bytes.Buffer
	if err := tmpl.Execute(&result, fields); err != nil {
		return "", fmt.Errorf("execute: %w", err)
	}
	return result.String(), nil
}

// MustParse is Parse for templates known to render.
func MustParse(text string, fields any) string {
	s, err := Parse(text, fields)
	if err != nil {
		panic(err)
	}
	return s
}

func lookup(text string) (*template.Template, error) {
	mu.RLock()
	tmpl, ok := cache[text]
	mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := template.New("").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	mu.Lock()
	cache[text] = tmpl
	mu.Unlock()
	return tmpl, nil
}
