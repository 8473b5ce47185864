package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

const maxTreeEntries = 500

// Workspace confines read and write to a root directory.
type Workspace struct {
	root        string
	maxFileSize int64
}

func NewWorkspace(root string, maxFileSize int64) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &Workspace{root: abs, maxFileSize: maxFileSize}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) resolve(path string) (string, bool) {
	abs := filepath.Join(w.root, filepath.FromSlash(path))
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	}
	if !w.contains(abs) {
		return "", false
	}
	// symlinks inside the root must not lead out of it
	real, err := evalExisting(abs)
	if err != nil || !w.contains(real) {
		return "", false
	}
	return abs, true
}

func (w *Workspace) contains(abs string) bool {
	rel, err := filepath.Rel(w.root, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// evalExisting resolves symlinks in the longest existing prefix of p and appends the rest.
// A dangling symlink on the way is an error.
func evalExisting(p string) (string, error) {
	rest := ""
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(real, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if _, lerr := os.Lstat(p); lerr == nil {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		rest = filepath.Join(filepath.Base(p), rest)
		p = parent
	}
}

func (w *Workspace) Read(path string) Result {
	abs, ok := w.resolve(path)
	if !ok {
		return errorResult("Path traversal detected. Access denied.")
	}

	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return errorResult("File not found: %s", path)
	}
	if err != nil {
		return errorResult("reading file: %v", err)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return errorResult("reading directory: %v", err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Directory contents of %s:", path)
		for _, e := range entries {
			fmt.Fprintf(&b, "\n- %s", e.Name())
		}
		return Result{Content: b.String()}
	}

	if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
		return errorResult("File too large (%d bytes). Max allowed: %d bytes", info.Size(), w.maxFileSize)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return errorResult("reading file: %v", err)
	}
	return Result{Content: fmt.Sprintf("File: %s\n\n%s", path, data)}
}

func (w *Workspace) Write(path, content string) Result {
	abs, ok := w.resolve(path)
	if !ok {
		return errorResult("Path traversal detected. Can only write within project directory.")
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errorResult("writing file: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return errorResult("writing file: %v", err)
	}
	return Result{Content: fmt.Sprintf("Successfully wrote %d characters to %s", utf8.RuneCountInString(content), path)}
}

// Tree lists the workspace as "- relative/path" lines. Hidden entries (except .env.example)
// and node_modules are skipped.
func (w *Workspace) Tree() string {
	var files []string
	_ = filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == w.root {
			return nil
		}
		name := d.Name()
		if (strings.HasPrefix(name, ".") && name != ".env.example") || name == "node_modules" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if len(files) >= maxTreeEntries {
			return filepath.SkipAll
		}
		rel, _ := filepath.Rel(w.root, p)
		files = append(files, "- "+filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return strings.Join(files, "\n")
}
