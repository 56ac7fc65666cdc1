package apply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Protocol-Lattice/lattice-edit/src/reply"
)

// Decision is what the user chose to do with a parsed edit.
type Decision int

const (
	Cancel Decision = iota
	Apply
	Copy
)

func (d Decision) String() string {
	switch d {
	case Apply:
		return "apply"
	case Copy:
		return "copy"
	default:
		return "cancel"
	}
}

// Decide maps a confirmation answer to a Decision. Anything unrecognised cancels.
func Decide(answer string) Decision {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "si", "sí":
		return Apply
	case "c", "copiar":
		return Copy
	default:
		return Cancel
	}
}

var ErrOutsideRoot = errors.New("target path escapes the project root")

// Writer writes parsed edits below Root.
type Writer struct {
	Root             string
	AllowOutsideRoot bool
}

// Resolve returns the absolute target for a model-supplied path. Containment
// is checked on the real paths, so a symlink inside the project cannot lead
// a write outside it.
func (w *Writer) Resolve(path string) (string, error) {
	root, err := filepath.Abs(w.Root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	target := filepath.FromSlash(path)
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	if w.AllowOutsideRoot {
		return target, nil
	}
	if !within(root, target) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	realRoot, err := realPath(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	realTarget, err := realPath(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if !within(realRoot, realTarget) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return target, nil
}

// within reports whether target lies strictly below root.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// realPath resolves symlinks in the longest existing prefix of p and appends
// the part that does not exist yet. A dangling symlink is an error, since
// writing through it would create its target.
func realPath(p string) (string, error) {
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		if _, lerr := os.Lstat(p); lerr == nil {
			return "", fmt.Errorf("dangling symlink %s", p)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		rest = append(rest, filepath.Base(p))
		p = parent
	}
}

// Current returns the existing content of the target, or nil if it does not exist.
func (w *Writer) Current(path string) ([]byte, error) {
	abs, err := w.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Write creates missing parent directories and overwrites the target with the
// code block verbatim. It returns the absolute path written.
func (w *Writer) Write(edit reply.Edit) (string, error) {
	abs, err := w.Resolve(edit.FilePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directories for %s: %w", edit.FilePath, err)
	}
	if err := os.WriteFile(abs, []byte(edit.CodeBlock), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", edit.FilePath, err)
	}
	return abs, nil
}
