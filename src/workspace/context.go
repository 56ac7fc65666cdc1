package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// ToolName is skipped when found in a project so the binary never ends up in its own context.
const ToolName = "lattice-edit"

var ignoredNames = map[string]struct{}{
	".git": {}, ".svn": {}, ".hg": {},
	"node_modules": {}, "vendor": {}, "bower_components": {},
	".venv": {}, "__pycache__": {},
	"package-lock.json": {}, "yarn.lock": {}, "pnpm-lock.yaml": {}, "go.sum": {},
	"dist": {}, "build": {}, "out": {}, ".next": {},
	ToolName: {}, ToolName + ".exe": {},
	".env": {}, ".env.local": {},
	".DS_Store": {},
}

var ignoredExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {}, ".webp": {}, ".svg": {}, ".tiff": {},
	".mp3": {}, ".wav": {}, ".ogg": {}, ".flac": {},
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".rar": {}, ".7z": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {}, ".o": {}, ".a": {}, ".class": {}, ".pyc": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".db": {}, ".sqlite": {}, ".lock": {},
}

// IsIgnoredName reports whether a file or directory with this base name is skipped.
func IsIgnoredName(name string) bool {
	_, ok := ignoredNames[name]
	return ok
}

// IsIgnoredExt reports whether files with this extension are skipped. Matching is case-insensitive.
func IsIgnoredExt(path string) bool {
	_, ok := ignoredExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Header and Footer delimit each file inside the context blob.
func Header(rel string) string { return fmt.Sprintf("--- INICIO %s ---\n", rel) }
func Footer(rel string) string { return fmt.Sprintf("\n--- FIN %s ---\n\n", rel) }

// Context is the concatenated project snapshot sent along with each request.
type Context struct {
	Root    string
	Text    string
	Files   []FileEntry
	Bytes   int64
	Skipped []string
}

// FileEntry is one file included in a Context.
type FileEntry struct {
	Rel  string
	Abs  string
	Size int64
}

// Collector walks a project root and builds a Context.
type Collector struct {
	Root  string
	Extra []string
	Log   logrus.FieldLogger
}

// NewCollector returns a Collector for root. extra names are ignored on top of the built-in set.
func NewCollector(root string, extra []string, log logrus.FieldLogger) *Collector {
	return &Collector{Root: root, Extra: extra, Log: log}
}

func (c *Collector) ignored(name string) bool {
	if IsIgnoredName(name) {
		return true
	}
	for _, e := range c.Extra {
		if e == name {
			return true
		}
	}
	return false
}

// Collect walks the root depth-first in directory listing order. Unreadable entries
// and files that are not valid UTF-8 are skipped with a warning.
func (c *Collector) Collect(ctx context.Context) (Context, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return Context{}, fmt.Errorf("failed to resolve root %s: %w", c.Root, err)
	}
	if _, err := os.Stat(root); err != nil {
		return Context{}, fmt.Errorf("failed to read project root: %w", err)
	}

	out := Context{Root: root}
	var text strings.Builder

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			c.warn(rel, walkErr, "skipping inaccessible entry")
			out.Skipped = append(out.Skipped, rel)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if c.ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if IsIgnoredExt(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			c.warn(rel, err, "skipping unreadable file")
			out.Skipped = append(out.Skipped, rel)
			return nil
		}
		if !utf8.Valid(data) {
			c.warn(rel, nil, "skipping file that is not valid UTF-8")
			out.Skipped = append(out.Skipped, rel)
			return nil
		}

		text.WriteString(Header(rel))
		text.Write(data)
		text.WriteString(Footer(rel))
		out.Files = append(out.Files, FileEntry{Rel: rel, Abs: path, Size: int64(len(data))})
		out.Bytes += int64(len(data))
		return nil
	})
	if err != nil {
		return Context{}, err
	}

	out.Text = text.String()
	return out, nil
}

func (c *Collector) warn(rel string, err error, msg string) {
	if c.Log == nil {
		return
	}
	entry := c.Log.WithField("path", rel)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
}
