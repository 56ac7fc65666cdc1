// Package preview prints a bounded look at a pending edit. It is a truncated
// listing of the old and new content, not a line diff.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/Protocol-Lattice/lattice-edit/src/ui"
)

const (
	// ChangedLines is how many lines of old and new content are shown for an existing file.
	ChangedLines = 10
	// NewFileLines is how many lines are shown for a file that does not exist yet.
	NewFileLines = 15
)

// Presenter writes previews to Out.
type Presenter struct {
	Out    io.Writer
	Styles ui.Styles
}

func New(w io.Writer) *Presenter {
	return &Presenter{Out: w, Styles: ui.NewStyles()}
}

// Render shows old against new when old is non-empty, otherwise a new-file preview.
func (p *Presenter) Render(path string, old, updated []byte) {
	if len(old) == 0 {
		p.renderNew(path, updated)
		return
	}
	p.renderChanged(path, old, updated)
}

func (p *Presenter) renderNew(path string, data []byte) {
	fmt.Fprintln(p.Out, p.Styles.Accent.Render("📄 Archivo nuevo: ")+p.Styles.Path.Render(path))
	lines := splitLines(data)
	shown, rest := head(lines, NewFileLines)
	for _, l := range shown {
		fmt.Fprintln(p.Out, p.Styles.Added.Render("+ "+l))
	}
	p.omitted(rest)
}

func (p *Presenter) renderChanged(path string, old, updated []byte) {
	fmt.Fprintln(p.Out, p.Styles.Accent.Render("✏️  Archivo modificado: ")+p.Styles.Path.Render(path))

	fmt.Fprintln(p.Out, p.Styles.Subtle.Render("--- actual"))
	shown, rest := head(splitLines(old), ChangedLines)
	for _, l := range shown {
		fmt.Fprintln(p.Out, p.Styles.Removed.Render("- "+l))
	}
	p.omitted(rest)

	fmt.Fprintln(p.Out, p.Styles.Subtle.Render("+++ propuesto"))
	shown, rest = head(splitLines(updated), ChangedLines)
	for _, l := range shown {
		fmt.Fprintln(p.Out, p.Styles.Added.Render("+ "+l))
	}
	p.omitted(rest)
}

func (p *Presenter) omitted(n int) {
	if n <= 0 {
		return
	}
	fmt.Fprintln(p.Out, p.Styles.Subtle.Render(fmt.Sprintf("  ... (%d líneas más)", n)))
}

func head(lines []string, n int) ([]string, int) {
	if len(lines) <= n {
		return lines, 0
	}
	return lines[:n], len(lines) - n
}

func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
