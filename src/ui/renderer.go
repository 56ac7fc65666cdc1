package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const Logo = `
██╗      █████╗ ████████╗████████╗██╗ ██████╗███████╗
██║     ██╔══██╗╚══██╔══╝╚══██╔══╝██║██╔════╝██╔════╝
██║     ███████║   ██║      ██║   ██║██║     █████╗
██║     ██╔══██║   ██║      ██║   ██║██║     ██╔══╝
███████╗██║  ██║   ██║      ██║   ██║╚██████╗███████╗
╚══════╝╚═╝  ╚═╝   ╚═╝      ╚═╝   ╚═╝ ╚═════╝╚══════╝
                     E D I T
`

// Printer writes styled, line-oriented messages for the REPL.
type Printer struct {
	Out    io.Writer
	Styles Styles
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{Out: w, Styles: NewStyles()}
}

// Banner prints the logo, the workspace and the backend in use.
func (p *Printer) Banner(workspace, backend string) {
	logoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AD8CFF")).Bold(true).
		Background(lipgloss.Color("#000000")).UnsetBackground()
	fmt.Fprintln(p.Out, lipgloss.JoinVertical(lipgloss.Left,
		logoStyle.Render(Logo),
		p.Styles.Header.Render("Protocol Lattice"),
		p.Styles.Subtitle.Render(fmt.Sprintf("Workspace: %s", workspace)),
		p.Styles.Subtitle.Render(fmt.Sprintf("Backend: %s", backend)),
	))
}

func (p *Printer) Help() {
	lines := []string{
		"Describe el cambio que quieres y pulsa Enter.",
		"  /context  - muestra los archivos que se enviarán como contexto",
		"  /help     - muestra esta ayuda",
		"  exit      - salir (también quit, salir o Ctrl+C)",
	}
	for _, l := range lines {
		fmt.Fprintln(p.Out, p.Styles.Help.Render(l))
	}
}

func (p *Printer) Prompt(s string) {
	fmt.Fprint(p.Out, p.Styles.Prompt.Render(s))
}

func (p *Printer) Line(s string) {
	fmt.Fprintln(p.Out, s)
}

func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Accent.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Subtlef(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Subtle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Success.Render("✅ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Warning.Render("⚠️ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Error.Render("❌ "+fmt.Sprintf(format, args...)))
}
