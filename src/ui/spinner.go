package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Waiter runs a blocking call while telling the user something is happening.
type Waiter interface {
	Wait(ctx context.Context, label string, fn func(context.Context) (string, error)) (string, error)
}

// Spinner animates a bubbletea spinner on terminals and prints a single line otherwise.
type Spinner struct {
	Out    io.Writer
	Styles Styles
	// Animate forces the animated spinner on or off. nil means "detect".
	Animate *bool
}

func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{Out: w, Styles: NewStyles()}
}

func (s *Spinner) animated() bool {
	if s.Animate != nil {
		return *s.Animate
	}
	f, ok := s.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *Spinner) Wait(ctx context.Context, label string, fn func(context.Context) (string, error)) (string, error) {
	if !s.animated() {
		fmt.Fprintln(s.Out, s.Styles.Thinking.Render("… "+label))
		return fn(ctx)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = s.Styles.Thinking

	m := thinkingModel{
		spinner: sp,
		label:   label,
		style:   s.Styles.Thinking,
		run:     func() (string, error) { return fn(ctx) },
	}
	p := tea.NewProgram(m,
		tea.WithInput(nil),
		tea.WithOutput(s.Out),
		tea.WithoutSignalHandler(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if !errors.Is(err, tea.ErrProgramKilled) {
			return "", fmt.Errorf("spinner: %w", err)
		}
	}
	res, ok := final.(thinkingModel)
	if !ok || !res.done {
		return "", errors.New("spinner stopped before the call finished")
	}
	return res.text, res.err
}

type resultMsg struct {
	text string
	err  error
}

type thinkingModel struct {
	spinner spinner.Model
	label   string
	style   lipgloss.Style
	run     func() (string, error)

	done bool
	text string
	err  error
}

func (m thinkingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		text, err := m.run()
		return resultMsg{text: text, err: err}
	})
}

func (m thinkingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.done = true
		m.text, m.err = msg.text, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m thinkingModel) View() string {
	if m.done {
		return ""
	}
	return m.style.Render(fmt.Sprintf("Lattice %s %s", m.spinner.View(), m.label)) + "\n"
}
