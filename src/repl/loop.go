// Package repl is the interactive front end: it reads requests line by line
// and runs each one through the Pipeline.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/Protocol-Lattice/lattice-edit/src/apply"
	"github.com/Protocol-Lattice/lattice-edit/src/reply"
	"github.com/Protocol-Lattice/lattice-edit/src/session"
)

const (
	PromptString  = "> "
	ConfirmPrompt = "¿Aplicar cambios? [s]í / [c]opiar / [n]o: "
)

// state is the phase of the current request, reported in log fields.
type state int

const (
	stateIdle state = iota
	stateCollecting
	stateQuerying
	stateParsing
	statePreviewing
	stateAwaitingConfirmation
	stateApplying
	stateCopying
	stateCancelled
)

var stateNames = [...]string{
	stateIdle:                 "idle",
	stateCollecting:           "collecting",
	stateQuerying:             "querying",
	stateParsing:              "parsing",
	statePreviewing:           "previewing",
	stateAwaitingConfirmation: "awaiting-confirmation",
	stateApplying:             "applying",
	stateCopying:              "copying",
	stateCancelled:            "cancelled",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Loop reads requests from In until an exit command, EOF or cancellation.
// It never closes the session; the caller owns it.
type Loop struct {
	*Pipeline
	In io.Reader

	reader *bufio.Reader
	lines  chan inputResult
}

type inputResult struct {
	input string
	err   error
}

func New(p *Pipeline, in io.Reader) *Loop {
	return &Loop{Pipeline: p, In: in}
}

// Run blocks until the user leaves. A nil error means a clean exit.
func (l *Loop) Run(ctx context.Context) error {
	l.reader = bufio.NewReader(l.In)
	l.lines = make(chan inputResult, 1)

	for {
		l.enter(stateIdle)
		l.Printer.Line("")
		input, err := l.read(ctx, PromptString)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case input == "":
			continue
		case isExitCommand(input):
			l.Printer.Subtlef("👋 Hasta luego.")
			return nil
		case input == "/help":
			l.Printer.Help()
			continue
		case input == "/context":
			l.showContext(ctx)
			continue
		}

		if done := l.turn(ctx, input); done {
			return nil
		}
	}
}

// turn runs one request. It reports true when input ended during confirmation.
func (l *Loop) turn(ctx context.Context, input string) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			l.Log.WithField("state", l.state.String()).Errorf("panic in turn: %v\n%s", r, debug.Stack())
			l.Printer.Errorf("Error inesperado: %v", r)
			done = false
		}
	}()

	prop, err := l.Propose(ctx, input)
	if err != nil {
		l.report(err)
		return false
	}

	l.enter(stateAwaitingConfirmation)
	answer, err := l.read(ctx, ConfirmPrompt)
	if errors.Is(err, io.EOF) || ctx.Err() != nil {
		return true
	}
	if err != nil {
		l.report(err)
		return false
	}

	if err := l.Execute(ctx, prop, apply.Decide(answer)); err != nil {
		l.report(err)
	}
	return false
}

func (l *Loop) report(err error) {
	var (
		remote *session.RemoteError
		msg    string
	)
	switch {
	case errors.Is(err, reply.ErrParse):
		msg = "No se pudo procesar la respuesta."
	case errors.As(err, &remote):
		msg = "Error al consultar la IA: " + remote.Err.Error()
	case errors.Is(err, apply.ErrOutsideRoot):
		msg = "La ruta propuesta está fuera del proyecto; no se escribió nada."
	default:
		msg = err.Error()
	}
	l.Log.WithError(err).WithField("state", l.state.String()).Warn("turn failed")
	l.Printer.Errorf("%s", msg)
}

func (l *Loop) showContext(ctx context.Context) {
	snap, err := l.Collector.Collect(ctx)
	if err != nil {
		l.report(fmt.Errorf("failed to collect project context: %w", err))
		return
	}
	l.Printer.Line(snap.Tree())
	l.Printer.Infof("📦 %s", snap.Summary())
	for _, s := range snap.Skipped {
		l.Printer.Subtlef("  omitido: %s", s)
	}
}

// read prints the prompt and waits for a line or cancellation. The reading
// goroutine stays blocked on stdin after a cancel; the process is exiting by then.
func (l *Loop) read(ctx context.Context, prompt string) (string, error) {
	l.Printer.Prompt(prompt)

	go func() {
		line, err := l.reader.ReadString('\n')
		if err != nil && line != "" && errors.Is(err, io.EOF) {
			err = nil
		}
		l.lines <- inputResult{input: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("input cancelled: %w", ctx.Err())
	case res := <-l.lines:
		if res.err != nil {
			if errors.Is(res.err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return strings.TrimSpace(res.input), nil
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "salir":
		return true
	}
	return false
}
