package repl

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Protocol-Lattice/lattice-edit/src/apply"
	"github.com/Protocol-Lattice/lattice-edit/src/logging"
	"github.com/Protocol-Lattice/lattice-edit/src/preview"
	"github.com/Protocol-Lattice/lattice-edit/src/prompt"
	"github.com/Protocol-Lattice/lattice-edit/src/reply"
	"github.com/Protocol-Lattice/lattice-edit/src/session"
	"github.com/Protocol-Lattice/lattice-edit/src/ui"
	"github.com/Protocol-Lattice/lattice-edit/src/workspace"
)

// Collector produces a fresh project snapshot.
type Collector interface {
	Collect(ctx context.Context) (workspace.Context, error)
}

// Copier puts text on the clipboard and reports which mechanism took it.
// Hint names what the user can install when nothing works.
type Copier interface {
	Copy(ctx context.Context, text string) (string, error)
	Hint() string
}

// Pipeline runs the steps of one request: collect, ask, parse, preview, then
// apply whatever the user decided.
type Pipeline struct {
	Asker     session.Asker
	Collector Collector
	Waiter    ui.Waiter
	Printer   *ui.Printer
	Preview   *preview.Presenter
	Writer    *apply.Writer
	Clipboard Copier
	Log       logrus.FieldLogger

	state state
}

func (p *Pipeline) enter(s state) {
	if p.state != s {
		p.Log.WithFields(logrus.Fields{"from": p.state.String(), "to": s.String()}).Debug("state")
	}
	p.state = s
}

// Proposal is a parsed reply waiting for a decision.
type Proposal struct {
	Request  string
	Response string
	Edit     reply.Edit
	Dropped  int
}

// Propose asks the model for an edit and shows its preview.
func (p *Pipeline) Propose(ctx context.Context, request string) (*Proposal, error) {
	if strings.TrimSpace(request) == "" {
		return nil, errors.New("request cannot be empty")
	}

	p.enter(stateCollecting)
	snap, err := p.Collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect project context: %w", err)
	}
	p.Printer.Subtlef("📦 Contexto: %s", snap.Summary())

	text := prompt.Build(snap, request)
	p.Log.WithField("bytes", len(text)).Debug("sending prompt")

	p.enter(stateQuerying)
	resp, err := p.Waiter.Wait(ctx, "Consultando a la IA...", func(ctx context.Context) (string, error) {
		return p.Asker.Ask(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	p.Log.WithField("response", logging.Truncate(resp, 200)).Debug("received response")

	p.enter(stateParsing)
	edit, err := reply.Parse(resp)
	if err != nil {
		return &Proposal{Request: request, Response: resp}, err
	}

	prop := &Proposal{Request: request, Response: resp, Edit: edit}
	if n := reply.CountBlocks(resp); n > 1 {
		prop.Dropped = n - 1
		p.Printer.Warnf("La respuesta trae %d bloques de código; solo se usa el primero.", n)
	}

	p.enter(statePreviewing)
	old, err := p.Writer.Current(edit.FilePath)
	if err != nil {
		return prop, err
	}
	p.Preview.Render(edit.FilePath, old, []byte(edit.CodeBlock))
	if explanation := explanationOf(resp); explanation != "" {
		p.Printer.Subtlef("💬 %s", explanation)
	}
	return prop, nil
}

// Execute carries out the user's decision for a proposal.
func (p *Pipeline) Execute(ctx context.Context, prop *Proposal, d apply.Decision) error {
	log := p.Log.WithFields(logrus.Fields{"path": prop.Edit.FilePath, "decision": d.String()})
	switch d {
	case apply.Apply:
		p.enter(stateApplying)
		abs, err := p.Writer.Write(prop.Edit)
		if err != nil {
			return err
		}
		log.WithField("abs", abs).Info("file written")
		p.Printer.Successf("Archivo guardado: %s", prop.Edit.FilePath)
	case apply.Copy:
		p.enter(stateCopying)
		via, err := p.Clipboard.Copy(ctx, prop.Edit.CodeBlock)
		if err != nil {
			log.WithError(err).Warn("clipboard unavailable")
			if hint := p.Clipboard.Hint(); hint != "" {
				p.Printer.Warnf("No se pudo copiar al portapapeles: instala %s.", hint)
			} else {
				p.Printer.Warnf("No se pudo copiar al portapapeles.")
			}
			return nil
		}
		log.WithField("via", via).Info("copied to clipboard")
		p.Printer.Successf("Código copiado al portapapeles.")
	default:
		p.enter(stateCancelled)
		p.Printer.Subtlef("Cambios descartados.")
	}
	return nil
}

var explanationRe = regexp.MustCompile(`(?is)EXPLICACI[OÓ]N:[ \t]*(.*)$`)

// explanationOf returns the text after the EXPLICACIÓN: label, if any.
func explanationOf(resp string) string {
	m := explanationRe.FindStringSubmatch(resp)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
