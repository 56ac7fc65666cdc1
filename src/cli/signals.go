package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Protocol-Lattice/lattice-edit/src/session"
	"github.com/Protocol-Lattice/lattice-edit/src/ui"
)

var (
	exit          = os.Exit
	notifySignals = func(c chan<- os.Signal) { signal.Notify(c, syscall.SIGINT, syscall.SIGTERM) }
	shutdownGrace = 3 * time.Second
)

// interrupts turns SIGINT or SIGTERM into cancellation of the command context.
// If the command has not unwound within shutdownGrace, or a second signal
// arrives, the bound session is closed and the process exits with status 0.
type interrupts struct {
	a      *app
	cancel context.CancelFunc
	sig    chan os.Signal
	done   chan struct{}
	stop   sync.Once
	fired  atomic.Bool

	mu    sync.Mutex
	asker session.Asker
}

func (a *app) watchInterrupts(parent context.Context) (context.Context, *interrupts) {
	ctx, cancel := context.WithCancel(parent)
	in := &interrupts{
		a:      a,
		cancel: cancel,
		sig:    make(chan os.Signal, 2),
		done:   make(chan struct{}),
	}
	notifySignals(in.sig)
	go in.watch()
	return ctx, in
}

func (in *interrupts) watch() {
	select {
	case <-in.sig:
	case <-in.done:
		return
	}
	in.fired.Store(true)
	ui.NewPrinter(in.a.stdout).Subtlef("\nInterrupción recibida, cerrando...")
	in.a.log.Info("interrupt received, shutting down")
	in.cancel()

	select {
	case <-in.done:
		return
	case <-in.sig:
	case <-time.After(shutdownGrace):
	}
	in.a.log.Warn("session did not stop in time, forcing exit")
	in.mu.Lock()
	asker := in.asker
	in.mu.Unlock()
	if asker != nil {
		if err := asker.Close(); err != nil {
			in.a.log.WithError(err).Warn("failed to close session")
		}
	}
	in.a.teardown()
	exit(0)
}

// Bind registers the session to close if shutdown has to be forced.
func (in *interrupts) Bind(asker session.Asker) {
	in.mu.Lock()
	in.asker = asker
	in.mu.Unlock()
}

// Interrupted reports whether a signal cancelled the command.
func (in *interrupts) Interrupted() bool { return in.fired.Load() }

func (in *interrupts) Stop() {
	in.stop.Do(func() {
		signal.Stop(in.sig)
		close(in.done)
		in.cancel()
	})
}
