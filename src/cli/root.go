// Package cli wires configuration, logging, the AI session and the REPL
// behind cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Protocol-Lattice/lattice-edit/src/apply"
	"github.com/Protocol-Lattice/lattice-edit/src/config"
	"github.com/Protocol-Lattice/lattice-edit/src/logging"
	"github.com/Protocol-Lattice/lattice-edit/src/preview"
	"github.com/Protocol-Lattice/lattice-edit/src/repl"
	"github.com/Protocol-Lattice/lattice-edit/src/session"
	"github.com/Protocol-Lattice/lattice-edit/src/ui"
	"github.com/Protocol-Lattice/lattice-edit/src/workspace"
)

// Version is set at build time with -ldflags "-X .../src/cli.Version=...".
var Version = "dev"

// newAsker opens the configured backend. Tests replace it.
var newAsker = openSession

type app struct {
	cfgFile string
	workdir string

	v   *viper.Viper
	cfg *config.Config
	log *logging.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	return a.run(os.Args[1:])
}

func (a *app) run(args []string) int {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		ui.NewPrinter(a.stderr).Errorf("%v", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	a.v = config.NewViper()

	cmd := &cobra.Command{
		Use:   "lattice-edit",
		Short: "Edit one project file at a time by asking an AI",
		Long: `lattice-edit sends the text files of the current project together with your
request to an AI chat model, previews the single file it proposes and writes it
(or copies it) once you confirm.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.teardown() },
		RunE:              a.runREPL,
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: .lattice-edit.yaml in the project, then the home directory)")
	flags.StringVarP(&a.workdir, "dir", "C", "", "project root (default: current directory)")
	flags.String("backend", "", "AI backend: browser or gemini")
	flags.String("model", "", "model identifier for the browser backend")
	flags.Bool("debug", false, "debug logging, also written to ~/.lattice-edit/logs")
	flags.Bool("no-headless", false, "show the browser window")
	_ = a.v.BindPFlag("backend", flags.Lookup("backend"))
	_ = a.v.BindPFlag("browser.model", flags.Lookup("model"))
	_ = a.v.BindPFlag("log.debug", flags.Lookup("debug"))

	cmd.AddCommand(a.askCmd(), a.mcpCmd(), a.configCmd(), versionCmd())
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		a.workdir = wd
	}
	abs, err := filepath.Abs(a.workdir)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	a.workdir = abs

	if err := config.LoadDotEnv(a.workdir); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("no-headless"); f != nil && f.Changed {
		a.v.Set("browser.headless", false)
	}
	cfg, used, err := config.Load(a.v, a.cfgFile, a.workdir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logDir := cfg.Log.Dir
	if logDir == "" {
		logDir = logging.DefaultLogDir()
	}
	a.log, err = logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Debug:  cfg.Log.Debug,
		LogDir: logDir,
		Stderr: a.stderr,
	})
	if err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{"config": used, "root": a.workdir, "backend": cfg.Backend}).Debug("configuration loaded")
	return nil
}

func (a *app) teardown() {
	if a.log != nil {
		_ = a.log.Close()
	}
}

func openSession(ctx context.Context, cfg *config.Config, log *logging.Logger) (session.Asker, error) {
	if cfg.Backend == config.BackendGemini {
		g, err := session.NewGemini(ctx, session.GeminiOptions{
			Model:        cfg.Gemini.Model,
			SystemPrompt: "Responde siempre con el formato ARCHIVO: / bloque de código / EXPLICACIÓN: que pide cada mensaje.",
			MemorySize:   cfg.Gemini.MemorySize,
			Log:          log,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	b, err := session.NewBrowser(ctx, session.BrowserOptions{
		Model:        cfg.Browser.Model,
		Headless:     cfg.Browser.Headless,
		NoSandbox:    cfg.Browser.NoSandbox,
		ExecPath:     cfg.Browser.ExecPath,
		UserDataDir:  cfg.Browser.UserDataDir,
		ScriptURL:    cfg.Browser.ScriptURL,
		ReadyTimeout: cfg.Browser.ReadyTimeout,
		Log:          log,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (a *app) backendLabel() string {
	if a.cfg.Backend == config.BackendGemini {
		return a.cfg.Backend + "/" + a.cfg.Gemini.Model
	}
	return a.cfg.Backend + "/" + a.cfg.Browser.Model
}

func (a *app) pipeline(asker session.Asker) *repl.Pipeline {
	return &repl.Pipeline{
		Asker:     asker,
		Collector: workspace.NewCollector(a.workdir, a.cfg.Context.Ignore, a.log),
		Waiter:    ui.NewSpinner(a.stdout),
		Printer:   ui.NewPrinter(a.stdout),
		Preview:   preview.New(a.stdout),
		Writer:    &apply.Writer{Root: a.workdir, AllowOutsideRoot: a.cfg.Apply.AllowOutsideRoot},
		Clipboard: apply.NewClipboard(clipboardUtilities(a.cfg.Apply.Clipboard)),
		Log:       a.log,
	}
}

func clipboardUtilities(commands []string) []apply.Utility {
	var out []apply.Utility
	for _, c := range commands {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		out = append(out, apply.Utility{Name: fields[0], Args: fields[1:]})
	}
	return out
}

func (a *app) runREPL(cmd *cobra.Command, _ []string) error {
	ctx, intr := a.watchInterrupts(cmd.Context())
	defer intr.Stop()

	printer := ui.NewPrinter(a.stdout)
	printer.Banner(a.workdir, a.backendLabel())
	printer.Subtlef("Iniciando sesión con la IA...")

	asker, err := newAsker(ctx, a.cfg, a.log)
	if err != nil {
		if intr.Interrupted() {
			return nil
		}
		var setup *session.SetupError
		if errors.As(err, &setup) {
			a.log.WithError(setup.Err).WithField("backend", setup.Backend).Error("session setup failed")
		}
		return err
	}
	intr.Bind(asker)
	defer asker.Close()

	printer.Successf("Sesión lista. Escribe tu petición, /help para ayuda o exit para salir.")
	return repl.New(a.pipeline(asker), a.stdin).Run(ctx)
}
