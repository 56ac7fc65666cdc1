package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Protocol-Lattice/lattice-edit/src/apply"
	"github.com/Protocol-Lattice/lattice-edit/src/config"
	"github.com/Protocol-Lattice/lattice-edit/src/mcpserver"
	"github.com/Protocol-Lattice/lattice-edit/src/reply"
	"github.com/Protocol-Lattice/lattice-edit/src/workspace"
)

func (a *app) askCmd() *cobra.Command {
	var doApply, doCopy, printReply bool
	cmd := &cobra.Command{
		Use:   `ask "<request>"`,
		Short: "Run a single request without the interactive prompt",
		Long: `ask collects the project context, sends one request, previews the proposed
file and then writes it (--apply), copies it (--copy) or leaves it alone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if doApply && doCopy {
				return errors.New("--apply and --copy are mutually exclusive")
			}
			ctx, intr := a.watchInterrupts(cmd.Context())
			defer intr.Stop()

			asker, err := newAsker(ctx, a.cfg, a.log)
			if err != nil {
				if intr.Interrupted() {
					return nil
				}
				return err
			}
			intr.Bind(asker)
			defer asker.Close()

			p := a.pipeline(asker)
			prop, err := p.Propose(ctx, strings.Join(args, " "))
			if prop != nil && printReply {
				p.Printer.Line(prop.Response)
			}
			if intr.Interrupted() {
				return nil
			}
			if err != nil {
				if errors.Is(err, reply.ErrParse) {
					return fmt.Errorf("no se pudo procesar la respuesta: %w", err)
				}
				return err
			}

			decision := apply.Cancel
			switch {
			case doApply:
				decision = apply.Apply
			case doCopy:
				decision = apply.Copy
			}
			return p.Execute(ctx, prop, decision)
		},
	}
	cmd.Flags().BoolVar(&doApply, "apply", false, "write the proposed file")
	cmd.Flags().BoolVar(&doCopy, "copy", false, "copy the proposed code to the clipboard")
	cmd.Flags().BoolVar(&printReply, "print-reply", false, "print the raw model reply")
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the context/parse/preview/apply tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := mcpserver.New(
				workspace.NewCollector(a.workdir, a.cfg.Context.Ignore, a.log),
				&apply.Writer{Root: a.workdir, AllowOutsideRoot: a.cfg.Apply.AllowOutsideRoot},
				a.log,
			)
			a.log.WithField("root", a.workdir).Info("serving MCP over stdio")
			return srv.ServeStdio(Version)
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force, global bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(a.workdir, config.FileName)
			if global {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home directory: %w", err)
				}
				path = filepath.Join(home, ".config", "lattice-edit.yaml")
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&global, "global", false, "write ~/.config/lattice-edit.yaml instead")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lattice-edit %s\n", Version)
		},
	}
}
