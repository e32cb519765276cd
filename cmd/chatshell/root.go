package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dzonerzy/go-chatopt/chatio"
	"github.com/dzonerzy/go-chatopt/command"
	"github.com/dzonerzy/go-chatopt/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
	noColor    bool
	sender     string

	io    *chatio.IOManager
	shell *shell
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{io: chatio.New()}

	root := &cobra.Command{
		Use:   "chatshell",
		Short: "Chat console for Unix-style slash commands",
		Long: `chatshell runs slash commands the way a chat server would: arguments
are split on spaces, "\ " keeps a space inside an argument, and Tab
completes command names, flags and tile-set paths.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withShell((*shell).repl)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (.toml, .yaml or .json)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().StringVar(&opts.sender, "as", defaultSender(), "sender name")

	root.AddCommand(
		newExecCmd(opts),
		newCompleteCmd(opts),
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive console (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withShell((*shell).repl)
			},
		},
	)
	return root
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	o.io.WithIn(cmd.InOrStdin()).WithOut(cmd.OutOrStdout()).WithErr(cmd.ErrOrStderr())
	if o.noColor {
		o.io.NoColor()
	}

	o.shell, err = newShell(cmd.Context(), cfg, o.io, o.sender)
	return err
}

// withShell runs fn and closes the shell afterwards
func (o *rootOptions) withShell(fn func(*shell) error) error {
	defer o.shell.Close()
	return fn(o.shell)
}

func newExecCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <line>...",
		Short: "Run one chat line and exit with its status",
		Example: `  chatshell exec "/f2d -h 2 -w 2 1:4"
  chatshell exec /protect -1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withShell(func(s *shell) error {
				err := s.run(strings.Join(args, " "))
				if code := command.ExitCode(err); code != 0 {
					return &command.ExitError{Code: code, Err: err}
				}
				return nil
			})
		},
	}
	// "/protect -1": everything after the chat line belongs to it
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newCompleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <buffer>",
		Short: "Print completion candidates for a partial chat line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withShell(func(s *shell) error {
				cands := s.disp.Complete(cmd.Context(), s.sender, args[0])
				rows := make([][]string, 0, len(cands))
				for _, c := range cands {
					rows = append(rows, []string{c.Text, s.io.Faint(c.Tooltip)})
				}
				_, err := fmt.Fprint(cmd.OutOrStdout(), chatio.Columns(rows))
				return err
			})
		},
	}
}

func defaultSender() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "console"
}
