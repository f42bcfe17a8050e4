package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/pathguard/internal/hook"
	"github.com/xonecas/pathguard/internal/shell"
	"github.com/xonecas/pathguard/internal/store"
)

func runCmd(a *app) *cobra.Command {
	var (
		root    string
		command string
	)
	cmd := &cobra.Command{
		Use:   "run [--root DIR] -c <command>",
		Short: "Run a command in the sandboxed interpreter",
		Long: `Run executes a command with an in-process POSIX shell after it passes
the static check. Expanded arguments, cd targets and redirections are
checked again as the command runs, and configured commands are refused
by name.

The exit status is the command's own, or 2 when it is blocked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			v, err := a.validator(cwd, root)
			if err != nil {
				return err
			}

			sh := shell.New(v, nil, shell.DefaultBlockFuncs(v, a.cfg.Run.BlockedCommands))
			err = sh.ExecStream(cmd.Context(), command, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())

			entry := store.Entry{Session: "run", Root: v.Root(), Command: command, Decision: hook.Approve}
			if errors.Is(err, shell.ErrBlocked) {
				entry.Decision, entry.Reason = hook.Block, err.Error()
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			} else if err != nil && shell.ExitCode(err) == 1 {
				log.Debug().Err(err).Str("command", command).Msg("run failed")
			}
			a.record(entry)

			if code := shell.ExitCode(err); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
	withRootFlag(cmd, &root)
	cmd.Flags().StringVarP(&command, "command", "c", "", "command to run")
	cmd.MarkFlagRequired("command") //nolint:errcheck // flag is defined above
	return cmd
}
