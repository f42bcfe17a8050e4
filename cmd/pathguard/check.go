package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xonecas/pathguard/internal/highlight"
	"github.com/xonecas/pathguard/internal/hook"
	"github.com/xonecas/pathguard/internal/store"
)

func checkCmd(a *app) *cobra.Command {
	var (
		root  string
		color bool
		theme string
	)
	cmd := &cobra.Command{
		Use:   "check [flags] <command...>",
		Short: "Check a command without running it",
		Long: `Check reports whether a command would be approved by the hook.
The arguments are joined with spaces, so quote the command to keep
redirections and pipes away from your own shell.

Exits 2 when the command is blocked.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			v, err := a.validator(cwd, root)
			if err != nil {
				return err
			}

			command := strings.Join(args, " ")
			decision, reason := hook.Approve, ""
			if vio := v.Validate(command); vio != nil {
				decision, reason = hook.Block, vio.Reason()
			}
			a.record(store.Entry{Session: "check", Root: v.Root(), Command: command, Decision: decision, Reason: reason})

			blocked := decision == hook.Block
			fmt.Fprintln(cmd.OutOrStdout(), highlight.Verdict(command, reason, blocked, color, theme))
			if blocked {
				return exitCode(2)
			}
			return nil
		},
	}
	withRootFlag(cmd, &root)
	cmd.Flags().BoolVar(&color, "color", false, "highlight the command and verdict")
	cmd.Flags().StringVar(&theme, "theme", highlight.DefaultTheme, "chroma theme for --color")
	return cmd
}
