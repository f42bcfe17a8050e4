// Command pathguard keeps an agent's shell commands inside its project
// directory. Run without a subcommand it acts as a PreToolUse hook.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/pathguard/internal/config"
	"github.com/xonecas/pathguard/internal/sandbox"
	"github.com/xonecas/pathguard/internal/store"
)

// exitCode carries a process exit status out of a command without an
// error message.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()

	var code exitCode
	switch {
	case err == nil:
	case errors.As(err, &code):
		os.Exit(int(code))
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by subcommands once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	cfgErr     error
	logFile    *os.File
	audit      *store.Audit
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pathguard",
		Short:         "Sandbox shell commands to the project directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := a.init()
			if err != nil && isHookCmd(cmd) {
				// The hook still has to answer, or the agent runs the command.
				a.cfgErr = err
				return nil
			}
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serveHook(cmd)
		},
	}

	defaultConfig, _ := config.DefaultPath()
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", defaultConfig, "config file")

	rootCmd.AddCommand(
		hookCmd(a),
		checkCmd(a),
		runCmd(a),
		auditCmd(a),
	)
	return rootCmd
}

// init loads the config and sets up logging. On a config error, logging
// and the rest of the app fall back to defaults and the error is returned.
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		a.cfg = &config.Config{}
		a.logFile = setupLogging(a.cfg)
		log.Error().Err(err).Str("path", a.configPath).Msg("invalid config")
		return err
	}
	a.cfg = cfg
	a.logFile = setupLogging(cfg)
	return nil
}

func isHookCmd(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "hook"
}

func (a *app) close() {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// validator builds the sandbox for cwd. A non-empty root overrides both cwd
// and CLAUDE_PROJECT_DIR.
func (a *app) validator(cwd, root string) (*sandbox.Validator, error) {
	environ := os.Environ()
	if root != "" {
		environ = append(environ, "CLAUDE_PROJECT_DIR="+root)
	}
	return a.cfg.Validator(cwd, environ)
}

func withRootFlag(cmd *cobra.Command, root *string) {
	cmd.Flags().StringVar(root, "root", "", "sandbox root (default: $CLAUDE_PROJECT_DIR or the working directory)")
}
