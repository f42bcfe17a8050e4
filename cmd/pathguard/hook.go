package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/pathguard/internal/config"
	"github.com/xonecas/pathguard/internal/hook"
	"github.com/xonecas/pathguard/internal/sandbox"
	"github.com/xonecas/pathguard/internal/store"
)

func hookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Answer one PreToolUse request from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serveHook(cmd)
		},
	}
}

func (a *app) serveHook(cmd *cobra.Command) error {
	h := &hook.Handler{
		Build: func(cwd string) (*sandbox.Validator, error) {
			if a.cfgErr != nil {
				return nil, fmt.Errorf("config: %w", a.cfgErr)
			}
			return a.cfg.Validator(cwd, os.Environ())
		},
	}
	if audit := a.openAudit(); audit != nil {
		h.Audit = audit
	}
	return h.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}

// openAudit opens the decision log once. Failures are logged and leave
// auditing off; they never change a decision.
func (a *app) openAudit() *store.Audit {
	if a.audit != nil || !a.cfg.Audit.IsEnabled() {
		return a.audit
	}
	path, err := a.cfg.AuditPathOrDefault()
	if err == nil && a.cfg.Audit.Path == "" {
		_, err = config.EnsureDataDir()
	}
	if err != nil {
		log.Warn().Err(err).Msg("audit log unavailable")
		return nil
	}
	retention := time.Duration(a.cfg.Audit.RetentionDaysOrDefault()) * 24 * time.Hour
	audit, err := store.Open(path, retention)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("audit log unavailable")
		return nil
	}
	a.audit = audit
	return audit
}
