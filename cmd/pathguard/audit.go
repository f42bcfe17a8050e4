package main

import (
	"errors"
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/pathguard/internal/store"
)

func auditCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			audit := a.openAudit()
			if audit == nil {
				return errors.New("audit log is disabled or unavailable")
			}
			entries, err := audit.Recent(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no decisions recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), auditTable(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")
	return cmd
}

// maxCellWidth caps free-text columns so one long command does not stretch
// the whole table.
const maxCellWidth = 60

func auditTable(entries []store.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Time.Local().Format(time.DateTime),
			e.Decision,
			e.Session,
			ansi.Truncate(e.Root, maxCellWidth, "…"),
			ansi.Truncate(e.Command, maxCellWidth, "…"),
			ansi.Truncate(e.Reason, maxCellWidth, "…"),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "DECISION", "SESSION", "ROOT", "COMMAND", "REASON").
		Rows(rows...).
		Render()
}

// record writes an entry to the audit log if it is enabled.
func (a *app) record(e store.Entry) {
	audit := a.openAudit()
	if audit == nil {
		return
	}
	if err := audit.Record(e); err != nil {
		log.Warn().Err(err).Msg("failed to record decision")
	}
}
