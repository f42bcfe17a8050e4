// Package hook adapts the sandbox validator to the agent's PreToolUse hook
// protocol: one JSON request on stdin, one JSON decision on stdout.
package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/pathguard/internal/sandbox"
	"github.com/xonecas/pathguard/internal/store"
)

// Decision values understood by the agent.
const (
	// Approve lets the command run.
	Approve = "approve"
	// Block stops the command; Reason says why.
	Block = "block"
)

// Request is the hook payload. Only the command and cwd matter for the
// decision; the rest is kept for the audit log.
type Request struct {
	SessionID     string    `json:"session_id"`
	Cwd           string    `json:"cwd"`
	HookEventName string    `json:"hook_event_name"`
	ToolName      string    `json:"tool_name"`
	ToolInput     ToolInput `json:"tool_input"`
}

// ToolInput carries the shell command under review.
type ToolInput struct {
	Command string `json:"command"`
}

// Decision is written back to the agent.
type Decision struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// Recorder persists decisions. *store.Audit satisfies it.
type Recorder interface {
	Record(store.Entry) error
}

// Handler answers hook requests.
type Handler struct {
	// Build returns the validator for a request issued from cwd.
	Build func(cwd string) (*sandbox.Validator, error)
	// Audit is optional.
	Audit Recorder
}

// Serve reads one request from r and writes one decision to w. A request
// that is not valid JSON is an error and nothing is written.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decode hook request: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dec, root := h.decide(req)
	h.record(req, root, dec)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(dec); err != nil {
		return fmt.Errorf("encode hook decision: %w", err)
	}
	return nil
}

func (h *Handler) decide(req Request) (Decision, string) {
	cmd := req.ToolInput.Command
	if cmd == "" {
		return Decision{Decision: Approve}, ""
	}

	v, err := h.Build(req.Cwd)
	if err != nil {
		log.Error().Err(err).Str("cwd", req.Cwd).Msg("failed to build sandbox")
		return Decision{Decision: Block, Reason: fmt.Sprintf("Sandbox unavailable: %v", err)}, ""
	}

	if vio := v.Validate(cmd); vio != nil {
		log.Info().
			Str("command", cmd).
			Str("path", vio.Path).
			Bool("nested", vio.Nested).
			Msg("blocked command")
		return Decision{Decision: Block, Reason: vio.Reason()}, v.Root()
	}
	return Decision{Decision: Approve}, v.Root()
}

func (h *Handler) record(req Request, root string, dec Decision) {
	if h.Audit == nil || req.ToolInput.Command == "" {
		return
	}
	err := h.Audit.Record(store.Entry{
		Session:  req.SessionID,
		Root:     root,
		Command:  req.ToolInput.Command,
		Decision: dec.Decision,
		Reason:   dec.Reason,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record decision")
	}
}
