package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/exp/golden"

	"github.com/xonecas/pathguard/internal/sandbox"
	"github.com/xonecas/pathguard/internal/store"
)

type memRecorder struct {
	entries []store.Entry
	err     error
}

func (m *memRecorder) Record(e store.Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

func testHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	root, err := sandbox.Canonicalize(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &Handler{
		Build: func(string) (*sandbox.Validator, error) {
			return sandbox.New(sandbox.Config{Root: root})
		},
	}, root
}

func request(t *testing.T, cmd string) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(Request{
		SessionID:     "sess-1",
		Cwd:           "/somewhere",
		HookEventName: "PreToolUse",
		ToolName:      "Bash",
		ToolInput:     ToolInput{Command: cmd},
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewBuffer(b)
}

func serve(t *testing.T, h *Handler, in *bytes.Buffer) []byte {
	t.Helper()
	var out bytes.Buffer
	if err := h.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return out.Bytes()
}

func TestServe_Approve(t *testing.T) {
	h, _ := testHandler(t)
	golden.RequireEqual(t, serve(t, h, request(t, "ls -la src/ && cat ./README.md")))
}

func TestServe_Block(t *testing.T) {
	h, _ := testHandler(t)
	golden.RequireEqual(t, serve(t, h, request(t, "cat /etc/passwd")))
}

func TestServe_Nested(t *testing.T) {
	h, _ := testHandler(t)
	golden.RequireEqual(t, serve(t, h, request(t, "echo $(cat /etc/shadow)")))
}

func TestServe_Redirect(t *testing.T) {
	h, _ := testHandler(t)
	golden.RequireEqual(t, serve(t, h, request(t, "echo hi > /etc/hosts")))
}

func TestServe_EmptyCommand(t *testing.T) {
	h, _ := testHandler(t)
	h.Build = func(string) (*sandbox.Validator, error) {
		t.Fatal("Build should not be called for an empty command")
		return nil, nil
	}
	golden.RequireEqual(t, serve(t, h, bytes.NewBufferString(`{"tool_input":{}}`)))
}

func TestServe_BuildError(t *testing.T) {
	h := &Handler{Build: func(string) (*sandbox.Validator, error) {
		return nil, errors.New("boom")
	}}
	golden.RequireEqual(t, serve(t, h, request(t, "ls")))
}

func TestServe_Malformed(t *testing.T) {
	h, _ := testHandler(t)
	var out bytes.Buffer
	err := h.Serve(context.Background(), strings.NewReader("{not json"), &out)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if out.Len() != 0 {
		t.Errorf("wrote %q on malformed input", out.String())
	}
}

func TestServe_Cancelled(t *testing.T) {
	h, _ := testHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	if err := h.Serve(ctx, request(t, "ls"), &out); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestServe_BuildUsesCwd(t *testing.T) {
	h, root := testHandler(t)
	var gotCwd string
	build := h.Build
	h.Build = func(cwd string) (*sandbox.Validator, error) {
		gotCwd = cwd
		return build(cwd)
	}
	serve(t, h, request(t, "ls "+filepath.Join(root, "x")))
	if gotCwd != "/somewhere" {
		t.Errorf("Build cwd = %q, want /somewhere", gotCwd)
	}
}

func TestServe_Records(t *testing.T) {
	h, root := testHandler(t)
	rec := &memRecorder{}
	h.Audit = rec

	serve(t, h, request(t, "cat /etc/passwd"))
	serve(t, h, request(t, "ls"))
	serve(t, h, bytes.NewBufferString(`{"tool_input":{"command":""}}`))

	if len(rec.entries) != 2 {
		t.Fatalf("recorded %d entries, want 2", len(rec.entries))
	}
	first := rec.entries[0]
	if first.Decision != Block || first.Reason != "Path '/etc/passwd' outside sandbox" {
		t.Errorf("first = %+v", first)
	}
	if first.Session != "sess-1" || first.Root != root || first.Command != "cat /etc/passwd" {
		t.Errorf("first metadata = %+v", first)
	}
	if rec.entries[1].Decision != Approve || rec.entries[1].Reason != "" {
		t.Errorf("second = %+v", rec.entries[1])
	}
}

func TestServe_RecordFailureStillDecides(t *testing.T) {
	h, _ := testHandler(t)
	h.Audit = &memRecorder{err: errors.New("disk full")}
	out := serve(t, h, request(t, "cat /etc/passwd"))
	var dec Decision
	if err := json.Unmarshal(out, &dec); err != nil {
		t.Fatal(err)
	}
	if dec.Decision != Block {
		t.Errorf("decision = %q, want block", dec.Decision)
	}
}
