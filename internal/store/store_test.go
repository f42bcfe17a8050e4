package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestAudit(t *testing.T, retention time.Duration) (*Audit, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	a, err := Open(dbPath, retention)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, dbPath
}

func TestAudit_RecordRecent(t *testing.T) {
	a, _ := openTestAudit(t, 0)

	got, err := a.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(got))
	}

	base := time.Now().Add(-time.Minute)
	for i, cmd := range []string{"ls", "cat /etc/passwd", "echo hi"} {
		e := Entry{
			Time:     base.Add(time.Duration(i) * time.Second),
			Session:  "s1",
			Root:     "/proj",
			Command:  cmd,
			Decision: "approve",
		}
		if cmd == "cat /etc/passwd" {
			e.Decision = "block"
			e.Reason = "Path '/etc/passwd' outside sandbox"
		}
		if err := a.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err = a.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Command != "echo hi" || got[1].Command != "cat /etc/passwd" {
		t.Errorf("order = %q, %q", got[0].Command, got[1].Command)
	}
	if got[1].Decision != "block" || got[1].Reason == "" {
		t.Errorf("block entry = %+v", got[1])
	}
	if got[1].Session != "s1" || got[1].Root != "/proj" {
		t.Errorf("metadata = %+v", got[1])
	}
	if !got[0].Time.Equal(base.Add(2 * time.Second)) {
		t.Errorf("time = %v, want %v", got[0].Time, base.Add(2*time.Second))
	}

	all, err := a.Recent(0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Recent(0) returned %d entries, want 3", len(all))
	}
}

func TestAudit_ZeroTimeIsNow(t *testing.T) {
	a, _ := openTestAudit(t, 0)
	before := time.Now()
	if err := a.Record(Entry{Root: "/p", Command: "ls", Decision: "approve"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := a.Recent(1)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recent: %v, %d", err, len(got))
	}
	if got[0].Time.Before(before) {
		t.Errorf("time %v before %v", got[0].Time, before)
	}
}

func TestAudit_PurgeOnOpen(t *testing.T) {
	a, dbPath := openTestAudit(t, time.Hour)
	if err := a.Record(Entry{Time: time.Now().Add(-2 * time.Hour), Root: "/p", Command: "old", Decision: "approve"}); err != nil {
		t.Fatal(err)
	}
	if err := a.Record(Entry{Root: "/p", Command: "new", Decision: "approve"}); err != nil {
		t.Fatal(err)
	}
	a.Close()

	b, err := Open(dbPath, time.Hour)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()

	got, err := b.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Command != "new" {
		t.Errorf("after purge got %+v", got)
	}
}

func TestAudit_NilReceiver(t *testing.T) {
	var a *Audit
	if err := a.Record(Entry{Command: "ls"}); err != nil {
		t.Errorf("Record on nil: %v", err)
	}
	if got, err := a.Recent(5); err != nil || got != nil {
		t.Errorf("Recent on nil = %v, %v", got, err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}
