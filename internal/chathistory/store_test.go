package chathistory

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestAppendAndRecent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	seed := []struct {
		role, content string
	}{
		{RoleUser, "hello"},
		{RoleBot, "hi there"},
		{RoleUser, "how are you"},
	}
	for _, e := range seed {
		if err := s.Append("42", e.role, e.content); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := s.Append("99", RoleUser, "other chat"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := s.Recent("42", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entry count mismatch: got %d want 3", len(got))
	}
	if got[0].Content != "hello" || got[2].Content != "how are you" {
		t.Fatalf("order mismatch: got %q .. %q, want oldest first", got[0].Content, got[2].Content)
	}
	for _, e := range got {
		if e.ChatID != "42" {
			t.Fatalf("chat isolation broken: got entry for chat %q", e.ChatID)
		}
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.Append("42", RoleUser, time.Now().String()); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	got, err := s.Recent("42", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit mismatch: got %d want 2", len(got))
	}
}

func TestAppendValidation(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.Append("", RoleUser, "x"); err == nil {
		t.Fatalf("Append() must reject empty chat id")
	}
	if err := s.Append("42", RoleUser, "  "); err == nil {
		t.Fatalf("Append() must reject empty content")
	}
}

func TestCleanupBefore(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.Append("42", RoleUser, "old enough"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	deleted, err := s.CleanupBefore(time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("CleanupBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted count mismatch: got %d want 1", deleted)
	}
	got, err := s.Recent("42", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("entries remain after cleanup: got %d", len(got))
	}
}

func TestRetentionSweepRejectsZeroAge(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if _, err := s.StartRetentionSweep("@hourly", 0); err == nil {
		t.Fatalf("StartRetentionSweep() must reject a non-positive max age")
	}
	c, err := s.StartRetentionSweep("", time.Hour)
	if err != nil {
		t.Fatalf("StartRetentionSweep() error = %v", err)
	}
	c.Stop()
}
