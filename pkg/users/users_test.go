package users

import (
	"os"
	"path/filepath"
	"testing"

	"hotcrawl/pkg/logger"
)

func newTestStore(t *testing.T, content string) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.txt")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("seeding users file: %v", err)
		}
	}
	return NewStore(path, logger.GetLogger())
}

func TestLoadSkipsCommentsAndBlanks(t *testing.T) {
	s := newTestStore(t, "alice\n\n# a comment\n  bob  \n\ncarol\n")

	users, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"alice", "bob", "carol"}
	if len(users) != len(want) {
		t.Fatalf("users = %v, want %v", users, want)
	}
	for i := range want {
		if users[i] != want[i] {
			t.Errorf("users = %v, want %v", users, want)
		}
	}
}

func TestLoadMissingFileIsBenign(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope.txt"), logger.GetLogger())

	users, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if users != nil {
		t.Errorf("users = %v, want nil", users)
	}
}

func TestAddSanitizesAndDeduplicates(t *testing.T) {
	s := newTestStore(t, "alice\n")

	if err := s.Add("@bob/"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add("alice"); err != nil {
		t.Fatalf("Add() duplicate error = %v", err)
	}

	users, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 || users[0] != "alice" || users[1] != "bob" {
		t.Errorf("users = %v, want [alice bob]", users)
	}
}

func TestAddRejectsInvalidUsername(t *testing.T) {
	s := newTestStore(t, "")

	for _, bad := range []string{"has space", "way_too_long_handle", ""} {
		if err := s.Add(bad); err == nil {
			t.Errorf("Add(%q) accepted an invalid username", bad)
		}
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t, "alice\nbob\ncarol\n")

	if err := s.Remove("@bob"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	users, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 || users[0] != "alice" || users[1] != "carol" {
		t.Errorf("users = %v, want [alice carol]", users)
	}

	// Removing an absent user is not an error
	if err := s.Remove("dave"); err != nil {
		t.Errorf("Remove() absent user error = %v", err)
	}
}
