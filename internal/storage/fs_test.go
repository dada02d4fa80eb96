package storage

import (
	"errors"
	"testing"
)

func tempTree(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempTree(t)
	content := []byte("<p>It was a dark and stormy night.</p>\n")
	if err := s.Write("stories/W/winter-station/winter-station.001.2019-03-04.html", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("stories/W/winter-station/winter-station.001.2019-03-04.html")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteReplaces(t *testing.T) {
	s := tempTree(t)
	if err := s.Write("a/body.html", []byte("first")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write("a/body.html", []byte("second")); err != nil {
		t.Fatalf("Write replace: %v", err)
	}
	got, err := s.Read("a/body.html")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want second", got)
	}
}

func TestReadMissing(t *testing.T) {
	s := tempTree(t)
	_, err := s.Read("no/such/file.html")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempTree(t)
	_ = s.Write("del.html", []byte("bye"))
	if err := s.Delete("del.html"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.html"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist after delete, got %v", err)
	}
	// Deleting again is not an error.
	if err := s.Delete("del.html"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestExists(t *testing.T) {
	s := tempTree(t)
	ok, err := s.Exists("x.html")
	if err != nil || ok {
		t.Errorf("Exists absent = %v, %v", ok, err)
	}
	_ = s.Write("x.html", []byte("x"))
	ok, err = s.Exists("x.html")
	if err != nil || !ok {
		t.Errorf("Exists present = %v, %v", ok, err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s := tempTree(t)
	for _, p := range []string{"../escape.html", "a/../../escape.html", "/etc/passwd", ""} {
		if err := s.Write(p, []byte("nope")); err == nil {
			t.Errorf("Write(%q): expected path error", p)
		}
		if _, err := s.Read(p); err == nil {
			t.Errorf("Read(%q): expected path error", p)
		}
	}
}
