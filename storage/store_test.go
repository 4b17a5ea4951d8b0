package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	t.Parallel()

	s := NewLocalStore(t.TempDir())
	key, err := s.Save(context.Background(), "clip.wav", []byte("audio-bytes"), "audio/wav")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if key == "" {
		t.Fatal("empty key")
	}

	rc, err := s.Open(key)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != "audio-bytes" {
		t.Fatalf("content = %q", got)
	}

	if err := s.Delete(context.Background(), key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	// Deleting again is not an error.
	if err := s.Delete(context.Background(), key); err != nil {
		t.Fatalf("Delete of missing blob: %v", err)
	}
}

func TestLocalStore_KeysAreUnique(t *testing.T) {
	t.Parallel()

	s := NewLocalStore(t.TempDir())
	a, err := s.Save(context.Background(), "same.wav", []byte("a"), "audio/wav")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	b, err := s.Save(context.Background(), "same.wav", []byte("b"), "audio/wav")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if a == b {
		t.Fatalf("two saves of the same name collided on key %q", a)
	}
}

func TestLocalStore_URL(t *testing.T) {
	t.Parallel()

	s := NewLocalStore(t.TempDir())
	key, err := s.Save(context.Background(), "clip.wav", []byte("x"), "audio/wav")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	url, err := s.URL(context.Background(), key, time.Hour)
	if err != nil {
		t.Fatalf("URL error: %v", err)
	}
	if !strings.HasPrefix(url, "/static/uploads/") {
		t.Fatalf("url = %q, want /static/uploads/ prefix", url)
	}
}
