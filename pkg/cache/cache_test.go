package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "cache", "online_cache.json"))
}

func TestPutGetCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("What is Go", "A language"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tests := []string{"what is go", "WHAT IS GO", "  What Is Go  "}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			got, ok := s.Get(q)
			if !ok {
				t.Fatalf("Get(%q) missed", q)
			}
			if got != "A language" {
				t.Errorf("Get(%q) = %q", q, got)
			}
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)

	s.Put("hello", "first")
	s.Put("HELLO", "second")

	got, _ := s.Get("hello")
	if got != "second" {
		t.Errorf("expected last write to win, got %q", got)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}
}

func TestGetMissingFile(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.Get("anything"); ok {
		t.Error("expected miss on missing file")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestCorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated object", "{not json"},
		{"null", "null"},
		{"array", "[]"},
		{"wrong value type", `{"x": 1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t)
			if err := os.MkdirAll(filepath.Dir(s.Path()), 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(s.Path(), []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			if _, ok := s.Get("x"); ok {
				t.Error("corrupt file should read as empty")
			}
			if n := s.Len(); n != 0 {
				t.Errorf("Len = %d, want 0", n)
			}

			if err := s.Put("What Time Is It", "5 PM"); err != nil {
				t.Fatalf("Put over corrupt file: %v", err)
			}

			data, err := os.ReadFile(s.Path())
			if err != nil {
				t.Fatal(err)
			}
			var entries map[string]string
			if err := json.Unmarshal(data, &entries); err != nil {
				t.Fatalf("file not valid JSON after Put: %v", err)
			}
			if len(entries) != 1 || entries["what time is it"] != "5 PM" {
				t.Errorf("unexpected content: %v", entries)
			}
		})
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")

	if err := New(path).Put("Remember Me", "ok"); err != nil {
		t.Fatal(err)
	}

	got, ok := New(path).Get("remember me")
	if !ok || got != "ok" {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
}

func TestPutEmptyQuery(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put("   ", "x"); err != ErrEmptyQuery {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestEnsureFile(t *testing.T) {
	s := newTestStore(t)

	if err := s.EnsureFile(); err != nil {
		t.Fatalf("EnsureFile: %v", err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("expected empty object, got %q", data)
	}

	s.Put("a", "b")
	if err := s.EnsureFile(); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Error("EnsureFile must not reset an existing file")
	}
}

func TestConcurrentPut(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Put(fmt.Sprintf("q%d", i), "a"); err != nil {
				t.Errorf("Put: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 20 {
		t.Errorf("expected 20 entries, got %d", s.Len())
	}
}
