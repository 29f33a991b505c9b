package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestPutGet(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	want := record{ID: "abc", Title: "hello"}
	if err := s.Put(ctx, []string{"conversations", "abc"}, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got record
	if err := s.Get(ctx, []string{"conversations", "abc"}, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New(t.TempDir())
	var got record
	err := s.Get(context.Background(), []string{"missing"}, &got)
	if err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	if err := s.Put(ctx, []string{"x"}, record{ID: "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, []string{"x"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists(ctx, []string{"x"}) {
		t.Error("value still exists after delete")
	}

	// deleting again is not an error
	if err := s.Delete(ctx, []string{"x"}); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestList(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, []string{"conversations", id}, record{ID: id}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	if err := s.Put(ctx, []string{"conversations", "a", "messages", "m1"}, record{ID: "m1"}); err != nil {
		t.Fatalf("put nested: %v", err)
	}

	keys, err := s.List(ctx, []string{"conversations"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	sort.Strings(keys)
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestListMissingDir(t *testing.T) {
	s := New(t.TempDir())
	keys, err := s.List(context.Background(), []string{"nope"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("got %v, want empty", keys)
	}
}

func TestScan(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"one", "two"} {
		if err := s.Put(ctx, []string{"items", id}, record{ID: id}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	seen := map[string]string{}
	err := s.Scan(ctx, []string{"items"}, func(key string, data json.RawMessage) error {
		var r record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		seen[key] = r.ID
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 2 || seen["one"] != "one" || seen["two"] != "two" {
		t.Errorf("unexpected scan results: %v", seen)
	}
}

func TestPutAtomic(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	ctx := context.Background()

	if err := s.Put(ctx, []string{"v"}, record{ID: "v"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileLockTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	l := NewFileLock(path)

	ok, err := l.TryLock()
	if err != nil {
		t.Fatalf("trylock: %v", err)
	}
	if !ok {
		t.Fatal("expected to acquire lock")
	}

	// second attempt from the same process is blocked by the mutex
	ok2, err := l.TryLock()
	if err != nil {
		t.Fatalf("second trylock: %v", err)
	}
	if ok2 {
		t.Error("expected second TryLock to fail while held")
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Error("lock file not removed after unlock")
	}
}
