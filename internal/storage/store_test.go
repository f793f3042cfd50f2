package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(dbPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	cleanup := func() {
		store.Close()
	}

	return store, cleanup
}

func TestStore_SetAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.Set("watchlist", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("failed to set key: %v", err)
	}

	got, err := store.Get("watchlist")
	if err != nil {
		t.Fatalf("failed to get key: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Errorf("expected stored value, got %q", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.Get("nope")
	if err != nil {
		t.Fatalf("missing key should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing key, got %q", got)
	}
}

func TestStore_Overwrite(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		if err := store.Set("k", []byte(fmt.Sprintf("v%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := store.Get("k")
	if string(got) != "v2" {
		t.Errorf("expected last write to win, got %q", got)
	}
}

func TestStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_ = store.Set("k", []byte("v"))
	if err := store.Delete("k"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	got, _ := store.Get("k")
	if got != nil {
		t.Errorf("expected deleted key to be gone, got %q", got)
	}

	// Deleting a missing key is not an error.
	if err := store.Delete("k"); err != nil {
		t.Errorf("deleting missing key: %v", err)
	}
}

func TestStore_Keys(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for _, k := range []string{"b", "a", "c"} {
		_ = store.Set(k, []byte("x"))
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(keys) != "[a b c]" {
		t.Errorf("expected sorted keys, got %v", keys)
	}
}

func TestStore_Metadata(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	version, err := store.GetMetadata(schemaVersionKey)
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("expected schema version %s on fresh db, got %q", SchemaVersion, version)
	}

	if err := store.SetMetadata("last_export", "2025-01-01"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetMetadata("last_export")
	if got != "2025-01-01" {
		t.Errorf("expected metadata roundtrip, got %q", got)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "flick.db")

	store, err := NewStore(dbPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set("watchlist", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewStore(dbPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, _ := reopened.Get("watchlist")
	if string(got) != "[]" {
		t.Errorf("expected value to survive reopen, got %q", got)
	}
}

func TestOpen_Memory(t *testing.T) {
	kv, closeFn, err := Open(MemoryPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	if _, ok := kv.(*MemoryKV); !ok {
		t.Fatalf("expected MemoryKV for %s, got %T", MemoryPath, kv)
	}
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()

	buf := []byte("hello")
	_ = kv.Set("k", buf)
	buf[0] = 'j'

	got, _ := kv.Get("k")
	if string(got) != "hello" {
		t.Errorf("stored value should not alias caller buffer, got %q", got)
	}

	got[0] = 'y'
	again, _ := kv.Get("k")
	if string(again) != "hello" {
		t.Errorf("returned value should not alias stored buffer, got %q", again)
	}

	_ = kv.Delete("k")
	missing, err := kv.Get("k")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) after delete, got (%q, %v)", missing, err)
	}
}
