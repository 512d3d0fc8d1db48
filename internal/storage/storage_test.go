package storage

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type doc struct {
	Name string `json:"name"`
}

func stores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("create file store: %v", err)
	}

	return map[string]Store{
		"file":   fileStore,
		"memory": NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Load("missing"); err != nil || ok {
				t.Fatalf("expected missing key to be absent, got ok=%v err=%v", ok, err)
			}

			if err := SaveJSON(store, "nexaforge_cv", doc{Name: "Jane"}); err != nil {
				t.Fatalf("save: %v", err)
			}

			var got doc
			if !LoadJSON(store, "nexaforge_cv", &got, nil) {
				t.Fatalf("expected stored value to load")
			}
			if got.Name != "Jane" {
				t.Fatalf("unexpected value: %+v", got)
			}

			if err := store.Delete("nexaforge_cv"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete("nexaforge_cv"); err != nil {
				t.Fatalf("deleting twice should succeed: %v", err)
			}
			if LoadJSON(store, "nexaforge_cv", &got, nil) {
				t.Fatalf("expected deleted value to be absent")
			}
		})
	}
}

func TestLoadJSONTreatsCorruptValueAsAbsent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save("nexaforge_user", []byte("{not json")); err != nil {
				t.Fatalf("save: %v", err)
			}

			core, observed := observer.New(zapcore.WarnLevel)

			var got doc
			if LoadJSON(store, "nexaforge_user", &got, zap.New(core)) {
				t.Fatalf("corrupt value must be reported as absent")
			}
			if observed.Len() != 1 {
				t.Fatalf("expected a warning to be logged, got %d entries", observed.Len())
			}
		})
	}
}

func TestInvalidKeysAreRejected(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save("../escape", []byte("{}")); err == nil {
				t.Fatalf("expected path-like key to be rejected")
			}
		})
	}
}

func TestFileStoreLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Save("nexaforge_auth", []byte(`"true"`)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "nexaforge_auth.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
