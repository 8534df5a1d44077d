package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memoryStateBackend struct {
	blocks map[string]uint64
}

func (m *memoryStateBackend) LoadState(_ context.Context, name string) (uint64, bool, error) {
	block, ok := m.blocks[name]
	return block, ok, nil
}

func (m *memoryStateBackend) SaveState(_ context.Context, name string, block uint64) error {
	m.blocks[name] = block
	return nil
}

func TestFileStateStoreRoundTrip(t *testing.T) {
	store := &FileStateStore{Path: filepath.Join(t.TempDir(), "nested", "state.json")}

	if _, ok, err := store.Load(context.Background()); err != nil || ok {
		t.Fatalf("empty load = %v, %v", ok, err)
	}
	if err := store.Save(context.Background(), 4200); err != nil {
		t.Fatalf("save: %v", err)
	}
	block, ok, err := store.Load(context.Background())
	if err != nil || !ok || block != 4200 {
		t.Fatalf("load = %d, %v, %v", block, ok, err)
	}

	var empty *FileStateStore
	if err := empty.Save(context.Background(), 1); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
}

func TestDBStateStoreDelegates(t *testing.T) {
	backend := &memoryStateBackend{blocks: map[string]uint64{}}
	store := &DBStateStore{Backend: backend, Name: "process"}

	if err := store.Save(context.Background(), 77); err != nil {
		t.Fatalf("save: %v", err)
	}
	block, ok, err := store.Load(context.Background())
	if err != nil || !ok || block != 77 {
		t.Fatalf("load = %d, %v, %v", block, ok, err)
	}
	if backend.blocks["process"] != 77 {
		t.Fatalf("backend not written under name")
	}
}

func TestFileStateStoreFormatAndCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := &FileStateStore{Path: path}
	if err := store.Save(context.Background(), 88); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"last_processed_block":88`) {
		t.Fatalf("unexpected state file: %s", data)
	}

	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}
