package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteAndReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	want := payload{Name: "navi", Count: 3}

	if err := WriteJSONAtomic(path, want, 0o600); err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}
	var got payload
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestWriteJSONAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := WriteJSONAtomic(path, payload{Name: "old"}, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSONAtomic(path, payload{Name: "new"}, 0o600); err != nil {
		t.Fatal(err)
	}
	var got payload
	if err := ReadJSON(path, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "new" {
		t.Errorf("Name = %q, want %q", got.Name, "new")
	}
}

func TestWriteJSONAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := WriteJSONAtomic(path, payload{}, 0o600); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	var v payload
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want os.IsNotExist", err)
	}
}

func TestReadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	var v payload
	if err := ReadJSON(path, &v); err == nil {
		t.Error("ReadJSON(malformed) expected error")
	}
}
