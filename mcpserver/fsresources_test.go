package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcpkit/mcp-core-go/registry"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFSResourcesSync(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.txt", "hello from disk")
	writeFile(t, dir, filepath.Join("sub", "data.json"), `{"k":1}`)

	reg := registry.NewResourceRegistry()
	fr, err := NewFSResources(reg, dir)
	if err != nil {
		t.Fatalf("NewFSResources: %v", err)
	}
	if err := fr.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if got := reg.Len(); got != 2 {
		t.Fatalf("registered %d resources, want 2", got)
	}
	var names []string
	for _, res := range reg.List() {
		names = append(names, res.Name)
		if !strings.HasPrefix(res.URI, "file://") {
			t.Fatalf("uri = %q", res.URI)
		}
	}
	want := map[string]bool{"readme.txt": true, "sub/data.json": true}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected resource name %q in %v", n, names)
		}
	}
}

func TestFSResourcesReadThrough(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "note.txt", "v1")

	reg := registry.NewResourceRegistry()
	fr, err := NewFSResources(reg, dir)
	if err != nil {
		t.Fatalf("NewFSResources: %v", err)
	}
	if err := fr.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	uri := "file://" + filepath.ToSlash(path)
	contents, err := reg.Read(context.Background(), uri)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if contents[0].Text != "v1" {
		t.Fatalf("text = %q", contents[0].Text)
	}

	// Contents are read at resource read time, so an in-place edit is
	// visible without a re-sync.
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	contents, err = reg.Read(context.Background(), uri)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if contents[0].Text != "v2" {
		t.Fatalf("text after edit = %q, want v2", contents[0].Text)
	}
}

func TestFSResourcesSyncRemovesVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gone.txt", "x")

	reg := registry.NewResourceRegistry()
	fr, err := NewFSResources(reg, dir)
	if err != nil {
		t.Fatalf("NewFSResources: %v", err)
	}
	if err := fr.Sync(); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d", reg.Len())
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := fr.Sync(); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("vanished file still registered: %v", reg.List())
	}
}

func TestFSResourcesBinaryBecomesBlob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.bin")
	if err := os.WriteFile(path, []byte{0x00, 0xff, 0x10}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reg := registry.NewResourceRegistry()
	fr, err := NewFSResources(reg, dir)
	if err != nil {
		t.Fatalf("NewFSResources: %v", err)
	}
	if err := fr.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	contents, err := reg.Read(context.Background(), "file://"+filepath.ToSlash(path))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if contents[0].Text != "" || contents[0].Blob == "" {
		t.Fatalf("binary contents = %+v, want base64 blob", contents[0])
	}
}

func TestFSResourcesRejectsNonDirectoryRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.txt", "x")

	reg := registry.NewResourceRegistry()
	if _, err := NewFSResources(reg, path); err == nil {
		t.Fatal("file root should be rejected")
	}
	if _, err := NewFSResources(reg, filepath.Join(dir, "missing")); err == nil {
		t.Fatal("missing root should be rejected")
	}
}
