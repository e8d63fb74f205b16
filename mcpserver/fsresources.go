package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/mcpkit/mcp-core-go/mcp"
	"github.com/mcpkit/mcp-core-go/registry"
)

// FSResources mirrors the files beneath a root directory into a
// ResourceRegistry as literal file:// resources. Sync registers the current
// tree; Watch keeps the registry in step with external changes so that
// list-changed notifications flow through the registry's queue like any
// other mutation.
type FSResources struct {
	log  *slog.Logger
	reg  *registry.ResourceRegistry
	root string
}

// FSOption configures an FSResources.
type FSOption func(*FSResources)

// WithFSLogger sets the logger used for watch diagnostics.
func WithFSLogger(log *slog.Logger) FSOption {
	return func(f *FSResources) { f.log = log }
}

// NewFSResources constructs a provider for the directory tree rooted at
// root. Call Sync to perform the initial registration.
func NewFSResources(reg *registry.ResourceRegistry, root string, opts ...FSOption) (*FSResources, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve fs resource root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat fs resource root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs resource root %q is not a directory", abs)
	}
	f := &FSResources{log: slog.Default(), reg: reg, root: abs}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Sync walks the root and registers every regular file as a literal
// resource. Files registered on a previous pass that have since vanished
// are removed from the registry.
func (f *FSResources) Sync() error {
	seen := make(map[string]struct{})
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		uri := f.uriFor(path)
		seen[uri] = struct{}{}
		return f.registerFile(uri, path)
	})
	if err != nil {
		return fmt.Errorf("sync fs resources: %w", err)
	}
	for _, res := range f.reg.List() {
		if !strings.HasPrefix(res.URI, "file://") {
			continue
		}
		if !f.owns(res.URI) {
			continue
		}
		if _, ok := seen[res.URI]; !ok {
			f.reg.Remove(res.URI)
		}
	}
	return nil
}

// Watch blocks, keeping the registry current until ctx is cancelled. Events
// are translated into registry mutations; watch errors are logged and the
// loop continues.
func (f *FSResources) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start fs resource watcher: %w", err)
	}
	defer w.Close()

	err = filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch fs resource tree: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			f.handleEvent(w, ev)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.log.Debug("fs watch error", slog.String("err", werr.Error()))
		}
	}
}

func (f *FSResources) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	uri := f.uriFor(ev.Name)
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// New subtree: watch it and register its files.
			if err := w.Add(ev.Name); err != nil {
				f.log.Debug("fs watch add failed", slog.String("dir", ev.Name), slog.String("err", err.Error()))
			}
			if err := f.Sync(); err != nil {
				f.log.Debug("fs resync failed", slog.String("err", err.Error()))
			}
			return
		}
		if err := f.registerFile(uri, ev.Name); err != nil {
			f.log.Debug("fs register failed", slog.String("uri", uri), slog.String("err", err.Error()))
		}
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		f.reg.Remove(uri)
	}
}

// registerFile registers (or re-registers) one file. Contents are read at
// resource read time, not at registration time, so a stale registration
// never serves stale bytes.
func (f *FSResources) registerFile(uri, path string) error {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	res := mcp.Resource{
		URI:      uri,
		Name:     filepath.ToSlash(rel),
		MimeType: mimeType,
	}
	return f.reg.Register(res, func(ctx context.Context, u string) ([]mcp.ResourceContents, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{fileContents(u, mimeType, data)}, nil
	})
}

func (f *FSResources) uriFor(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func (f *FSResources) owns(uri string) bool {
	return strings.HasPrefix(uri, f.uriFor(f.root)+"/")
}

// fileContents renders file data as text when it is valid UTF-8 and as a
// base64 blob otherwise.
func fileContents(uri, mimeType string, data []byte) mcp.ResourceContents {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if utf8.Valid(data) && !strings.Contains(string(data), "\x00") {
		return mcp.ResourceContents{URI: uri, MimeType: mimeType, Text: string(data)}
	}
	return mcp.ResourceContents{URI: uri, MimeType: mimeType, Blob: base64.StdEncoding.EncodeToString(data)}
}
