// Package surface provides the places a chart can be drawn on and the
// lookup-by-identifier facility used to find them.
package surface

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Handle is an opaque reference to a rendering surface.
type Handle interface {
	ID() string
	Open() (io.WriteCloser, error)
}

// --- File surfaces ---

// File is a surface backed by a file on disk. Opening it truncates the file.
type File struct {
	id   string
	Path string
}

// NewFile returns a file surface with the given id writing to path.
func NewFile(id, path string) *File {
	return &File{id: id, Path: path}
}

func (f *File) ID() string { return f.id }

// Open creates the parent directory if needed and truncates the file.
func (f *File) Open() (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for surface %s: %w", f.id, err)
	}
	file, err := os.Create(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create surface file %s: %w", f.Path, err)
	}
	return file, nil
}

// Directory resolves declared surface ids to files named <id><Ext> under Dir.
// Ids that were not declared do not resolve.
type Directory struct {
	Dir      string
	Ext      string
	declared map[string]struct{}
}

// NewDirectory declares the given surface ids under dir.
func NewDirectory(dir, ext string, ids ...string) *Directory {
	d := &Directory{Dir: dir, Ext: ext, declared: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		d.declared[id] = struct{}{}
	}
	return d
}

// Resolve returns the file surface for id, or false if id was never declared.
func (d *Directory) Resolve(id string) (Handle, bool) {
	if _, ok := d.declared[id]; !ok {
		return nil, false
	}
	return NewFile(id, filepath.Join(d.Dir, id+d.Ext)), true
}

// IDs lists the declared surface ids in sorted order.
func (d *Directory) IDs() []string {
	ids := make([]string, 0, len(d.declared))
	for id := range d.declared {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// --- In-memory surfaces ---

// Buffer is an in-memory surface. What a writer draws becomes visible through
// Bytes when the writer is closed, replacing the previous drawing.
type Buffer struct {
	id   string
	mu   sync.Mutex
	data []byte
}

// NewBuffer returns an empty in-memory surface.
func NewBuffer(id string) *Buffer {
	return &Buffer{id: id}
}

func (b *Buffer) ID() string { return b.id }

func (b *Buffer) Open() (io.WriteCloser, error) {
	return &bufferWriter{b: b}, nil
}

// Bytes returns a copy of what was last drawn on the surface.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.data)
}

type bufferWriter struct {
	b      *Buffer
	buf    bytes.Buffer
	closed bool
}

func (w *bufferWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *bufferWriter) Close() error {
	if w.closed {
		return os.ErrClosed
	}
	w.closed = true
	w.b.mu.Lock()
	w.b.data = w.buf.Bytes()
	w.b.mu.Unlock()
	return nil
}

// Memory is a resolver over a fixed set of in-memory surfaces.
type Memory struct {
	surfaces map[string]*Buffer
}

// NewMemory creates one Buffer per id.
func NewMemory(ids ...string) *Memory {
	m := &Memory{surfaces: make(map[string]*Buffer, len(ids))}
	for _, id := range ids {
		m.surfaces[id] = NewBuffer(id)
	}
	return m
}

func (m *Memory) Resolve(id string) (Handle, bool) {
	b, ok := m.surfaces[id]
	if !ok {
		return nil, false
	}
	return b, true
}

// Buffer returns the surface registered under id, or nil.
func (m *Memory) Buffer(id string) *Buffer {
	return m.surfaces[id]
}
