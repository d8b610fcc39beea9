package mocks

import (
	"fmt"
	"path"
	"sync"

	"github.com/user/mcapvideo/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Writes to a path registered
// with FailWrite return the registered error and leave no file behind.
type FileSystem struct {
	mu       sync.RWMutex
	files    map[string][]byte
	dirs     map[string]bool
	failures map[string]error
	writes   []string
}

// NewFileSystem creates a new mock FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:    make(map[string][]byte),
		dirs:     make(map[string]bool),
		failures: make(map[string]error),
	}
}

// AddFile seeds a file without recording a write.
func (m *FileSystem) AddFile(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = data
}

// FailWrite makes every WriteFile to p fail with err.
func (m *FileSystem) FailWrite(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[p] = err
}

func (m *FileSystem) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[p]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("file not found: %s", p)
}

func (m *FileSystem) WriteFile(p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[p]; ok {
		return err
	}
	m.files[p] = data
	m.writes = append(m.writes, p)
	m.addDirs(path.Dir(p))
	return nil
}

// MkdirAll records p and all of its parents.
func (m *FileSystem) MkdirAll(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDirs(p)
	return nil
}

func (m *FileSystem) addDirs(p string) {
	for dir := path.Clean(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
}

func (m *FileSystem) Exists(p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, isFile := m.files[p]
	return isFile || m.dirs[path.Clean(p)], nil
}

func (m *FileSystem) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	delete(m.dirs, path.Clean(p))
	return nil
}

// GetFile returns the contents of a file.
func (m *FileSystem) GetFile(p string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p]
	return data, ok
}

// Writes returns the written paths in order.
func (m *FileSystem) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.writes...)
}

var _ ports.FileSystem = (*FileSystem)(nil)
