package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/mcapvideo/pkg/ports"
)

// Logger is a mock implementation of ports.Logger that records formatted
// messages per level.
type Logger struct {
	mu sync.Mutex

	Debugs   []string
	Infos    []string
	Warnings []string
	Errors   []string
}

func (m *Logger) Debug(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Debugs = append(m.Debugs, fmt.Sprintf(msg, args...))
}

func (m *Logger) Info(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Infos = append(m.Infos, fmt.Sprintf(msg, args...))
}

func (m *Logger) Warn(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings = append(m.Warnings, fmt.Sprintf(msg, args...))
}

func (m *Logger) Error(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, fmt.Sprintf(msg, args...))
}

func (m *Logger) WithComponent(component string) ports.Logger {
	return m
}

// Contains reports whether any recorded message at any level contains s.
func (m *Logger) Contains(s string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, list := range [][]string{m.Debugs, m.Infos, m.Warnings, m.Errors} {
		for _, msg := range list {
			if strings.Contains(msg, s) {
				return true
			}
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
