package log

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// TestProvider is a LoggerProvider that writes to an in-memory buffer so
// tests can assert on emitted log lines.
type TestProvider struct {
	mu  sync.Mutex
	buf *bytes.Buffer
	p   *ZerologProvider
}

// NewTestProvider creates a buffered provider at the given level.
func NewTestProvider(level zerolog.Level) (*TestProvider, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestProvider{
		buf: buf,
		p:   NewZerologProvider(level, buf),
	}, buf
}

// GetLogger implements LoggerProvider.
func (t *TestProvider) GetLogger() Logger {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p.GetLogger()
}

// GetLoggerWithName implements LoggerProvider.
func (t *TestProvider) GetLoggerWithName(name string) Logger {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p.GetLoggerWithName(name)
}

// Contents returns everything logged so far.
func (t *TestProvider) Contents() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
