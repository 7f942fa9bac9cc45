package reporter

import (
	"sync"

	"angles-reporter/src/transport"
)

var (
	defaultMu      sync.Mutex
	defaultSession *Session
)

// Init creates the process-wide session. Calling it again without
// ResetDefault returns ErrSessionExists.
func Init(t transport.Transport, opts ...Option) (*Session, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSession != nil {
		return nil, ErrSessionExists
	}
	defaultSession = NewSession(t, opts...)
	return defaultSession, nil
}

// Default returns the process-wide session, or nil before Init.
func Default() *Session {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSession
}

// ResetDefault drops the process-wide session.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSession = nil
}
