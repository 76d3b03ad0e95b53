package lifecycle

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Manager closes registered resources in reverse order of registration.
// Closing is idempotent; resources registered after Close are closed on the
// next call.
type Manager struct {
	mu        sync.Mutex
	resources []resource
	log       zerolog.Logger
}

type resource struct {
	name   string
	closer io.Closer
}

// NewManager creates a resource lifecycle manager that logs close failures to log.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

// Register adds a resource to be closed when the manager is closed.
func (m *Manager) Register(name string, closer io.Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, resource{name: name, closer: closer})
}

// RegisterFunc wraps a cleanup function as a Closer.
func (m *Manager) RegisterFunc(name string, fn func() error) {
	m.Register(name, closerFunc(fn))
}

// Close closes every registered resource, last registered first, and
// returns the first error. All resources are attempted even if some fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	resources := m.resources
	m.resources = nil
	m.mu.Unlock()

	var firstErr error
	for i := len(resources) - 1; i >= 0; i-- {
		res := resources[i]
		if err := res.closer.Close(); err != nil {
			m.log.Error().
				Err(err).
				Str("resource", res.name).
				Msg("lifecycle.close_resource_failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
