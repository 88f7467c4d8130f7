package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

// Manager dueño de todas las vistas del proceso, identificadas por UUID.
type Manager struct {
	remote repository.RemoteEnrolementStore
	opts   Options

	mu     sync.Mutex
	views  map[string]*View
	closed bool
}

// NewManager construye el gestor de vistas.
func NewManager(remote repository.RemoteEnrolementStore, opts Options) *Manager {
	return &Manager{
		remote: remote,
		opts:   opts.withDefaults(),
		views:  make(map[string]*View),
	}
}

// Open crea y registra una vista nueva.
func (m *Manager) Open(ctx context.Context) (*View, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrViewClosed
	}
	m.mu.Unlock()

	v, err := Open(ctx, uuid.NewString(), m.remote, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		v.Close()
		return nil, domain.ErrViewClosed
	}
	m.views[v.ID()] = v
	return v, nil
}

// Get devuelve la vista o domain.ErrNotFound.
func (m *Manager) Get(id string) (*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[id]
	if !ok {
		return nil, fmt.Errorf("vista %s: %w", id, domain.ErrNotFound)
	}
	return v, nil
}

// Close cierra y olvida la vista.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	v, ok := m.views[id]
	delete(m.views, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("vista %s: %w", id, domain.ErrNotFound)
	}
	v.Close()
	return nil
}

// CloseAll cierra todas las vistas y rechaza aperturas posteriores.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	views := m.views
	m.views = make(map[string]*View)
	m.closed = true
	m.mu.Unlock()

	for _, v := range views {
		v.Close()
	}
}

// Len número de vistas abiertas.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}
