package worker

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/qbotics/looprate/rate"
)

// Manager keeps a name-keyed registry of workers and offers bulk
// lifecycle operations.
type Manager struct {
	mu      sync.Mutex
	workers map[string]*Worker
	logger  rate.Logger
}

// NewManager creates an empty Manager. A nil logger selects the
// default.
func NewManager(logger rate.Logger) *Manager {
	if logger == nil {
		logger = rate.DefaultLogger()
	}
	return &Manager{
		workers: make(map[string]*Worker),
		logger:  logger,
	}
}

// AddWorker creates a worker from the given options and registers it.
// Names must be unique.
func (m *Manager) AddWorker(opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workers[opts.Name]; ok {
		err := errors.Errorf("cannot add worker [%s], name already exists", opts.Name)
		m.logger.Error(err)
		return err
	}
	if opts.Logger == nil {
		opts.Logger = m.logger
	}
	w, err := New(opts)
	if err != nil {
		return err
	}
	m.workers[opts.Name] = w
	return nil
}

// GetWorker returns the worker with the given name.
func (m *Manager) GetWorker(name string) (*Worker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[name]
	return w, ok
}

// HasWorker reports whether a worker with the given name is
// registered.
func (m *Manager) HasWorker(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.workers[name]
	return ok
}

// StartWorker starts the named worker.
func (m *Manager) StartWorker(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[name]
	if !ok {
		err := errors.Errorf("cannot start worker [%s], worker not found", name)
		m.logger.Error(err)
		return err
	}
	return w.Start()
}

// StartWorkers starts every registered worker.
func (m *Manager) StartWorkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workers {
		// Already-running workers log the failure themselves.
		_ = w.Start()
	}
}

// StopWorker stops the named worker, optionally waiting for its
// goroutine to exit.
func (m *Manager) StopWorker(name string, wait bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[name]
	if !ok {
		err := errors.Errorf("cannot stop worker [%s], worker not found", name)
		m.logger.Error(err)
		return err
	}
	w.Stop(wait)
	return nil
}

// StopWorkers stops every registered worker.
func (m *Manager) StopWorkers(wait bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workers {
		w.Stop(wait)
	}
}

// CancelWorker stops the named worker and removes it from the
// registry.
func (m *Manager) CancelWorker(name string, wait bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[name]
	if !ok {
		err := errors.Errorf("cannot cancel worker [%s], worker not found", name)
		m.logger.Error(err)
		return err
	}
	w.Stop(wait)
	delete(m.workers, name)
	return nil
}

// CancelWorkers stops and removes every registered worker.
func (m *Manager) CancelWorkers(wait bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, w := range m.workers {
		w.Stop(wait)
		delete(m.workers, name)
	}
}

// SetWorkerTimeStep changes the time step of the named worker.
func (m *Manager) SetWorkerTimeStep(name string, timeStep float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[name]
	if !ok {
		err := errors.Errorf("cannot change time step of worker [%s], worker not found", name)
		m.logger.Error(err)
		return err
	}
	return w.SetTimeStep(timeStep)
}

// CleanDestructibleWorkers removes terminated workers that were marked
// with DestructWhenDone.
func (m *Manager) CleanDestructibleWorkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, w := range m.workers {
		if w.IsDestructible() {
			delete(m.workers, name)
		}
	}
}
