// Package run owns a planning run's lifecycle: the session store, the
// state machine driving one run through its stages, and the output writer.
package run

import (
	"errors"
	"sort"
	"sync"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

// ErrDuplicateRun is returned when creating a session with an ID already
// in the store.
var ErrDuplicateRun = errors.New("run id already exists")

// Store is the session registry: the only shared mutable resource in the
// system. One pipeline goroutine per run writes through Update; status
// polls read snapshots through Get/List. Mutate callbacks must replace
// reference fields (slices, pointers) rather than edit them in place, so
// snapshots handed to readers stay stable.
type Store interface {
	Create(s *models.RunSession) error
	Get(id string) (models.RunSession, bool)
	Update(id string, mutate func(*models.RunSession)) bool
	List() []models.RunSession
}

// MemoryStore keeps sessions in process memory for the process lifetime.
// No eviction; durability is the written output files' concern.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*models.RunSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: map[string]*models.RunSession{}}
}

func (m *MemoryStore) Create(s *models.RunSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[s.ID]; ok {
		return ErrDuplicateRun
	}
	m.runs[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(id string) (models.RunSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.runs[id]
	if !ok {
		return models.RunSession{}, false
	}
	return *s, true
}

func (m *MemoryStore) Update(id string, mutate func(*models.RunSession)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.runs[id]
	if !ok {
		return false
	}
	mutate(s)
	return true
}

func (m *MemoryStore) List() []models.RunSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RunSession, 0, len(m.runs))
	for _, s := range m.runs {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
