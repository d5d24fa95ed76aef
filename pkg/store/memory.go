package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/recera/drawflow/pkg/graph"
)

// Memory keeps graphs in process. Documents are stored encoded so callers
// never share nodes with the store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, name string) (*graph.Drawflow, error) {
	m.mu.RLock()
	data, ok := m.docs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return graph.Parse(data)
}

func (m *Memory) Save(_ context.Context, name string, g *graph.Drawflow) error {
	if err := ValidName(name); err != nil {
		return err
	}
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[name] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[name]; !ok {
		return ErrNotFound
	}
	delete(m.docs, name)
	return nil
}

func (m *Memory) List(context.Context) ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.docs))
	for name := range m.docs {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}
