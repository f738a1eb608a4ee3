package storage

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Memory is an in-process sink, used by default and in tests.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{datasets: make(map[string]Dataset)}
}

// Save stores or replaces the dataset.
func (m *Memory) Save(ctx context.Context, ds Dataset) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := ds.Validate(); err != nil {
		return Receipt{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.datasets[ds.Key()]
	m.datasets[ds.Key()] = ds
	return Receipt{
		GroupingKey:   ds.GroupingKey,
		Name:          ds.Name,
		RecordsStored: len(ds.Records),
		Created:       !exists,
	}, nil
}

// Get returns the dataset stored under groupingKey and name.
func (m *Memory) Get(groupingKey, name string) (Dataset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[Dataset{GroupingKey: groupingKey, Name: name}.Key()]
	return ds, ok
}

// Len returns the number of stored datasets.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.datasets)
}

// List returns the stored datasets ordered by key.
func (m *Memory) List() []Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Dataset, 0, len(m.datasets))
	for _, k := range slices.Sorted(maps.Keys(m.datasets)) {
		out = append(out, m.datasets[k])
	}
	return out
}
