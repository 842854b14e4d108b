package repository

import (
	"context"
	"sync"

	"github.com/okian/commitwatch/internal/domain/snapshot"
)

// Memory is an in-process Store. It keeps the baseline in its persisted
// document form so loads reshape it exactly like FileStore does.
type Memory struct {
	mu    sync.Mutex
	doc   snapshot.Document
	saved bool
	saves int
	err   error
}

// NewMemory creates an empty store with no baseline.
func NewMemory() *Memory {
	return &Memory{}
}

// Seed installs s as the current baseline.
func (m *Memory) Seed(s snapshot.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = snapshot.ToDocument(s)
	m.saved = true
}

// FailSaves makes subsequent saves return err. A nil err clears it.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Saves returns how many times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Document returns the stored baseline and whether one exists.
func (m *Memory) Document() (snapshot.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(snapshot.Document, len(m.doc))
	copy(out, m.doc)
	return out, m.saved
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, registrySize int) (snapshot.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, nil
	}
	return snapshot.FromDocument(m.doc, registrySize)
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, s snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.doc = snapshot.ToDocument(s)
	m.saved = true
	m.saves++
	return nil
}
