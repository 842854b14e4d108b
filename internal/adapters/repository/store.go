// Package repository persists the baseline snapshot between scans.
package repository

import (
	"context"

	"github.com/okian/commitwatch/internal/domain/snapshot"
)

// Store provides read/write access to the baseline snapshot.
type Store interface {
	// Load returns the persisted baseline reshaped to registrySize slots.
	// A nil snapshot means there is no baseline yet.
	Load(ctx context.Context, registrySize int) (snapshot.Snapshot, error)

	// Save replaces the baseline with s.
	Save(ctx context.Context, s snapshot.Snapshot) error
}
