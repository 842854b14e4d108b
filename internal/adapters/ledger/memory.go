package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Reader. It serves registries that are built in
// code, and can inject failures per hotkey.
type Memory struct {
	mu          sync.Mutex
	block       uint64
	hotkeys     []string
	commitments map[string]Commitment
	failures    map[string][]error
	calls       map[string]int
}

// NewMemory creates an empty in-memory ledger at block.
func NewMemory(block uint64) *Memory {
	return &Memory{
		block:       block,
		commitments: make(map[string]Commitment),
		failures:    make(map[string][]error),
		calls:       make(map[string]int),
	}
}

// Register appends hotkey to the registry and returns its uid.
func (m *Memory) Register(hotkey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = append(m.hotkeys, hotkey)
	return len(m.hotkeys) - 1
}

// Commit publishes data for hotkey at block.
func (m *Memory) Commit(hotkey string, data []byte, block uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitments[hotkey] = Commitment{Data: data, Block: block}
}

// Fail queues errors returned by the next GetCommitment calls for hotkey,
// one per call.
func (m *Memory) Fail(hotkey string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[hotkey] = append(m.failures[hotkey], errs...)
}

// SetBlock moves the current block.
func (m *Memory) SetBlock(block uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = block
}

// Calls returns how many times GetCommitment was called for hotkey.
func (m *Memory) Calls(hotkey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[hotkey]
}

// CurrentBlock implements Reader.
func (m *Memory) CurrentBlock(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.block, nil
}

// Participants implements Reader.
func (m *Memory) Participants(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.hotkeys))
	copy(out, m.hotkeys)
	return out, nil
}

// GetCommitment implements Reader. Commitments published after atBlock are
// not visible.
func (m *Memory) GetCommitment(ctx context.Context, hotkey string, atBlock uint64) (Commitment, bool, error) {
	if err := ctx.Err(); err != nil {
		return Commitment{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[hotkey]++

	if errs := m.failures[hotkey]; len(errs) > 0 {
		m.failures[hotkey] = errs[1:]
		return Commitment{}, false, fmt.Errorf("commitment %s: %w", hotkey, errs[0])
	}

	c, ok := m.commitments[hotkey]
	if !ok || (atBlock > 0 && c.Block > atBlock) {
		return Commitment{}, false, nil
	}
	return c, true, nil
}
