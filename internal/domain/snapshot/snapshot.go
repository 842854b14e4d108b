// Package snapshot holds the per-slot state of one registry scan, the change
// detector that compares two scans, and the document form baselines are
// persisted in.
package snapshot

import (
	"github.com/okian/commitwatch/internal/domain/submission"
)

// Entry is a slot's decoded submission and the ledger block it was observed at.
type Entry struct {
	Submission submission.Submission
	Block      uint64
}

// Snapshot has one slot per registry uid. A nil entry is an absent slot.
type Snapshot []*Entry

// New returns a snapshot of size absent slots.
func New(size int) Snapshot {
	return make(Snapshot, size)
}

// Clone returns a copy whose slots can be cleared without touching s.
// Entries themselves are shared; they are never modified in place.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Present counts the non-absent slots.
func (s Snapshot) Present() int {
	n := 0
	for _, e := range s {
		if e != nil {
			n++
		}
	}
	return n
}

// Change is a slot whose submission is new or differs from the baseline.
type Change struct {
	UID        int
	Submission submission.Submission
	Block      uint64
}

// Diff reports the slots of next that are new or altered relative to
// previous. Slots are compared pairwise up to the shorter length; a slot
// present only in previous is not a change. An empty previous means there is
// no baseline yet and nothing is reported.
func Diff(next, previous Snapshot) []Change {
	if len(previous) == 0 {
		return nil
	}
	n := min(len(next), len(previous))
	var changes []Change
	for uid := 0; uid < n; uid++ {
		cur, old := next[uid], previous[uid]
		if cur == nil {
			continue
		}
		if old != nil && old.Submission == cur.Submission {
			continue
		}
		changes = append(changes, Change{UID: uid, Submission: cur.Submission, Block: cur.Block})
	}
	return changes
}
