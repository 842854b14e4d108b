// Package dedupe enforces that every artifact is owned by at most one slot.
//
// An artifact is identified independently by its repository and by its
// revision; either one alone is enough to recognise the same build, so a
// slot loses to an earlier claim on either key.
package dedupe

import (
	"github.com/okian/commitwatch/internal/domain/snapshot"
)

// Key names the identity two slots collided on.
type Key string

// Keys an ownership claim can be registered under.
const (
	KeyRepository Key = "repository"
	KeyRevision   Key = "revision"
)

// Action describes what happened to the losing slot.
type Action string

// Conflict outcomes.
const (
	// ActionDiscarded means the slot being processed lost to an earlier claim.
	ActionDiscarded Action = "discarded"
	// ActionEvicted means an already-accepted slot was cleared retroactively.
	ActionEvicted Action = "evicted"
)

// Conflict records one resolved collision.
type Conflict struct {
	Key    Key
	Action Action
	Loser  int
	Winner int
	// LoserBlock and WinnerBlock are the blocks each side was registered at.
	LoserBlock  uint64
	WinnerBlock uint64
}

// Result is a resolved snapshot and the collisions that shaped it.
type Result struct {
	Snapshot  snapshot.Snapshot
	Conflicts []Conflict
}

// Resolver resolves ownership across a scanned snapshot.
type Resolver interface {
	Resolve(s snapshot.Snapshot) Result
}

type claim struct {
	uid   int
	block uint64
}

// ownership is the per-call index from artifact identity to its claimant.
type ownership struct {
	repositories map[string]claim
	revisions    map[string]claim
}

// resolver implements Resolver.
type resolver struct {
	onConflict func(Conflict)
}

// NewResolver creates a Resolver with configuration options.
func NewResolver(opts ...Option) Resolver {
	r := &resolver{}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve walks the slots in uid order and clears every slot that loses an
// ownership collision. For each present slot:
//
//   - existing claims on its repository and revision are looked up; when both
//     exist the one with the smaller block is the reference (the repository
//     claim on equal blocks);
//   - if the slot's block is greater than the reference's, the slot is cleared;
//   - otherwise the reference's slot is cleared, even though it was accepted
//     earlier in the walk, and the slot keeps its record;
//   - a surviving slot registers itself under both keys.
//
// Equal blocks therefore favour the higher uid. The input is not modified.
func (r *resolver) Resolve(s snapshot.Snapshot) Result {
	out := s.Clone()
	idx := ownership{
		repositories: make(map[string]claim, len(s)),
		revisions:    make(map[string]claim, len(s)),
	}
	var conflicts []Conflict

	for uid, e := range s {
		if e == nil {
			continue
		}

		ref, key, found := idx.reference(e.Submission.Repository, e.Submission.Revision)
		if found {
			if e.Block > ref.block {
				out[uid] = nil
				conflicts = r.record(conflicts, Conflict{
					Key: key, Action: ActionDiscarded,
					Loser: uid, LoserBlock: e.Block,
					Winner: ref.uid, WinnerBlock: ref.block,
				})
				continue
			}
			out[ref.uid] = nil
			conflicts = r.record(conflicts, Conflict{
				Key: key, Action: ActionEvicted,
				Loser: ref.uid, LoserBlock: ref.block,
				Winner: uid, WinnerBlock: e.Block,
			})
		}

		c := claim{uid: uid, block: e.Block}
		idx.repositories[e.Submission.Repository] = c
		idx.revisions[e.Submission.Revision] = c
	}

	return Result{Snapshot: out, Conflicts: conflicts}
}

func (r *resolver) record(conflicts []Conflict, c Conflict) []Conflict {
	if r.onConflict != nil {
		r.onConflict(c)
	}
	return append(conflicts, c)
}

// reference picks the claim a new slot has to beat.
func (o ownership) reference(repository, revision string) (claim, Key, bool) {
	byRepo, repoOK := o.repositories[repository]
	byRev, revOK := o.revisions[revision]

	switch {
	case repoOK && revOK:
		if byRev.block < byRepo.block {
			return byRev, KeyRevision, true
		}
		return byRepo, KeyRepository, true
	case repoOK:
		return byRepo, KeyRepository, true
	case revOK:
		return byRev, KeyRevision, true
	default:
		return claim{}, "", false
	}
}

// Resolve resolves s with a default Resolver.
func Resolve(s snapshot.Snapshot) Result {
	return NewResolver().Resolve(s)
}
