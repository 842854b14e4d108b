// Package ledger defines how participant registries and commitments are read
// from the chain.
package ledger

import "context"

// Commitment is the raw payload a participant published and the block it
// was published at.
type Commitment struct {
	Data  []byte
	Block uint64
}

// Reader reads registry state from the ledger.
//
// Errors wrapping ErrTransient may succeed when retried. Errors wrapping
// ErrPermanent will not.
type Reader interface {
	// CurrentBlock returns the latest ledger height.
	CurrentBlock(ctx context.Context) (uint64, error)

	// Participants returns the registry in uid order. Its length is the
	// registry size.
	Participants(ctx context.Context) ([]string, error)

	// GetCommitment returns the commitment of hotkey as of atBlock, or the
	// latest when atBlock is 0. found is false when none was published.
	GetCommitment(ctx context.Context, hotkey string, atBlock uint64) (c Commitment, found bool, err error)
}
