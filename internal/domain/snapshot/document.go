package snapshot

import (
	"fmt"

	"github.com/okian/commitwatch/internal/domain/submission"
)

// Record is the persisted form of one present slot.
type Record struct {
	UID        int    `json:"uid"`
	Repository string `json:"repository"`
	Revision   string `json:"revision"`
	Contest    string `json:"contest"`
}

// Document is the persisted form of a snapshot: present slots in uid order.
type Document []Record

// ToDocument converts s to its persisted form. Blocks are not persisted.
func ToDocument(s Snapshot) Document {
	doc := make(Document, 0, s.Present())
	for uid, e := range s {
		if e == nil {
			continue
		}
		doc = append(doc, Record{
			UID:        uid,
			Repository: e.Submission.Repository,
			Revision:   e.Submission.Revision,
			Contest:    e.Submission.Contest.String(),
		})
	}
	return doc
}

// FromDocument rebuilds a snapshot of registrySize slots from doc. Records
// whose uid no longer fits the registry are dropped. Restored entries carry
// block 0. A nil document (JSON null), negative uids, unknown contest names and
// records that fail Submission.Validate make the document invalid; an empty
// document is a valid baseline with every slot absent.
func FromDocument(doc Document, registrySize int) (Snapshot, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no records array", ErrInvalidDocument)
	}
	s := New(registrySize)
	for i, r := range doc {
		if r.UID < 0 {
			return nil, fmt.Errorf("%w: record %d has uid %d", ErrInvalidDocument, i, r.UID)
		}
		contest, err := submission.ParseContest(r.Contest)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidDocument, i, err)
		}
		sub := submission.Submission{
			Repository: r.Repository,
			Revision:   r.Revision,
			Contest:    contest,
		}
		if err := sub.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidDocument, i, err)
		}
		if r.UID >= registrySize {
			continue
		}
		s[r.UID] = &Entry{Submission: sub}
	}
	return s, nil
}
