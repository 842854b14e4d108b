// Package submission defines the record a participant publishes as its
// commitment and the versioned layouts used to put it on the wire.
package submission

import (
	"fmt"
	"strings"
)

// RevisionLength is the exact byte length of a revision in the current layout.
const RevisionLength = 7

const locatorScheme = "https://"

// Submission is a participant's claim: a repository, an exact revision in it,
// and the contest it enters. Values are compared with ==.
type Submission struct {
	Repository string
	Revision   string
	Contest    ContestID
}

// Validate checks the invariants the current layout can carry.
func (s Submission) Validate() error {
	if _, _, err := splitRepository(s.Repository); err != nil {
		return err
	}
	if len(s.Revision) != RevisionLength {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidRevision, RevisionLength, len(s.Revision))
	}
	if !s.Contest.Valid() {
		return fmt.Errorf("%w: ordinal %d", ErrUnknownContest, uint16(s.Contest))
	}
	return nil
}

// CommitURL links to the revision inside the repository.
func (s Submission) CommitURL() string {
	return s.Repository + "/commit/" + s.Revision
}

// joinRepository builds the locator the current layout stores in two parts.
func joinRepository(provider, path string) string {
	return locatorScheme + provider + "/" + path
}

// splitRepository is the inverse of joinRepository.
func splitRepository(repository string) (provider, path string, err error) {
	rest, ok := strings.CutPrefix(repository, locatorScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q lacks %s", ErrInvalidRepository, repository, locatorScheme)
	}
	provider, path, ok = strings.Cut(rest, "/")
	if !ok || provider == "" || path == "" {
		return "", "", fmt.Errorf("%w: %q is not %s{provider}/{path}", ErrInvalidRepository, repository, locatorScheme)
	}
	return provider, path, nil
}
