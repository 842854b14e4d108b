package submission

import (
	"fmt"
	"slices"

	"github.com/okian/commitwatch/internal/domain/codec"
)

// Schema versions that have been deployed.
const (
	LegacyVersion  uint16 = 4
	CurrentVersion uint16 = 5

	// SupportedVersion is the only version readers accept. Commitments in any
	// other version are ignored so that upgrades roll out without breaking
	// older or newer readers.
	SupportedVersion = CurrentVersion
)

// Layout is one schema version's field layout. The version tag itself is
// written and read by Encode/Decode, not by the layout.
type Layout interface {
	Version() uint16
	Encode(e *codec.Encoder, s Submission) error
	Decode(d *codec.Decoder) (Submission, error)
}

// LegacyLayout stores the full repository locator and a length-prefixed
// revision of any length.
type LegacyLayout struct{}

// Version implements Layout.
func (LegacyLayout) Version() uint16 { return LegacyVersion }

// Encode implements Layout.
func (LegacyLayout) Encode(e *codec.Encoder, s Submission) error {
	if err := e.WriteString(s.Repository); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	if err := e.WriteString(s.Revision); err != nil {
		return fmt.Errorf("revision: %w", err)
	}
	e.WriteUint16(uint16(s.Contest))
	return nil
}

// Decode implements Layout.
func (LegacyLayout) Decode(d *codec.Decoder) (Submission, error) {
	repository, err := d.ReadString()
	if err != nil {
		return Submission{}, fmt.Errorf("repository: %w", err)
	}
	revision, err := d.ReadString()
	if err != nil {
		return Submission{}, fmt.Errorf("revision: %w", err)
	}
	contest, err := readContest(d)
	if err != nil {
		return Submission{}, err
	}
	return Submission{Repository: repository, Revision: revision, Contest: contest}, nil
}

// CurrentLayout splits the locator into provider and path and fixes the
// revision at RevisionLength bytes.
type CurrentLayout struct{}

// Version implements Layout.
func (CurrentLayout) Version() uint16 { return CurrentVersion }

// Encode implements Layout.
func (CurrentLayout) Encode(e *codec.Encoder, s Submission) error {
	provider, path, err := splitRepository(s.Repository)
	if err != nil {
		return err
	}
	if err := e.WriteString(provider); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := e.WriteString(path); err != nil {
		return fmt.Errorf("path: %w", err)
	}
	if err := e.WriteFixedString(s.Revision, RevisionLength); err != nil {
		return fmt.Errorf("revision: %w", err)
	}
	e.WriteUint16(uint16(s.Contest))
	return nil
}

// Decode implements Layout.
func (CurrentLayout) Decode(d *codec.Decoder) (Submission, error) {
	provider, err := d.ReadString()
	if err != nil {
		return Submission{}, fmt.Errorf("provider: %w", err)
	}
	path, err := d.ReadString()
	if err != nil {
		return Submission{}, fmt.Errorf("path: %w", err)
	}
	revision, err := d.ReadFixedString(RevisionLength)
	if err != nil {
		return Submission{}, fmt.Errorf("revision: %w", err)
	}
	contest, err := readContest(d)
	if err != nil {
		return Submission{}, err
	}
	return Submission{
		Repository: joinRepository(provider, path),
		Revision:   revision,
		Contest:    contest,
	}, nil
}

var layouts = map[uint16]Layout{
	LegacyVersion:  LegacyLayout{},
	CurrentVersion: CurrentLayout{},
}

// LayoutFor returns the layout registered for version.
func LayoutFor(version uint16) (Layout, error) {
	l, ok := layouts[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchemaVersion, version)
	}
	return l, nil
}

// Encode writes the version tag followed by s in layout l.
func Encode(l Layout, s Submission) ([]byte, error) {
	e := codec.NewEncoder()
	e.WriteUint16(l.Version())
	if err := l.Encode(e, s); err != nil {
		return nil, fmt.Errorf("encode v%d: %w", l.Version(), err)
	}
	return e.Bytes(), nil
}

// Decode reads the version tag from data and decodes exactly one record with
// the matching layout. Versions outside accepted are rejected before any
// field is read. Trailing bytes after the record are ignored.
func Decode(data []byte, accepted ...uint16) (Submission, uint16, error) {
	d := codec.NewDecoder(data)
	version, err := d.ReadUint16()
	if err != nil {
		return Submission{}, 0, fmt.Errorf("schema version: %w", err)
	}
	if !slices.Contains(accepted, version) {
		return Submission{}, version, fmt.Errorf("%w: %d", ErrUnsupportedSchemaVersion, version)
	}
	l, err := LayoutFor(version)
	if err != nil {
		return Submission{}, version, err
	}
	s, err := l.Decode(d)
	if err != nil {
		return Submission{}, version, fmt.Errorf("decode v%d: %w", version, err)
	}
	return s, version, nil
}

func readContest(d *codec.Decoder) (ContestID, error) {
	v, err := d.ReadUint16()
	if err != nil {
		return 0, fmt.Errorf("contest: %w", err)
	}
	c, err := ContestFromOrdinal(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", codec.ErrMalformedRecord, err)
	}
	return c, nil
}
