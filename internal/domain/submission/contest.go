package submission

import "fmt"

// ContestID selects the contest a submission competes in. The ordinal is
// the on-wire value; the name is what baselines and alerts carry.
type ContestID uint16

// Known contests.
const (
	ContestSDXLAppleSilicon       ContestID = 0
	ContestSDXLNewdreamNvidia4090 ContestID = 1
	ContestFluxNvidia4090         ContestID = 2
)

var contestNames = map[ContestID]string{
	ContestSDXLAppleSilicon:       "SDXL_APPLE_SILICON",
	ContestSDXLNewdreamNvidia4090: "SDXL_NEWDREAM_NVIDIA_4090",
	ContestFluxNvidia4090:         "FLUX_NVIDIA_4090",
}

// ContestFromOrdinal maps a wire value to a ContestID.
func ContestFromOrdinal(v uint16) (ContestID, error) {
	c := ContestID(v)
	if !c.Valid() {
		return 0, fmt.Errorf("%w: ordinal %d", ErrUnknownContest, v)
	}
	return c, nil
}

// ParseContest maps a contest name to its ContestID.
func ParseContest(name string) (ContestID, error) {
	for id, n := range contestNames {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: name %q", ErrUnknownContest, name)
}

// Valid reports whether c is a known contest.
func (c ContestID) Valid() bool {
	_, ok := contestNames[c]
	return ok
}

// String returns the contest name, or a placeholder for unknown ordinals.
func (c ContestID) String() string {
	if n, ok := contestNames[c]; ok {
		return n
	}
	return fmt.Sprintf("CONTEST(%d)", uint16(c))
}
