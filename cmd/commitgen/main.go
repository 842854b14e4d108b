// commitgen builds the hex payload a miner publishes as its commitment, and
// decodes payloads read back from the ledger.
//
//	commitgen --repository https://hf.co/alice/model --revision 0123456 --contest FLUX_NVIDIA_4090
//	commitgen --decode 0x0500...
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/okian/commitwatch/internal/domain/submission"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		repository string
		revision   string
		contest    string
		legacy     bool
		decode     string
	)

	flagSet := pflag.NewFlagSet("commitgen", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&repository, "repository", "", "repository locator, e.g. https://hf.co/alice/model")
	flagSet.StringVar(&revision, "revision", "", "commit revision of the repository")
	flagSet.StringVar(&contest, "contest", submission.ContestFluxNvidia4090.String(), "contest name")
	flagSet.BoolVar(&legacy, "legacy", false, "encode with the legacy schema version")
	flagSet.StringVar(&decode, "decode", "", "decode a hex payload instead of encoding one")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if decode != "" {
		return decodePayload(out, decode)
	}

	id, err := submission.ParseContest(contest)
	if err != nil {
		return err
	}
	s := submission.Submission{Repository: repository, Revision: revision, Contest: id}

	var layout submission.Layout = submission.LegacyLayout{}
	if !legacy {
		// The legacy layout takes revisions of any length.
		if err := s.Validate(); err != nil {
			return err
		}
		layout = submission.CurrentLayout{}
	}
	data, err := submission.Encode(layout, s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "0x%s\n", hex.EncodeToString(data))
	return err
}

func decodePayload(out io.Writer, payload string) error {
	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(payload), "0x"))
	if err != nil {
		return fmt.Errorf("bad hex: %w", err)
	}
	s, version, err := submission.Decode(data, submission.LegacyVersion, submission.CurrentVersion)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "version:    %d\nrepository: %s\nrevision:   %s\ncontest:    %s\n",
		version, s.Repository, s.Revision, s.Contest)
	return err
}
