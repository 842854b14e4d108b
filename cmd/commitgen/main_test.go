package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/okian/commitwatch/internal/domain/submission"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
)

func TestCommitgen(t *testing.T) {
	Convey("Given the commitgen command", t, func() {
		var out bytes.Buffer

		Convey("When encoding a current submission", func() {
			err := run([]string{
				"--repository", "https://hf.co/alice/model",
				"--revision", "0123456",
				"--contest", "SDXL_APPLE_SILICON",
			}, &out)

			Convey("Then it should print a payload that decodes back", func() {
				So(err, ShouldBeNil)
				payload := strings.TrimSpace(out.String())
				So(payload, ShouldStartWith, "0x0005")

				out.Reset()
				So(run([]string{"--decode", payload}, &out), ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "version:    5")
				So(out.String(), ShouldContainSubstring, "repository: https://hf.co/alice/model")
				So(out.String(), ShouldContainSubstring, "contest:    SDXL_APPLE_SILICON")
			})
		})

		Convey("When encoding with the legacy layout", func() {
			err := run([]string{
				"--legacy",
				"--repository", "https://hf.co/alice/model",
				"--revision", "main",
			}, &out)

			Convey("Then a long-form revision should be accepted", func() {
				So(err, ShouldBeNil)
				So(strings.TrimSpace(out.String()), ShouldStartWith, "0x0004")
			})
		})

		Convey("When the revision has the wrong length", func() {
			err := run([]string{"--repository", "https://hf.co/alice/model", "--revision", "abc"}, &out)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, submission.ErrInvalidRevision), ShouldBeTrue)
			})
		})

		Convey("When the contest is unknown", func() {
			err := run([]string{"--repository", "https://hf.co/a/b", "--revision", "0123456", "--contest", "NOPE"}, &out)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, submission.ErrUnknownContest), ShouldBeTrue)
			})
		})

		Convey("When decoding something that is not hex", func() {
			err := run([]string{"--decode", "0xzz"}, &out)

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When help is requested", func() {
			err := run([]string{"--help"}, &out)

			Convey("Then usage should be printed", func() {
				So(errors.Is(err, pflag.ErrHelp), ShouldBeTrue)
				So(out.String(), ShouldContainSubstring, "--repository")
			})
		})
	})
}
