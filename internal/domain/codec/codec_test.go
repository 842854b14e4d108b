package codec_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/commitwatch/internal/domain/codec"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEncoder(t *testing.T) {
	Convey("Given an encoder", t, func() {
		e := codec.NewEncoder()

		Convey("When writing a uint16", func() {
			e.WriteUint16(0x0105)

			Convey("Then it should be big-endian", func() {
				So(e.Bytes(), ShouldResemble, []byte{0x01, 0x05})
			})
		})

		Convey("When writing a string", func() {
			err := e.WriteString("hf.co")

			Convey("Then it should carry a one byte length prefix", func() {
				So(err, ShouldBeNil)
				So(e.Bytes(), ShouldResemble, append([]byte{5}, "hf.co"...))
			})
		})

		Convey("When writing a string longer than 255 bytes", func() {
			err := e.WriteString(strings.Repeat("x", 256))

			Convey("Then it should fail and write nothing", func() {
				So(errors.Is(err, codec.ErrStringTooLong), ShouldBeTrue)
				So(e.Bytes(), ShouldBeEmpty)
			})
		})

		Convey("When writing a fixed string of the wrong length", func() {
			err := e.WriteFixedString("abc", 7)

			Convey("Then it should fail", func() {
				So(errors.Is(err, codec.ErrFixedLength), ShouldBeTrue)
			})
		})

		Convey("When writing a fixed string of the right length", func() {
			err := e.WriteFixedString("abcdefg", 7)

			Convey("Then it should be written without a prefix", func() {
				So(err, ShouldBeNil)
				So(string(e.Bytes()), ShouldEqual, "abcdefg")
			})
		})
	})
}

func TestDecoder(t *testing.T) {
	Convey("Given an encoded buffer", t, func() {
		e := codec.NewEncoder()
		e.WriteUint16(5)
		So(e.WriteString("github.com"), ShouldBeNil)
		So(e.WriteFixedString("abcdefg", 7), ShouldBeNil)
		e.WriteUint16(2)

		Convey("When decoding the fields in order", func() {
			d := codec.NewDecoder(e.Bytes())
			version, err1 := d.ReadUint16()
			host, err2 := d.ReadString()
			rev, err3 := d.ReadFixedString(7)
			contest, err4 := d.ReadUint16()

			Convey("Then every field should match and the buffer should be consumed", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(err4, ShouldBeNil)
				So(version, ShouldEqual, 5)
				So(host, ShouldEqual, "github.com")
				So(rev, ShouldEqual, "abcdefg")
				So(contest, ShouldEqual, 2)
				So(d.EOF(), ShouldBeTrue)
				So(d.Remaining(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a truncated buffer", t, func() {
		Convey("When reading a uint16 from one byte", func() {
			_, err := codec.NewDecoder([]byte{0x01}).ReadUint16()

			Convey("Then it should report a malformed record", func() {
				So(errors.Is(err, codec.ErrMalformedRecord), ShouldBeTrue)
			})
		})

		Convey("When a string prefix promises more bytes than remain", func() {
			_, err := codec.NewDecoder([]byte{10, 'a', 'b'}).ReadString()

			Convey("Then it should report a malformed record", func() {
				So(errors.Is(err, codec.ErrMalformedRecord), ShouldBeTrue)
			})
		})

		Convey("When reading a fixed string past the end", func() {
			d := codec.NewDecoder([]byte("abc"))
			_, err := d.ReadFixedString(7)

			Convey("Then it should fail without consuming input", func() {
				So(errors.Is(err, codec.ErrMalformedRecord), ShouldBeTrue)
				So(d.Remaining(), ShouldEqual, 3)
			})
		})

		Convey("When reading from an empty buffer", func() {
			d := codec.NewDecoder(nil)

			Convey("Then it should be at EOF", func() {
				So(d.EOF(), ShouldBeTrue)
				_, err := d.ReadString()
				So(errors.Is(err, codec.ErrMalformedRecord), ShouldBeTrue)
			})
		})
	})

	Convey("Given a string field with invalid utf-8", t, func() {
		d := codec.NewDecoder([]byte{2, 0xff, 0xfe})

		Convey("Then decoding should fail as malformed", func() {
			_, err := d.ReadString()
			So(errors.Is(err, codec.ErrMalformedRecord), ShouldBeTrue)
		})
	})
}
