package sms

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/jimni/smppsend/options"
)

func fixedRef(ref uint8) Builder {
	return Builder{Ref: func() uint8 { return ref }}
}

func config(msg string) options.Config {
	return options.Config{
		SourceAddr:      "from",
		DestinationAddr: "to",
		ESMClass:        0x03,
		DataCoding:      CodingDefault,
		ShortMessage:    []byte(msg),
		UDHTotalParts:   1,
		UDHPartNum:      1,
	}
}

func TestBuildNone(t *testing.T) {
	reqs, err := fixedRef(1).Build(config("hi"))
	if err != nil {
		t.Fatal(err)
	}
	want := []*Request{{
		SourceAddr:      "from",
		DestinationAddr: "to",
		ESMClass:        0x03,
		ShortMessage:    []byte("hi"),
	}}
	if diff := pretty.Diff(reqs, want); len(diff) > 0 {
		t.Errorf("requests:\n%s", strings.Join(diff, "\n"))
	}
}

func TestBuildPayloadTLV(t *testing.T) {
	c := config("ignored")
	c.TLVs = map[uint16][]byte{0x0424: []byte("payload"), 0x0204: {0, 9}}
	reqs, err := fixedRef(1).Build(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 || len(reqs[0].ShortMessage) != 0 {
		t.Fatalf("short_message must be empty with message_payload: %# v", pretty.Formatter(reqs))
	}
	tlvs := reqs[0].TLVs
	if len(tlvs) != 2 || tlvs[0].Tag != 0x0204 || tlvs[1].Tag != 0x0424 {
		t.Errorf("TLVs not ordered by tag: %v", tlvs)
	}
	if string(reqs[0].Body()) != "payload" {
		t.Errorf("body = %q", reqs[0].Body())
	}
}

func TestBuildCustomUDH(t *testing.T) {
	c := config("part two")
	c.UDH = true
	c.UDHRef = 42
	c.UDHTotalParts = 3
	c.UDHPartNum = 2
	reqs, err := fixedRef(7).Build(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 {
		t.Fatalf("got %d requests", len(reqs))
	}
	r := reqs[0]
	if *r.UDH != (UDH{Ref: 42, Total: 3, Part: 2}) {
		t.Errorf("UDH = %+v", *r.UDH)
	}
	want := append([]byte{0x05, 0x00, 0x03, 42, 3, 2}, "part two"...)
	if !bytes.Equal(r.ShortMessage, want) {
		t.Errorf("short_message = % x", r.ShortMessage)
	}
	if r.ESMClass != 0x43 {
		t.Errorf("esm_class = %#x, UDHI must be set", r.ESMClass)
	}
}

func TestBuildConflict(t *testing.T) {
	c := config("x")
	c.UDH = true
	c.SplitMaxBytes = 100
	_, err := fixedRef(1).Build(c)
	var berr *BuildError
	if !errors.As(err, &berr) {
		t.Fatalf("expected BuildError, got %v", err)
	}
}

func TestBuildAutoSplit(t *testing.T) {
	msg := strings.Repeat("abcde", 5) // 25 bytes
	c := config(msg)
	c.SplitMaxBytes = 10
	reqs, err := fixedRef(9).Build(c)
	if err != nil {
		t.Fatal(err)
	}
	// 4 bytes of text per part
	if len(reqs) != 7 {
		t.Fatalf("got %d parts", len(reqs))
	}
	var joined []byte
	for i, r := range reqs {
		h, body, err := ParseUDH(r.ShortMessage)
		if err != nil {
			t.Fatal(err)
		}
		if h != *r.UDH || h.Ref != 9 || int(h.Total) != len(reqs) || int(h.Part) != i+1 {
			t.Errorf("part %d: header %+v", i, h)
		}
		if len(r.ShortMessage) > c.SplitMaxBytes {
			t.Errorf("part %d: %d bytes", i, len(r.ShortMessage))
		}
		joined = append(joined, body...)
	}
	if string(joined) != msg {
		t.Errorf("joined = %q", joined)
	}
}

func TestSplitProperties(t *testing.T) {
	for _, maxBytes := range []int{7, 10, 16, 140} {
		for _, l := range []int{1, 5, 33, 134, 135, 250} {
			payload := bytes.Repeat([]byte{'x'}, l)
			segments, err := AutoSplit{MaxBytes: maxBytes}.Split(payload)
			if err != nil {
				t.Fatalf("max=%d len=%d: %v", maxBytes, l, err)
			}
			limit := maxBytes - UDHLen
			if want := (l + limit - 1) / limit; len(segments) != want {
				t.Errorf("max=%d len=%d: %d segments, want %d", maxBytes, l, len(segments), want)
			}
			total := 0
			for _, s := range segments {
				total += len(s)
			}
			if total != l {
				t.Errorf("max=%d len=%d: segments hold %d bytes", maxBytes, l, total)
			}
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	segments, err := AutoSplit{MaxBytes: 10}.Split(nil)
	if err != nil || len(segments) != 1 || len(segments[0]) != 0 {
		t.Errorf("got %v, %v", segments, err)
	}
}

func TestSplitWide(t *testing.T) {
	text, err := ToUCS2([]byte("a😀b"))
	if err != nil {
		t.Fatal(err)
	}
	// 2 + 4 + 2 bytes; 4 bytes per part must keep the pair whole
	segments, err := AutoSplit{MaxBytes: UDHLen + 5, Wide: true}.Split(text)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{0x00, 'a'}, {0xD8, 0x3D, 0xDE, 0x00}, {0x00, 'b'}}
	if diff := pretty.Diff(segments, want); len(diff) > 0 {
		t.Errorf("segments: %v", diff)
	}

	if _, err = (AutoSplit{MaxBytes: UDHLen + 2, Wide: true}).Split(text); err == nil {
		t.Error("expected error: surrogate pair does not fit")
	}
	if _, err = (AutoSplit{MaxBytes: UDHLen + 1, Wide: true}).Split(text); err == nil {
		t.Error("expected error: no room for one character")
	}
	if _, err = (AutoSplit{MaxBytes: UDHLen + 4, Wide: true}).Split([]byte{0, 'a', 0}); err == nil {
		t.Error("expected error for odd length")
	}
}

func TestSplitLimits(t *testing.T) {
	if _, err := (AutoSplit{MaxBytes: UDHLen}).Split([]byte("x")); err == nil {
		t.Error("expected error when the header fills the part")
	}
	if _, err := (AutoSplit{MaxBytes: UDHLen + 1}).Split(make([]byte, 256)); err == nil {
		t.Error("expected error for more than 255 parts")
	}
}

func TestBuildShortMessageLimit(t *testing.T) {
	wide := config(strings.Repeat("x", 128))
	wide.UCS2 = true
	wide, err := ConvertUCS2(wide)
	if err != nil {
		t.Fatal(err)
	}
	withUDH := config(strings.Repeat("x", MaxShortMessage-UDHLen+1))
	withUDH.UDH = true
	split := config("x")
	split.SplitMaxBytes = MaxShortMessage + 1
	for name, c := range map[string]options.Config{
		"none":  config(strings.Repeat("x", MaxShortMessage+1)),
		"udh":   withUDH,
		"ucs2":  wide,
		"split": split,
	} {
		_, err := fixedRef(1).Build(c)
		var berr *BuildError
		if !errors.As(err, &berr) {
			t.Errorf("%s: expected BuildError, got %v", name, err)
		}
	}

	reqs, err := fixedRef(1).Build(config(strings.Repeat("x", MaxShortMessage)))
	if err != nil || len(reqs[0].ShortMessage) != MaxShortMessage {
		t.Errorf("%d bytes must fit: %v", MaxShortMessage, err)
	}
	long := config("")
	long.TLVs = map[uint16][]byte{0x0424: bytes.Repeat([]byte{'x'}, 1000)}
	long.SplitMaxBytes = 500
	if reqs, err = fixedRef(1).Build(long); err != nil || len(reqs) != 3 {
		t.Errorf("message_payload is not bound by short_message: %d parts, %v", len(reqs), err)
	}
}
