package sms

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jimni/smppsend/options"
)

func TestToUCS2(t *testing.T) {
	for _, test := range []struct {
		text string
		want []byte
	}{
		{"", []byte{}},
		{"hi", []byte{0x00, 'h', 0x00, 'i'}},
		{"Тест", []byte{0x04, 0x22, 0x04, 0x35, 0x04, 0x41, 0x04, 0x42}},
		{"😀", []byte{0xD8, 0x3D, 0xDE, 0x00}},
	} {
		got, err := ToUCS2([]byte(test.text))
		if err != nil {
			t.Errorf("%q: %v", test.text, err)
			continue
		}
		if !bytes.Equal(got, test.want) {
			t.Errorf("%q: got % x, want % x", test.text, got, test.want)
		}
		again, _ := ToUCS2([]byte(test.text))
		if !bytes.Equal(got, again) {
			t.Errorf("%q: conversion is not stable", test.text)
		}
		if back := Decode(CodingUCS2, got); back != test.text {
			t.Errorf("%q: decoded back to %q", test.text, back)
		}
	}
	if _, err := ToUCS2([]byte{'a', 0xff, 0xfe}); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}

func TestConvertUCS2(t *testing.T) {
	c := options.Config{
		UCS2:         true,
		ShortMessage: []byte("ok"),
		TLVs:         map[uint16][]byte{0x0424: []byte("p"), 0x0204: {0, 1}},
	}
	converted, err := ConvertUCS2(c)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(converted.ShortMessage, []byte{0, 'o', 0, 'k'}) {
		t.Errorf("short_message = % x", converted.ShortMessage)
	}
	if !bytes.Equal(converted.TLVs[0x0424], []byte{0, 'p'}) {
		t.Errorf("message_payload = % x", converted.TLVs[0x0424])
	}
	if !bytes.Equal(converted.TLVs[0x0204], []byte{0, 1}) {
		t.Error("other TLVs must not change")
	}
	if string(c.ShortMessage) != "ok" || string(c.TLVs[0x0424]) != "p" {
		t.Error("input config modified")
	}

	c.TLVs[0x0424] = []byte{0xc3}
	_, err = ConvertUCS2(c)
	var eerr *EncodingError
	if !errors.As(err, &eerr) || eerr.Field != "message_payload" {
		t.Errorf("expected message_payload EncodingError, got %v", err)
	}

	c.UCS2 = false
	same, err := ConvertUCS2(c)
	if err != nil || !bytes.Equal(same.TLVs[0x0424], []byte{0xc3}) {
		t.Error("conversion without the ucs2 flag must be a no-op")
	}
}

func TestDecode(t *testing.T) {
	if got := Decode(CodingLatin1, []byte{'c', 0xe9}); got != "cé" {
		t.Errorf("latin1 = %q", got)
	}
	if got := Decode(CodingDefault, []byte("plain")); got != "plain" {
		t.Errorf("default = %q", got)
	}
}
