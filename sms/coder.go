package sms

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jimni/smppsend/options"
	"github.com/jimni/smppsend/tlv"
)

// data_coding values
const (
	CodingDefault = 0x00
	CodingLatin1  = 0x03
	CodingUCS2    = 0x08
)

// EncodingError reports a field that could not be converted to UCS-2.
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("convert %s to ucs2: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ucs2 is UTF-16 big endian without byte order mark.
var ucs2 = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// ToUCS2 converts UTF-8 text to UTF-16BE. Invalid UTF-8 is an error rather
// than being replaced.
func ToUCS2(text []byte) ([]byte, error) {
	if !utf8.Valid(text) {
		return nil, fmt.Errorf("invalid UTF-8 text %q", text)
	}
	es, _, err := transform.Bytes(ucs2.NewEncoder(), text)
	if err != nil {
		return nil, err
	}
	return es, nil
}

// ConvertUCS2 returns a copy of c whose short_message and message_payload are
// converted to UCS-2 when the ucs2 flag is set. Otherwise c is returned as is.
func ConvertUCS2(c options.Config) (options.Config, error) {
	if !c.UCS2 {
		return c, nil
	}
	c = c.Clone()
	text, err := ToUCS2(c.ShortMessage)
	if err != nil {
		return c, &EncodingError{Field: "short_message", Err: err}
	}
	c.ShortMessage = text
	tag, _ := tlv.IDByName(tlv.MessagePayload)
	if payload, ok := c.TLVs[tag]; ok {
		text, err := ToUCS2(payload)
		if err != nil {
			return c, &EncodingError{Field: tlv.MessagePayload, Err: err}
		}
		c.TLVs[tag] = text
	}
	return c, nil
}

// Decode converts received text in the given data_coding to a string for logs.
func Decode(code uint8, text []byte) string {
	switch code {
	case CodingUCS2:
		es, _, err := transform.Bytes(ucs2.NewDecoder(), text)
		if err != nil {
			return fmt.Sprintf("%x", text)
		}
		return string(es)
	case CodingLatin1:
		es, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), text)
		if err != nil {
			return fmt.Sprintf("%x", text)
		}
		return string(es)
	default:
		return string(text)
	}
}
