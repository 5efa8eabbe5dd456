package sms

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/jimni/smppsend/options"
	"github.com/jimni/smppsend/tlv"
)

// TLV is an optional parameter of a request.
type TLV struct {
	Tag   uint16
	Value []byte
}

// Request is one submit_sm ready to be sent.
type Request struct {
	ServiceType          string
	SourceAddrTON        uint8
	SourceAddrNPI        uint8
	SourceAddr           string
	DestAddrTON          uint8
	DestAddrNPI          uint8
	DestinationAddr      string
	ESMClass             uint8
	ProtocolID           uint8
	PriorityFlag         uint8
	ScheduleDeliveryTime string
	ValidityPeriod       string
	RegisteredDelivery   uint8
	ReplaceIfPresentFlag uint8
	DataCoding           uint8
	SMDefaultMsgID       uint8
	ShortMessage         []byte
	TLVs                 []TLV // ordered by tag
	UDH                  *UDH  // header the message body starts with, if any
}

// MaxShortMessage is the most short_message can carry: sm_length is one
// octet and SMPP 3.4 reserves 255.
const MaxShortMessage = 254

// BuildError reports options that can not produce requests.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string { return e.Reason }

// Strategy is how the message body is laid out over requests: None,
// CustomUDH or AutoSplit.
type Strategy interface {
	parts(payload []byte) ([][]byte, []*UDH, error)
}

// None sends the body as is in one request.
type None struct{}

func (None) parts(payload []byte) ([][]byte, []*UDH, error) {
	return [][]byte{payload}, []*UDH{nil}, nil
}

// CustomUDH sends the body in one request behind the given header.
type CustomUDH struct {
	Header UDH
}

func (s CustomUDH) parts(payload []byte) ([][]byte, []*UDH, error) {
	h := s.Header
	return [][]byte{payload}, []*UDH{&h}, nil
}

// AutoSplit cuts the body into parts of at most MaxBytes, header included.
// With Wide set the body is UTF-16BE and parts never split a character.
type AutoSplit struct {
	MaxBytes int
	Ref      uint8
	Wide     bool
}

func (s AutoSplit) parts(payload []byte) ([][]byte, []*UDH, error) {
	segments, err := s.Split(payload)
	if err != nil {
		return nil, nil, err
	}
	headers := make([]*UDH, len(segments))
	for i := range segments {
		headers[i] = &UDH{Ref: s.Ref, Total: uint8(len(segments)), Part: uint8(i + 1)}
	}
	return segments, headers, nil
}

// Split partitions payload. An empty payload gives one empty segment.
func (s AutoSplit) Split(payload []byte) ([][]byte, error) {
	limit := s.MaxBytes - UDHLen
	unit := 1
	if s.Wide {
		unit = 2
	}
	if limit < unit {
		return nil, &BuildError{Reason: fmt.Sprintf(
			"split-max-bytes %d leaves no room for text after the %d byte header", s.MaxBytes, UDHLen)}
	}
	if len(payload)%unit != 0 {
		return nil, &BuildError{Reason: fmt.Sprintf("ucs2 payload has odd length %d", len(payload))}
	}
	if len(payload) == 0 {
		return [][]byte{{}}, nil
	}
	var segments [][]byte
	for offset := 0; offset < len(payload); {
		n := len(payload) - offset
		if n > limit {
			n = limit
		}
		if s.Wide {
			n -= n % 2
			end := offset + n
			if end < len(payload) && isHighSurrogate(payload[end-2:end]) {
				n -= 2 // keep the surrogate pair together
			}
		}
		if n == 0 {
			return nil, &BuildError{Reason: fmt.Sprintf(
				"character at offset %d does not fit into %d bytes", offset, limit)}
		}
		segments = append(segments, payload[offset:offset+n:offset+n])
		offset += n
	}
	if len(segments) > 0xff {
		return nil, &BuildError{Reason: fmt.Sprintf("message needs %d parts, at most 255 allowed", len(segments))}
	}
	return segments, nil
}

func isHighSurrogate(b []byte) bool {
	u := uint16(b[0])<<8 | uint16(b[1])
	return u >= 0xD800 && u <= 0xDBFF
}

// SelectStrategy picks the layout from the control options. --udh and
// --split-max-bytes exclude each other.
func SelectStrategy(c options.Config, ref uint8) (Strategy, error) {
	switch {
	case c.UDH && c.SplitMaxBytes > 0:
		return nil, &BuildError{Reason: "--udh and --split-max-bytes can not be used together"}
	case c.UDH:
		return CustomUDH{Header: UDH{Ref: c.UDHRef, Total: c.UDHTotalParts, Part: c.UDHPartNum}}, nil
	case c.SplitMaxBytes > MaxShortMessage && !hasPayload(c):
		return nil, &BuildError{Reason: fmt.Sprintf(
			"--split-max-bytes %d exceeds the %d bytes of short_message; use --message-payload", c.SplitMaxBytes, MaxShortMessage)}
	case c.SplitMaxBytes > 0:
		return AutoSplit{MaxBytes: c.SplitMaxBytes, Ref: ref, Wide: c.UCS2 || c.DataCoding == CodingUCS2}, nil
	}
	return None{}, nil
}

func hasPayload(c options.Config) bool {
	tag, _ := tlv.IDByName(tlv.MessagePayload)
	_, ok := c.TLVs[tag]
	return ok
}

// Builder produces the requests of one invocation.
type Builder struct {
	// Ref returns the reference of an automatic split; random when nil.
	Ref func() uint8
}

// Build selects the strategy and lays the message out over requests. The
// body is message_payload when given, short_message otherwise.
func (b Builder) Build(c options.Config) ([]*Request, error) {
	ref := b.Ref
	if ref == nil {
		ref = func() uint8 { return uint8(rand.Intn(0xff) + 1) }
	}
	strategy, err := SelectStrategy(c, ref())
	if err != nil {
		return nil, err
	}
	return Build(c, strategy)
}

// Build lays the message of c out over requests with the given strategy.
func Build(c options.Config, strategy Strategy) ([]*Request, error) {
	payloadTag, _ := tlv.IDByName(tlv.MessagePayload)
	payload, inTLV := c.TLVs[payloadTag]
	if !inTLV {
		payload = c.ShortMessage
	}
	segments, headers, err := strategy.parts(payload)
	if err != nil {
		return nil, err
	}
	tags := make([]int, 0, len(c.TLVs))
	for tag := range c.TLVs {
		tags = append(tags, int(tag))
	}
	sort.Ints(tags)

	requests := make([]*Request, len(segments))
	for i, segment := range segments {
		body := segment
		if h := headers[i]; h != nil {
			body = append(h.Bytes(), segment...)
		}
		r := newRequest(c)
		r.UDH = headers[i]
		if r.UDH != nil {
			r.ESMClass |= esmClassUDHI
		}
		if !inTLV {
			if len(body) > MaxShortMessage {
				return nil, &BuildError{Reason: fmt.Sprintf(
					"short_message is %d bytes, at most %d; use --message-payload or --split-max-bytes", len(body), MaxShortMessage)}
			}
			r.ShortMessage = body
		}
		for _, tag := range tags {
			value := c.TLVs[uint16(tag)]
			if uint16(tag) == payloadTag {
				value = body
			}
			r.TLVs = append(r.TLVs, TLV{Tag: uint16(tag), Value: value})
		}
		requests[i] = r
	}
	return requests, nil
}

func newRequest(c options.Config) *Request {
	return &Request{
		ServiceType:          c.ServiceType,
		SourceAddrTON:        c.SourceAddrTON,
		SourceAddrNPI:        c.SourceAddrNPI,
		SourceAddr:           c.SourceAddr,
		DestAddrTON:          c.DestAddrTON,
		DestAddrNPI:          c.DestAddrNPI,
		DestinationAddr:      c.DestinationAddr,
		ESMClass:             c.ESMClass,
		ProtocolID:           c.ProtocolID,
		PriorityFlag:         c.PriorityFlag,
		ScheduleDeliveryTime: c.ScheduleDeliveryTime,
		ValidityPeriod:       c.ValidityPeriod,
		RegisteredDelivery:   c.RegisteredDelivery,
		ReplaceIfPresentFlag: c.ReplaceIfPresentFlag,
		DataCoding:           c.DataCoding,
		SMDefaultMsgID:       c.SMDefaultMsgID,
		ShortMessage:         []byte{},
	}
}

// Body returns the message body of r: short_message or message_payload.
func (r *Request) Body() []byte {
	payloadTag, _ := tlv.IDByName(tlv.MessagePayload)
	for _, t := range r.TLVs {
		if t.Tag == payloadTag {
			return t.Value
		}
	}
	return r.ShortMessage
}
