package sms

import "fmt"

// UDHLen is the size of a concatenation user data header with an 8 bit reference.
const UDHLen = 6

// esmClassUDHI marks a short message that starts with a user data header.
const esmClassUDHI = 0x40

// UDH is a concatenated short message header.
type UDH struct {
	Ref   uint8
	Total uint8
	Part  uint8
}

// Bytes returns the header: length, IEI 0x00, IE length, ref, total, part.
func (h UDH) Bytes() []byte {
	return []byte{UDHLen - 1, 0x00, 0x03, h.Ref, h.Total, h.Part}
}

// ParseUDH reads a concatenation header from the start of a message.
func ParseUDH(msg []byte) (UDH, []byte, error) {
	if len(msg) < UDHLen || msg[0] != UDHLen-1 || msg[1] != 0x00 || msg[2] != 0x03 {
		return UDH{}, msg, fmt.Errorf("no concatenation header in % x", msg)
	}
	return UDH{Ref: msg[3], Total: msg[4], Part: msg[5]}, msg[UDHLen:], nil
}
