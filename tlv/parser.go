package tlv

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// genericPrefix starts a parameter given by its numeric tag: tlv_<tag>_<type>.
const genericPrefix = "tlv_"

// Option is a name/value pair that is not part of the fixed option schema.
// Names use the underscored form (message_payload, tlv_0x1403_int8).
type Option struct {
	Name  string
	Value string
}

// ResolveError reports a recognized parameter with a value that can not be encoded.
type ResolveError struct {
	Name string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Parse converts one option into a tag and an encoded value. The ok result is
// false when the name does not denote an optional parameter.
func Parse(name, value string) (tag uint16, data []byte, ok bool, err error) {
	var typ Type
	if e, found := byName[name]; found {
		tag, typ = e.Tag, e.Type
	} else if strings.HasPrefix(name, genericPrefix) {
		tag, typ, err = parseGeneric(strings.TrimPrefix(name, genericPrefix))
		if err != nil {
			return 0, nil, true, err
		}
	} else {
		return 0, nil, false, nil
	}
	data, err = Encode(typ, value)
	return tag, data, true, err
}

// Resolve parses all options. Options that are not optional parameters are
// returned in unknown, in their original order. The first value that fails to
// encode stops the resolution with a *ResolveError. A later value for the same
// tag replaces an earlier one.
func Resolve(opts []Option) (tlvs map[uint16][]byte, unknown []string, err error) {
	tlvs = make(map[uint16][]byte)
	for _, opt := range opts {
		tag, data, ok, err := Parse(opt.Name, opt.Value)
		if !ok {
			unknown = append(unknown, opt.Name)
			continue
		}
		if err != nil {
			return nil, nil, &ResolveError{Name: opt.Name, Err: err}
		}
		tlvs[tag] = data
	}
	return tlvs, unknown, nil
}

// parseGeneric parses "<tag>_<type>" where tag is decimal or 0x-prefixed hex.
func parseGeneric(form string) (uint16, Type, error) {
	i := strings.LastIndexByte(form, '_')
	if i <= 0 {
		return 0, 0, fmt.Errorf("expected tlv-<tag>-<type>, got %q", form)
	}
	tag, err := strconv.ParseUint(form[:i], 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad tag %q", form[:i])
	}
	for typ, name := range typeNames {
		if name == form[i+1:] {
			return uint16(tag), typ, nil
		}
	}
	return 0, 0, fmt.Errorf("unknown value type %q", form[i+1:])
}

// Encode converts a textual value to the bytes of the given type.
func Encode(typ Type, value string) ([]byte, error) {
	switch typ {
	case Octets:
		return []byte(value), nil
	case CString:
		return append([]byte(value), 0), nil
	case Hex:
		data, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("bad hex value %q", value)
		}
		return data, nil
	case Int8, Int16, Int32:
		bits := map[Type]int{Int8: 8, Int16: 16, Int32: 32}[typ]
		n, err := strconv.ParseUint(value, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("bad %s value %q", typ, value)
		}
		data := make([]byte, bits/8)
		switch typ {
		case Int8:
			data[0] = byte(n)
		case Int16:
			binary.BigEndian.PutUint16(data, uint16(n))
		case Int32:
			binary.BigEndian.PutUint32(data, uint32(n))
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported value type %d", typ)
}
