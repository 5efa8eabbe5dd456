package options

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jimni/smppsend/tlv"
)

// ParseProfile reads option values from a YAML mapping. Keys are option names
// in dashed or underscored form, values are scalars:
//
//	host: smsc.example.com
//	port: 2775
//	system_id: user
//	registered-delivery: 1
//	user_message_reference: 0x10
func ParseProfile(data []byte) (RawOptions, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawOptions{}, err
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	raw := RawOptions{Values: make(map[string]string, len(doc))}
	fs := newFlagSet(new(Config))
	var bad []string
	for _, name := range names {
		var value string
		switch v := doc[name].(type) {
		case string:
			value = v
		case int, int64, uint64, bool, float64:
			value = fmt.Sprint(v)
		case nil:
		default:
			bad = append(bad, Dashed(name))
			continue
		}
		key := flagName(name)
		if key == "config" {
			bad = append(bad, Dashed(name))
			continue
		}
		if fs.Lookup(key) == nil {
			raw.Extra = append(raw.Extra, tlv.Option{Name: fieldName(name), Value: value})
			continue
		}
		if err := fs.Set(key, value); err != nil {
			bad = append(bad, Dashed(key))
			continue
		}
		raw.Values[key] = value
	}
	if len(bad) > 0 {
		return raw, &UsageError{Reason: "invalid profile options", Keys: bad}
	}
	return raw, nil
}

// LoadProfile loads and parses a profile file.
func LoadProfile(filename string) (RawOptions, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return RawOptions{}, &UsageError{Reason: "profile", Keys: []string{Dashed("config")}, Err: err}
	}
	raw, err := ParseProfile(data)
	if err != nil {
		if _, ok := err.(*UsageError); ok {
			return raw, err
		}
		return raw, &UsageError{Reason: "profile", Keys: []string{Dashed("config")}, Err: err}
	}
	return raw, nil
}
