package options

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jimni/smppsend/tlv"
)

// ErrHelp is returned by Parse when --help is given.
var ErrHelp = errors.New("help requested")

// UsageError reports malformed, unknown or missing options. Keys hold the
// offending options in their dashed form.
type UsageError struct {
	Reason string
	Keys   []string
	Err    error
}

func (e *UsageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if len(e.Keys) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Keys, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UsageError) Unwrap() error { return e.Err }

// RawOptions holds option values as given, before defaulting.
type RawOptions struct {
	Values map[string]string // schema options by dashed name
	Extra  []tlv.Option      // everything else, in order of appearance
}

// Parse runs the option pipeline: tokenizing, profile merge, TLV conversion,
// unknown option check, defaulting, help and required option checks.
func Parse(args []string) (Config, error) {
	raw, err := Tokenize(args)
	if err != nil {
		return Config{}, err
	}
	if file := raw.Values["config"]; file != "" {
		profile, err := LoadProfile(file)
		if err != nil {
			return Config{}, err
		}
		raw = raw.Merge(profile)
	}
	tlvs, unknown, err := tlv.Resolve(raw.Extra)
	if err != nil {
		var rerr *tlv.ResolveError
		if errors.As(err, &rerr) {
			return Config{}, &UsageError{Reason: "bad value", Keys: []string{Dashed(rerr.Name)}, Err: rerr.Err}
		}
		return Config{}, &UsageError{Reason: "bad value", Err: err}
	}
	if len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, name := range unknown {
			keys[i] = Dashed(name)
		}
		return Config{}, &UsageError{Reason: "unknown options", Keys: keys}
	}
	values := SetDefaults(raw.Values)
	if help, _ := strconv.ParseBool(values["help"]); help {
		return Config{Help: true}, ErrHelp
	}
	var missing []string
	for _, name := range required {
		if _, ok := values[name]; !ok {
			missing = append(missing, Dashed(name))
		}
	}
	if len(missing) > 0 {
		return Config{}, &UsageError{Reason: "missing required options", Keys: missing}
	}
	return build(values, tlvs)
}

// Tokenize splits args into schema options and the rest. Values of schema
// options are checked against their type. Every malformed option and every
// positional argument is reported in one UsageError.
func Tokenize(args []string) (RawOptions, error) {
	raw := RawOptions{Values: make(map[string]string)}
	fs := newFlagSet(new(Config))
	var bad []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			bad = append(bad, strconv.Quote(arg))
			continue
		}
		name, value, hasValue := strings.Cut(arg[2:], "=")
		key := flagName(name)
		f := fs.Lookup(key)
		if !hasValue {
			if f != nil && isBoolFlag(f) {
				value = "true"
			} else if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				i++
				value = args[i]
			} else { // a value starting with -- needs --name=value
				bad = append(bad, Dashed(key))
				continue
			}
		}
		if f == nil {
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
		return raw, &UsageError{Reason: "invalid options", Keys: bad}
	}
	return raw, nil
}

// Merge adds the options of other that r does not have. Values of r win.
func (r RawOptions) Merge(other RawOptions) RawOptions {
	merged := RawOptions{Values: make(map[string]string, len(r.Values)+len(other.Values))}
	for name, value := range other.Values {
		merged.Values[name] = value
	}
	for name, value := range r.Values {
		merged.Values[name] = value
	}
	// later TLV values replace earlier ones, so ours go last
	merged.Extra = append(append(merged.Extra, other.Extra...), r.Extra...)
	return merged
}

// SetDefaults returns a copy of values with the default table merged into
// missing keys. It never replaces a given value.
func SetDefaults(values map[string]string) map[string]string {
	merged := make(map[string]string, len(values)+len(defaults))
	for name, value := range defaults {
		merged[name] = value
	}
	for name, value := range values {
		merged[name] = value
	}
	return merged
}

func build(values map[string]string, tlvs map[uint16][]byte) (Config, error) {
	var c Config
	fs := newFlagSet(&c)
	for name, value := range values {
		if err := fs.Set(name, value); err != nil {
			return Config{}, &UsageError{Reason: "invalid options", Keys: []string{Dashed(name)}, Err: err}
		}
	}
	c.TLVs = tlvs
	return c, nil
}
