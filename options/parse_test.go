package options

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kr/pretty"
)

var base = []string{
	"--bind-mode", "tx", "--host", "h", "--port", "2775",
	"--system-id", "u", "--password", "p",
}

func args(extra ...string) []string {
	return append(append([]string(nil), base...), extra...)
}

func usageError(t *testing.T, err error) *UsageError {
	t.Helper()
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UsageError, got %v", err)
	}
	return uerr
}

func TestParse(t *testing.T) {
	c, err := Parse(args("--submit-sm", "--short-message", "hi", "--esm-class=0x40",
		"--registered-delivery", "1", "--wait-dlrs", "5", "--user-message-reference", "7"))
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		BindMode:           BindTransmitter,
		Host:               "h",
		Port:               2775,
		SystemID:           "u",
		Password:           "p",
		InterfaceVersion:   0x34,
		ESMClass:           0x40,
		RegisteredDelivery: 1,
		ShortMessage:       []byte("hi"),
		TLVs:               map[uint16][]byte{0x0204: {0, 7}},
		SubmitSM:           true,
		UDHTotalParts:      1,
		UDHPartNum:         1,
		WaitDLRs:           5 * time.Second,
		EnquireLink:        30 * time.Second,
		BindTimeout:        10 * time.Second,
		SubmitTimeout:      30 * time.Second,
	}
	if diff := pretty.Diff(c, want); len(diff) > 0 {
		t.Errorf("config mismatch:\n%s", strings.Join(diff, "\n"))
	}
	if c.Addr() != "h:2775" {
		t.Errorf("Addr() = %q", c.Addr())
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse(args())
	if err != nil {
		t.Fatal(err)
	}
	if c.SubmitSM || c.UDH || c.UCS2 || c.Wait || c.BindMode != BindTransmitter {
		t.Errorf("unexpected defaults: %# v", pretty.Formatter(c))
	}
	if c.UDHTotalParts != 1 || c.UDHPartNum != 1 || c.UDHRef != 0 || len(c.ShortMessage) != 0 {
		t.Errorf("unexpected UDH defaults: %# v", pretty.Formatter(c))
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse(args("--no_such-option", "1", "--other", "2"))
	uerr := usageError(t, err)
	if got := strings.Join(uerr.Keys, " "); got != "--no-such-option --other" {
		t.Errorf("keys = %q", got)
	}
	if !strings.Contains(err.Error(), "--no-such-option") {
		t.Errorf("diagnostic %q does not name the option", err)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(args("--port", "x", "stray", "--esm-class", "300", "--split-max-bytes"))
	uerr := usageError(t, err)
	want := []string{"--port", `"stray"`, "--esm-class", "--split-max-bytes"}
	if diff := pretty.Diff(uerr.Keys, want); len(diff) > 0 {
		t.Errorf("keys: %v", diff)
	}
}

func TestParseMissingValue(t *testing.T) {
	_, err := Parse(args("--short-message", "--submit-sm", "--source-port", "--ucs2"))
	uerr := usageError(t, err)
	want := []string{"--short-message", "--source-port"}
	if diff := pretty.Diff(uerr.Keys, want); len(diff) > 0 {
		t.Errorf("keys: %v", diff)
	}

	c, err := Parse(args("--short-message=--submit-sm"))
	if err != nil {
		t.Fatal(err)
	}
	if string(c.ShortMessage) != "--submit-sm" || c.SubmitSM {
		t.Errorf("short_message = %q, submit_sm = %v", c.ShortMessage, c.SubmitSM)
	}
}

func TestParseBadTLV(t *testing.T) {
	_, err := Parse(args("--source-port", "port"))
	uerr := usageError(t, err)
	if len(uerr.Keys) != 1 || uerr.Keys[0] != "--source-port" || uerr.Err == nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParseMissing(t *testing.T) {
	_, err := Parse([]string{"--host", "h", "--port", "1", "--system-id", "u"})
	uerr := usageError(t, err)
	if len(uerr.Keys) != 1 || uerr.Keys[0] != "--password" {
		t.Errorf("missing keys = %v", uerr.Keys)
	}
}

func TestParseHelp(t *testing.T) {
	c, err := Parse([]string{"--help"})
	if !errors.Is(err, ErrHelp) || !c.Help {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	// help wins over missing options but not over malformed ones
	if _, err = Parse([]string{"--help", "--port", "x"}); errors.Is(err, ErrHelp) {
		t.Error("malformed options must fail before help")
	}
}

func TestSetDefaults(t *testing.T) {
	given := map[string]string{"bind-mode": "trx", "udh-total-parts": "3", "host": "h"}
	once := SetDefaults(given)
	if once["bind-mode"] != "trx" || once["udh-total-parts"] != "3" {
		t.Errorf("defaults replaced given values: %v", once)
	}
	if once["esm-class"] != "0" || once["submit-sm"] != "false" {
		t.Errorf("defaults not applied: %v", once)
	}
	twice := SetDefaults(once)
	if diff := pretty.Diff(once, twice); len(diff) > 0 {
		t.Errorf("not idempotent: %v", diff)
	}
	if len(given) != 3 {
		t.Error("input modified")
	}
}

func TestProfile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "smsc.yaml")
	profile := []byte("host: profile-host\nport: 2776\nsystem_id: u\npassword: p\n" +
		"registered-delivery: 1\nmessage_payload: from-profile\n")
	if err := os.WriteFile(file, profile, 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Parse([]string{"--config", file, "--host", "cli-host", "--message-payload", "from-cli"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Host != "cli-host" || c.Port != 2776 || c.RegisteredDelivery != 1 {
		t.Errorf("unexpected merge: host=%q port=%d rd=%d", c.Host, c.Port, c.RegisteredDelivery)
	}
	if got := string(c.TLVs[0x0424]); got != "from-cli" {
		t.Errorf("message_payload = %q", got)
	}

	if _, err := ParseProfile([]byte("port: [1, 2]\n")); err == nil {
		t.Error("expected error for a list value")
	}
	_, err = Parse([]string{"--config", filepath.Join(dir, "missing.yaml")})
	usageError(t, err)
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf)
	for _, s := range []string{"--bind-mode", "--wait-dlrs", "--message-payload", "--tlv-TAG-TYPE"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("usage does not mention %s", s)
		}
	}
}
