package sms

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// esmClassReceipt marks a deliver_sm that carries a delivery receipt.
const esmClassReceipt = 0x04

// IsReceipt reports whether a deliver_sm esm_class denotes a delivery receipt.
func IsReceipt(esmClass uint8) bool {
	return esmClass&esmClassReceipt != 0
}

// Receipt is a parsed delivery receipt.
type Receipt struct {
	ID     string    // message identifier given in submit_sm_resp
	Sub    int       // number of parts submitted
	Dlvrd  int       // number of parts delivered
	Submit time.Time // submit date
	Done   time.Time // date the message reached its final state
	Stat   string    // final message state
	Err    int       // network error code
	Text   string
}

// reStatus describes the receipt text of SMPP 3.4 appendix B. Everything but
// the id is optional, SMSCs differ a lot here.
var reStatus = regexp.MustCompile(`(?i)^\s*id:(\S+)` +
	`(?:\s+sub:(\d+))?(?:\s+dlvrd:(\d+))?` +
	`(?:\s+submit date:(\d+))?(?:\s+done date:(\d+))?` +
	`(?:\s+stat:(\w+))?(?:\s+err:(\d+))?` +
	`(?:\s+text:(.*?))?\s*$`)

const statusTimeFormat = `0601021504` // receipt date format
const statusTimeFormatSec = `060102150405`

// ParseReceipt parses the text of a delivery receipt.
func ParseReceipt(text []byte) (Receipt, error) {
	parts := reStatus.FindStringSubmatch(string(text))
	if parts == nil {
		return Receipt{}, fmt.Errorf("not a delivery receipt: %q", text)
	}
	status := Receipt{
		ID:   parts[1],
		Stat: parts[6],
		Text: parts[8],
	}
	status.Sub, _ = strconv.Atoi(parts[2])
	status.Dlvrd, _ = strconv.Atoi(parts[3])
	status.Submit = parseStatusTime(parts[4])
	status.Done = parseStatusTime(parts[5])
	status.Err, _ = strconv.Atoi(parts[7])
	return status, nil
}

func parseStatusTime(s string) time.Time {
	layout := statusTimeFormat
	if len(s) == len(statusTimeFormatSec) {
		layout = statusTimeFormatSec
	}
	t, _ := time.Parse(layout, s)
	return t
}

// messageStates are the receipt stat values of the message_state codes.
var messageStates = map[uint8]string{
	1: "ENROUTE",
	2: "DELIVRD",
	3: "EXPIRED",
	4: "DELETED",
	5: "UNDELIV",
	6: "ACCEPTD",
	7: "UNKNOWN",
	8: "REJECTD",
}

// StateName returns the receipt stat of a message_state code.
func StateName(state uint8) string {
	if name, ok := messageStates[state]; ok {
		return name
	}
	return fmt.Sprintf("STATE%d", state)
}
