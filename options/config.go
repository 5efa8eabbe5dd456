// Package options turns command line arguments into a validated Config.
package options

import (
	"net"
	"strconv"
	"time"
)

// Bind modes.
const (
	BindTransmitter = "tx"
	BindReceiver    = "rx"
	BindTransceiver = "trx"
)

// Config is the validated and defaulted result of Parse.
type Config struct {
	// session
	BindMode         string
	Host             string
	Port             uint16
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion uint8
	AddrTON          uint8
	AddrNPI          uint8
	AddressRange     string

	// submit_sm fields
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
	TLVs                 map[uint16][]byte // optional parameters by tag

	// control
	SubmitSM      bool
	SplitMaxBytes int // 0 when splitting is off
	UDH           bool
	UDHRef        uint8
	UDHTotalParts uint8
	UDHPartNum    uint8
	UCS2          bool
	WaitDLRs      time.Duration // 0 when receipts are not awaited
	Wait          bool
	Help          bool

	// ambient
	ConfigFile    string
	Debug         bool
	Trace         bool
	LogFile       string
	JournalDSN    string
	EnquireLink   time.Duration
	BindTimeout   time.Duration
	SubmitTimeout time.Duration
	ZabbixServer  string
	ZabbixHost    string
}

// Addr returns the SMSC address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Clone returns a copy that shares no mutable state with c.
func (c Config) Clone() Config {
	clone := c
	clone.ShortMessage = append([]byte(nil), c.ShortMessage...)
	if c.TLVs != nil {
		clone.TLVs = make(map[uint16][]byte, len(c.TLVs))
		for tag, value := range c.TLVs {
			clone.TLVs[tag] = append([]byte(nil), value...)
		}
	}
	return clone
}
