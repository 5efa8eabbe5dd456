package options

import (
	"flag"
	"io"
	"strings"
)

// newFlagSet describes the fixed option schema, bound to the fields of c.
func newFlagSet(c *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("smppsend", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&c.Help, "help", false, "show this help and exit")

	// session
	fs.Var((*bindModeValue)(&c.BindMode), "bind-mode", "session `mode`: tx, rx or trx")
	fs.StringVar(&c.Host, "host", "", "SMSC `host`")
	fs.Var((*portValue)(&c.Port), "port", "SMSC `port`")
	fs.StringVar(&c.SystemID, "system-id", "", "bind system_id")
	fs.StringVar(&c.Password, "password", "", "bind password")
	fs.StringVar(&c.SystemType, "system-type", "", "bind system_type")
	fs.Var((*uint8Value)(&c.InterfaceVersion), "interface-version", "bind interface_version")
	fs.Var((*uint8Value)(&c.AddrTON), "addr-ton", "bind addr_ton")
	fs.Var((*uint8Value)(&c.AddrNPI), "addr-npi", "bind addr_npi")
	fs.StringVar(&c.AddressRange, "address-range", "", "bind address_range")

	// submit_sm
	fs.StringVar(&c.ServiceType, "service-type", "", "service_type")
	fs.Var((*uint8Value)(&c.SourceAddrTON), "source-addr-ton", "source_addr_ton")
	fs.Var((*uint8Value)(&c.SourceAddrNPI), "source-addr-npi", "source_addr_npi")
	fs.StringVar(&c.SourceAddr, "source-addr", "", "source_addr")
	fs.Var((*uint8Value)(&c.DestAddrTON), "dest-addr-ton", "dest_addr_ton")
	fs.Var((*uint8Value)(&c.DestAddrNPI), "dest-addr-npi", "dest_addr_npi")
	fs.StringVar(&c.DestinationAddr, "destination-addr", "", "destination_addr")
	fs.Var((*uint8Value)(&c.ESMClass), "esm-class", "esm_class")
	fs.Var((*uint8Value)(&c.ProtocolID), "protocol-id", "protocol_id")
	fs.Var((*uint8Value)(&c.PriorityFlag), "priority-flag", "priority_flag")
	fs.StringVar(&c.ScheduleDeliveryTime, "schedule-delivery-time", "", "schedule_delivery_time")
	fs.StringVar(&c.ValidityPeriod, "validity-period", "", "validity_period")
	fs.Var((*uint8Value)(&c.RegisteredDelivery), "registered-delivery", "registered_delivery")
	fs.Var((*uint8Value)(&c.ReplaceIfPresentFlag), "replace-if-present-flag", "replace_if_present_flag")
	fs.Var((*uint8Value)(&c.DataCoding), "data-coding", "data_coding")
	fs.Var((*uint8Value)(&c.SMDefaultMsgID), "sm-default-msg-id", "sm_default_msg_id")
	fs.Var((*bytesValue)(&c.ShortMessage), "short-message", "short_message `text`")

	// control
	fs.BoolVar(&c.SubmitSM, "submit-sm", false, "submit the message")
	fs.Var((*positiveValue)(&c.SplitMaxBytes), "split-max-bytes", "split the message into parts of at most `bytes`, UDH included")
	fs.BoolVar(&c.UDH, "udh", false, "prefix the message with a user data header")
	fs.Var((*uint8Value)(&c.UDHRef), "udh-ref", "UDH reference number")
	fs.Var((*uint8Value)(&c.UDHTotalParts), "udh-total-parts", "UDH total parts")
	fs.Var((*uint8Value)(&c.UDHPartNum), "udh-part-num", "UDH part number")
	fs.BoolVar(&c.UCS2, "ucs2", false, "convert short_message and message_payload to UCS-2")
	fs.Var((*secondsValue)(&c.WaitDLRs), "wait-dlrs", "wait up to `seconds` for delivery receipts of all submitted parts")
	fs.BoolVar(&c.Wait, "wait", false, "keep the session open until interrupted")

	// ambient
	fs.StringVar(&c.ConfigFile, "config", "", "YAML profile with option values")
	fs.BoolVar(&c.Debug, "debug", false, "verbose logging")
	fs.BoolVar(&c.Trace, "trace", false, "trace sent and received PDUs")
	fs.StringVar(&c.LogFile, "log-file", "", "also write the log to `file`")
	fs.StringVar(&c.JournalDSN, "journal-dsn", "", "MySQL `dsn` to journal submissions and receipts")
	fs.Var((*secondsValue)(&c.EnquireLink), "enquire-link", "enquire_link interval in `seconds`")
	fs.Var((*secondsValue)(&c.BindTimeout), "bind-timeout", "bind response timeout in `seconds`")
	fs.Var((*secondsValue)(&c.SubmitTimeout), "submit-timeout", "submit_sm_resp timeout in `seconds`")
	fs.StringVar(&c.ZabbixServer, "zabbix-server", "", "report the run to the Zabbix `server`")
	fs.StringVar(&c.ZabbixHost, "zabbix-host", "", "Zabbix `host` name of the reported items")
	return fs
}

// defaults are merged into missing keys by SetDefaults.
var defaults = map[string]string{
	"bind-mode":         BindTransmitter,
	"interface-version": "0x34",
	"esm-class":         "0",
	"short-message":     "",
	"submit-sm":         "false",
	"udh":               "false",
	"udh-ref":           "0",
	"udh-total-parts":   "1",
	"udh-part-num":      "1",
	"ucs2":              "false",
	"wait":              "false",
	"enquire-link":      "30",
	"bind-timeout":      "10",
	"submit-timeout":    "30",
}

var required = []string{"bind-mode", "host", "port", "system-id", "password", "submit-sm"}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// flagName converts an option name to the dashed form used by the schema.
func flagName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// fieldName converts an option name to the underscored form of SMPP fields.
func fieldName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Dashed renders an option name in its canonical command line form.
func Dashed(name string) string {
	return "--" + flagName(name)
}
