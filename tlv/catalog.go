// Package tlv knows the SMPP 3.4 optional parameters: their numeric tags, their
// value types and how a textual option value becomes the bytes of a TLV.
package tlv

import "sort"

// Type describes how an option value is encoded into the TLV value.
type Type uint8

const (
	Octets  Type = iota // raw bytes as given
	CString             // bytes followed by a NUL terminator
	Int8                // 1 octet unsigned integer
	Int16               // 2 octets big endian
	Int32               // 4 octets big endian
	Hex                 // hex string decoded to bytes
)

var typeNames = map[Type]string{
	Octets:  "string",
	CString: "cstring",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Hex:     "hex",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Entry is one known optional parameter.
type Entry struct {
	Name string
	Tag  uint16
	Type Type
}

// MessagePayload is the name of the parameter that replaces short_message.
const MessagePayload = "message_payload"

var catalog = []Entry{
	{"dest_addr_subunit", 0x0005, Int8},
	{"dest_network_type", 0x0006, Int8},
	{"dest_bearer_type", 0x0007, Int8},
	{"dest_telematics_id", 0x0008, Int16},
	{"source_addr_subunit", 0x000D, Int8},
	{"source_network_type", 0x000E, Int8},
	{"source_bearer_type", 0x000F, Int8},
	{"source_telematics_id", 0x0010, Int8},
	{"qos_time_to_live", 0x0017, Int32},
	{"payload_type", 0x0019, Int8},
	{"additional_status_info_text", 0x001D, CString},
	{"receipted_message_id", 0x001E, CString},
	{"ms_msg_wait_facilities", 0x0030, Int8},
	{"privacy_indicator", 0x0201, Int8},
	{"source_subaddress", 0x0202, Octets},
	{"dest_subaddress", 0x0203, Octets},
	{"user_message_reference", 0x0204, Int16},
	{"user_response_code", 0x0205, Int8},
	{"source_port", 0x020A, Int16},
	{"destination_port", 0x020B, Int16},
	{"sar_msg_ref_num", 0x020C, Int16},
	{"language_indicator", 0x020D, Int8},
	{"sar_total_segments", 0x020E, Int8},
	{"sar_segment_seqnum", 0x020F, Int8},
	{"sc_interface_version", 0x0210, Int8},
	{"callback_num_pres_ind", 0x0302, Int8},
	{"callback_num_atag", 0x0303, Octets},
	{"number_of_messages", 0x0304, Int8},
	{"callback_num", 0x0381, Octets},
	{"dpf_result", 0x0420, Int8},
	{"set_dpf", 0x0421, Int8},
	{"ms_availability_status", 0x0422, Int8},
	{"network_error_code", 0x0423, Octets},
	{MessagePayload, 0x0424, Octets},
	{"delivery_failure_reason", 0x0425, Int8},
	{"more_messages_to_send", 0x0426, Int8},
	{"message_state", 0x0427, Int8},
	{"ussd_service_op", 0x0501, Int8},
	{"display_time", 0x1201, Int8},
	{"sms_signal", 0x1203, Int16},
	{"ms_validity", 0x1204, Int8},
	{"alert_on_message_delivery", 0x130C, Octets},
	{"its_reply_type", 0x1380, Int8},
	{"its_session_info", 0x1383, Int16},
}

var (
	byName = make(map[string]Entry, len(catalog))
	byID   = make(map[uint16]Entry, len(catalog))
)

func init() {
	for _, e := range catalog {
		byName[e.Name] = e
		byID[e.Tag] = e
	}
}

// IDByName returns the tag of a known parameter.
func IDByName(name string) (uint16, bool) {
	e, ok := byName[name]
	return e.Tag, ok
}

// NameByID returns the name of a known tag.
func NameByID(tag uint16) (string, bool) {
	e, ok := byID[tag]
	return e.Name, ok
}

// Lookup returns the catalog entry for a parameter name.
func Lookup(name string) (Entry, bool) {
	e, ok := byName[name]
	return e, ok
}

// Names returns all known parameter names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, e := range catalog {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}
