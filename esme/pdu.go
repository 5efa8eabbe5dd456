package esme

import (
	"bytes"
	"fmt"

	"github.com/mdigger/log"
	"github.com/mdigger/smpp"

	"github.com/jimni/smppsend/sms"
	"github.com/jimni/smppsend/tlv"
)

// TraceLevel is the level of the PDU trace records.
var TraceLevel = log.TRACE + 16

// arrows marks the direction of a traced PDU: true for incoming.
var arrows = map[bool]string{true: "→", false: "←"}

func (s *Session) trace(in bool, pdu smpp.Pdu) {
	if s.cfg.Trace == nil || pdu == nil {
		return
	}
	h := pdu.GetHeader()
	s.cfg.Trace.Log(TraceLevel, arrows[in]+" "+commandName(pdu),
		"seq", fmt.Sprint(h.Sequence), "status", fmt.Sprint(h.Status))
}

// commandName returns the SMPP name of the PDU command.
func commandName(pdu smpp.Pdu) string {
	switch pdu.GetHeader().Id {
	case smpp.BIND_RECEIVER:
		return "bind_receiver"
	case smpp.BIND_RECEIVER_RESP:
		return "bind_receiver_resp"
	case smpp.BIND_TRANSMITTER:
		return "bind_transmitter"
	case smpp.BIND_TRANSMITTER_RESP:
		return "bind_transmitter_resp"
	case smpp.BIND_TRANSCEIVER:
		return "bind_transceiver"
	case smpp.BIND_TRANSCEIVER_RESP:
		return "bind_transceiver_resp"
	case smpp.SUBMIT_SM:
		return "submit_sm"
	case smpp.SUBMIT_SM_RESP:
		return "submit_sm_resp"
	case smpp.DELIVER_SM:
		return "deliver_sm"
	case smpp.DELIVER_SM_RESP:
		return "deliver_sm_resp"
	case smpp.ENQUIRE_LINK:
		return "enquire_link"
	case smpp.ENQUIRE_LINK_RESP:
		return "enquire_link_resp"
	case smpp.UNBIND:
		return "unbind"
	case smpp.UNBIND_RESP:
		return "unbind_resp"
	case smpp.GENERIC_NACK:
		return "generic_nack"
	}
	return fmt.Sprintf("command %#08x", uint32(pdu.GetHeader().Id))
}

func fieldString(pdu smpp.Pdu, name string) string {
	if f := pdu.GetField(name); f != nil {
		return f.String()
	}
	return ""
}

func fieldBytes(pdu smpp.Pdu, name string) []byte {
	if f := pdu.GetField(name); f != nil {
		return f.ByteArray()
	}
	return nil
}

func fieldUint8(pdu smpp.Pdu, name string) uint8 {
	f := pdu.GetField(name)
	if f == nil {
		return 0
	}
	switch v := f.Value().(type) {
	case uint8:
		return v
	case int:
		return uint8(v)
	}
	return 0
}

// tlvValue returns the value of the named optional parameter of pdu.
func tlvValue(pdu smpp.Pdu, name string) ([]byte, bool) {
	tag, ok := tlv.IDByName(name)
	if !ok {
		return nil, false
	}
	f, ok := pdu.TLVFields()[tag]
	if !ok || f == nil {
		return nil, false
	}
	return f.Value(), true
}

// receiptOf reads the delivery receipt of a deliver_sm. The message id comes
// from receipted_message_id when present, from the receipt text otherwise;
// message_state, when present, gives the stat.
func receiptOf(pdu smpp.Pdu) (sms.Receipt, error) {
	text := fieldBytes(pdu, smpp.SHORT_MESSAGE)
	if len(text) == 0 {
		text, _ = tlvValue(pdu, tlv.MessagePayload)
	}
	receipt, err := sms.ParseReceipt(text)
	if id, ok := tlvValue(pdu, "receipted_message_id"); ok {
		if id = bytes.TrimRight(id, "\x00"); len(id) > 0 {
			if err != nil {
				receipt, err = sms.Receipt{Text: string(text)}, nil
			}
			receipt.ID = string(id)
		}
	}
	if err != nil {
		return receipt, err
	}
	if state, ok := tlvValue(pdu, "message_state"); ok && len(state) == 1 {
		receipt.Stat = sms.StateName(state[0])
	}
	return receipt, nil
}
