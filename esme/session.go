// Package esme keeps one SMPP session to an SMSC: it binds, submits short
// messages one at a time and reads everything the SMSC sends on its own
// goroutine.
package esme

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mdigger/log"
	"github.com/mdigger/smpp"
	"github.com/sirupsen/logrus"

	"github.com/jimni/smppsend/sms"
)

// Bind modes.
const (
	ModeTransmitter = "tx"
	ModeReceiver    = "rx"
	ModeTransceiver = "trx"
)

var (
	ErrClosed             = errors.New("session closed")
	ErrUnbound            = errors.New("unbound by SMSC")
	errBindTimeout        = errors.New("no bind response")
	errBindResp           = errors.New("unexpected bind response")
	errEnquireLinkTimeout = errors.New("no enquire_link response")
)

// Config describes the session to open.
type Config struct {
	Addr             string // host:port of the SMSC
	Mode             string // tx, rx or trx
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion uint8
	AddrTON          uint8
	AddrNPI          uint8
	AddressRange     string
	EnquireLink      time.Duration // keepalive interval, off when 0
	BindTimeout      time.Duration
	SubmitTimeout    time.Duration // off when 0
	Logger           *logrus.Entry
	Trace            *log.Logger // PDU trace, off when nil
}

// BindError reports a failed connect or bind.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string { return fmt.Sprintf("bind %s: %v", e.Addr, e.Err) }

func (e *BindError) Unwrap() error { return e.Err }

// SubmitError reports a submit_sm rejected by the SMSC.
type SubmitError struct {
	Seq    uint32
	Status error // command_status of the response
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit_sm #%d rejected: %v", e.Seq, e.Status)
}

func (e *SubmitError) Unwrap() error { return e.Status }

// Session is a bound SMPP session. Submit may be called while the reading
// goroutine delivers receipts.
type Session struct {
	conn     *smpp.Smpp
	cfg      Config
	logger   *logrus.Entry
	wmu      sync.Mutex // serializes writes
	mu       sync.Mutex // guards the fields below
	pending  map[uint32]chan smpp.Pdu
	closing  bool
	stopped  bool
	err      error
	done     chan struct{}
	receipts chan sms.Receipt
	elResp   chan struct{}
}

// Dial connects to the SMSC and binds in the configured mode.
func Dial(cfg Config) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.BindTimeout <= 0 {
		cfg.BindTimeout = 10 * time.Second
	}
	s := &Session{
		conn:     new(smpp.Smpp),
		cfg:      cfg,
		logger:   cfg.Logger.WithFields(logrus.Fields{"smpp": cfg.Addr, "mode": cfg.Mode}),
		pending:  make(map[uint32]chan smpp.Pdu),
		done:     make(chan struct{}),
		receipts: make(chan sms.Receipt, 256),
		elResp:   make(chan struct{}, 1),
	}
	if err := s.conn.Connect(cfg.Addr); err != nil {
		return nil, &BindError{Addr: cfg.Addr, Err: err}
	}
	s.logger.Debug("SMPP Connected")
	if err := s.bind(); err != nil {
		s.conn.Close()
		return nil, &BindError{Addr: cfg.Addr, Err: err}
	}
	s.logger.WithField("system_id", cfg.SystemID).Info("SMPP Bound")
	go s.reading()
	if cfg.EnquireLink > 0 {
		go s.enquireLink(cfg.EnquireLink)
	}
	return s, nil
}

func (s *Session) bind() error {
	params := smpp.Params{
		smpp.SYSTEM_TYPE:       s.cfg.SystemType,
		smpp.INTERFACE_VERSION: int(s.cfg.InterfaceVersion),
		smpp.ADDR_TON:          int(s.cfg.AddrTON),
		smpp.ADDR_NPI:          int(s.cfg.AddrNPI),
		smpp.ADDRESS_RANGE:     s.cfg.AddressRange,
	}
	var (
		pdu smpp.Pdu
		err error
	)
	switch s.cfg.Mode {
	case ModeReceiver:
		pdu, err = s.conn.Bind(smpp.BIND_RECEIVER, s.cfg.SystemID, s.cfg.Password, &params)
	case ModeTransceiver:
		pdu, err = s.conn.Bind(smpp.BIND_TRANSCEIVER, s.cfg.SystemID, s.cfg.Password, &params)
	default:
		pdu, err = s.conn.Bind(smpp.BIND_TRANSMITTER, s.cfg.SystemID, s.cfg.Password, &params)
	}
	if err != nil {
		return err
	}
	if err := s.write(pdu); err != nil {
		return err
	}
	// the read below blocks, so a missing response closes the connection
	timer := time.AfterFunc(s.cfg.BindTimeout, func() { s.conn.Close() })
	resp, err := s.conn.Read()
	if !timer.Stop() {
		return errBindTimeout
	}
	if err != nil {
		return err
	}
	s.trace(true, resp)
	if !s.isBindResp(resp) {
		return errBindResp
	}
	if !resp.Ok() {
		return fmt.Errorf("bind rejected: %v", resp.GetHeader().Status)
	}
	return nil
}

func (s *Session) isBindResp(pdu smpp.Pdu) bool {
	switch pdu.GetHeader().Id {
	case smpp.BIND_RECEIVER_RESP:
		return s.cfg.Mode == ModeReceiver
	case smpp.BIND_TRANSCEIVER_RESP:
		return s.cfg.Mode == ModeTransceiver
	case smpp.BIND_TRANSMITTER_RESP:
		return s.cfg.Mode != ModeReceiver && s.cfg.Mode != ModeTransceiver
	}
	return false
}

// Submit sends one submit_sm and waits for its response. It returns the
// message_id assigned by the SMSC.
func (s *Session) Submit(ctx context.Context, req *sms.Request) (string, error) {
	params := smpp.Params{
		smpp.SERVICE_TYPE:            req.ServiceType,
		smpp.SOURCE_ADDR_TON:         int(req.SourceAddrTON),
		smpp.SOURCE_ADDR_NPI:         int(req.SourceAddrNPI),
		smpp.DEST_ADDR_TON:           int(req.DestAddrTON),
		smpp.DEST_ADDR_NPI:           int(req.DestAddrNPI),
		smpp.ESM_CLASS:               int(req.ESMClass),
		smpp.PROTOCOL_ID:             int(req.ProtocolID),
		smpp.PRIORITY_FLAG:           int(req.PriorityFlag),
		smpp.SCHEDULE_DELIVERY_TIME:  req.ScheduleDeliveryTime,
		smpp.VALIDITY_PERIOD:         req.ValidityPeriod,
		smpp.REGISTERED_DELIVERY:     int(req.RegisteredDelivery),
		smpp.REPLACE_IF_PRESENT_FLAG: int(req.ReplaceIfPresentFlag),
		smpp.DATA_CODING:             int(req.DataCoding),
		smpp.SM_DEFAULT_MSG_ID:       int(req.SMDefaultMsgID),
	}
	pdu, err := s.conn.SubmitSm(req.SourceAddr, req.DestinationAddr, string(req.ShortMessage), params)
	if err != nil {
		return "", err
	}
	for _, t := range req.TLVs {
		if err := pdu.SetTLVField(int(t.Tag), len(t.Value), t.Value); err != nil {
			return "", fmt.Errorf("tlv %#04x: %w", t.Tag, err)
		}
	}
	seq := pdu.GetHeader().Sequence
	resp := make(chan smpp.Pdu, 1)
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return "", s.stopErr()
	}
	s.pending[seq] = resp
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, seq)
		s.mu.Unlock()
	}()

	if err := s.write(pdu); err != nil {
		return "", err
	}
	var timeout <-chan time.Time
	if s.cfg.SubmitTimeout > 0 {
		timer := time.NewTimer(s.cfg.SubmitTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case p := <-resp:
		// mdigger/smpp reports a generic_nack as Ok
		if h := p.GetHeader(); h.Id == smpp.GENERIC_NACK || !p.Ok() {
			status := h.Status
			if status == smpp.ESME_ROK {
				status = smpp.ESME_RUNKNOWNERR
			}
			return "", &SubmitError{Seq: seq, Status: status}
		}
		return fieldString(p, smpp.MESSAGE_ID), nil
	case <-s.done:
		return "", s.stopErr()
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeout:
		return "", fmt.Errorf("no submit_sm_resp for #%d in %s", seq, s.cfg.SubmitTimeout)
	}
}

// Receipts returns the delivery receipts read from the SMSC.
func (s *Session) Receipts() <-chan sms.Receipt { return s.receipts }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the reason the session ended; nil for a normal close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unbinds and closes the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped {
		if pdu, err := s.conn.Unbind(); err == nil && s.write(pdu) == nil {
			select { // the reading goroutine stops on unbind_resp
			case <-s.done:
			case <-time.After(time.Second):
			}
		}
	}
	s.finish(nil)
	s.logger.Info("SMPP Close")
	return s.conn.Close()
}

// reading dispatches PDUs until the connection fails or is closed.
func (s *Session) reading() {
	for {
		pdu, err := s.conn.Read()
		if _, ok := err.(smpp.PduCmdIdErr); ok {
			s.logger.WithError(err).Warning("SMPP unknown command")
			if p, err := s.conn.GenericNack(0, smpp.ESME_RINVCMDID); err == nil {
				s.write(p)
			}
			continue
		}
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				err = nil // closed by us
			}
			s.finish(err)
			return
		}
		s.trace(true, pdu)
		h := pdu.GetHeader()
		switch h.Id {
		case smpp.SUBMIT_SM_RESP, smpp.GENERIC_NACK:
			s.mu.Lock()
			resp, ok := s.pending[h.Sequence]
			s.mu.Unlock()
			if !ok {
				s.logger.WithField("seq", h.Sequence).Warning("SMPP response without request")
				continue
			}
			select {
			case resp <- pdu:
			default:
				s.logger.WithField("seq", h.Sequence).Warning("SMPP duplicate response")
			}
		case smpp.DELIVER_SM:
			s.deliver(pdu)
		case smpp.ENQUIRE_LINK:
			if p, err := s.conn.EnquireLinkResp(h.Sequence); err == nil {
				s.write(p)
			}
		case smpp.ENQUIRE_LINK_RESP:
			select {
			case s.elResp <- struct{}{}:
			default:
			}
		case smpp.UNBIND:
			if p, err := s.conn.UnbindResp(h.Sequence); err == nil {
				s.write(p)
			}
			s.finish(ErrUnbound)
			s.conn.Close()
			return
		case smpp.UNBIND_RESP:
			s.finish(nil)
			return
		default:
			s.logger.WithField("type", commandName(pdu)).Warning("SMPP unsupported command")
		}
	}
}

// deliver handles a deliver_sm: a delivery receipt goes to Receipts, any
// other message is logged. Both are acknowledged.
func (s *Session) deliver(pdu smpp.Pdu) {
	h := pdu.GetHeader()
	logEntry := s.logger.WithField("seq", h.Sequence)
	// acknowledge first: the receipt may make the caller unbind
	p, err := s.conn.DeliverSmResp(h.Sequence, smpp.ESME_ROK)
	if err == nil {
		err = s.write(p)
	}
	if err != nil {
		logEntry.WithError(err).Error("SMS DeliverSM Response Error")
	}
	text := fieldBytes(pdu, smpp.SHORT_MESSAGE)
	if !sms.IsReceipt(fieldUint8(pdu, smpp.ESM_CLASS)) {
		code := fieldUint8(pdu, smpp.DATA_CODING)
		logEntry.WithFields(logrus.Fields{
			"from":   fieldString(pdu, smpp.SOURCE_ADDR),
			"to":     fieldString(pdu, smpp.DESTINATION_ADDR),
			"code":   code,
			"length": len(text),
		}).Infof("SMS received: %q", sms.Decode(code, text))
		return
	}
	receipt, err := receiptOf(pdu)
	if err != nil {
		logEntry.WithError(err).Warning("SMS bad delivery receipt")
		return
	}
	logEntry.WithFields(logrus.Fields{
		"id":   receipt.ID,
		"stat": receipt.Stat,
		"err":  receipt.Err,
	}).Info("SMS delivery receipt")
	select {
	case s.receipts <- receipt:
	default:
		logEntry.WithField("id", receipt.ID).Warning("SMS delivery receipt dropped")
	}
}

// enquireLink keeps the session alive and ends it when the SMSC stops
// answering within half the interval.
func (s *Session) enquireLink(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
		p, err := s.conn.EnquireLink()
		if err == nil {
			err = s.write(p)
		}
		if err != nil {
			s.finish(err)
			s.conn.Close()
			return
		}
		select {
		case <-s.elResp:
		case <-s.done:
			return
		case <-time.After(every / 2):
			s.finish(errEnquireLinkTimeout)
			s.conn.Close()
			return
		}
	}
}

func (s *Session) write(p smpp.Pdu) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.trace(false, p)
	return s.conn.Write(p)
}

// finish records why the session ended. Only the first call counts.
func (s *Session) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.err = err
	close(s.done)
	if err != nil {
		s.logger.WithError(err).Error("SMPP error")
	}
}

func (s *Session) stopErr() error {
	if err := s.Err(); err != nil {
		return err
	}
	return ErrClosed
}
