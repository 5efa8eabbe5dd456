package esme

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = io.Discard
	return logrus.NewEntry(logger)
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = Dial(Config{Addr: addr, Mode: ModeTransmitter, BindTimeout: time.Second, Logger: testLogger()})
	var berr *BindError
	if !errors.As(err, &berr) || berr.Addr != addr {
		t.Fatalf("expected BindError for %s, got %v", addr, err)
	}
}

func TestDialBindTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(io.Discard, conn) // never answers the bind
	}()

	start := time.Now()
	_, err = Dial(Config{
		Addr:        ln.Addr().String(),
		Mode:        ModeTransceiver,
		SystemID:    "user",
		Password:    "secret",
		BindTimeout: 200 * time.Millisecond,
		Logger:      testLogger(),
	})
	if !errors.Is(err, errBindTimeout) {
		t.Fatalf("expected bind timeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("bind timeout not honored")
	}
}

func TestErrors(t *testing.T) {
	status := errors.New("ESME_RTHROTTLED")
	err := &SubmitError{Seq: 3, Status: status}
	if !errors.Is(err, status) || err.Error() != "submit_sm #3 rejected: ESME_RTHROTTLED" {
		t.Errorf("submit error: %v", err)
	}
	berr := &BindError{Addr: "smsc:2775", Err: errBindResp}
	if !errors.Is(berr, errBindResp) {
		t.Error("bind error must unwrap")
	}
}
