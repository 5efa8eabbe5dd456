package options

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

type bindModeValue string

func (v *bindModeValue) String() string { return string(*v) }

func (v *bindModeValue) Set(s string) error {
	switch s {
	case BindTransmitter, BindReceiver, BindTransceiver:
		*v = bindModeValue(s)
		return nil
	}
	return fmt.Errorf("bind mode must be one of tx, rx, trx")
}

// uint8Value accepts decimal, 0x-hex and 0-octal forms.
type uint8Value uint8

func (v *uint8Value) String() string { return strconv.Itoa(int(*v)) }

func (v *uint8Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return errors.New("expected an integer in range 0..255")
	}
	*v = uint8Value(n)
	return nil
}

type portValue uint16

func (v *portValue) String() string { return strconv.Itoa(int(*v)) }

func (v *portValue) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return errors.New("expected a port number")
	}
	*v = portValue(n)
	return nil
}

type positiveValue int

func (v *positiveValue) String() string { return strconv.Itoa(int(*v)) }

func (v *positiveValue) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return errors.New("expected a positive integer")
	}
	*v = positiveValue(n)
	return nil
}

// secondsValue takes a number of seconds or a duration like "1m30s".
type secondsValue time.Duration

func (v *secondsValue) String() string { return time.Duration(*v).String() }

func (v *secondsValue) Set(s string) error {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil && n > 0 {
		*v = secondsValue(time.Duration(n) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return errors.New("expected a positive number of seconds")
	}
	*v = secondsValue(d)
	return nil
}

type bytesValue []byte

func (v *bytesValue) String() string { return string(*v) }

func (v *bytesValue) Set(s string) error {
	*v = bytesValue(s)
	return nil
}
