package main

import (
	"errors"
	"fmt"
)

// Kind classifies why an invocation failed.
type Kind int

const (
	KindUsage        Kind = iota // bad command line or profile
	KindEncoding                 // text conversion to UCS-2
	KindConnectivity             // connect, bind or a broken session
	KindBuild                    // conflicting options or impossible split
	KindSubmission               // submit_sm rejected or unanswered
	KindTimeout                  // delivery receipts not in time
)

var kindNames = map[Kind]string{
	KindUsage:        "usage",
	KindEncoding:     "encoding",
	KindConnectivity: "connectivity",
	KindBuild:        "build",
	KindSubmission:   "submission",
	KindTimeout:      "timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ExitCode is the process exit status for a failure of this kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindConnectivity:
		return 3
	case KindBuild, KindTimeout:
		return 4
	case KindSubmission:
		return 6
	case KindEncoding:
		return 7
	}
	return 1
}

// Error is a failure of one pipeline stage.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// exitCode maps the result of run to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.ExitCode()
	}
	return 1
}
