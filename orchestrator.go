package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jimni/smppsend/esme"
	"github.com/jimni/smppsend/options"
	"github.com/jimni/smppsend/sms"
)

// Session is the bound SMPP session the orchestrator drives.
type Session interface {
	Submit(ctx context.Context, req *sms.Request) (string, error)
	Receipts() <-chan sms.Receipt
	Done() <-chan struct{}
	Err() error
	Close() error
}

// Dialer connects and binds a session for the configuration.
type Dialer func(ctx context.Context, c options.Config) (Session, error)

// Journal records submissions and receipts.
type Journal interface {
	Submitted(id string, req *sms.Request) error
	Delivered(r sms.Receipt) error
}

// Orchestrator runs one session: bind, submit, wait for receipts and
// optionally stay bound until cancelled.
type Orchestrator struct {
	Dial    Dialer
	Journal Journal // optional
	Logger  *logrus.Entry

	submitted int
}

// Submitted returns how many parts the SMSC accepted.
func (o *Orchestrator) Submitted() int { return o.submitted }

// Run drives the session for the prepared requests. It closes the session
// on every return path.
func (o *Orchestrator) Run(ctx context.Context, c options.Config, requests []*sms.Request) error {
	session, err := o.Dial(ctx, c)
	if err != nil {
		return fail(KindConnectivity, err)
	}
	defer session.Close()

	tracker := NewTracker()
	go o.pump(session, tracker)

	if c.SubmitSM {
		if err := o.submit(ctx, session, tracker, requests); err != nil {
			return err
		}
	}
	if c.WaitDLRs > 0 {
		if err := o.waitReceipts(ctx, session, tracker, c.WaitDLRs); err != nil {
			return err
		}
	}
	if c.Wait {
		o.Logger.Info("Waiting for incoming messages")
		select {
		case <-ctx.Done():
			o.Logger.Info("Stopped")
		case <-session.Done():
			return fail(KindConnectivity, sessionErr(session))
		}
	}
	return nil
}

// submit sends the requests one by one. The first failure stops the run.
func (o *Orchestrator) submit(ctx context.Context, session Session, tracker *Tracker, requests []*sms.Request) error {
	for i, req := range requests {
		id, err := session.Submit(ctx, req)
		if err != nil {
			return fail(KindSubmission, fmt.Errorf(
				"submit part %d of %d (%s -> %s, %d bytes): %w; %d part(s) submitted before",
				i+1, len(requests), req.SourceAddr, req.DestinationAddr, len(req.Body()), err, i))
		}
		o.submitted++
		tracker.Expect(id)
		o.Logger.WithFields(logrus.Fields{
			"id":   id,
			"part": fmt.Sprintf("%d/%d", i+1, len(requests)),
		}).Info("SMS submitted")
		if o.Journal != nil {
			if err := o.Journal.Submitted(id, req); err != nil {
				o.Logger.WithError(err).Warning("Journal error")
			}
		}
	}
	return nil
}

func (o *Orchestrator) waitReceipts(ctx context.Context, session Session, tracker *Tracker, timeout time.Duration) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-session.Done():
			cancel()
		case <-waitCtx.Done():
		}
	}()
	o.Logger.WithField("pending", len(tracker.Pending())).Infof("Waiting %s for delivery receipts", timeout)
	err := tracker.Wait(waitCtx, timeout)
	var terr *TimeoutError
	switch {
	case err == nil:
		o.Logger.Info("All delivery receipts received")
		return nil
	case errors.As(err, &terr):
		return fail(KindTimeout, err)
	case ctx.Err() == nil: // the session ended
		return fail(KindConnectivity, sessionErr(session))
	}
	return fail(KindTimeout, fmt.Errorf("waiting for delivery receipts: %w", err))
}

// pump feeds receipts from the session to the tracker until it ends.
func (o *Orchestrator) pump(session Session, tracker *Tracker) {
	for {
		select {
		case r := <-session.Receipts():
			if !tracker.Observe(r.ID) {
				o.Logger.WithField("id", r.ID).Debug("Receipt for a message not sent by us")
			}
			if o.Journal != nil {
				if err := o.Journal.Delivered(r); err != nil {
					o.Logger.WithError(err).Warning("Journal error")
				}
			}
		case <-session.Done():
			return
		}
	}
}

func sessionErr(session Session) error {
	if err := session.Err(); err != nil {
		return err
	}
	return esme.ErrClosed
}
