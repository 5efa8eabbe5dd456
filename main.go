package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kr/pretty"
	"github.com/mdigger/log"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/jimni/smppsend/esme"
	"github.com/jimni/smppsend/options"
	"github.com/jimni/smppsend/sms"
	"github.com/jimni/smppsend/sqlog"
	"github.com/jimni/smppsend/zabbix"
)

var (
	appName = "smppsend" // application name
	version = "1.0.0"    // version
	date    = ""         // build date
	build   = ""         // git revision of the build
)

func main() {
	fmt.Fprintf(os.Stderr, "### %s %s", appName, version)
	if build != "" {
		fmt.Fprintf(os.Stderr, " [#%s]", build)
	}
	if date != "" {
		fmt.Fprintf(os.Stderr, " (%s)", date)
	}
	fmt.Fprintln(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := (&app{stdout: os.Stdout, stderr: os.Stderr}).main(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// app is one invocation: options, message building and the session.
type app struct {
	stdout io.Writer
	stderr io.Writer
	dial   Dialer       // binds through esme when nil
	ref    func() uint8 // split reference, random when nil
	zabbix string       // zabbix_sender binary
}

// main runs the invocation and returns the process exit code.
func (a *app) main(ctx context.Context, args []string) int {
	err := a.run(ctx, args)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
	}
	return exitCode(err)
}

func (a *app) run(ctx context.Context, args []string) error {
	c, err := options.Parse(args)
	if errors.Is(err, options.ErrHelp) {
		options.Usage(a.stdout)
		return nil
	}
	if err != nil {
		return fail(KindUsage, err)
	}
	logger := a.logger(c)
	if c.Debug {
		shown := c.Clone()
		shown.Password = "********"
		logger.Debugf("Configuration: %# v", pretty.Formatter(shown))
	}

	if c, err = sms.ConvertUCS2(c); err != nil {
		return fail(KindEncoding, err)
	}
	requests, err := sms.Builder{Ref: a.ref}.Build(c)
	if err != nil {
		return fail(KindBuild, err)
	}
	logger.WithField("parts", len(requests)).Debug("Requests built")
	if c.Debug {
		logger.Debugf("Requests: %# v", pretty.Formatter(requests))
	}

	o := &Orchestrator{Dial: a.dial, Logger: logger}
	if o.Dial == nil {
		o.Dial = esmeDialer(logger, c.Trace)
	}
	if c.JournalDSN != "" {
		db, err := sqlog.Connect(c.JournalDSN)
		if err != nil {
			return fail(KindConnectivity, fmt.Errorf("journal: %w", err))
		}
		defer db.Close()
		o.Journal = db
	}
	err = o.Run(ctx, c, requests)
	if c.ZabbixServer != "" {
		a.report(c, o.Submitted(), exitCode(err), logger)
	}
	return err
}

// report sends the outcome of the run to Zabbix.
func (a *app) report(c options.Config, submitted, code int, logger *logrus.Entry) {
	host := c.ZabbixHost
	if host == "" {
		host, _ = os.Hostname()
	}
	z := zabbix.Sender{Server: c.ZabbixServer, Host: host, Binary: a.zabbix}
	err := z.SendAll(context.Background(), [][2]string{
		{"smppsend.submitted", strconv.Itoa(submitted)},
		{"smppsend.exit", strconv.Itoa(code)},
	})
	if err != nil {
		logger.WithError(err).Warning("Zabbix report error")
	}
}

// logger writes text records to stderr and, with --log-file, JSON records
// to the file.
func (a *app) logger(c options.Config) *logrus.Entry {
	logger := logrus.New()
	logger.Out = a.stderr
	logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if c.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	if c.LogFile != "" {
		logger.AddHook(lfshook.NewHook(lfshook.PathMap{
			logrus.DebugLevel: c.LogFile,
			logrus.InfoLevel:  c.LogFile,
			logrus.WarnLevel:  c.LogFile,
			logrus.ErrorLevel: c.LogFile,
		}, &logrus.JSONFormatter{}))
	}
	return logrus.NewEntry(logger)
}

// esmeDialer binds real SMPP sessions.
func esmeDialer(logger *logrus.Entry, trace bool) Dialer {
	var tracer *log.Logger
	if trace {
		log.SetLevel(log.TRACE)
		tracer = log.New("")
	}
	return func(ctx context.Context, c options.Config) (Session, error) {
		session, err := esme.Dial(esme.Config{
			Addr:             c.Addr(),
			Mode:             c.BindMode,
			SystemID:         c.SystemID,
			Password:         c.Password,
			SystemType:       c.SystemType,
			InterfaceVersion: c.InterfaceVersion,
			AddrTON:          c.AddrTON,
			AddrNPI:          c.AddrNPI,
			AddressRange:     c.AddressRange,
			EnquireLink:      c.EnquireLink,
			BindTimeout:      c.BindTimeout,
			SubmitTimeout:    c.SubmitTimeout,
			Logger:           logger,
			Trace:            tracer,
		})
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}
