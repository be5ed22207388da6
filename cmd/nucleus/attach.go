package main

import (
	"context"
	"flag"
	"io"
	"net"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/containerd/console"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

type attachCmd struct {
	socketPath string
	retryMax   time.Duration
}

func (*attachCmd) Name() string     { return "attach" }
func (*attachCmd) Synopsis() string { return "attach the local terminal to a booted nucleus's console" }
func (*attachCmd) Usage() string {
	return "attach [flags]\n  relay local keystrokes to a booted nucleus's terminal device.\n"
}

func (c *attachCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.socketPath, "socket", "/tmp/nucleus.sock", "control socket of the nucleus to attach to")
	f.DurationVar(&c.retryMax, "retry-max", 10*time.Second, "give up dialing the control socket after this long")
}

func (c *attachCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logrus.StandardLogger()

	conn, err := dialWithBackoff(ctx, c.socketPath, c.retryMax)
	if err != nil {
		log.WithError(err).Error("attach: connecting to control socket")
		return subcommands.ExitFailure
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(reqAttach)); err != nil {
		log.WithError(err).Error("attach: sending attach request")
		return subcommands.ExitFailure
	}

	cons := console.Current()
	if err := cons.SetRaw(); err != nil {
		log.WithError(err).Warn("attach: could not set console to raw mode; input will be line-buffered")
	} else {
		defer cons.Reset()
	}
	if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		log.WithFields(logrus.Fields{"cols": w, "rows": h}).Debug("attach: local terminal size")
	}

	log.Info("attach: relaying keystrokes until stdin closes")
	io.Copy(conn, os.Stdin)
	return subcommands.ExitSuccess
}

// dialWithBackoff retries connecting to a unix socket with exponential
// backoff, for the common case of racing "boot" to create the socket.
func dialWithBackoff(ctx context.Context, path string, maxElapsed time.Duration) (net.Conn, error) {
	var conn net.Conn
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed

	op := func() error {
		var err error
		conn, err = net.Dial("unix", path)
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return conn, nil
}
