package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type inspectCmd struct {
	socketPath string
	watch      bool
	ratePerSec float64
	proto      bool
}

func (*inspectCmd) Name() string     { return "inspect" }
func (*inspectCmd) Synopsis() string { return "query a booted nucleus's scheduler/semaphore snapshot" }
func (*inspectCmd) Usage() string {
	return "inspect [flags]\n  print a diagnostic snapshot; with -watch, poll it at a throttled rate.\n"
}

func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.socketPath, "socket", "/tmp/nucleus.sock", "control socket of the nucleus to inspect")
	f.BoolVar(&c.watch, "watch", false, "keep polling instead of exiting after one snapshot")
	f.Float64Var(&c.ratePerSec, "rate", 2, "max snapshot polls per second under -watch")
	f.BoolVar(&c.proto, "proto", false, "request the protobuf wire encoding instead of JSON")
}

func (c *inspectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logrus.StandardLogger()
	limiter := rate.NewLimiter(rate.Limit(c.ratePerSec), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			log.WithError(err).Error("inspect: rate limiter")
			return subcommands.ExitFailure
		}
		if err := c.once(); err != nil {
			log.WithError(err).Error("inspect: querying nucleus")
			return subcommands.ExitFailure
		}
		if !c.watch {
			return subcommands.ExitSuccess
		}
	}
}

func (c *inspectCmd) once() error {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	req := reqSnapshotJSON
	if c.proto {
		req = reqSnapshotProto
	}
	if _, err := conn.Write([]byte(req)); err != nil {
		return err
	}

	r := bufio.NewReader(conn)
	if c.proto {
		lenLine, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		var n int
		if _, err := fmt.Sscanf(lenLine, "%d", &n); err != nil {
			return err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		fmt.Printf("%x\n", buf)
		return nil
	}

	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	fmt.Fprint(os.Stdout, line)
	return nil
}
