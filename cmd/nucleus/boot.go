package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/godbus/dbus/v5"
	"github.com/google/subcommands"
	"github.com/mattbaird/jsonpatch"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats/view"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/config"
	"github.com/dohoanggiahuy317/go-pandos/pkg/diag"
	"github.com/dohoanggiahuy317/go-pandos/pkg/kernel"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
	"github.com/dohoanggiahuy317/go-pandos/pkg/syscalls"
)

// dbusHaltSignal is the best-effort session-bus signal a boot emits
// when its dispatch loop ends (halt, panic, or shutdown signal), so an
// operator's session bus monitor can notice a nucleus going down
// without polling the control socket.
const dbusHaltSignal = "dev.pandos.Nucleus.Halted"

// terminalDevice is the device index boot wires its one simulated
// terminal to, on line 7 as spec'd.
const terminalDevice = 0

type bootCmd struct {
	configPath string
	lockPath   string
	socketPath string
	tick       time.Duration
}

func (*bootCmd) Name() string     { return "boot" }
func (*bootCmd) Synopsis() string { return "boot a nucleus against a simulated machine" }
func (*bootCmd) Usage() string {
	return "boot [flags]\n  start a nucleus and drive it until halt, panic, or signal.\n"
}

func (c *bootCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a TOML boot config; defaults baked in if empty")
	f.StringVar(&c.lockPath, "lock", "", "advisory lock path; empty disables cross-process locking")
	f.StringVar(&c.socketPath, "socket", "/tmp/nucleus.sock", "unix socket for attach/inspect clients")
	f.DurationVar(&c.tick, "tick", time.Millisecond, "wall-clock resolution the live timer driver ticks at")
}

func (c *bootCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logrus.StandardLogger()

	if err := view.Register(diag.Views...); err != nil {
		log.WithError(err).Warn("boot: registering diagnostic stats views")
	}
	defer view.Unregister(diag.Views...)

	file := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			log.WithError(err).Error("boot: loading config")
			return subcommands.ExitFailure
		}
		logConfigOverride(log, config.Default(), loaded)
		file = loaded
	}
	kcfg := file.Kernel()

	m, err := machine.New(machine.Config{
		LockPath:          c.lockPath,
		NumDeviceLines:    kcfg.NumDeviceLines,
		NumDevicesPerLine: kcfg.NumDevicesPerLine,
	})
	if err != nil {
		log.WithError(err).Error("boot: constructing machine")
		return subcommands.ExitFailure
	}
	defer m.Close()

	n, err := kernel.New(kcfg, m, log)
	if err != nil {
		log.WithError(err).Error("boot: constructing nucleus")
		return subcommands.ExitFailure
	}
	syscalls.RegisterAll(n)

	if _, err := n.Boot(file.BootEntryPC, file.BootStackTop, nil); err != nil {
		log.WithError(err).Error("boot: creating initial process")
		return subcommands.ExitFailure
	}

	term, err := machine.OpenTerminal()
	if err != nil {
		log.WithError(err).Error("boot: allocating terminal device")
		return subcommands.ExitFailure
	}
	defer term.Close()
	stopWatch := m.WatchReceive(term, terminalDevice)
	defer stopWatch()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("unix", c.socketPath)
	if err != nil {
		log.WithError(err).Error("boot: listening on control socket")
		return subcommands.ExitFailure
	}
	defer ln.Close()
	defer os.Remove(c.socketPath)
	go serveControlSocket(ctx, ln, n, term, log)

	go func() {
		if err := m.RunLiveClock(ctx, c.tick); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("boot: live clock driver exited")
		}
	}()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.WithError(err).Debug("boot: sd_notify READY failed")
	} else if ok {
		log.Debug("boot: notified systemd of readiness")
	}

	runDispatchLoop(ctx, n, m, log)
	notifyHaltOverDBus(log)
	return subcommands.ExitSuccess
}

// runDispatchLoop stands in for the real µMPS3 firmware: nothing in
// this repository executes guest instructions (out of scope per the
// nucleus's own design notes), so this loop's only job is to notice
// when the simulated machine has interrupts pending and hand them to
// HandleTrap, the same entry point a real trap would reach.
func runDispatchLoop(ctx context.Context, n *kernel.Nucleus, m *machine.Machine, log *logrus.Logger) {
	poll := time.NewTicker(500 * time.Microsecond)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("boot: shutting down on signal")
			return
		case <-poll.C:
		}

		if halted := m.Halted(); halted {
			log.Info("boot: machine halted")
			return
		}
		if panicked, msg := m.Panicked(); panicked {
			log.WithField("reason", msg).Error("boot: machine panicked")
			return
		}

		bits := m.PendingInterrupts()
		if bits == 0 {
			continue
		}
		var s arch.State
		s.Cause = uint32(bits) << 8 // exception code 0: interrupt
		m.SaveTrap(s)
		n.HandleTrap(kernel.SyscallArgs{})
	}
}

func logConfigOverride(log *logrus.Logger, base, loaded config.File) {
	baseJSON, err1 := json.Marshal(base)
	loadedJSON, err2 := json.Marshal(loaded)
	if err1 != nil || err2 != nil {
		return
	}
	ops, err := jsonpatch.CreatePatch(baseJSON, loadedJSON)
	if err != nil || len(ops) == 0 {
		return
	}
	log.WithField("overrides", ops).Info("boot: config overrides default")
}

func notifyHaltOverDBus(log *logrus.Logger) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		log.WithError(err).Debug("boot: no session bus available for halt signal")
		return
	}
	defer conn.Close()
	if err := conn.Emit("/dev/pandos/Nucleus", dbusHaltSignal); err != nil {
		log.WithError(err).Debug("boot: emitting halt signal")
	}
}

func serveControlSocket(ctx context.Context, ln net.Listener, n *kernel.Nucleus, term *machine.Terminal, log *logrus.Logger) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("boot: control socket accept")
			continue
		}
		go handleControlConn(conn, n, term, log)
	}
}

func handleControlConn(conn net.Conn, n *kernel.Nucleus, term *machine.Terminal, log *logrus.Logger) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	if err != nil {
		return
	}
	switch line {
	case reqSnapshotJSON:
		snap := diag.Take(n)
		// Record a copy asynchronously so a slow OpenCensus exporter
		// can never make an inspect client wait on its own response.
		go diag.Record(context.Background(), diag.Clone(snap))
		buf, err := diag.MarshalJSON(snap)
		if err != nil {
			log.WithError(err).Warn("boot: marshaling snapshot")
			return
		}
		conn.Write(append(buf, '\n'))
	case reqSnapshotProto:
		snap := diag.Take(n)
		go diag.Record(context.Background(), diag.Clone(snap))
		buf := diag.MarshalProto(snap)
		fmt.Fprintf(conn, "%d\n", len(buf))
		conn.Write(buf)
	case reqAttach:
		pipeAttachSession(conn, term, log)
	default:
		fmt.Fprintf(conn, "unknown request: %q\n", line)
	}
}

// pipeAttachSession forwards an attach client's keystrokes into the
// terminal device's pty master, where WatchReceive's reader goroutine
// is already turning them into receive-interrupt completions (spec
// §3 line 7). It is one-directional: WatchReceive owns reading from
// Master, so this must not also read from it, or the two goroutines
// would race over the same bytes. Transmit-side output the nucleus
// produces is reported through the boot log rather than echoed back
// over this connection.
func pipeAttachSession(conn net.Conn, term *machine.Terminal, log *logrus.Logger) {
	io.Copy(term.Master, conn)
	log.Debug("boot: attach session ended")
}
