package kernel

import (
	"time"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
)

// handleInterrupt implements the interrupt handler (spec §4.6): local
// timer, then pseudo-clock, then device lines 3..7 ascending, each
// line's lowest-numbered pending device first. saved is the state the
// dispatcher already read from the BIOS data page this trap.
func (n *Nucleus) handleInterrupt(saved arch.State) Outcome {
	// "Snapshot ... the current timer value at the very first
	// instruction": a nested interrupt (pseudo-clock or a device, not
	// the local timer itself) must not silently grant the current
	// process a fresh slice just because some other line fired.
	localRemainder := n.machine.LocalTimerRemaining()

	bits := saved.PendingInterrupts()
	switch {
	case bits&(1<<1) != 0:
		return n.handleLocalTimerInterrupt()
	case bits&(1<<2) != 0:
		return n.handlePseudoClockInterrupt(localRemainder)
	default:
		for i := 0; i < n.cfg.NumDeviceLines; i++ {
			line := 3 + i
			if bits&(1<<uint(3+i)) != 0 {
				return n.handleDeviceInterrupt(line, localRemainder)
			}
		}
	}
	return n.resumeOrSchedule()
}

// handleLocalTimerInterrupt is priority 1 (spec §4.6.1): the running
// process's slice expired. It is always a preemption, never a direct
// resume of the same process.
func (n *Nucleus) handleLocalTimerInterrupt() Outcome {
	if n.current == nil {
		n.machine.Panic("nucleus: local timer fired with no current process")
		return OutcomeSchedule
	}
	n.machine.ArmLocalTimer(n.cfg.TimeSlice)
	p := n.current
	n.current = nil
	n.ready.Insert(p)
	return OutcomeSchedule
}

// handlePseudoClockInterrupt is priority 2 (spec §4.6.2): release
// every pseudo-clock waiter in FIFO order and reset the pseudo-clock
// semaphore to 0, since any negative value was driven entirely by the
// waiters just released.
func (n *Nucleus) handlePseudoClockInterrupt(localRemainder time.Duration) Outcome {
	n.machine.ArmIntervalTimer(n.cfg.ClockInterval)

	semAddr := n.PseudoClockSemAddr()
	for {
		p := n.asl.RemoveBlocked(semAddr)
		if p == nil {
			break
		}
		n.ready.Insert(p)
		n.softBlockedCount--
	}
	*semAddr = 0

	n.machine.SetLocalTimerRemaining(localRemainder)
	return n.resumeOrSchedule()
}

// handleDeviceInterrupt is priority 3 (spec §4.6.3): service the
// lowest-numbered pending device on line, aliasing the terminal line's
// transmit and receive halves.
func (n *Nucleus) handleDeviceInterrupt(line int, localRemainder time.Duration) Outcome {
	device, ok := n.machine.LowestPendingDevice(line)
	if !ok {
		n.machine.SetLocalTimerRemaining(localRemainder)
		return n.resumeOrSchedule()
	}

	waitForRead := true
	var status uint32
	if line == terminalLine && n.machine.TerminalTransmitComplete(device) {
		waitForRead = false
		status = n.machine.ReadDevice(line, device).Data0
		n.machine.WriteTerminalTransmitCommand(device, machine.DeviceCommandAck)
	} else {
		status = n.machine.ReadDevice(line, device).Status
		n.machine.WriteDeviceCommand(line, device, machine.DeviceCommandAck)
	}
	n.machine.AckDevice(line, device)

	semAddr := n.DeviceSemAddr(line, device, waitForRead)
	if released := n.IncrementSem(semAddr); released != nil {
		released.State.SetV0(status)
		n.ready.Insert(released)
		n.softBlockedCount--
	}

	n.machine.SetLocalTimerRemaining(localRemainder)
	return n.resumeOrSchedule()
}

// resumeOrSchedule is the shared tail of the pseudo-clock and device
// branches: resume the interrupted process if there was one, or fall
// through to the scheduler if the interrupt arrived during idle.
func (n *Nucleus) resumeOrSchedule() Outcome {
	if n.current != nil {
		return OutcomeResume
	}
	return OutcomeSchedule
}
