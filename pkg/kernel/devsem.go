package kernel

// terminalLine is the firmware line number dedicated to terminal
// devices, the only line with an aliased transmit half (spec §3
// "Device semaphore table").
const terminalLine = 7

// DeviceSemAddr returns the address of the semaphore backing (line,
// device). waitForRead selects the receive half; on terminalLine,
// waitForRead == false selects the transmit half, 8 slots further
// into the table (spec §3, §4.5 SYS5).
func (n *Nucleus) DeviceSemAddr(line, device int, waitForRead bool) *int32 {
	idx := (line-3)*n.cfg.NumDevicesPerLine + device
	if line == terminalLine && !waitForRead {
		idx += n.cfg.NumDevicesPerLine
	}
	return &n.deviceSems[idx]
}

// PseudoClockSemAddr returns the address of the pseudo-clock
// semaphore, V'd every interval-timer tick and P'd by WAIT_FOR_CLOCK.
func (n *Nucleus) PseudoClockSemAddr() *int32 {
	return &n.pseudoClock
}

// IsSoftBlocking reports whether semAdd identifies a device or
// pseudo-clock semaphore, as opposed to a general-purpose one created
// by a process. Used by termination (spec §4.5 termination detail) to
// decide whether to restore counting semantics (increment) or just
// decrement softBlockedCount.
func (n *Nucleus) IsSoftBlocking(semAdd *int32) bool {
	if semAdd == &n.pseudoClock {
		return true
	}
	for i := range n.deviceSems {
		if semAdd == &n.deviceSems[i] {
			return true
		}
	}
	return false
}
