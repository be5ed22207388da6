package machine

import "time"

// timers holds the local (per-process) timer and the interval
// (pseudo-clock) timer. Both count down; Tick advances both by a
// wall-clock delta and latches a "fired" bit that PendingInterrupts
// reports until the corresponding line is acknowledged (ArmLocalTimer
// / ArmIntervalTimer clear it).
type timers struct {
	localRemaining time.Duration
	localFired     bool

	intervalRemaining time.Duration
	intervalFired     bool
}

func (t *timers) init() {
	// An unarmed local timer reads as "maximum duration", matching the
	// scheduler's idle-wait behavior of masking it (spec §4.3).
	t.localRemaining = time.Duration(1<<63 - 1)
	t.intervalRemaining = 100 * time.Millisecond
}

// ArmLocalTimer (re)arms the local timer with d and acknowledges any
// pending local-timer interrupt.
func (m *Machine) ArmLocalTimer(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localRemaining = d
	m.localFired = false
}

// LocalTimerRemaining returns the time left on the local timer,
// snapshotted at interrupt entry so a resumed process keeps its slice
// remainder instead of silently getting a fresh one (spec §4.6).
func (m *Machine) LocalTimerRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localRemaining
}

// SetLocalTimerRemaining restores a previously snapshotted slice
// remainder without clearing the fired bit.
func (m *Machine) SetLocalTimerRemaining(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localRemaining = d
}

// MaskLocalTimer arms the local timer with an effectively infinite
// duration, used by the scheduler's idle path so the next event is
// the pseudo-clock or a device, never a spurious local-timer fire
// (spec §4.3).
func (m *Machine) MaskLocalTimer() {
	m.ArmLocalTimer(time.Duration(1<<63 - 1))
}

// ArmIntervalTimer (re)arms the pseudo-clock interval timer with d
// (spec default: 100ms) and acknowledges any pending interval-timer
// interrupt.
func (m *Machine) ArmIntervalTimer(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intervalRemaining = d
	m.intervalFired = false
}

// Tick advances both timers by d. A timer that reaches zero or below
// latches its fired bit and clamps at zero; it stays fired until the
// corresponding Arm* call runs (as the real interrupt handlers do on
// acknowledgement).
func (m *Machine) Tick(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localRemaining -= d
	if m.localRemaining <= 0 {
		m.localRemaining = 0
		m.localFired = true
	}
	m.intervalRemaining -= d
	if m.intervalRemaining <= 0 {
		m.intervalRemaining = 0
		m.intervalFired = true
	}
}
