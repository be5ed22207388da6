package kernel

import "github.com/dohoanggiahuy317/go-pandos/pkg/pcb"

// SchedulerAction tags what the scheduler decided to do (spec §4.3).
// It is the terminal member of the "what to do next" enum described
// in the nucleus's coroutine-like-syscalls design note: every trap
// ends by resuming a process, or by one of the three states below.
type SchedulerAction int

const (
	// ActionRun means a process was popped off the ready queue and is
	// now the current process.
	ActionRun SchedulerAction = iota
	// ActionHalt means processCount reached zero: orderly shutdown.
	ActionHalt
	// ActionIdle means runnable work may still arrive (softBlockedCount
	// > 0) but nothing is ready right now; the caller should wait for
	// the next interrupt and call HandleTrap again.
	ActionIdle
	// ActionPanic means processCount > 0 and softBlockedCount == 0: a
	// deadlock. No future event can ever make progress.
	ActionPanic
)

// SchedulerResult is what Scheduler and HandleTrap hand back to the
// driver loop.
type SchedulerResult struct {
	Action  SchedulerAction
	Current *pcb.PCB // non-nil iff Action == ActionRun
}

// Schedule runs the scheduling algorithm (spec §4.3) for callers
// outside the kernel package; call sites within it call
// scheduleLocked directly. Schedule does not acquire n.mu.
func (n *Nucleus) Schedule() *SchedulerResult {
	return n.scheduleLocked()
}

func (n *Nucleus) scheduleLocked() *SchedulerResult {
	if p := n.ready.RemoveHead(); p != nil {
		n.current = p
		n.machine.ArmLocalTimer(n.cfg.TimeSlice)
		n.startTOD = n.machine.Now()
		return &SchedulerResult{Action: ActionRun, Current: p}
	}

	switch {
	case n.processCount == 0:
		n.machine.Halt()
		n.log.Info("nucleus: halt, no processes remain")
		return &SchedulerResult{Action: ActionHalt}
	case n.softBlockedCount > 0:
		n.machine.MaskLocalTimer()
		n.current = nil
		return &SchedulerResult{Action: ActionIdle}
	default:
		n.machine.Panic("nucleus: deadlock, runnable processes but nothing soft-blocked")
		n.log.Error("nucleus: deadlock detected")
		return &SchedulerResult{Action: ActionPanic}
	}
}
