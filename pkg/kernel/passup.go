package kernel

import (
	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
)

// PassUpOrDie implements spec §4.7. idx selects which of the support
// structure's two slots this exception belongs to (page-fault or
// general). CPU time has already been charged by HandleTrap's
// prologue before this runs.
func (n *Nucleus) PassUpOrDie(idx machine.PassUpIndex) Outcome {
	p := n.current
	if p == nil {
		n.machine.Panic("nucleus: exception routed to pass-up-or-die with no current process")
		return OutcomeSchedule
	}

	if p.Support == nil {
		n.TerminateSubtree(p)
		return OutcomeSchedule
	}

	p.Support.ExceptState[idx] = p.State
	ctx := p.Support.ExceptContext[idx]
	p.State.PC = ctx.PC
	p.State.Status = ctx.Status
	p.State.GPR[arch.RegSP] = ctx.Stack
	return OutcomeResume
}
