package kernel_test

import (
	"testing"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/kernel"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
	"github.com/dohoanggiahuy317/go-pandos/pkg/pcb"
)

func TestPassUpOrDieWithoutSupportTerminates(t *testing.T) {
	n, m := newTestNucleus(t)
	p, _ := n.Boot(0x1000, 0x9000, nil)
	n.Schedule()

	var trap arch.State
	trap.SetExceptionCode(arch.ExcTLBMod) // routed to PassUpTLB
	m.SaveTrap(trap)

	res := n.HandleTrap(kernel.SyscallArgs{})
	if res.Action != kernel.ActionHalt {
		t.Fatalf("HandleTrap() action = %v, want ActionHalt (subtree died, no processes left)", res.Action)
	}
	_ = p
	if n.ProcessCount() != 0 {
		t.Fatalf("processCount = %d, want 0", n.ProcessCount())
	}
}

func TestPassUpOrDieWithSupportResumesIntoHandler(t *testing.T) {
	n, m := newTestNucleus(t)
	support := &pcb.Support{}
	support.ExceptContext[machine.PassUpGeneral] = machine.ContextDescriptor{
		Stack: 0x7000, Status: 0x2, PC: 0x5000,
	}
	_, err := n.Boot(0x1000, 0x9000, support)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	n.Schedule()

	var trap arch.State
	trap.SetExceptionCode(arch.ExcReserved) // routed to PassUpGeneral
	m.SaveTrap(trap)

	res := n.HandleTrap(kernel.SyscallArgs{})
	if res.Action != kernel.ActionRun {
		t.Fatalf("HandleTrap() action = %v, want ActionRun", res.Action)
	}
	if res.Current.State.PC != 0x5000 {
		t.Fatalf("PC = %#x, want 0x5000 (loaded from ExceptContext)", res.Current.State.PC)
	}
	if res.Current.Support.ExceptState[machine.PassUpGeneral].Cause>>2&0x1F != arch.ExcReserved {
		t.Fatalf("ExceptState was not populated with the trapped state")
	}
}

func TestPrivilegedSyscallInUserModeRewritesToReservedInstruction(t *testing.T) {
	n, m := newTestNucleus(t)
	support := &pcb.Support{}
	support.ExceptContext[machine.PassUpGeneral] = machine.ContextDescriptor{PC: 0x6000}
	n.Boot(0x1000, 0x9000, support)
	n.Schedule()

	var trap arch.State
	trap.SetExceptionCode(arch.ExcSyscall)
	trap.Status = arch.StatusUserMode
	trap.GPR[arch.RegA0] = 3 // P, a privileged service
	m.SaveTrap(trap)

	res := n.HandleTrap(kernel.SyscallArgs{})
	if res.Action != kernel.ActionRun || res.Current.State.PC != 0x6000 {
		t.Fatalf("HandleTrap() = %+v, want pass-up into the support handler at 0x6000", res)
	}
	gotCode := res.Current.Support.ExceptState[machine.PassUpGeneral].Cause >> 2 & 0x1F
	if gotCode != arch.ExcReserved {
		t.Fatalf("exception code delivered to support layer = %d, want ExcReserved (%d)", gotCode, arch.ExcReserved)
	}
}
