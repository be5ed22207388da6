package pcb

import (
	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
)

// Support is the per-process support structure pass-up-or-die writes
// into and resumes from (spec §4.7, §6 "Exposed surface to the
// support layer"). Only ExceptState and ExceptContext are meaningful
// to the nucleus; Private is reserved for the support layer's own use
// (page tables, an address-space id, and so on) and the nucleus never
// reads or writes it.
type Support struct {
	// ExceptState holds the trapped processor state the nucleus
	// copies in on pass-up, indexed by machine.PassUpIndex.
	ExceptState [2]arch.State

	// ExceptContext holds the handler entry point (stack, status, PC)
	// the nucleus loads on pass-up, indexed by machine.PassUpIndex.
	ExceptContext [2]machine.ContextDescriptor

	// Private is opaque to the nucleus.
	Private interface{}
}
