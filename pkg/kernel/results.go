package kernel

import "github.com/dohoanggiahuy317/go-pandos/pkg/pcb"

// lastSupport holds GET_SUPPORT_DATA's result. Like the pointer-bearing
// arguments in SyscallArgs, a support-structure pointer cannot be
// packed into a 32-bit v0 without a guest address space to translate
// it through, so it is handed back as a typed value the caller reads
// after HandleTrap returns rather than squeezed into the register
// file.
func (n *Nucleus) SetLastSupport(s *pcb.Support) { n.lastSupport = s }

// LastSupport returns the support structure pointer set by the most
// recent GET_SUPPORT_DATA call.
func (n *Nucleus) LastSupport() *pcb.Support { return n.lastSupport }
