// Package arch describes the processor state the nucleus saves and
// restores on every trap: the µMPS3 register file, the cause and
// status words, and the program counter. It plays the same role here
// that pkg/sentry/arch plays for a real-hardware sentry: a small,
// architecture-specific record that every other package treats as
// opaque except through the named accessors below.
package arch

import "fmt"

// NumGPR is the number of general-purpose registers in the µMPS3
// register file (r0 is not a physical register; slots below are
// indexed by the firmware's BIOS-data-page layout).
const NumGPR = 31

// Register index aliases. These are part of the external ABI: the
// firmware and the support layer address the same slots by these
// names.
const (
	RegA0 = iota // first syscall/argument register
	RegA1
	RegA2
	RegA3
	RegV0 // first return-value register
	RegV1
	RegGP
	RegSP // stack pointer
	RegFP
	RegRA // return address
)

// State is the full processor-state record saved by firmware into the
// BIOS data page on every trap, and loaded back by the nucleus to
// resume a process. It is copied by value between the firmware's data
// page and a PCB; neither side retains a pointer into the other's
// copy.
type State struct {
	// EntryHi holds the address-space identifier, mirroring the
	// µMPS3 EntryHi register.
	EntryHi uint32

	// Cause is the cause word; bits 2..6 carry the exception code
	// (see ExceptionCode), bits 8..15 the pending-interrupt bitmap.
	Cause uint32

	// Status is the status word: interrupt-enable bits, the
	// interrupt mask, the local-timer-enable bit, and the user-mode
	// bit (StatusUserMode).
	Status uint32

	// PC is the program counter.
	PC uint32

	// GPR is the general-register file. Index with the Reg*
	// constants or a raw slot number 0..NumGPR-1.
	GPR [NumGPR]uint32
}

// Status-word bits the nucleus inspects or sets directly. The
// remainder of the status word (interrupt mask, further mode bits) is
// opaque firmware state the nucleus copies through unexamined.
const (
	StatusUserMode  uint32 = 1 << 0
	StatusIEc       uint32 = 1 << 1 // interrupts enabled, current
	StatusTE        uint32 = 1 << 3 // local timer enabled
	StatusIntMaskOn uint32 = 0xFF00
)

// Exception codes the dispatcher switches on (spec §4.4), matching
// the µMPS3 cause-word encoding.
const (
	ExcInterrupt uint32 = 0
	ExcTLBMod    uint32 = 1
	ExcTLBLoad   uint32 = 2
	ExcTLBStore  uint32 = 3
	ExcSyscall   uint32 = 8
	ExcReserved  uint32 = 10 // reserved instruction
)

// ExceptionCode extracts bits 2..6 of Cause, the field the dispatcher
// switches on.
func (s *State) ExceptionCode() uint32 {
	return (s.Cause >> 2) & 0x1F
}

// SetExceptionCode rewrites bits 2..6 of Cause, used when the
// dispatcher turns a privileged-in-user-mode syscall into a Reserved
// Instruction exception (spec §9 Open Questions).
func (s *State) SetExceptionCode(code uint32) {
	s.Cause = (s.Cause &^ (0x1F << 2)) | ((code & 0x1F) << 2)
}

// PendingInterrupts extracts bits 8..15 of Cause, the pending
// interrupt-line bitmap the interrupt handler consults.
func (s *State) PendingInterrupts() uint8 {
	return uint8((s.Cause >> 8) & 0xFF)
}

// UserMode reports whether the saved state was running with the
// user-mode bit set.
func (s *State) UserMode() bool {
	return s.Status&StatusUserMode != 0
}

// A0..A3 are the syscall argument registers.
func (s *State) A0() uint32 { return s.GPR[RegA0] }
func (s *State) A1() uint32 { return s.GPR[RegA1] }
func (s *State) A2() uint32 { return s.GPR[RegA2] }
func (s *State) A3() uint32 { return s.GPR[RegA3] }

// V0 is the primary return-value register.
func (s *State) V0() uint32 { return s.GPR[RegV0] }

// SetV0 sets the primary return-value register.
func (s *State) SetV0(v uint32) { s.GPR[RegV0] = v }

// AdvancePC advances the program counter by one instruction (4
// bytes), as required before any syscall service runs so the trap
// instruction is not re-executed on resume.
func (s *State) AdvancePC() {
	s.PC += 4
}

// String implements fmt.Stringer for log lines.
func (s *State) String() string {
	return fmt.Sprintf("pc=%#08x cause=%#08x status=%#08x a0=%#x", s.PC, s.Cause, s.Status, s.A0())
}
