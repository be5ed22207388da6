package machine

import (
	"testing"
	"time"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSaveTrapRoundTrip(t *testing.T) {
	m := newTestMachine(t)
	var s arch.State
	s.PC = 0x1000
	s.GPR[arch.RegA0] = 7
	m.SaveTrap(s)

	got := m.SavedState()
	if got.PC != 0x1000 || got.GPR[arch.RegA0] != 7 {
		t.Fatalf("SavedState() = %+v, want PC=0x1000 a0=7", got)
	}
}

func TestPassUpVector(t *testing.T) {
	m := newTestMachine(t)
	ctx := ContextDescriptor{Stack: 0x2000, Status: 1, PC: 0x3000}
	m.SetPassUpVector(PassUpGeneral, ctx)
	if got := m.PassUpVector(PassUpGeneral); got != ctx {
		t.Fatalf("PassUpVector(General) = %+v, want %+v", got, ctx)
	}
	if got := m.PassUpVector(PassUpTLB); got == ctx {
		t.Fatalf("PassUpVector(TLB) unexpectedly matches the General slot")
	}
}

func TestLocalTimerFiresAfterSlice(t *testing.T) {
	m := newTestMachine(t)
	m.ArmLocalTimer(5 * time.Millisecond)

	m.Tick(3 * time.Millisecond)
	if m.PendingInterrupts()&(1<<1) != 0 {
		t.Fatalf("local timer fired early")
	}
	m.Tick(3 * time.Millisecond)
	if m.PendingInterrupts()&(1<<1) == 0 {
		t.Fatalf("local timer did not fire after slice elapsed")
	}
}

func TestIntervalTimerFiresAt100ms(t *testing.T) {
	m := newTestMachine(t)
	m.ArmIntervalTimer(100 * time.Millisecond)
	m.MaskLocalTimer()

	m.Tick(100 * time.Millisecond)
	bits := m.PendingInterrupts()
	if bits&(1<<2) == 0 {
		t.Fatalf("pseudo-clock did not fire at 100ms, bits=%08b", bits)
	}
	if bits&(1<<1) != 0 {
		t.Fatalf("masked local timer fired unexpectedly")
	}
}

func TestDeviceInterruptPriorityLowestDeviceFirst(t *testing.T) {
	m := newTestMachine(t)
	m.RaiseDeviceInterrupt(3, 5, 0x1)
	m.RaiseDeviceInterrupt(3, 2, 0x1)

	dev, ok := m.LowestPendingDevice(3)
	if !ok || dev != 2 {
		t.Fatalf("LowestPendingDevice(3) = (%d, %v), want (2, true)", dev, ok)
	}
}

func TestTerminalTransmitVsReceiveAliasing(t *testing.T) {
	m := newTestMachine(t)
	m.RaiseDeviceInterrupt(7, 0, 0x1) // a receive-side completion

	if m.TerminalTransmitComplete(0) {
		t.Fatalf("receive completion misread as a transmit completion")
	}

	m.RaiseTerminalTransmitInterrupt(0, 0x5)
	if !m.TerminalTransmitComplete(0) {
		t.Fatalf("TerminalTransmitComplete(0) = false after a transmit completion")
	}
}

func TestAckDeviceClearsPendingAndStatus(t *testing.T) {
	m := newTestMachine(t)
	m.RaiseDeviceInterrupt(4, 1, 0x7)
	m.AckDevice(4, 1)

	if m.AnyDevicePending(4) {
		t.Fatalf("device still pending after AckDevice")
	}
	if got := m.ReadDevice(4, 1).Status; got != 0 {
		t.Fatalf("Status = %d after ack, want 0", got)
	}
}
