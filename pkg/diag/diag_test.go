package diag_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/diag"
	"github.com/dohoanggiahuy317/go-pandos/pkg/kernel"
	"github.com/dohoanggiahuy317/go-pandos/pkg/machine"
	"github.com/dohoanggiahuy317/go-pandos/pkg/syscalls"
)

func newTestNucleus(t *testing.T) (*kernel.Nucleus, *machine.Machine) {
	t.Helper()
	m, err := machine.New(machine.Config{})
	if err != nil {
		t.Fatalf("machine.New: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	n, err := kernel.New(kernel.Config{
		MaxProc:           4,
		MaxSemDescriptors: 6,
		TimeSlice:         5 * time.Millisecond,
		ClockInterval:     100 * time.Millisecond,
		NumDeviceLines:    5,
		NumDevicesPerLine: 8,
	}, m, nil)
	if err != nil {
		t.Fatalf("kernel.New: %v", err)
	}
	syscalls.RegisterAll(n)
	return n, m
}

func TestTakeReflectsCurrentAndReady(t *testing.T) {
	n, _ := newTestNucleus(t)
	a, _ := n.Boot(0x1000, 0x9000, nil)
	b, err := n.CreateProcess(a, arch.State{}, nil)
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}

	res := n.Schedule()
	if res.Action != kernel.ActionRun {
		t.Fatalf("Schedule() action = %v, want ActionRun", res.Action)
	}

	s := diag.Take(n)
	if s.ProcessCount != 2 {
		t.Fatalf("ProcessCount = %d, want 2", s.ProcessCount)
	}
	if !s.HasCurrent || s.CurrentID != a.ID() {
		t.Fatalf("CurrentID = %d (has=%v), want %d", s.CurrentID, s.HasCurrent, a.ID())
	}
	if len(s.ReadyIDs) != 1 || s.ReadyIDs[0] != b.ID() {
		t.Fatalf("ReadyIDs = %v, want [%d]", s.ReadyIDs, b.ID())
	}
	if _, ok := s.CPUTimesNanos[a.ID()]; !ok {
		t.Fatalf("CPUTimesNanos missing entry for current process %d", a.ID())
	}
	if _, ok := s.CPUTimesNanos[b.ID()]; !ok {
		t.Fatalf("CPUTimesNanos missing entry for ready process %d", b.ID())
	}
}

func TestMarshalJSONRoundTrips(t *testing.T) {
	n, _ := newTestNucleus(t)
	n.Boot(0x1000, 0x9000, nil)
	n.Schedule()

	buf, err := diag.MarshalJSON(diag.Take(n))
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(buf, &out); err != nil {
		t.Fatalf("json.Unmarshal of diag output: %v", err)
	}
	if _, ok := out["process_count"]; !ok {
		t.Fatalf("decoded JSON missing process_count: %s", buf)
	}
}

func TestMarshalProtoIsNonEmptyAndStable(t *testing.T) {
	n, _ := newTestNucleus(t)
	n.Boot(0x1000, 0x9000, nil)
	n.Schedule()

	s := diag.Take(n)
	a := diag.MarshalProto(s)
	b := diag.MarshalProto(s)
	if len(a) == 0 {
		t.Fatalf("MarshalProto returned empty encoding")
	}
	if string(a) != string(b) {
		t.Fatalf("MarshalProto is not deterministic across calls on the same Snapshot")
	}
}

// TestCloneMatchesOriginal checks that Clone produces a value equal to
// its source down to every field (cmp.Diff walks the struct and its
// slice/map fields instead of a hand-written field-by-field check that
// would silently stop covering a field added later).
func TestCloneMatchesOriginal(t *testing.T) {
	n, _ := newTestNucleus(t)
	a, _ := n.Boot(0x1000, 0x9000, nil)
	n.CreateProcess(a, arch.State{}, nil)
	n.Schedule()

	s := diag.Take(n)
	clone := diag.Clone(s)
	if diff := cmp.Diff(s, clone); diff != "" {
		t.Fatalf("Clone(s) differs from s (-want +got):\n%s", diff)
	}
}

func syscallTrap(num uint32) arch.State {
	var s arch.State
	s.SetExceptionCode(arch.ExcSyscall)
	s.GPR[arch.RegA0] = num
	return s
}

func TestTopContendedOrdersByDescendingWaiters(t *testing.T) {
	n, m := newTestNucleus(t)
	root, _ := n.Boot(0x1000, 0x9000, nil)
	n.CreateProcess(root, arch.State{}, nil)
	n.CreateProcess(root, arch.State{}, nil)
	n.Schedule() // root becomes current; its two children wait on the ready queue

	// root blocks alone on light; each child is then scheduled in and
	// blocks on heavy. The last block deadlocks the machine, but every
	// ASL descriptor is inserted before that panic fires.
	var light, heavy int32
	m.SaveTrap(syscallTrap(syscalls.P))
	n.HandleTrap(kernel.SyscallArgs{SemAddr: &light})
	for i := 0; i < 2; i++ {
		m.SaveTrap(syscallTrap(syscalls.P))
		n.HandleTrap(kernel.SyscallArgs{SemAddr: &heavy})
	}

	s := diag.Take(n)
	top := diag.TopContended(s, 1)
	if len(top) > 1 {
		t.Fatalf("Top(1) returned %d entries, want at most 1", len(top))
	}
	if len(top) != 1 || top[0].Waiters != 2 {
		t.Fatalf("Top(1) = %+v, want the semaphore with 2 waiters", top)
	}
	all := diag.TopContended(s, 2)
	if len(all) != 2 || all[0].Waiters != 2 || all[1].Waiters != 1 {
		t.Fatalf("Top(2) = %+v, want waiters in descending order 2, 1", all)
	}
}
