package pcb

import "testing"

func TestPoolAllocExhaustion(t *testing.T) {
	p := NewPool(3)
	var got []*PCB
	for i := 0; i < 3; i++ {
		pcb, err := p.Alloc()
		if err != nil {
			t.Fatalf("Alloc #%d: unexpected error: %v", i, err)
		}
		got = append(got, pcb)
	}
	if _, err := p.Alloc(); err != ErrPoolExhausted {
		t.Fatalf("Alloc on exhausted pool: got %v, want ErrPoolExhausted", err)
	}
	if n := p.NumFree(); n != 0 {
		t.Fatalf("NumFree = %d, want 0", n)
	}

	// Freeing one PCB makes exactly one slot available again.
	p.Free(got[0])
	if n := p.NumFree(); n != 1 {
		t.Fatalf("NumFree after one Free = %d, want 1", n)
	}
	if _, err := p.Alloc(); err != nil {
		t.Fatalf("Alloc after Free: unexpected error: %v", err)
	}
}

func TestAllocZeroesState(t *testing.T) {
	p := NewPool(1)
	pcb, err := p.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	pcb.CPUTime = 42
	sem := int32(7)
	pcb.SemAdd = &sem
	pcb.Support = &Support{}
	p.Free(pcb)

	pcb2, err := p.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	if pcb2 != pcb {
		t.Fatalf("Alloc returned a different slot than was freed")
	}
	if pcb2.CPUTime != 0 || pcb2.SemAdd != nil || pcb2.Support != nil {
		t.Fatalf("Alloc did not zero-initialize reused PCB: %+v", pcb2)
	}
}

func TestPoolLen(t *testing.T) {
	p := NewPool(20)
	if p.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", p.Len())
	}
	if p.NumFree() != 20 {
		t.Fatalf("NumFree() = %d, want 20", p.NumFree())
	}
}
