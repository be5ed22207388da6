package pcb

import "github.com/pkg/errors"

// ErrPoolExhausted is returned by Alloc when the free pool is empty.
var ErrPoolExhausted = errors.New("pcb: pool exhausted")

// Pool is the statically sized bank of process records (spec §3
// invariant 6). Storage is allocated once, at construction; Alloc and
// Free only move PCBs between the free list and the caller — the pool
// itself never grows.
type Pool struct {
	storage []PCB
	free    []*PCB
}

// NewPool allocates a pool of n PCBs, all initially free. n is fixed
// for the pool's lifetime (the nucleus carries no dynamic allocation,
// per spec Non-goals).
func NewPool(n int) *Pool {
	p := &Pool{
		storage: make([]PCB, n),
		free:    make([]*PCB, 0, n),
	}
	for i := range p.storage {
		p.storage[i].id = i
		p.free = append(p.free, &p.storage[i])
	}
	return p
}

// Len returns the pool's total capacity.
func (p *Pool) Len() int { return len(p.storage) }

// NumFree returns the number of PCBs currently on the free list.
func (p *Pool) NumFree() int { return len(p.free) }

// ByID returns the PCB at the given pool slot index and true, or
// (nil, false) if id is out of range. The returned pointer is valid
// whether the slot is currently allocated or free; callers that only
// want live processes should cross-reference against the nucleus's
// own bookkeeping (ready queue, current slot, ASL) rather than trust
// occupancy alone.
func (p *Pool) ByID(id int) (*PCB, bool) {
	if id < 0 || id >= len(p.storage) {
		return nil, false
	}
	return &p.storage[id], true
}

// Alloc returns a zero-initialized PCB from the free pool, or
// ErrPoolExhausted if none remain. The returned PCB has no queue
// links, no tree links, a zeroed register file, zero CPU time, and a
// nil blocking key and support pointer.
func (p *Pool) Alloc() (*PCB, error) {
	n := len(p.free)
	if n == 0 {
		return nil, ErrPoolExhausted
	}
	pcb := p.free[n-1]
	p.free = p.free[:n-1]
	pcb.reset()
	return pcb, nil
}

// Free returns pcb to the free pool. The caller must have already
// detached pcb from every queue and from the process tree (spec §3
// invariant 1); Free does not verify this beyond clearing the links.
func (p *Pool) Free(pcb *PCB) {
	pcb.reset()
	p.free = append(p.free, pcb)
}
