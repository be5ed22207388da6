package kernel

import (
	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
	"github.com/dohoanggiahuy317/go-pandos/pkg/pcb"
)

// CreateProcess implements the allocation half of SYS1 (spec §4.5):
// draw a PCB from the free pool, initialize it from initial and
// support, attach it as a child of parent, and push it onto the ready
// queue. It returns pcb.ErrPoolExhausted, unmodified, when the pool
// has nothing left to give.
func (n *Nucleus) CreateProcess(parent *pcb.PCB, initial arch.State, support *pcb.Support) (*pcb.PCB, error) {
	p, err := n.pool.Alloc()
	if err != nil {
		return nil, err
	}
	p.State = initial
	p.Support = support
	pcb.InsertChild(parent, p)
	n.ready.Insert(p)
	n.processCount++
	return p, nil
}
