// Package pcb implements the nucleus's process control blocks: a
// statically sized free pool, the circular doubly-linked process
// queues built on top of it, and the parent/child/sibling process
// tree. Nothing in this package allocates beyond the pool's initial
// backing array — handing out PCBs by reference, never by copy, is
// the central discipline (see the "Cyclic queues" design note this
// module is grounded on).
package pcb

import (
	"time"

	"github.com/dohoanggiahuy317/go-pandos/pkg/arch"
)

// PCB is one process control block. A PCB is always reached through a
// pointer returned by a Pool; callers never copy the value.
type PCB struct {
	// queue links, valid only while the PCB is on some Queue.
	prev, next *PCB

	// tree links.
	parent       *PCB
	firstChild   *PCB
	leftSibling  *PCB
	rightSibling *PCB

	// State is the full saved processor state for this process.
	State arch.State

	// CPUTime is the cumulative CPU time charged to this process.
	CPUTime time.Duration

	// SemAdd is non-nil iff this PCB is on some ASL descriptor's
	// waiter queue, in which case it points at the semaphore value
	// whose descriptor holds it (invariant 2, spec §3).
	SemAdd *int32

	// Support is the support-structure pointer used by pass-up-or-die;
	// nil means no support layer is registered for this process.
	Support *Support

	// id is this PCB's stable slot index in the owning Pool, used
	// only for diagnostics (pkg/diag) and logging; it has no
	// semantic meaning to the nucleus.
	id int
}

// ID returns the PCB's stable pool slot index, for logging and
// introspection only.
func (p *PCB) ID() int { return p.id }

// Parent returns the PCB's parent, or nil if it is a root process.
func (p *PCB) Parent() *PCB { return p.parent }

// FirstChild returns the PCB's first child, or nil.
func (p *PCB) FirstChild() *PCB { return p.firstChild }

// NextSibling returns the PCB's right sibling, or nil. Iterate
// children of p via c := p.FirstChild(); c != nil; c = c.NextSibling().
func (p *PCB) NextSibling() *PCB { return p.rightSibling }

func (p *PCB) reset() {
	p.prev, p.next = nil, nil
	p.parent, p.firstChild, p.leftSibling, p.rightSibling = nil, nil, nil, nil
	p.State = arch.State{}
	p.CPUTime = 0
	p.SemAdd = nil
	p.Support = nil
}
