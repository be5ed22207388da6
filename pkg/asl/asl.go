// Package asl implements the nucleus's Active Semaphore List: a
// statically sized, address-sorted table of semaphore descriptors,
// each owning the FIFO of PCBs blocked on that semaphore (spec §4.2).
package asl

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/dohoanggiahuy317/go-pandos/pkg/pcb"
)

// ErrDescriptorsExhausted is returned by InsertBlocked when a new
// descriptor is needed but the free list is empty.
var ErrDescriptorsExhausted = errors.New("asl: descriptor pool exhausted")

// descriptor is one ASL node: the semaphore's address (its sort key)
// and the FIFO of PCBs blocked on it.
type descriptor struct {
	key     uintptr
	semAdd  *int32
	next    *descriptor
	waiters pcb.Queue
}

// keyOf returns the sort key for a semaphore address: its numeric
// pointer value. Two distinct semaphores never compare equal; this is
// exactly "sorted by address" as the spec requires.
func keyOf(semAdd *int32) uintptr {
	return uintptr(unsafe.Pointer(semAdd))
}

// List is the Active Semaphore List. The zero value is not usable;
// construct with New.
type List struct {
	storage []descriptor
	free    []*descriptor

	head *descriptor // sentinel, key 0
	tail *descriptor // sentinel, key max uintptr
}

// New allocates an ASL with n descriptor slots (spec default: 22,
// MAXPROC+2) plus the two sentinels, which are not drawn from n.
func New(n int) *List {
	l := &List{
		storage: make([]descriptor, n),
		free:    make([]*descriptor, 0, n),
	}
	l.head = &descriptor{key: 0}
	l.tail = &descriptor{key: ^uintptr(0)}
	l.head.next = l.tail
	for i := range l.storage {
		l.free = append(l.free, &l.storage[i])
	}
	return l
}

// NumFree returns the number of unused descriptor slots.
func (l *List) NumFree() int { return len(l.free) }

// find walks from the head sentinel and returns the predecessor and
// the first descriptor whose key is >= the target's. The search never
// walks off the list because the tail sentinel's key is the maximum
// uintptr.
func (l *List) find(key uintptr) (prev, cur *descriptor) {
	prev = l.head
	cur = l.head.next
	for cur.key < key {
		prev = cur
		cur = cur.next
	}
	return prev, cur
}

// InsertBlocked finds or creates the descriptor for semAdd, appends p
// to its waiter FIFO, and sets p's blocking key. It fails only when a
// new descriptor is needed and the free list is exhausted; no PCB
// state is read or mutated on failure.
func (l *List) InsertBlocked(semAdd *int32, p *pcb.PCB) error {
	key := keyOf(semAdd)
	prev, cur := l.find(key)
	if cur.key != key {
		if len(l.free) == 0 {
			return ErrDescriptorsExhausted
		}
		d := l.free[len(l.free)-1]
		l.free = l.free[:len(l.free)-1]
		d.key = key
		d.semAdd = semAdd
		d.waiters = pcb.Queue{}
		d.next = cur
		prev.next = d
		cur = d
	}
	cur.waiters.Insert(p)
	p.SemAdd = semAdd
	return nil
}

// removeDescriptor unlinks d (found via its predecessor) and returns
// it to the free list. Called only when d's waiter queue has just
// become empty.
func (l *List) removeDescriptor(prev, d *descriptor) {
	prev.next = d.next
	d.next = nil
	d.semAdd = nil
	l.free = append(l.free, d)
}

// RemoveBlocked dequeues and returns the head PCB blocked on semAdd,
// clearing its blocking key. If the descriptor's waiter queue becomes
// empty, the descriptor is freed before RemoveBlocked returns. It
// returns nil if no descriptor exists for semAdd.
func (l *List) RemoveBlocked(semAdd *int32) *pcb.PCB {
	key := keyOf(semAdd)
	prev, cur := l.find(key)
	if cur.key != key {
		return nil
	}
	p := cur.waiters.RemoveHead()
	if p == nil {
		// Invariant 3 forbids an empty descriptor from persisting, so
		// this should not be reachable; treat defensively as "no PCB".
		return nil
	}
	p.SemAdd = nil
	if cur.waiters.IsEmpty() {
		l.removeDescriptor(prev, cur)
	}
	return p
}

// OutBlocked removes p from the waiter queue of the descriptor named
// by p.SemAdd. It returns p on success, or nil if p has no blocking
// key or no descriptor exists for that key (a caller error). It does
// not check that p is actually on that descriptor's waiter queue. If
// the queue becomes empty, the descriptor is freed.
func (l *List) OutBlocked(p *pcb.PCB) *pcb.PCB {
	if p.SemAdd == nil {
		return nil
	}
	key := keyOf(p.SemAdd)
	prev, cur := l.find(key)
	if cur.key != key {
		return nil
	}
	removed := cur.waiters.Remove(p)
	if removed == nil {
		return nil
	}
	removed.SemAdd = nil
	if cur.waiters.IsEmpty() {
		l.removeDescriptor(prev, cur)
	}
	return removed
}

// DescriptorSnapshot is a point-in-time, read-only view of one live
// ASL descriptor, used by introspection tooling (pkg/diag) that must
// not hold a reference into the live list.
type DescriptorSnapshot struct {
	Key     uintptr
	Waiters int
}

// Snapshot returns a DescriptorSnapshot for every live descriptor
// (sentinels excluded), in ascending key order.
func (l *List) Snapshot() []DescriptorSnapshot {
	var out []DescriptorSnapshot
	for d := l.head.next; d != l.tail; d = d.next {
		out = append(out, DescriptorSnapshot{Key: d.key, Waiters: d.waiters.Len()})
	}
	return out
}

// HeadBlocked peeks at the head of semAdd's waiter queue without
// removing it. It returns nil if there is no descriptor for semAdd.
func (l *List) HeadBlocked(semAdd *int32) *pcb.PCB {
	key := keyOf(semAdd)
	_, cur := l.find(key)
	if cur.key != key {
		return nil
	}
	return cur.waiters.Head()
}
