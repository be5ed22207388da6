package kernel

import "github.com/dohoanggiahuy317/go-pandos/pkg/asl"

// The accessors in this file exist only for pkg/diag; nothing in the
// trap path calls them. Each takes the lock independently rather than
// piggybacking on a caller's lock, since a diagnostic poller runs
// concurrently with, not inside, trap handling.

// ReadyIDs returns the pool slot index of every PCB on the ready
// queue, in the order the scheduler would run them.
func (n *Nucleus) ReadyIDs() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ready.IDs()
}

// CurrentID returns the pool slot index of the running process and
// true, or (0, false) if the CPU is idle.
func (n *Nucleus) CurrentID() (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return 0, false
	}
	return n.current.ID(), true
}

// ASLSnapshot returns a point-in-time view of every live semaphore
// descriptor.
func (n *Nucleus) ASLSnapshot() []asl.DescriptorSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.asl.Snapshot()
}

// CPUTimeNanos returns the cumulative CPU time charged to the PCB
// with the given pool slot index, or (0, false) if id names no
// process currently known to the nucleus (ready, current, or blocked
// on a semaphore). Callers get ids from ReadyIDs or CurrentID, so the
// id always resolves to a pool slot; this only
// guards against a stale id from a process that has since exited.
func (n *Nucleus) CPUTimeNanos(id int) (int64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.pool.ByID(id)
	if !ok {
		return 0, false
	}
	if n.current == p {
		return int64(p.CPUTime), true
	}
	for _, rid := range n.ready.IDs() {
		if rid == id {
			return int64(p.CPUTime), true
		}
	}
	if p.SemAdd != nil {
		return int64(p.CPUTime), true
	}
	return 0, false
}
