package diag

import "github.com/google/btree"

// waiterItem orders SemWaiter entries by descending contention: a
// Less b when a has strictly more waiters, or equal waiters and a
// lower ASL key (keeps iteration order deterministic across equally
// contended semaphores, which matters for test output and for
// diffing two successive snapshots in an inspector).
type waiterItem SemWaiter

func (a waiterItem) Less(than btree.Item) bool {
	b := than.(waiterItem)
	if a.Waiters != b.Waiters {
		return a.Waiters > b.Waiters
	}
	return a.Key < b.Key
}

// semIndexDegree is the B-tree's branching factor. The semaphore set
// is small (bounded by MaxSemDescriptors, default 22) so this has no
// real performance consequence; it is chosen purely to match the
// degree google/btree's own examples use.
const semIndexDegree = 32

// newSemIndex builds a degree-32 B-tree over sems ordered by
// descending waiter count, so repeated "who's most contended"
// queries against one Snapshot don't re-sort from scratch.
func newSemIndex(sems []SemWaiter) *waiterBTree {
	t := &waiterBTree{tree: btree.New(semIndexDegree)}
	for _, s := range sems {
		t.tree.ReplaceOrInsert(waiterItem(s))
	}
	return t
}

// waiterBTree wraps a google/btree.BTree of waiterItem so callers
// never juggle the untyped btree.Item interface directly.
type waiterBTree struct {
	tree *btree.BTree
}

// Descending returns every indexed SemWaiter in descending-contention
// order.
func (t *waiterBTree) Descending() []SemWaiter {
	out := make([]SemWaiter, 0, t.tree.Len())
	t.tree.Ascend(func(it btree.Item) bool {
		out = append(out, SemWaiter(it.(waiterItem)))
		return true
	})
	return out
}

// Top returns the n most contended semaphores (fewer if the index
// holds less than n), for a bounded "hot semaphores" report.
func (t *waiterBTree) Top(n int) []SemWaiter {
	out := make([]SemWaiter, 0, n)
	t.tree.Ascend(func(it btree.Item) bool {
		if len(out) >= n {
			return false
		}
		out = append(out, SemWaiter(it.(waiterItem)))
		return true
	})
	return out
}
