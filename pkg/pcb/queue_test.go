package pcb

import "testing"

func TestQueueFIFOOrder(t *testing.T) {
	pool := NewPool(5)
	var pcbs []*PCB
	for i := 0; i < 5; i++ {
		p, err := pool.Alloc()
		if err != nil {
			t.Fatal(err)
		}
		pcbs = append(pcbs, p)
	}

	var q Queue
	for _, p := range pcbs {
		q.Insert(p)
	}
	for i, want := range pcbs {
		got := q.RemoveHead()
		if got != want {
			t.Fatalf("RemoveHead #%d = %v, want %v", i, got, want)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("queue not empty after draining all inserts")
	}
	if q.RemoveHead() != nil {
		t.Fatalf("RemoveHead on empty queue returned non-nil")
	}
}

func TestQueueRemoveArbitrary(t *testing.T) {
	pool := NewPool(3)
	a, _ := pool.Alloc()
	b, _ := pool.Alloc()
	c, _ := pool.Alloc()

	var q Queue
	q.Insert(a)
	q.Insert(b)
	q.Insert(c)

	// Remove the middle element; FIFO order of the remainder is preserved.
	if got := q.Remove(b); got != b {
		t.Fatalf("Remove(b) = %v, want b", got)
	}
	if got := q.RemoveHead(); got != a {
		t.Fatalf("RemoveHead = %v, want a", got)
	}
	if got := q.RemoveHead(); got != c {
		t.Fatalf("RemoveHead = %v, want c", got)
	}
	if !q.IsEmpty() {
		t.Fatalf("queue not empty")
	}
}

func TestQueueRemoveTailUpdatesTailPointer(t *testing.T) {
	pool := NewPool(2)
	a, _ := pool.Alloc()
	b, _ := pool.Alloc()

	var q Queue
	q.Insert(a)
	q.Insert(b)

	q.Remove(b) // b is the tail
	q.Insert(b) // re-insert; if tail wasn't fixed up, this corrupts the ring

	got := q.RemoveHead()
	if got != a {
		t.Fatalf("RemoveHead = %v, want a", got)
	}
	got = q.RemoveHead()
	if got != b {
		t.Fatalf("RemoveHead = %v, want b", got)
	}
	if !q.IsEmpty() {
		t.Fatalf("queue not empty")
	}
}

func TestQueueRemoveLastElementClearsTail(t *testing.T) {
	pool := NewPool(1)
	a, _ := pool.Alloc()

	var q Queue
	q.Insert(a)
	q.Remove(a)

	if !q.IsEmpty() {
		t.Fatalf("queue should be empty after removing its only element")
	}
	if a.next != nil || a.prev != nil {
		t.Fatalf("removed PCB still carries stale queue links: next=%v prev=%v", a.next, a.prev)
	}
}

func TestQueueLen(t *testing.T) {
	pool := NewPool(3)
	var q Queue
	if q.Len() != 0 {
		t.Fatalf("Len() = %d on empty queue, want 0", q.Len())
	}
	for i := 0; i < 3; i++ {
		p, _ := pool.Alloc()
		q.Insert(p)
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}
	q.RemoveHead()
	if q.Len() != 2 {
		t.Fatalf("Len() = %d after RemoveHead, want 2", q.Len())
	}
}

func TestQueueHeadDoesNotRemove(t *testing.T) {
	pool := NewPool(2)
	a, _ := pool.Alloc()
	b, _ := pool.Alloc()
	var q Queue
	q.Insert(a)
	q.Insert(b)

	if h := q.Head(); h != a {
		t.Fatalf("Head() = %v, want a", h)
	}
	if h := q.Head(); h != a {
		t.Fatalf("Head() changed the queue on repeated calls")
	}
}
