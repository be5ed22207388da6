// Package diag is the nucleus's read-only introspection surface: a
// point-in-time Snapshot of scheduler and semaphore state, exported
// in JSON or a small hand-rolled protobuf wire encoding for an
// out-of-process inspector (cmd/nucleus inspect) to consume. Nothing
// here is on the trap path; every export walks a Snapshot already
// taken under the nucleus's lock, never the live state itself.
package diag

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/mohae/deepcopy"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dohoanggiahuy317/go-pandos/pkg/kernel"
)

// SemWaiter is one live ASL descriptor's exported shape.
type SemWaiter struct {
	Key     uint64 `json:"key"`
	Waiters int    `json:"waiters"`
}

// Snapshot is a point-in-time export of nucleus scheduler state.
type Snapshot struct {
	ProcessCount     int           `json:"process_count"`
	SoftBlockedCount int           `json:"soft_blocked_count"`
	CurrentID        int           `json:"current_id"`
	HasCurrent       bool          `json:"has_current"`
	ReadyIDs         []int         `json:"ready_ids"`
	Semaphores       []SemWaiter   `json:"semaphores"`
	CPUTimesNanos    map[int]int64 `json:"cpu_times_nanos"`
}

// Take reads a Snapshot off of n. It acquires n's lock once per
// accessor call (see pkg/kernel/diag.go); two Take calls racing a
// busy nucleus can observe slightly different instants, which is
// expected of any live poller.
func Take(n *kernel.Nucleus) Snapshot {
	s := Snapshot{
		ProcessCount:     n.ProcessCount(),
		SoftBlockedCount: n.SoftBlockedCount(),
		ReadyIDs:         n.ReadyIDs(),
	}
	s.CPUTimesNanos = make(map[int]int64)
	if id, ok := n.CurrentID(); ok {
		s.CurrentID = id
		s.HasCurrent = true
		if t, ok := n.CPUTimeNanos(id); ok {
			s.CPUTimesNanos[id] = t
		}
	}
	for _, id := range s.ReadyIDs {
		if t, ok := n.CPUTimeNanos(id); ok {
			s.CPUTimesNanos[id] = t
		}
	}
	for _, d := range n.ASLSnapshot() {
		s.Semaphores = append(s.Semaphores, SemWaiter{Key: uint64(d.Key), Waiters: d.Waiters})
	}
	return s
}

// Clone returns a deep copy of s, safe to hand to a caller that will
// mutate or retain it past the next Take. Snapshot holds only slices
// and a map of value types, so this is mostly defensive: it protects a future
// field addition (a nested pointer) from silently turning Clone into
// an alias of the original.
func Clone(s Snapshot) Snapshot {
	return deepcopy.Copy(s).(Snapshot)
}

// sortedSemaphores returns s.Semaphores ordered by descending waiter
// count, for "what's the worst contended semaphore" reporting. It
// goes through a google/btree index rather than sort.Slice so the
// same index can also answer a bounded "top N" query (see
// waiterBTree.Top) without a second sort.
func sortedSemaphores(sems []SemWaiter) []SemWaiter {
	return newSemIndex(sems).Descending()
}

// TopContended returns the n most contended semaphores in s, for a
// bounded "hot semaphores" report that doesn't require exporting the
// whole Snapshot.
func TopContended(s Snapshot, n int) []SemWaiter {
	return newSemIndex(s.Semaphores).Top(n)
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON renders a Snapshot as JSON via jsoniter, with
// Semaphores ordered by descending contention rather than ASL key
// order, which is the order an operator actually wants to read.
func MarshalJSON(s Snapshot) ([]byte, error) {
	out := s
	out.Semaphores = sortedSemaphores(s.Semaphores)
	return jsonAPI.Marshal(out)
}

// Wire field numbers for the hand-rolled protobuf encoding below.
// There is no .proto file: the message is small and stable enough
// that generating a schema just to get protowire's helpers would be
// more ceremony than the encoding itself.
const (
	fieldProcessCount     = protowire.Number(1)
	fieldSoftBlockedCount = protowire.Number(2)
	fieldCurrentID        = protowire.Number(3)
	fieldHasCurrent       = protowire.Number(4)
	fieldReadyID          = protowire.Number(5) // repeated
	fieldSemaphore        = protowire.Number(6) // repeated, embedded message
)

// Nested field numbers within an embedded SemWaiter message.
const (
	semFieldKey     = protowire.Number(1)
	semFieldWaiters = protowire.Number(2)
)

// MarshalProto encodes a Snapshot with protowire directly, skipping
// code generation entirely. Repeated scalar fields are packed;
// SemWaiter entries are embedded length-delimited messages, matching
// how protoc would lay out an equivalent .proto message.
func MarshalProto(s Snapshot) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldProcessCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.ProcessCount))
	b = protowire.AppendTag(b, fieldSoftBlockedCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.SoftBlockedCount))
	b = protowire.AppendTag(b, fieldCurrentID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.CurrentID))
	b = protowire.AppendTag(b, fieldHasCurrent, protowire.VarintType)
	b = protowire.AppendVarint(b, boolToUint64(s.HasCurrent))

	if len(s.ReadyIDs) > 0 {
		var packed []byte
		for _, id := range s.ReadyIDs {
			packed = protowire.AppendVarint(packed, uint64(id))
		}
		b = protowire.AppendTag(b, fieldReadyID, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}

	for _, sem := range sortedSemaphores(s.Semaphores) {
		var msg []byte
		msg = protowire.AppendTag(msg, semFieldKey, protowire.VarintType)
		msg = protowire.AppendVarint(msg, sem.Key)
		msg = protowire.AppendTag(msg, semFieldWaiters, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(sem.Waiters))

		b = protowire.AppendTag(b, fieldSemaphore, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}
	return b
}

func boolToUint64(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
