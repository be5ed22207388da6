package main

// The control socket a booted nucleus listens on multiplexes two
// unrelated clients (attach, inspect) over one listener, each picked
// by a one-line request verb. There's no framing beyond that: attach
// sessions become a raw byte pipe once selected, and inspect requests
// get exactly one response per connection.
const (
	reqAttach        = "ATTACH\n"
	reqSnapshotJSON  = "SNAPSHOT\n"
	reqSnapshotProto = "SNAPSHOT_PROTO\n"
)
