package diag

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

// Measures recorded by Record, for export to whatever OpenCensus
// exporter cmd/nucleus registers (stdout, Prometheus, etc). These are
// process-wide gauges, not per-request latencies, so each is recorded
// as its current value rather than accumulated.
var (
	MeasureProcessCount     = stats.Int64("nucleus/process_count", "live PCBs outside the free pool", stats.UnitDimensionless)
	MeasureSoftBlockedCount = stats.Int64("nucleus/soft_blocked_count", "PCBs blocked on a device or the pseudo-clock", stats.UnitDimensionless)
	MeasureReadyLength      = stats.Int64("nucleus/ready_length", "PCBs on the ready queue", stats.UnitDimensionless)
)

// Views exposes the last-value aggregation of each Measure above. A
// caller registers these once at startup with view.Register.
var Views = []*view.View{
	{
		Name:        "nucleus/process_count",
		Measure:     MeasureProcessCount,
		Description: "current live process count",
		Aggregation: view.LastValue(),
	},
	{
		Name:        "nucleus/soft_blocked_count",
		Measure:     MeasureSoftBlockedCount,
		Description: "current soft-blocked process count",
		Aggregation: view.LastValue(),
	},
	{
		Name:        "nucleus/ready_length",
		Measure:     MeasureReadyLength,
		Description: "current ready queue length",
		Aggregation: view.LastValue(),
	},
}

// Record pushes a Snapshot's gauges into OpenCensus. It is separate
// from Take so that taking a snapshot never implies a stats
// dependency: a caller that only wants JSON/proto export can ignore
// this entirely.
func Record(ctx context.Context, s Snapshot) {
	stats.Record(ctx,
		MeasureProcessCount.M(int64(s.ProcessCount)),
		MeasureSoftBlockedCount.M(int64(s.SoftBlockedCount)),
		MeasureReadyLength.M(int64(len(s.ReadyIDs))),
	)
}
