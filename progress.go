package zsdl

import (
	"time"
)

type (

	// ProgressKind identifies a transfer milestone.
	ProgressKind int

	// Progress is a snapshot of transfer state delivered to a ProgressFunc.
	//
	// Offset is the byte count already on disk before the transfer started
	// and never changes within one download. Current includes Offset and is
	// monotonically non-decreasing. Total is -1 when the server did not
	// report a content length.
	Progress struct {
		Kind      ProgressKind
		StartedAt time.Time
		Now       time.Time
		Offset    int64
		Delta     int64
		Current   int64
		Total     int64
	}

	// ProgressFunc consumes transfer milestones, called synchronously from
	// the download loop. A func that blocks will stall the transfer.
	ProgressFunc func(p Progress)
)

// Transfer milestones. Start is always first and Done always last. Every
// Read is immediately followed by a Wrote carrying the same byte counts,
// Read meaning received from the network and Wrote meaning durable on disk.
const (
	ProgressStart ProgressKind = iota + 1
	ProgressRead
	ProgressWrote
	ProgressDone
)
