package party

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout formats the run timestamps stamped onto rows.
const TimestampLayout = "2006-01-02 15:04:05"

// RunContext identifies one pipeline run. It is created once before any
// document is processed and never changes afterwards.
type RunContext struct {
	ID        string
	StartedAt time.Time
	Local     string
	UTC       string
}

// NewRunContext captures a fresh run identifier and both timestamps from now.
func NewRunContext(now time.Time) RunContext {
	return RunContext{
		ID:        uuid.NewString(),
		StartedAt: now,
		Local:     now.Local().Format(TimestampLayout),
		UTC:       now.UTC().Format(TimestampLayout),
	}
}

// stamp writes the provenance columns onto r.
func (rc RunContext) stamp(r Row) {
	r[ColRunID] = rc.ID
	r[ColRunDateLocal] = rc.Local
	r[ColRunDateUTC] = rc.UTC
}
