package metric

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/oneee-playground/r2d2-rtsim/internal/event"
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
)

const (
	MeasurementTick       = "tick"
	MeasurementCompletion = "completion"
)

// Clock maps simulated ticks onto wall-clock timestamps.
type Clock struct {
	Epoch time.Time
	Unit  time.Duration
}

func (c Clock) At(tick int) time.Time {
	unit := c.Unit
	if unit == 0 {
		unit = time.Second
	}
	return c.Epoch.Add(time.Duration(tick) * unit)
}

func TickPoint(runID uuid.UUID, proto protocol.Name, rec history.Record, at time.Time) *write.Point {
	tags := map[string]string{
		"run":      runID.String(),
		"protocol": string(proto),
	}
	fields := map[string]interface{}{
		"tick": rec.Tick,
		"idle": rec.Idle,
	}

	if !rec.Idle {
		tags["task"] = strconv.Itoa(rec.TaskID)
		tags["job"] = strconv.Itoa(rec.JobID)
		fields["resource"] = rec.Resource
		fields["priority"] = int(rec.Priority)
		fields["effective"] = int(rec.Effective)
	}

	return write.NewPoint(MeasurementTick, tags, fields, at)
}

func CompletionPoint(e event.Event, at time.Time) *write.Point {
	return write.NewPoint(MeasurementCompletion,
		map[string]string{
			"run":  e.RunID.String(),
			"task": strconv.Itoa(e.TaskID),
			"job":  strconv.Itoa(e.JobID),
		},
		map[string]interface{}{
			"release":   e.Release,
			"deadline":  e.Deadline,
			"completed": e.CompletedAt,
			"response":  e.CompletedAt - e.Release,
			"missed":    e.Missed,
		},
		at,
	)
}

// Exporter writes simulation results into a write session.
type Exporter struct {
	Session *WriteSession
	Clock   Clock
}

var _ event.Publisher = (*Exporter)(nil)

// WriteHistory writes one point per recorded tick and flushes.
func (x *Exporter) WriteHistory(runID uuid.UUID, proto protocol.Name, h history.History) {
	for _, rec := range h.Records() {
		x.Session.Write(TickPoint(runID, proto, rec, x.Clock.At(rec.Tick)))
	}
	x.Session.Flush()
}

// Publish writes a completion point. Delivery errors surface on the
// session's error channel.
func (x *Exporter) Publish(_ context.Context, e event.Event) error {
	x.Session.Write(CompletionPoint(e, x.Clock.At(e.CompletedAt)))
	return nil
}
