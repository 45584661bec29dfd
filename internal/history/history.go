// Package history holds the per-tick run history of a simulation.
//
// A Recorder is written by exactly one scheduler. Seal ends the writing
// phase and hands out a History, which is read-only and safe to share.
package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/task"
	"github.com/pkg/errors"
)

var ErrSealed = errors.New("history is sealed")

// Record describes one simulated tick. Idle ticks carry only Tick.
type Record struct {
	Tick int  `json:"tick"`
	Idle bool `json:"idle"`

	TaskID   int `json:"task,omitempty"`
	JobID    int `json:"job,omitempty"`
	Resource int `json:"resource,omitempty"`

	// Priority is the priority the job was dispatched with.
	Priority task.Priority `json:"priority,omitempty"`
	// Effective is the priority after the protocol adjusted it for the held resource.
	Effective task.Priority `json:"effective,omitempty"`
}

func IdleRecord(tick int) Record {
	return Record{Tick: tick, Idle: true}
}

// Signature identifies contiguous runs of the same job in the same section.
func (r Record) Signature() string {
	if r.Idle {
		return "IDLE"
	}
	return fmt.Sprintf("%d:%d:%d", r.TaskID, r.JobID, r.Resource)
}

type Recorder struct {
	start, end int
	records    []Record
	sealed     bool
}

// NewRecorder prepares a recorder for a run over the window [start, end].
func NewRecorder(start, end int) *Recorder {
	size := end - start + 1
	if size < 0 {
		size = 0
	}
	return &Recorder{
		start:   start,
		end:     end,
		records: make([]Record, 0, size),
	}
}

func (r *Recorder) Append(rec Record) error {
	if r.sealed {
		return ErrSealed
	}
	if n := len(r.records); n > 0 && rec.Tick <= r.records[n-1].Tick {
		return errors.Errorf("record for tick %d appended after tick %d", rec.Tick, r.records[n-1].Tick)
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *Recorder) Len() int {
	return len(r.records)
}

// Last returns the most recent record, if any.
func (r *Recorder) Last() (Record, bool) {
	if len(r.records) == 0 {
		return Record{}, false
	}
	return r.records[len(r.records)-1], true
}

// Seal ends the writing phase. Further appends fail with ErrSealed.
func (r *Recorder) Seal() History {
	r.sealed = true
	return History{start: r.start, end: r.end, records: r.records}
}

// History is a sealed, time-ordered sequence of records.
type History struct {
	start, end int
	records    []Record
}

// New wraps already-ordered records, e.g. ones read back from storage.
func New(start, end int, records []Record) History {
	return History{start: start, end: end, records: append([]Record(nil), records...)}
}

func (h History) Start() int { return h.start }

func (h History) End() int { return h.end }

func (h History) Len() int { return len(h.records) }

func (h History) At(i int) Record { return h.records[i] }

// Records returns a copy of the records.
func (h History) Records() []Record {
	return append([]Record(nil), h.records...)
}

// Storage persists sealed histories by run id.
type Storage interface {
	Insert(ctx context.Context, runID uuid.UUID, h History) error
	Fetch(ctx context.Context, runID uuid.UUID) (History, error)
	Stream(ctx context.Context, runID uuid.UUID) (<-chan Record, <-chan error)
}
