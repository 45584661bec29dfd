// Package report renders simulation inputs and results for people and for
// front ends.
package report

import (
	"fmt"
	"io"

	"github.com/oneee-playground/r2d2-rtsim/internal/event"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/oneee-playground/r2d2-rtsim/internal/timeline"
	"github.com/pkg/errors"
)

// WriteTasks lists every task in description order.
func WriteTasks(w io.Writer, ts *taskset.TaskSet) error {
	p := &printer{w: w}

	p.printf("Task Set:\n")
	for _, t := range ts.Tasks() {
		p.printf("%s\n", t)
	}
	p.printf("Utilization: %.3f\n", ts.Utilization())

	return p.err
}

// WriteJobs lists every job grouped by task.
func WriteJobs(w io.Writer, ts *taskset.TaskSet) error {
	p := &printer{w: w}

	p.printf("Jobs:\n")
	for _, t := range ts.Tasks() {
		for _, job := range t.Jobs() {
			p.printf("%s\n", job)
		}
	}

	if dropped := ts.DroppedReleases(); dropped > 0 {
		p.printf("Dropped releases: %d\n", dropped)
	}

	return p.err
}

func WriteOutcomes(w io.Writer, outcomes []event.Event) error {
	p := &printer{w: w}

	missed := 0
	for _, o := range outcomes {
		if o.Missed {
			missed++
		}
		p.printf("%s\n", o)
	}
	p.printf("Completed: %d, missed: %d\n", len(outcomes), missed)

	return p.err
}

func WriteTimeline(w io.Writer, intervals []timeline.Interval) error {
	p := &printer{w: w}

	p.printf("Timeline:\n")
	for _, iv := range intervals {
		p.printf("%s\n", iv)
	}

	return p.err
}

// printer keeps the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.w, format, args...); err != nil {
		p.err = errors.Wrap(err, "writing report")
	}
}
