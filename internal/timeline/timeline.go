// Package timeline reduces a sealed run history into contiguous execution
// intervals.
package timeline

import (
	"fmt"

	"github.com/oneee-playground/r2d2-rtsim/internal/history"
)

const IdleLabel = "IDLE"

// Interval is the half-open span [Start, End) during which one job ran in
// one section, or the processor was idle.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`

	Label string `json:"label"`
	Idle  bool   `json:"idle"`

	TaskID   int `json:"task,omitempty"`
	JobID    int `json:"job,omitempty"`
	Resource int `json:"resource,omitempty"`
}

func (i Interval) Len() int {
	return i.End - i.Start
}

func (i Interval) String() string {
	return fmt.Sprintf("%d - %d:\t%s", i.Start, i.End, i.Label)
}

// Build merges consecutive records with the same signature. The result
// covers the whole window through h.End() inclusive: ticks missing from
// the history, inside it or at its tail, are reported as idle.
func Build(h history.History) []Interval {
	var (
		intervals []Interval
		current   *Interval
		signature string
	)

	for _, rec := range h.Records() {
		sig := rec.Signature()
		if current != nil && sig == signature && rec.Tick == current.End {
			current.End++
			continue
		}

		if current != nil {
			intervals = append(intervals, *current)
		}
		intervals = padIdle(intervals, h.Start(), rec.Tick)

		// An idle tick right after padding continues that idle interval.
		if n := len(intervals); rec.Idle && n > 0 && intervals[n-1].Idle && intervals[n-1].End == rec.Tick {
			last := intervals[n-1]
			last.End++
			intervals = intervals[:n-1]
			current, signature = &last, sig
			continue
		}

		next := open(rec)
		current, signature = &next, sig
	}

	if current != nil {
		intervals = append(intervals, *current)
	}

	return padIdle(intervals, h.Start(), h.End()+1)
}

func open(rec history.Record) Interval {
	if rec.Idle {
		return Interval{Start: rec.Tick, End: rec.Tick + 1, Label: IdleLabel, Idle: true}
	}

	return Interval{
		Start:    rec.Tick,
		End:      rec.Tick + 1,
		Label:    rec.Signature(),
		TaskID:   rec.TaskID,
		JobID:    rec.JobID,
		Resource: rec.Resource,
	}
}

// padIdle extends the timeline with idle time up to end, merging into a
// trailing idle interval when there is one.
func padIdle(intervals []Interval, start, end int) []Interval {
	if len(intervals) == 0 {
		if end <= start {
			return nil
		}
		return []Interval{{Start: start, End: end, Label: IdleLabel, Idle: true}}
	}

	last := &intervals[len(intervals)-1]
	if last.End >= end {
		return intervals
	}

	if last.Idle {
		last.End = end
		return intervals
	}

	return append(intervals, Interval{Start: last.End, End: end, Label: IdleLabel, Idle: true})
}
