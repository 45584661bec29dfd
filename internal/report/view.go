package report

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/oneee-playground/r2d2-rtsim/internal/event"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/oneee-playground/r2d2-rtsim/internal/timeline"
	"github.com/pkg/errors"
)

const IdleColor = "#d3d3d3"

type TaskView struct {
	ID          int     `json:"id"`
	Notation    string  `json:"notation"`
	Utilization float64 `json:"utilization"`
	Resources   []int   `json:"resources"`
	Color       string  `json:"color"`
}

type IntervalView struct {
	timeline.Interval
	Color string `json:"color"`
}

// View is the JSON shape consumed by timeline front ends.
type View struct {
	RunID       uuid.UUID      `json:"runId"`
	Protocol    protocol.Name  `json:"protocol"`
	StartTime   int            `json:"startTime"`
	EndTime     int            `json:"endTime"`
	Utilization float64        `json:"utilization"`
	Tasks       []TaskView     `json:"tasks"`
	Timeline    []IntervalView `json:"timeline"`
	Outcomes    []event.Event  `json:"outcomes"`
}

// NewView assigns each task a distinct warm color and paints its intervals
// with it.
func NewView(runID uuid.UUID, name protocol.Name, ts *taskset.TaskSet, intervals []timeline.Interval, outcomes []event.Event) (View, error) {
	tasks := ts.Tasks()

	colors := make(map[int]string, len(tasks))
	if len(tasks) > 0 {
		palette, err := colorful.WarmPalette(len(tasks))
		if err != nil {
			return View{}, errors.Wrap(err, "generating palette")
		}
		for idx, t := range tasks {
			colors[t.ID] = palette[idx].Hex()
		}
	}

	view := View{
		RunID:       runID,
		Protocol:    name,
		StartTime:   ts.StartTime,
		EndTime:     ts.EndTime,
		Utilization: ts.Utilization(),
		Tasks:       make([]TaskView, 0, len(tasks)),
		Timeline:    make([]IntervalView, 0, len(intervals)),
		Outcomes:    outcomes,
	}

	for _, t := range tasks {
		view.Tasks = append(view.Tasks, TaskView{
			ID:          t.ID,
			Notation:    t.String(),
			Utilization: t.Utilization(),
			Resources:   t.Resources(),
			Color:       colors[t.ID],
		})
	}

	for _, iv := range intervals {
		color := IdleColor
		if !iv.Idle {
			color = colors[iv.TaskID]
		}
		view.Timeline = append(view.Timeline, IntervalView{Interval: iv, Color: color})
	}

	return view, nil
}

func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(v), "encoding json")
}
