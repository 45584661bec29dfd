package taskset

import (
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/task"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Opts struct {
	Log         *zap.Logger
	CeilingRule protocol.CeilingRule
}

// TaskSet owns every task and every job of one simulation run. It is
// read-only after New, apart from job state mutated by the scheduler.
type TaskSet struct {
	StartTime int
	EndTime   int
	Ceilings  protocol.CeilingTable

	tasks map[int]*task.Task
	order []*task.Task
	jobs  []*task.Job

	dropped int
	log     *zap.Logger
}

// New builds the tasks, pre-generates all job releases in [StartTime, EndTime)
// and computes the resource ceilings. Any invalid field is fatal.
func New(desc Description, opts Opts) (*TaskSet, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	if *desc.EndTime < *desc.StartTime {
		return nil, errors.Wrapf(ErrInvalidDescription,
			"endTime %d is before startTime %d", *desc.EndTime, *desc.StartTime)
	}

	ts := &TaskSet{
		StartTime: *desc.StartTime,
		EndTime:   *desc.EndTime,
		tasks:     make(map[int]*task.Task, len(desc.Tasks)),
		order:     make([]*task.Task, 0, len(desc.Tasks)),
		log:       opts.Log,
	}

	if err := ts.parseTasks(desc.Tasks); err != nil {
		return nil, err
	}

	ts.buildJobReleases()
	ts.Ceilings = protocol.BuildCeilingTable(ts.order, opts.CeilingRule)

	return ts, nil
}

func (ts *TaskSet) parseTasks(descs []TaskDescription) error {
	for idx, d := range descs {
		t, err := buildTask(d)
		if err != nil {
			return errors.Wrapf(err, "building task at index %d", idx)
		}

		if _, exists := ts.tasks[t.ID]; exists {
			return errors.Wrapf(ErrInvalidDescription, "duplicate task id %d", t.ID)
		}

		ts.tasks[t.ID] = t
		ts.order = append(ts.order, t)
	}

	return nil
}

func buildTask(d TaskDescription) (*task.Task, error) {
	if d.TaskID == nil || d.Period == nil || d.WCET == nil || d.Sections == nil {
		return nil, errors.Wrap(ErrInvalidDescription, "missing required task field")
	}

	deadline := *d.Period
	if d.Deadline != nil {
		deadline = *d.Deadline
	}

	offset := 0
	if d.Offset != nil {
		offset = *d.Offset
	}

	sections := make([]task.Section, len(d.Sections))
	for idx, pair := range d.Sections {
		if len(pair) != 2 {
			return nil, errors.Wrapf(ErrInvalidDescription, "section %d is not a (resource, duration) pair", idx)
		}
		sections[idx] = task.Section{Resource: pair[0], Duration: pair[1]}
	}

	t, err := task.New(*d.TaskID, *d.Period, *d.WCET, deadline, offset, sections)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidDescription, err.Error())
	}

	return t, nil
}

func (ts *TaskSet) buildJobReleases() {
	for _, t := range ts.order {
		release := t.Offset
		if release < ts.StartTime {
			release = ts.StartTime
		}

		for ; release < ts.EndTime; release += t.Period {
			job, err := t.SpawnJob(release)
			if err != nil {
				ts.dropped++
				ts.log.Warn("dropping invalid release",
					zap.Int("task", t.ID),
					zap.Int("release", release),
					zap.Error(err),
				)
				continue
			}

			ts.jobs = append(ts.jobs, job)
		}
	}
}

// Tasks returns the tasks in description order.
func (ts *TaskSet) Tasks() []*task.Task {
	return ts.order
}

func (ts *TaskSet) Task(id int) (*task.Task, bool) {
	t, ok := ts.tasks[id]
	return t, ok
}

// Jobs returns every released job in creation order.
func (ts *TaskSet) Jobs() []*task.Job {
	return ts.jobs
}

func (ts *TaskSet) Len() int {
	return len(ts.order)
}

// DroppedReleases counts releases skipped because they broke release timing.
func (ts *TaskSet) DroppedReleases() int {
	return ts.dropped
}

func (ts *TaskSet) Utilization() float64 {
	total := 0.0
	for _, t := range ts.order {
		total += t.Utilization()
	}
	return total
}
