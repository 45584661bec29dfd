package sched

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/event"
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/task"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrWindowElapsed = errors.New("simulation window elapsed")

type Opts struct {
	RunID     uuid.UUID
	Log       *zap.Logger
	Protocol  protocol.Protocol
	Publisher event.Publisher
}

// Engine is a single-processor, fixed-priority dispatcher driven one tick
// at a time. It is not safe for concurrent use.
type Engine struct {
	taskSet *taskset.TaskSet

	time     int
	latest   *task.Job
	recorder *history.Recorder
	outcomes []event.Event

	Opts
}

// NewEngine prepares a run over the task set's window. A nil protocol
// defaults to NPP.
func NewEngine(ts *taskset.TaskSet, opts Opts) *Engine {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Protocol == nil {
		opts.Protocol = protocol.NonPreemptive()
	}

	return &Engine{
		taskSet:  ts,
		time:     ts.StartTime,
		recorder: history.NewRecorder(ts.StartTime, ts.EndTime),
		Opts:     opts,
	}
}

// Time is the simulated clock: the number of the next tick to run.
func (e *Engine) Time() int {
	return e.time
}

// Run ticks from the current time through EndTime (inclusive) and seals the
// history. The engine must not be used again afterwards.
func (e *Engine) Run(ctx context.Context) (history.History, error) {
	e.Log.Info("simulation started",
		zap.String("protocol", string(e.Protocol.Name())),
		zap.Int("start", e.taskSet.StartTime),
		zap.Int("end", e.taskSet.EndTime),
		zap.Int("jobs", len(e.taskSet.Jobs())),
	)

	for e.time <= e.taskSet.EndTime {
		select {
		case <-ctx.Done():
			return history.History{}, ctx.Err()
		default:
		}

		if err := e.Tick(ctx); err != nil {
			return history.History{}, err
		}
	}

	missed := 0
	for _, o := range e.outcomes {
		if o.Missed {
			missed++
		}
	}

	e.Log.Info("simulation done",
		zap.Int("ticks", e.recorder.Len()),
		zap.Int("completed", len(e.outcomes)),
		zap.Int("missed", missed),
	)

	return e.recorder.Seal(), nil
}

// Tick simulates one unit of time.
func (e *Engine) Tick(ctx context.Context) error {
	if e.time > e.taskSet.EndTime {
		return ErrWindowElapsed
	}

	active := e.activeJobs()
	tick := e.time
	e.time++

	if len(active) == 0 {
		e.latest = nil
		return e.record(history.IdleRecord(tick))
	}

	// A boost only lasts for one held resource.
	for _, job := range active {
		if job.AtSectionBoundary() {
			job.ResetPriority()
		}
	}

	job := pick(active)
	if e.latest != nil && e.latest != job && !e.latest.Completed() {
		e.Log.Debug("preempted",
			zap.Int("time", tick),
			zap.Int("task", e.latest.Task.ID),
			zap.Int("job", e.latest.ID),
			zap.Int("by", job.Task.ID),
		)
	}

	dispatched := job.Priority
	held := job.ResourceHeld()

	job.Execute(1)

	if held != 0 {
		job.Priority = e.Protocol.Ceiling(held)
	}

	err := e.record(history.Record{
		Tick:      tick,
		TaskID:    job.Task.ID,
		JobID:     job.ID,
		Resource:  held,
		Priority:  dispatched,
		Effective: job.Priority,
	})
	if err != nil {
		return err
	}

	e.latest = job

	if job.Completed() {
		e.complete(ctx, job)
	}

	return nil
}

// Outcomes returns the completion events in completion order.
func (e *Engine) Outcomes() []event.Event {
	return append([]event.Event(nil), e.outcomes...)
}

func (e *Engine) activeJobs() []*task.Job {
	jobs := e.taskSet.Jobs()

	active := make([]*task.Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Released(e.time) && !job.Completed() {
			active = append(active, job)
		}
	}

	return active
}

// pick sorts the candidates so the job to dispatch comes last: the smallest
// priority value, then the earliest release. Full ties keep creation order,
// so the most recently created of them is picked.
func pick(active []*task.Job) *task.Job {
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority > active[j].Priority
		}
		return active[i].ReleaseTime > active[j].ReleaseTime
	})

	return active[len(active)-1]
}

func (e *Engine) record(rec history.Record) error {
	if err := e.recorder.Append(rec); err != nil {
		return errors.Wrap(err, "recording tick")
	}

	if rec.Idle {
		e.Log.Debug("tick", zap.Int("time", rec.Tick), zap.Bool("idle", true))
	} else {
		e.Log.Debug("tick",
			zap.Int("time", rec.Tick),
			zap.Int("task", rec.TaskID),
			zap.Int("job", rec.JobID),
			zap.Int("resource", rec.Resource),
			zap.Int("priority", int(rec.Priority)),
			zap.Int("effective", int(rec.Effective)),
		)
	}

	return nil
}

func (e *Engine) complete(ctx context.Context, job *task.Job) {
	outcome := event.Event{
		RunID:       e.RunID,
		TaskID:      job.Task.ID,
		JobID:       job.ID,
		Release:     job.ReleaseTime,
		Deadline:    job.Deadline(),
		CompletedAt: e.time,
		Missed:      e.time >= job.Deadline(),
	}
	e.outcomes = append(e.outcomes, outcome)

	if e.Publisher == nil {
		return
	}

	if err := e.Publisher.Publish(ctx, outcome); err != nil {
		e.Log.Error("failed to publish completion",
			zap.Int("task", outcome.TaskID),
			zap.Int("job", outcome.JobID),
			zap.Error(err),
		)
	}
}
