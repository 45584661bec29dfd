package exec

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/event"
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	"github.com/oneee-playground/r2d2-rtsim/internal/job"
	"github.com/oneee-playground/r2d2-rtsim/internal/metric"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/sched"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/oneee-playground/r2d2-rtsim/internal/timeline"
	"github.com/oneee-playground/r2d2-rtsim/internal/util/stream"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ExecOpts holds the collaborators of an Executor. Every sink is optional.
type ExecOpts struct {
	Log *zap.Logger

	Publisher      event.Publisher
	HistoryStorage history.Storage
	Metrics        *metric.Exporter
}

type Result struct {
	RunID    uuid.UUID
	Protocol protocol.Name

	TaskSet  *taskset.TaskSet
	History  history.History
	Outcomes []event.Event
	Timeline []timeline.Interval
}

type Executor struct {
	ExecOpts
}

func NewExecutor(opts ExecOpts) *Executor {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Executor{ExecOpts: opts}
}

// Execute builds the task set of a job, simulates it and hands the history
// to the configured sinks. A job without a run id gets a fresh one.
func (e *Executor) Execute(ctx context.Context, jobToExec job.Job) (Result, error) {
	start := time.Now()

	runID := jobToExec.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	log := e.Log.With(zap.String("runID", runID.String()))
	log.Info("execution started")

	name, rule, err := jobToExec.Resolve()
	if err != nil {
		return Result{}, err
	}

	ts, err := taskset.New(jobToExec.TaskSet, taskset.Opts{Log: log, CeilingRule: rule})
	if err != nil {
		return Result{}, errors.Wrap(err, "building task set")
	}

	proto, err := protocol.New(name, ts.Ceilings)
	if err != nil {
		return Result{}, errors.Wrap(err, "creating protocol")
	}

	engine := sched.NewEngine(ts, sched.Opts{
		RunID:     runID,
		Log:       log,
		Protocol:  proto,
		Publisher: e.publisher(),
	})

	h, err := engine.Run(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "running simulation")
	}

	if err := e.persist(ctx, runID, name, h); err != nil {
		return Result{}, err
	}

	log.Info("execution done", zap.Duration("took", time.Since(start)))

	return Result{
		RunID:    runID,
		Protocol: name,
		TaskSet:  ts,
		History:  h,
		Outcomes: engine.Outcomes(),
		Timeline: timeline.Build(h),
	}, nil
}

func (e *Executor) publisher() event.Publisher {
	var publishers []event.Publisher
	if e.Publisher != nil {
		publishers = append(publishers, e.Publisher)
	}
	if e.Metrics != nil {
		publishers = append(publishers, e.Metrics)
	}

	switch len(publishers) {
	case 0:
		return nil
	case 1:
		return publishers[0]
	}
	return event.Fanout(publishers...)
}

// persist writes the history to every sink concurrently and joins their errors.
func (e *Executor) persist(ctx context.Context, runID uuid.UUID, name protocol.Name, h history.History) error {
	var sinks []<-chan error

	if e.HistoryStorage != nil {
		sinks = append(sinks, async(func() error {
			return errors.Wrap(e.HistoryStorage.Insert(ctx, runID, h), "storing history")
		}))
	}
	if e.Metrics != nil {
		sinks = append(sinks, async(func() error {
			e.Metrics.WriteHistory(runID, name, h)
			return nil
		}))
	}

	var err error
	for sinkErr := range stream.FanIn(sinks...) {
		err = multierr.Append(err, sinkErr)
	}

	return err
}

func async(fn func() error) <-chan error {
	errchan := make(chan error, 1)

	go func() {
		defer close(errchan)
		if err := fn(); err != nil {
			errchan <- err
		}
	}()

	return errchan
}
