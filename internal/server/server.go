package server

import (
	"context"
	"time"

	"github.com/oneee-playground/r2d2-rtsim/internal/exec"
	"github.com/oneee-playground/r2d2-rtsim/internal/job"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Executor interface {
	Execute(ctx context.Context, jobToExec job.Job) (exec.Result, error)
}

type ServerOpts struct {
	JobPoller    job.Poller
	PollInterval time.Duration
	Executor     Executor
}

type Server struct {
	log *zap.Logger

	ServerOpts
}

func New(logger *zap.Logger, opts ServerOpts) *Server {
	return &Server{log: logger, ServerOpts: opts}
}

// Run polls for jobs until ctx is done. A job that can never succeed is
// acknowledged anyway so it does not come back.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("Server running")

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		id, received, err := s.JobPoller.Poll(ctx)
		if err != nil {
			if errors.Is(err, job.NoErrEmptyJobs) {
				continue
			}
			s.log.Error("failed to poll a job", zap.Error(err))

			if id != "" && errors.Is(err, job.ErrMalformedJob) {
				if err := s.JobPoller.MarkAsDone(ctx, id); err != nil {
					s.log.Error("failed to discard a malformed job", zap.Error(err))
				}
			}
			continue
		}

		log := s.log.With(zap.String("runID", received.RunID.String()))
		log.Info("polled job", zap.String("protocol", string(received.Protocol)))

		result, err := s.Executor.Execute(ctx, received)
		if err != nil {
			log.Error("failed to execute a job", zap.Error(err))
			if !isPermanent(err) {
				continue
			}
		} else {
			log.Info("job executed", zap.Int("completed", len(result.Outcomes)))
		}

		if err := s.JobPoller.MarkAsDone(ctx, id); err != nil {
			log.Error("failed to mark a job as done", zap.Error(err))
			continue
		}
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, taskset.ErrInvalidDescription) || errors.Is(err, protocol.ErrUnsupported)
}
