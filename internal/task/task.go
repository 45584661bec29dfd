package task

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNonMonotonicRelease = errors.New("release time of job is not monotonic")
	ErrReleaseTooEarly     = errors.New("release times are not separated by period")
)

// Section is a contiguous span of execution. Resource 0 means no resource is held.
type Section struct {
	Resource int `json:"resource" yaml:"resource"`
	Duration int `json:"duration" yaml:"duration"`
}

type Task struct {
	ID               int
	Period           int
	WCET             int
	RelativeDeadline int
	Offset           int
	Sections         []Section

	lastJobID       int
	lastReleaseTime int
	jobs            []*Job
}

// New validates the template and returns a task with no released jobs.
// A zero deadline defaults to the period.
func New(id, period, wcet, deadline, offset int, sections []Section) (*Task, error) {
	if period <= 0 {
		return nil, errors.Errorf("task %d: period must be positive, got %d", id, period)
	}
	if wcet <= 0 {
		return nil, errors.Errorf("task %d: wcet must be positive, got %d", id, wcet)
	}
	if deadline == 0 {
		deadline = period
	}
	if deadline < 0 {
		return nil, errors.Errorf("task %d: deadline must be positive, got %d", id, deadline)
	}
	if offset < 0 {
		return nil, errors.Errorf("task %d: offset must not be negative, got %d", id, offset)
	}
	if len(sections) == 0 {
		return nil, errors.Errorf("task %d: at least one section is required", id)
	}

	sum := 0
	for idx, section := range sections {
		if section.Duration <= 0 {
			return nil, errors.Errorf("task %d: section %d has non-positive duration %d", id, idx, section.Duration)
		}
		if section.Resource < 0 {
			return nil, errors.Errorf("task %d: section %d has negative resource id %d", id, idx, section.Resource)
		}
		sum += section.Duration
	}

	if sum != wcet {
		return nil, errors.Errorf("task %d: sum of section durations (%d) does not match wcet (%d)", id, sum, wcet)
	}

	return &Task{
		ID:               id,
		Period:           period,
		WCET:             wcet,
		RelativeDeadline: deadline,
		Offset:           offset,
		Sections:         append([]Section(nil), sections...),
	}, nil
}

// SpawnJob releases the next job at releaseTime.
// The task's release bookkeeping is left untouched when an error is returned.
func (t *Task) SpawnJob(releaseTime int) (*Job, error) {
	if releaseTime < t.lastReleaseTime {
		return nil, errors.Wrapf(ErrNonMonotonicRelease,
			"task %d: release at %d after %d", t.ID, releaseTime, t.lastReleaseTime)
	}
	// Separation is only enforced once a release happened after time 0.
	if t.lastReleaseTime > 0 && releaseTime < t.lastReleaseTime+t.Period {
		return nil, errors.Wrapf(ErrReleaseTooEarly,
			"task %d: release at %d, earliest allowed %d", t.ID, releaseTime, t.lastReleaseTime+t.Period)
	}

	t.lastJobID++
	t.lastReleaseTime = releaseTime

	job := newJob(t, t.lastJobID, releaseTime)
	t.jobs = append(t.jobs, job)

	return job, nil
}

func (t *Task) Jobs() []*Job {
	return t.jobs
}

// JobByID returns nil when no job with the id was released.
func (t *Task) JobByID(id int) *Job {
	if id <= 0 || id > t.lastJobID {
		return nil
	}

	// Ids are handed out sequentially, so the position usually matches.
	if id <= len(t.jobs) {
		if job := t.jobs[id-1]; job.ID == id {
			return job
		}
	}

	for _, job := range t.jobs {
		if job.ID == id {
			return job
		}
	}

	return nil
}

// BasePriority is the Deadline-Monotonic priority of every job of the task.
func (t *Task) BasePriority() Priority {
	return Priority(t.RelativeDeadline)
}

func (t *Task) Utilization() float64 {
	return float64(t.WCET) / float64(t.Period)
}

// Resources returns the distinct resources locked by the task, in section order.
func (t *Task) Resources() []int {
	seen := make(map[int]struct{}, len(t.Sections))
	resources := make([]int, 0, len(t.Sections))

	for _, section := range t.Sections {
		if section.Resource == 0 {
			continue
		}
		if _, ok := seen[section.Resource]; ok {
			continue
		}
		seen[section.Resource] = struct{}{}
		resources = append(resources, section.Resource)
	}

	return resources
}

func (t *Task) String() string {
	return fmt.Sprintf("task %d: (Φ,T,C,D,∆) = (%d, %d, %d, %d, %v)",
		t.ID, t.Offset, t.Period, t.WCET, t.RelativeDeadline, t.Sections)
}
