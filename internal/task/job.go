package task

import "fmt"

// Priority follows Deadline-Monotonic numbering: the smaller the value, the
// more urgent the job.
type Priority int

// HighestPriority outranks every Deadline-Monotonic priority.
const HighestPriority Priority = 0

type Job struct {
	Task *Task

	ID               int
	ReleaseTime      int
	RelativeDeadline int

	RemainingTime int
	ExecutedTime  int

	InitialPriority Priority
	Priority        Priority
}

func newJob(t *Task, id, releaseTime int) *Job {
	j := &Job{
		Task:             t,
		ID:               id,
		ReleaseTime:      releaseTime,
		RelativeDeadline: t.RelativeDeadline,
		RemainingTime:    t.WCET,
	}
	j.initPriorityDM()
	return j
}

func (j *Job) initPriorityDM() {
	j.InitialPriority = Priority(j.Task.RelativeDeadline)
	j.Priority = j.InitialPriority
}

// ResetPriority drops any protocol boost.
func (j *Job) ResetPriority() {
	j.Priority = j.InitialPriority
}

func (j *Job) Deadline() int {
	return j.ReleaseTime + j.RelativeDeadline
}

// Released reports whether the job has been released at the given time.
func (j *Job) Released(time int) bool {
	return j.ReleaseTime <= time
}

func (j *Job) Completed() bool {
	return j.RemainingTime <= 0
}

// Execute consumes ticks of processor time. Callers must not over-execute.
func (j *Job) Execute(ticks int) {
	j.RemainingTime -= ticks
	j.ExecutedTime += ticks
}

func (j *Job) ExecuteToCompletion() {
	j.Execute(j.RemainingTime)
}

// ResourceHeld is the resource of the section the next tick executes in.
func (j *Job) ResourceHeld() int {
	return ResourceAt(j.Task.Sections, j.ExecutedTime)
}

// AtSectionBoundary is true when the job is about to start a fresh section.
func (j *Job) AtSectionBoundary() bool {
	return SectionBoundary(j.Task.Sections, j.ExecutedTime)
}

// RemainingSectionTime is the number of ticks left in the current section.
func (j *Job) RemainingSectionTime() int {
	end := 0
	for _, section := range j.Task.Sections {
		end += section.Duration
		if j.ExecutedTime < end {
			return end - j.ExecutedTime
		}
	}
	return 0
}

func (j *Job) String() string {
	return fmt.Sprintf("[%d:%d] released at %d -> deadline at %d", j.Task.ID, j.ID, j.ReleaseTime, j.Deadline())
}

// ResourceAt returns the resource of the section that contains the given
// amount of executed time, or 0 past the last section.
func ResourceAt(sections []Section, executed int) int {
	for _, section := range sections {
		if executed < section.Duration {
			return section.Resource
		}
		executed -= section.Duration
	}
	return 0
}

// SectionBoundary reports whether executed falls exactly on the start of a
// section (or on the end of the last one).
func SectionBoundary(sections []Section, executed int) bool {
	for _, section := range sections {
		if executed < section.Duration {
			break
		}
		executed -= section.Duration
	}
	return executed == 0
}

func (s Section) String() string {
	return fmt.Sprintf("(%d,%d)", s.Resource, s.Duration)
}
