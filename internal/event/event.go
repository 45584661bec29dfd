package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const Topic = "completion"

// Event reports that a job finished executing.
type Event struct {
	RunID uuid.UUID `json:"runID"`

	TaskID      int  `json:"taskID"`
	JobID       int  `json:"jobID"`
	Release     int  `json:"release"`
	Deadline    int  `json:"deadline"`
	CompletedAt int  `json:"completedAt"`
	Missed      bool `json:"missed"`
}

// Outcome is "MET" or "MISSED".
func (e Event) Outcome() string {
	if e.Missed {
		return "MISSED"
	}
	return "MET"
}

func (e Event) String() string {
	return fmt.Sprintf("JOB %d OF TASK %d COMPLETED AT %d (%s DEADLINE)", e.JobID, e.TaskID, e.CompletedAt, e.Outcome())
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
