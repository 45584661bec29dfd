package main

import "github.com/oneee-playground/r2d2-rtsim/internal/taskset"

type Limits struct {
	Tasks     int
	Resources int
	Period    int
	Duration  int
	Horizon   int
}

var defaultLimits = Limits{
	Tasks:     4,
	Resources: 2,
	Period:    20,
	Duration:  3,
	Horizon:   40,
}

// Normalize folds arbitrary schema-valid numbers into the given limits and
// makes the task set consistent: ids are 1..n, every wcet is the sum of its
// sections, deadlines never exceed periods and offsets stay within a period.
func Normalize(desc taskset.Description, limits Limits) taskset.Description {
	out := taskset.Description{
		StartTime: intp(0),
		EndTime:   intp(limits.Horizon),
	}

	tasks := desc.Tasks
	if len(tasks) == 0 {
		tasks = []taskset.TaskDescription{{}}
	}
	if len(tasks) > limits.Tasks {
		tasks = tasks[:limits.Tasks]
	}

	for idx, t := range tasks {
		period := 1 + fold(deref(t.Period), limits.Period)

		sections := make([][]int, 0, len(t.Sections))
		wcet := 0
		for _, pair := range t.Sections {
			resource, duration := 0, 0
			if len(pair) > 0 {
				resource = fold(pair[0], limits.Resources+1)
			}
			if len(pair) > 1 {
				duration = pair[1]
			}
			duration = 1 + fold(duration, limits.Duration)

			sections = append(sections, []int{resource, duration})
			wcet += duration
		}
		if len(sections) == 0 {
			sections = [][]int{{0, 1}}
			wcet = 1
		}

		normalized := taskset.TaskDescription{
			TaskID:   intp(idx + 1),
			Period:   intp(period),
			WCET:     intp(wcet),
			Sections: sections,
		}
		if t.Deadline != nil {
			normalized.Deadline = intp(1 + fold(*t.Deadline, period))
		}
		if t.Offset != nil {
			normalized.Offset = intp(fold(*t.Offset, period))
		}

		out.Tasks = append(out.Tasks, normalized)
	}

	return out
}

// fold maps any integer into [0, n).
func fold(v, n int) int {
	if n <= 0 {
		return 0
	}
	if v < 0 {
		v = -v
	}
	return v % n
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func intp(v int) *int { return &v }
