package protocol

import (
	"strings"

	"github.com/oneee-playground/r2d2-rtsim/internal/task"
	"github.com/pkg/errors"
)

// CeilingTable maps a resource id to its priority ceiling. Resource 0 is never a key.
type CeilingTable map[int]task.Priority

// CeilingRule picks which locker's priority becomes a resource's ceiling.
type CeilingRule int

const (
	// HighestLocker keeps the most urgent locker (smallest relative deadline).
	HighestLocker CeilingRule = iota
	// LowestLocker keeps the least urgent locker (largest relative deadline).
	LowestLocker
)

func (r CeilingRule) String() string {
	switch r {
	case HighestLocker:
		return "highest-locker"
	case LowestLocker:
		return "lowest-locker"
	}
	return "unknown"
}

func ParseCeilingRule(s string) (CeilingRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "highest-locker":
		return HighestLocker, nil
	case "lowest-locker":
		return LowestLocker, nil
	}
	return 0, errors.Errorf("unknown ceiling rule %q", s)
}

// BuildCeilingTable walks every section of every task and records one
// ceiling per resource according to rule.
func BuildCeilingTable(tasks []*task.Task, rule CeilingRule) CeilingTable {
	table := make(CeilingTable)

	for _, t := range tasks {
		priority := t.BasePriority()

		for _, section := range t.Sections {
			if section.Resource == 0 {
				continue
			}

			current, seen := table[section.Resource]
			if !seen || rule.prefers(priority, current) {
				table[section.Resource] = priority
			}
		}
	}

	return table
}

func (r CeilingRule) prefers(candidate, current task.Priority) bool {
	if r == LowestLocker {
		return candidate > current
	}
	return candidate < current
}
