package protocol

import (
	"testing"

	"github.com/oneee-playground/r2d2-rtsim/internal/task"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTask(t *testing.T, id, deadline int, sections ...task.Section) *task.Task {
	wcet := 0
	for _, s := range sections {
		wcet += s.Duration
	}

	tk, err := task.New(id, 100, wcet, deadline, 0, sections)
	require.NoError(t, err)
	return tk
}

func TestBuildCeilingTable(t *testing.T) {
	tasks := []*task.Task{
		mustTask(t, 1, 20, task.Section{Resource: 1, Duration: 2}, task.Section{Resource: 0, Duration: 2}),
		mustTask(t, 2, 5, task.Section{Resource: 1, Duration: 1}, task.Section{Resource: 2, Duration: 1}),
		mustTask(t, 3, 50, task.Section{Resource: 2, Duration: 3}),
		mustTask(t, 4, 1, task.Section{Resource: 0, Duration: 1}),
	}

	t.Run("highest locker", func(t *testing.T) {
		table := BuildCeilingTable(tasks, HighestLocker)
		assert.Equal(t, CeilingTable{1: 5, 2: 5}, table)
	})

	// The least urgent locker is kept; this is the extreme described for the
	// lowest-locker rule, which can be weaker than the holder's own priority.
	t.Run("lowest locker", func(t *testing.T) {
		table := BuildCeilingTable(tasks, LowestLocker)
		assert.Equal(t, CeilingTable{1: 20, 2: 50}, table)
	})

	t.Run("resource zero never recorded", func(t *testing.T) {
		table := BuildCeilingTable(tasks, HighestLocker)
		_, ok := table[0]
		assert.False(t, ok)
	})
}

func TestNew(t *testing.T) {
	table := CeilingTable{1: 7}

	t.Run("npp", func(t *testing.T) {
		p, err := New(NPP, table)
		require.NoError(t, err)
		assert.Equal(t, NPP, p.Name())
		assert.Equal(t, task.HighestPriority, p.Ceiling(1))
		assert.Equal(t, task.HighestPriority, p.Ceiling(42))
		assert.Equal(t, NonPreemptive(), p)
	})

	t.Run("hlp", func(t *testing.T) {
		p, err := New(HLP, table)
		require.NoError(t, err)
		assert.Equal(t, HLP, p.Name())
		assert.Equal(t, task.Priority(7), p.Ceiling(1))
		assert.Equal(t, task.HighestPriority, p.Ceiling(42))
	})

	for _, name := range []Name{PIP, PCP, SRP} {
		t.Run(string(name), func(t *testing.T) {
			_, err := New(name, table)
			assert.True(t, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestParse(t *testing.T) {
	testcases := []struct {
		desc    string
		input   string
		expect  Name
		wantErr bool
	}{
		{desc: "upper", input: "HLP", expect: HLP},
		{desc: "lower with spaces", input: " npp ", expect: NPP},
		{desc: "named but unsupported", input: "pcp", expect: PCP},
		{desc: "unknown", input: "edf", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestParseCeilingRule(t *testing.T) {
	rule, err := ParseCeilingRule("")
	require.NoError(t, err)
	assert.Equal(t, HighestLocker, rule)

	rule, err = ParseCeilingRule("Lowest-Locker")
	require.NoError(t, err)
	assert.Equal(t, LowestLocker, rule)
	assert.Equal(t, "lowest-locker", rule.String())

	_, err = ParseCeilingRule("middle")
	assert.Error(t, err)
}
