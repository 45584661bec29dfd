package task

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testcases := []struct {
		desc     string
		period   int
		wcet     int
		deadline int
		offset   int
		sections []Section
		wantErr  bool
	}{
		{
			desc:     "valid",
			period:   10,
			wcet:     4,
			sections: []Section{{Resource: 1, Duration: 2}, {Resource: 0, Duration: 2}},
		},
		{
			desc:     "section sum differs from wcet",
			period:   10,
			wcet:     5,
			sections: []Section{{Resource: 1, Duration: 2}, {Resource: 0, Duration: 2}},
			wantErr:  true,
		},
		{
			desc:     "zero period",
			period:   0,
			wcet:     1,
			sections: []Section{{Duration: 1}},
			wantErr:  true,
		},
		{
			desc:     "zero wcet",
			period:   3,
			wcet:     0,
			sections: []Section{},
			wantErr:  true,
		},
		{
			desc:    "no sections",
			period:  3,
			wcet:    1,
			wantErr: true,
		},
		{
			desc:     "zero-length section",
			period:   3,
			wcet:     1,
			sections: []Section{{Duration: 1}, {Resource: 2, Duration: 0}},
			wantErr:  true,
		},
		{
			desc:     "negative offset",
			period:   3,
			wcet:     1,
			offset:   -1,
			sections: []Section{{Duration: 1}},
			wantErr:  true,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := New(1, tc.period, tc.wcet, tc.deadline, tc.offset, tc.sections)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewDefaultsDeadlineToPeriod(t *testing.T) {
	tk, err := New(1, 10, 4, 0, 0, []Section{{Duration: 4}})
	require.NoError(t, err)

	assert.Equal(t, 10, tk.RelativeDeadline)
	assert.Equal(t, Priority(10), tk.BasePriority())
}

func TestSpawnJob(t *testing.T) {
	newTask := func(t *testing.T) *Task {
		tk, err := New(1, 10, 4, 0, 0, []Section{{Duration: 4}})
		require.NoError(t, err)
		return tk
	}

	t.Run("periodic releases", func(t *testing.T) {
		tk := newTask(t)

		for idx, release := range []int{0, 10, 25} {
			job, err := tk.SpawnJob(release)
			require.NoError(t, err)
			assert.Equal(t, idx+1, job.ID)
			assert.Equal(t, release, job.ReleaseTime)
			assert.Equal(t, 4, job.RemainingTime)
			assert.Equal(t, release+10, job.Deadline())
		}

		assert.Len(t, tk.Jobs(), 3)
	})

	t.Run("non-monotonic release", func(t *testing.T) {
		tk := newTask(t)

		_, err := tk.SpawnJob(20)
		require.NoError(t, err)

		job, err := tk.SpawnJob(15)
		assert.Nil(t, job)
		assert.True(t, errors.Is(err, ErrNonMonotonicRelease))
		assert.Len(t, tk.Jobs(), 1)
	})

	t.Run("under-separated release", func(t *testing.T) {
		tk := newTask(t)

		_, err := tk.SpawnJob(10)
		require.NoError(t, err)

		job, err := tk.SpawnJob(15)
		assert.Nil(t, job)
		assert.True(t, errors.Is(err, ErrReleaseTooEarly))
		assert.Len(t, tk.Jobs(), 1)

		job, err = tk.SpawnJob(20)
		require.NoError(t, err)
		assert.Equal(t, 2, job.ID)
	})

	t.Run("release at zero is not separated", func(t *testing.T) {
		tk := newTask(t)

		_, err := tk.SpawnJob(0)
		require.NoError(t, err)

		job, err := tk.SpawnJob(5)
		require.NoError(t, err)
		assert.Equal(t, 2, job.ID)

		_, err = tk.SpawnJob(3)
		assert.True(t, errors.Is(err, ErrNonMonotonicRelease))
	})
}

func TestJobByID(t *testing.T) {
	tk, err := New(1, 5, 1, 0, 0, []Section{{Duration: 1}})
	require.NoError(t, err)

	for _, release := range []int{0, 5, 10} {
		_, err := tk.SpawnJob(release)
		require.NoError(t, err)
	}

	assert.Equal(t, 5, tk.JobByID(2).ReleaseTime)
	assert.Nil(t, tk.JobByID(0))
	assert.Nil(t, tk.JobByID(4))

	// Positional lookup falls back to a scan when the list is reordered.
	tk.jobs[0], tk.jobs[2] = tk.jobs[2], tk.jobs[0]
	assert.Equal(t, 0, tk.JobByID(1).ReleaseTime)
}

func TestUtilization(t *testing.T) {
	tk, err := New(1, 8, 2, 0, 0, []Section{{Duration: 2}})
	require.NoError(t, err)

	assert.InDelta(t, 0.25, tk.Utilization(), 1e-9)
}

func TestResources(t *testing.T) {
	tk, err := New(1, 20, 6, 0, 0, []Section{
		{Resource: 2, Duration: 1},
		{Resource: 0, Duration: 2},
		{Resource: 1, Duration: 1},
		{Resource: 2, Duration: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, tk.Resources())
}
