package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleSections = []Section{
	{Resource: 1, Duration: 2},
	{Resource: 0, Duration: 1},
	{Resource: 3, Duration: 2},
}

func TestResourceAt(t *testing.T) {
	expected := []int{1, 1, 0, 3, 3, 0}

	for executed, want := range expected {
		assert.Equal(t, want, ResourceAt(sampleSections, executed), "executed=%d", executed)
	}
}

func TestSectionBoundary(t *testing.T) {
	expected := []bool{true, false, true, true, false, true}

	for executed, want := range expected {
		assert.Equal(t, want, SectionBoundary(sampleSections, executed), "executed=%d", executed)
	}
}

func TestJobExecute(t *testing.T) {
	tk, err := New(7, 10, 5, 8, 0, sampleSections)
	require.NoError(t, err)

	job, err := tk.SpawnJob(0)
	require.NoError(t, err)

	assert.Equal(t, Priority(8), job.InitialPriority)
	assert.Equal(t, Priority(8), job.Priority)
	assert.Equal(t, 1, job.ResourceHeld())
	assert.Equal(t, 2, job.RemainingSectionTime())

	job.Execute(1)
	assert.Equal(t, 4, job.RemainingTime)
	assert.Equal(t, 1, job.ExecutedTime)
	assert.Equal(t, 1, job.RemainingSectionTime())
	assert.False(t, job.AtSectionBoundary())

	job.Execute(1)
	assert.True(t, job.AtSectionBoundary())
	assert.Equal(t, 0, job.ResourceHeld())

	job.ExecuteToCompletion()
	assert.True(t, job.Completed())
	assert.Equal(t, 0, job.RemainingTime)
	assert.Equal(t, 5, job.ExecutedTime)
	assert.Equal(t, 0, job.RemainingSectionTime())
}

func TestJobResetPriority(t *testing.T) {
	tk, err := New(1, 10, 1, 0, 0, []Section{{Resource: 1, Duration: 1}})
	require.NoError(t, err)

	job, err := tk.SpawnJob(0)
	require.NoError(t, err)

	job.Priority = HighestPriority
	job.ResetPriority()

	assert.Equal(t, job.InitialPriority, job.Priority)
}

func TestJobReleased(t *testing.T) {
	tk, err := New(1, 10, 1, 0, 0, []Section{{Duration: 1}})
	require.NoError(t, err)

	job, err := tk.SpawnJob(4)
	require.NoError(t, err)

	assert.False(t, job.Released(3))
	assert.True(t, job.Released(4))
	assert.Equal(t, "[1:1] released at 4 -> deadline at 14", job.String())
}
