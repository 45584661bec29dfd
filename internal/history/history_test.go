package history

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder(0, 3)

	require.NoError(t, rec.Append(Record{Tick: 0, TaskID: 1, JobID: 1, Resource: 2, Priority: 10, Effective: 3}))
	require.NoError(t, rec.Append(IdleRecord(1)))

	last, ok := rec.Last()
	require.True(t, ok)
	assert.True(t, last.Idle)

	t.Run("rejects out of order ticks", func(t *testing.T) {
		assert.Error(t, rec.Append(IdleRecord(1)))
	})

	h := rec.Seal()

	t.Run("rejects appends after seal", func(t *testing.T) {
		err := rec.Append(IdleRecord(2))
		assert.True(t, errors.Is(err, ErrSealed))
	})

	assert.Equal(t, 0, h.Start())
	assert.Equal(t, 3, h.End())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "1:1:2", h.At(0).Signature())
	assert.Equal(t, "IDLE", h.At(1).Signature())

	records := h.Records()
	records[0].TaskID = 99
	assert.Equal(t, 1, h.At(0).TaskID)
}

func TestNew(t *testing.T) {
	src := []Record{IdleRecord(5), {Tick: 6, TaskID: 1, JobID: 1}}
	h := New(5, 10, src)

	src[1].TaskID = 2
	assert.Equal(t, 1, h.At(1).TaskID)
	assert.Equal(t, 5, h.Start())
	assert.Equal(t, 10, h.End())
}
