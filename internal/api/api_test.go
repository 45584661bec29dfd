package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/exec"
	"github.com/oneee-playground/r2d2-rtsim/internal/history/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simulateBody = `{
	"protocol": "NPP",
	"taskset": {
		"startTime": 0,
		"endTime": 10,
		"taskset": [
			{"taskId": 1, "period": 20, "wcet": 4, "sections": [[1, 2], [0, 2]]},
			{"taskId": 2, "period": 5, "wcet": 1, "offset": 1, "sections": [[0, 1]]}
		]
	}
}`

func newTestAPI(t *testing.T) (*API, *storage.FSStorage) {
	store := storage.NewFSStorage(t.TempDir())
	executor := exec.NewExecutor(exec.ExecOpts{HistoryStorage: store})

	return New(Opts{Executor: executor, HistoryStorage: store}), store
}

func serve(a *API, method, path string, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetProtocols(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := serve(a, http.MethodGet, "/protocols", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res protocolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Supported, 2)
	assert.Equal(t, []string{"highest-locker", "lowest-locker"}, res.CeilingRules)
}

func TestGetSchema(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := serve(a, http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))
}

func TestSimulate(t *testing.T) {
	a, store := newTestAPI(t)

	rec := serve(a, http.MethodPost, "/simulate", simulateBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view struct {
		RunID    uuid.UUID `json:"runId"`
		Timeline []struct {
			Label string `json:"label"`
			Color string `json:"color"`
		} `json:"timeline"`
		Outcomes []struct {
			Missed bool `json:"missed"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	require.Len(t, view.Timeline, 6)
	assert.Equal(t, "1:1:1", view.Timeline[0].Label)
	assert.Len(t, view.Outcomes, 3)

	h, err := store.Fetch(context.Background(), view.RunID)
	require.NoError(t, err)
	assert.Equal(t, 11, h.Len())

	t.Run("timeline of the stored run", func(t *testing.T) {
		rec := serve(a, http.MethodGet, "/runs/"+view.RunID.String()+"/timeline", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var intervals []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intervals))
		assert.Len(t, intervals, 6)
	})
}

func TestSimulateErrors(t *testing.T) {
	testcases := []struct {
		desc     string
		body     string
		expected int
	}{
		{desc: "malformed json", body: "{", expected: http.StatusBadRequest},
		{desc: "unsupported protocol", body: `{"protocol": "SRP", "taskset": {"startTime": 0, "endTime": 1, "taskset": []}}`, expected: http.StatusUnprocessableEntity},
		{desc: "missing window", body: `{"protocol": "NPP", "taskset": {"taskset": []}}`, expected: http.StatusUnprocessableEntity},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			a, _ := newTestAPI(t)

			rec := serve(a, http.MethodPost, "/simulate", tc.body)
			assert.Equal(t, tc.expected, rec.Code, rec.Body.String())

			var res errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestGetTimelineErrors(t *testing.T) {
	a, _ := newTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, serve(a, http.MethodGet, "/runs/not-a-uuid/timeline", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/runs/"+uuid.NewString()+"/timeline", "").Code)

	bare := New(Opts{})
	assert.Equal(t, http.StatusNotFound, serve(bare, http.MethodGet, "/runs/"+uuid.NewString()+"/timeline", "").Code)
}
