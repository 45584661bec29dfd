// Package api exposes simulations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/oneee-playground/r2d2-rtsim/internal/exec"
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	"github.com/oneee-playground/r2d2-rtsim/internal/job"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/report"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/oneee-playground/r2d2-rtsim/internal/timeline"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

type Executor interface {
	Execute(ctx context.Context, jobToExec job.Job) (exec.Result, error)
}

type Opts struct {
	Log      *zap.Logger
	Executor Executor
	// HistoryStorage serves stored timelines. Optional.
	HistoryStorage history.Storage
}

type API struct {
	router *httprouter.Router

	Opts
}

func New(opts Opts) *API {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	a := &API{router: httprouter.New(), Opts: opts}

	a.router.GET("/protocols", a.getProtocols)
	a.router.GET("/schema", a.getSchema)
	a.router.POST("/simulate", a.simulate)
	a.router.GET("/runs/:id/timeline", a.getTimeline)

	return a
}

func (a *API) Handler() http.Handler {
	return a.router
}

type protocolsResponse struct {
	Supported    []protocol.Name `json:"supported"`
	CeilingRules []string        `json:"ceilingRules"`
}

func (a *API) getProtocols(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	a.writeJSON(w, http.StatusOK, protocolsResponse{
		Supported:    protocol.Supported,
		CeilingRules: []string{protocol.HighestLocker.String(), protocol.LowestLocker.String()},
	})
}

func (a *API) getSchema(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(taskset.Schema); err != nil {
		a.Log.Error("failed to write schema", zap.Error(err))
	}
}

func (a *API) simulate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, errors.Wrap(err, "reading body"))
		return
	}

	var received job.Job
	if err := json.Unmarshal(body, &received); err != nil {
		a.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decoding job"))
		return
	}

	result, err := a.Executor.Execute(r.Context(), received)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, taskset.ErrInvalidDescription) || errors.Is(err, protocol.ErrUnsupported) {
			status = http.StatusUnprocessableEntity
		}
		a.writeError(w, status, err)
		return
	}

	view, err := report.NewView(result.RunID, result.Protocol, result.TaskSet, result.Timeline, result.Outcomes)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, view)
}

func (a *API) getTimeline(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if a.HistoryStorage == nil {
		a.writeError(w, http.StatusNotFound, errors.New("history storage is not configured"))
		return
	}

	runID, err := uuid.Parse(p.ByName("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, errors.Wrap(err, "parsing run id"))
		return
	}

	h, err := a.HistoryStorage.Fetch(r.Context(), runID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		a.writeError(w, status, err)
		return
	}

	a.writeJSON(w, http.StatusOK, timeline.Build(h))
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		a.Log.Error("request failed", zap.Error(err))
	}
	a.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Log.Error("failed to encode response", zap.Error(err))
	}
}
