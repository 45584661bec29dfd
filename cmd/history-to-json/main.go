package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	"github.com/oneee-playground/r2d2-rtsim/internal/history/storage"
	"github.com/oneee-playground/r2d2-rtsim/internal/report"
	"github.com/oneee-playground/r2d2-rtsim/internal/timeline"
)

type dump struct {
	RunID     uuid.UUID           `json:"runId"`
	StartTime int                 `json:"startTime"`
	EndTime   int                 `json:"endTime"`
	Records   []history.Record    `json:"records,omitempty"`
	Timeline  []timeline.Interval `json:"timeline"`
}

func main() {
	runIDString := flag.String("runID", "", "run id")
	location := flag.String("loc", "./", "storage location directory")
	records := flag.Bool("records", false, "include per-tick records")

	flag.Parse()

	if *runIDString == "" {
		log.Fatal("argument is not enough")
	}

	runID, err := uuid.Parse(*runIDString)
	if err != nil {
		log.Fatal("runID is malformed: ", err)
	}

	h, err := storage.NewFSStorage(*location).Fetch(context.Background(), runID)
	if err != nil {
		log.Fatal("fetching history: ", err)
	}

	out := dump{
		RunID:     runID,
		StartTime: h.Start(),
		EndTime:   h.End(),
		Timeline:  timeline.Build(h),
	}
	if *records {
		out.Records = h.Records()
	}

	if err := report.WriteJSON(os.Stdout, out); err != nil {
		log.Fatal(err)
	}
}
