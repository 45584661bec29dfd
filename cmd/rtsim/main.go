package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/oneee-playground/r2d2-rtsim/internal/exec"
	"github.com/oneee-playground/r2d2-rtsim/internal/history/storage"
	"github.com/oneee-playground/r2d2-rtsim/internal/job"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/report"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var (
		protocolName = flag.String("protocol", string(protocol.HLP), "resource access protocol (NPP, HLP)")
		ceilingRule  = flag.String("ceiling", protocol.HighestLocker.String(), "HLP ceiling rule (highest-locker, lowest-locker)")
		format       = flag.String("format", "text", "output format (text, json)")
		storePath    = flag.String("storepath", "", "store the run history under this directory")
		verbose      = flag.Bool("v", false, "log every tick")
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <taskset.json|taskset.yaml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := zap.WarnLevel
	if *verbose {
		level = zap.DebugLevel
	}
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stderr), level,
	))
	defer logger.Sync()

	desc, err := taskset.Load(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	opts := exec.ExecOpts{Log: logger}
	if *storePath != "" {
		opts.HistoryStorage = storage.NewFSStorage(*storePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := exec.NewExecutor(opts).Execute(ctx, job.Job{
		Protocol:    protocol.Name(*protocolName),
		CeilingRule: *ceilingRule,
		TaskSet:     desc,
	})
	if err != nil {
		log.Fatal(err)
	}

	switch *format {
	case "json":
		view, err := report.NewView(result.RunID, result.Protocol, result.TaskSet, result.Timeline, result.Outcomes)
		if err != nil {
			log.Fatal(err)
		}
		err = report.WriteJSON(os.Stdout, view)
	default:
		err = writeText(result)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func writeText(result exec.Result) error {
	fmt.Printf("Run %s (%s)\n\n", result.RunID, result.Protocol)

	if err := report.WriteTasks(os.Stdout, result.TaskSet); err != nil {
		return err
	}
	fmt.Println()
	if err := report.WriteJobs(os.Stdout, result.TaskSet); err != nil {
		return err
	}
	fmt.Println()
	if err := report.WriteOutcomes(os.Stdout, result.Outcomes); err != nil {
		return err
	}
	fmt.Println()
	return report.WriteTimeline(os.Stdout, result.Timeline)
}
