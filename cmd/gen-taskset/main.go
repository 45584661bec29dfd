package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/pkg/errors"
	"github.com/ryanolee/go-chaff"
	"gopkg.in/yaml.v3"
)

const maxAttemptsPerSet = 20

func main() {
	var (
		num    = flag.Int("n", 1, "number of generated task sets")
		out    = flag.String("out", ".", "output directory")
		format = flag.String("format", string(taskset.FormatJSON), "output format (json, yaml)")
		limits = defaultLimits
	)
	flag.IntVar(&limits.Tasks, "tasks", defaultLimits.Tasks, "maximum number of tasks per set")
	flag.IntVar(&limits.Resources, "resources", defaultLimits.Resources, "number of shared resources")
	flag.IntVar(&limits.Period, "period", defaultLimits.Period, "maximum period")
	flag.IntVar(&limits.Duration, "duration", defaultLimits.Duration, "maximum section duration")
	flag.IntVar(&limits.Horizon, "horizon", defaultLimits.Horizon, "simulation end time")

	flag.Parse()

	generator, err := chaff.ParseSchema(taskset.Schema, &chaff.ParserOptions{})
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*out, 0744); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < *num; i++ {
		desc, err := generate(generator, limits)
		if err != nil {
			log.Fatal(err)
		}

		path := filepath.Join(*out, fmt.Sprintf("taskset-%d.%s", i+1, *format))
		if err := write(path, taskset.Format(*format), desc); err != nil {
			log.Fatal(err)
		}

		fmt.Println(path)
	}
}

// generate draws raw documents from the schema until one normalizes into a
// task set that can be built.
func generate(generator chaff.Generator, limits Limits) (taskset.Description, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttemptsPerSet; attempt++ {
		result := generator.Generate(&chaff.GeneratorOptions{})

		b, err := json.Marshal(result)
		if err != nil {
			lastErr = err
			continue
		}

		var desc taskset.Description
		if err := json.Unmarshal(b, &desc); err != nil {
			lastErr = err
			continue
		}

		desc = Normalize(desc, limits)
		if _, err := taskset.New(desc, taskset.Opts{}); err != nil {
			lastErr = err
			continue
		}

		return desc, nil
	}

	return taskset.Description{}, errors.Wrapf(lastErr, "no usable task set after %d attempts", maxAttemptsPerSet)
}

func write(path string, format taskset.Format, desc taskset.Description) error {
	var (
		b   []byte
		err error
	)

	switch format {
	case taskset.FormatYAML:
		b, err = yaml.Marshal(desc)
	default:
		b, err = json.MarshalIndent(desc, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0644)
}
