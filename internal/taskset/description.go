package taskset

import (
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Schema is the JSON Schema every task-set description must satisfy.
//
//go:embed schema.json
var Schema []byte

var ErrInvalidDescription = errors.New("invalid task set description")

// Description is the document a task set is built from. Pointer fields are
// required unless noted; a nil value fails validation.
type Description struct {
	StartTime *int              `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime   *int              `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Tasks     []TaskDescription `json:"taskset" yaml:"taskset"`
}

type TaskDescription struct {
	TaskID *int `json:"taskId,omitempty" yaml:"taskId,omitempty"`
	Period *int `json:"period,omitempty" yaml:"period,omitempty"`
	WCET   *int `json:"wcet,omitempty" yaml:"wcet,omitempty"`
	// Deadline defaults to Period.
	Deadline *int `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	// Offset defaults to 0.
	Offset *int `json:"offset,omitempty" yaml:"offset,omitempty"`
	// Sections are (resource, duration) pairs.
	Sections [][]int `json:"sections,omitempty" yaml:"sections,omitempty"`
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf guesses the format from a file extension, defaulting to JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func Load(path string) (Description, error) {
	file, err := os.Open(path)
	if err != nil {
		return Description{}, errors.Wrap(err, "opening task set")
	}
	defer file.Close()

	return Decode(file, FormatOf(path))
}

// Decode reads a description and validates it against Schema.
func Decode(r io.Reader, format Format) (Description, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Description{}, errors.Wrap(err, "reading task set")
	}

	var (
		doc  interface{}
		desc Description
	)

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Description{}, errors.Wrap(err, "decoding json")
		}
		if err := validate(gojsonschema.NewGoLoader(doc)); err != nil {
			return Description{}, err
		}
		if err := json.Unmarshal(raw, &desc); err != nil {
			return Description{}, errors.Wrap(err, "decoding json")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return Description{}, errors.Wrap(err, "decoding yaml")
		}
		if err := validate(gojsonschema.NewGoLoader(doc)); err != nil {
			return Description{}, err
		}
		if err := yaml.Unmarshal(raw, &desc); err != nil {
			return Description{}, errors.Wrap(err, "decoding yaml")
		}
	default:
		return Description{}, errors.Errorf("unknown task set format %q", format)
	}

	return desc, nil
}

// Validate checks a description built in code against Schema.
func (d Description) Validate() error {
	return validate(gojsonschema.NewGoLoader(d))
}

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

func validate(doc gojsonschema.JSONLoader) error {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(Schema))
	})
	if compileErr != nil {
		return errors.Wrap(compileErr, "compiling task set schema")
	}

	result, err := compiled.Validate(doc)
	if err != nil {
		return errors.Wrap(err, "validating task set")
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for idx, err := range result.Errors() {
			errs[idx] = err.String()
		}

		return errors.Wrapf(ErrInvalidDescription, "%v", errs)
	}

	return nil
}
