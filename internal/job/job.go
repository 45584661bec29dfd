package job

import (
	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/protocol"
	"github.com/oneee-playground/r2d2-rtsim/internal/taskset"
	"github.com/pkg/errors"
)

// Job is a request to simulate one task set under one protocol.
type Job struct {
	RunID uuid.UUID `json:"runId"`

	Protocol    protocol.Name `json:"protocol"`
	CeilingRule string        `json:"ceilingRule,omitempty"`

	TaskSet taskset.Description `json:"taskset"`
}

// Resolve parses the protocol and ceiling rule. An empty protocol means NPP.
func (j Job) Resolve() (protocol.Name, protocol.CeilingRule, error) {
	name := protocol.NPP
	if j.Protocol != "" {
		parsed, err := protocol.Parse(string(j.Protocol))
		if err != nil {
			return "", 0, errors.Wrap(err, "parsing protocol")
		}
		name = parsed
	}

	if !supported(name) {
		return "", 0, errors.Wrapf(protocol.ErrUnsupported, "protocol %q", name)
	}

	rule, err := protocol.ParseCeilingRule(j.CeilingRule)
	if err != nil {
		return "", 0, errors.Wrap(err, "parsing ceiling rule")
	}

	return name, rule, nil
}

func supported(name protocol.Name) bool {
	for _, s := range protocol.Supported {
		if s == name {
			return true
		}
	}
	return false
}
