// Package protocol implements the resource-access protocols that decide the
// priority a job runs at while it holds a shared resource.
package protocol

import (
	"strings"

	"github.com/oneee-playground/r2d2-rtsim/internal/task"
	"github.com/pkg/errors"
)

var ErrUnsupported = errors.New("unsupported resource access protocol")

type Name string

const (
	NPP Name = "NPP" // Non-Preemptive Protocol
	HLP Name = "HLP" // Highest Locker's Priority
	PIP Name = "PIP" // Priority Inheritance, not implemented
	PCP Name = "PCP" // Priority Ceiling, not implemented
	SRP Name = "SRP" // Stack Resource Policy, not implemented
)

// Supported lists the protocols New accepts.
var Supported = []Name{NPP, HLP}

// Protocol maps a held resource to the priority its holder is raised to.
type Protocol interface {
	Name() Name
	Ceiling(resource int) task.Priority
}

// Parse accepts any protocol name known to the package, case-insensitively.
func Parse(s string) (Name, error) {
	name := Name(strings.ToUpper(strings.TrimSpace(s)))
	switch name {
	case NPP, HLP, PIP, PCP, SRP:
		return name, nil
	}
	return "", errors.Errorf("unknown protocol %q", s)
}

func New(name Name, table CeilingTable) (Protocol, error) {
	switch name {
	case NPP:
		return NonPreemptive(), nil
	case HLP:
		return &highestLocker{table: table}, nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "protocol %q", name)
}

type nonPreemptive struct{}

// NonPreemptive needs no ceiling table: every held resource boosts to
// the highest priority.
func NonPreemptive() Protocol {
	return nonPreemptive{}
}

var _ Protocol = nonPreemptive{}

func (nonPreemptive) Name() Name { return NPP }

func (nonPreemptive) Ceiling(int) task.Priority { return task.HighestPriority }

type highestLocker struct {
	table CeilingTable
}

var _ Protocol = (*highestLocker)(nil)

func (p *highestLocker) Name() Name { return HLP }

// Ceiling falls back to non-preemptive behaviour for resources no task declared.
func (p *highestLocker) Ceiling(resource int) task.Priority {
	if ceiling, ok := p.table[resource]; ok {
		return ceiling
	}
	return task.HighestPriority
}
