// Package archetype builds the canned starting architectures: a monolith, a
// microservice triangle and an event-driven pipeline.
package archetype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nvandessel/archsim/internal/graph"
)

// ErrUnknownArchitecture is returned by Parse for unrecognised names.
var ErrUnknownArchitecture = errors.New("unknown architecture")

// ArchitectureType selects one of the canned topologies.
type ArchitectureType int

const (
	Monolith ArchitectureType = iota
	Microservices
	EventDriven
)

// All lists every architecture in cycle order.
func All() []ArchitectureType {
	return []ArchitectureType{Monolith, Microservices, EventDriven}
}

// Next cycles Monolith -> Microservices -> EventDriven -> Monolith.
func (a ArchitectureType) Next() ArchitectureType {
	switch a {
	case Monolith:
		return Microservices
	case Microservices:
		return EventDriven
	default:
		return Monolith
	}
}

// String returns the display name.
func (a ArchitectureType) String() string {
	switch a {
	case Monolith:
		return "Monolith"
	case Microservices:
		return "Microservices"
	case EventDriven:
		return "Event-Driven"
	default:
		return fmt.Sprintf("ArchitectureType(%d)", int(a))
	}
}

// Slug returns the lowercase identifier used in config files and flags.
func (a ArchitectureType) Slug() string {
	return strings.ToLower(a.String())
}

// Parse accepts a display name or slug, case-insensitively.
// "event_driven" and "eventdriven" are accepted for EventDriven.
func Parse(s string) (ArchitectureType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monolith":
		return Monolith, nil
	case "microservices", "microservice":
		return Microservices, nil
	case "event-driven", "event_driven", "eventdriven":
		return EventDriven, nil
	}
	return Monolith, fmt.Errorf("%w: %q", ErrUnknownArchitecture, s)
}

// MarshalText implements encoding.TextMarshaler so the type reads naturally
// in YAML and JSON.
func (a ArchitectureType) MarshalText() ([]byte, error) {
	return []byte(a.Slug()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ArchitectureType) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Build returns a fresh graph for the given architecture. Unknown values
// build the monolith.
func Build(a ArchitectureType) *graph.SystemGraph {
	switch a {
	case Microservices:
		return microservices()
	case EventDriven:
		return eventDriven()
	default:
		return monolith()
	}
}

// InitialSystem is the graph a new simulation starts from.
func InitialSystem() *graph.SystemGraph {
	return Build(Monolith)
}
