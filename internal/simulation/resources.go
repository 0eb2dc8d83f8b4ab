package simulation

import (
	"fmt"
	"math"
	"strings"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/constants"
)

// Phase is the caller's simulation phase. The driver only reads it; moving
// between phases is the caller's business.
type Phase int

const (
	PhaseLoading Phase = iota
	PhasePlanning
	PhaseRunning
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhasePlanning:
		return "planning"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ParsePhase parses a phase name case-insensitively.
func ParsePhase(s string) (Phase, error) {
	for _, p := range []Phase{PhaseLoading, PhasePlanning, PhaseRunning, PhasePaused} {
		if strings.EqualFold(strings.TrimSpace(s), p.String()) {
			return p, nil
		}
	}
	return PhaseLoading, fmt.Errorf("unknown phase %q", s)
}

// Resources is the global economic state shared by every graph.
type Resources struct {
	Money        float64                    `json:"money"`
	Reputation   float64                    `json:"reputation"` // 0-100
	Sprint       int                        `json:"sprint"`
	Architecture archetype.ArchitectureType `json:"architecture"`
}

// DefaultResources is the state of a new simulation.
func DefaultResources() Resources {
	return Resources{
		Money:        constants.DefaultStartingMoney,
		Reputation:   constants.DefaultStartingReputation,
		Sprint:       1,
		Architecture: archetype.Monolith,
	}
}

// clamp enforces money >= 0 and reputation in [0, 100].
func (r *Resources) clamp() {
	if math.IsNaN(r.Money) {
		r.Money = 0
	}
	r.Money = math.Max(0, r.Money)
	if math.IsNaN(r.Reputation) {
		r.Reputation = 0
	}
	r.Reputation = math.Max(0, math.Min(constants.MaxReputation, r.Reputation))
}
