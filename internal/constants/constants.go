// Package constants provides named constants used throughout the archsim codebase.
// This centralizes the simulation coefficients so the engine, the runner and
// the tool surfaces agree on them.
package constants

// Tech debt contagion constants
const (
	// ComplexityAmplifierDivisor scales how strongly source complexity amplifies
	// exported debt: amplifier = 1 + complexity / ComplexityAmplifierDivisor.
	// Also used as the defect complexity multiplier divisor.
	ComplexityAmplifierDivisor = 10.0

	// MaxPercent is the ceiling for health and tech debt.
	MaxPercent = 100.0
)

// Tick constants applied per second of simulated time.
const (
	// HealthDecayRate is the share of a node's tech debt lost as health per second.
	// A node at 50% debt loses 5 health points per second.
	HealthDecayRate = 0.1

	// ReputationThreshold is the health below which a critical-path node costs reputation.
	ReputationThreshold = 50.0

	// ReputationPenaltyRate is the reputation lost per second per health point
	// below ReputationThreshold.
	ReputationPenaltyRate = 0.1
)

// Economy defaults for a fresh simulation.
const (
	// DefaultStartingMoney is the budget a new simulation starts with.
	DefaultStartingMoney = 10000.0

	// DefaultStartingReputation is the reputation a new simulation starts with.
	DefaultStartingReputation = 50.0

	// MaxReputation is the reputation ceiling.
	MaxReputation = 100.0
)

// Runner defaults
const (
	// DefaultTickDelta is the simulated seconds per tick when running headless.
	// Matches a 60 FPS frame.
	DefaultTickDelta = 1.0 / 60.0

	// DefaultTicks is the number of ticks a headless run executes.
	DefaultTicks = 600

	// DefaultDataDir is the per-project directory for history and traces.
	DefaultDataDir = ".archsim"
)
