// Package layout defines the contract between a clustered view and the
// force-directed simulation that positions it.
//
// The simulation itself is external. A session hands it a fixed set of
// tuning [Params] exactly once, at startup, through a [Configurator]; the
// parameters never change with cluster state.
package layout

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyConfigured is returned when a Configurator is applied twice.
var ErrAlreadyConfigured = errors.New("simulation already configured")

// Params are the simulation tuning constants of a session.
type Params struct {
	// CollisionRadius is the minimum distance kept between node centers.
	CollisionRadius float64 `json:"collision_radius" toml:"collision_radius" validate:"gt=0"`
	// ChargeStrength is the pairwise many-body force; negative repels.
	ChargeStrength float64 `json:"charge_strength" toml:"charge_strength"`
	// LinkDistance is the target length of a link.
	LinkDistance float64 `json:"link_distance" toml:"link_distance" validate:"gt=0"`
	// ChargeDistanceMax cuts off the many-body force beyond this distance.
	ChargeDistanceMax float64 `json:"charge_distance_max" toml:"charge_distance_max" validate:"gt=0"`
}

// DefaultParams returns the stock tuning: collide 4, charge -15 up to
// distance 100, link distance 30.
func DefaultParams() Params {
	return Params{
		CollisionRadius:   4,
		ChargeStrength:    -15,
		LinkDistance:      30,
		ChargeDistanceMax: 100,
	}
}

// Validate checks that all distances are positive.
func (p Params) Validate() error {
	switch {
	case p.CollisionRadius <= 0:
		return fmt.Errorf("collision radius must be positive, got %v", p.CollisionRadius)
	case p.LinkDistance <= 0:
		return fmt.Errorf("link distance must be positive, got %v", p.LinkDistance)
	case p.ChargeDistanceMax <= 0:
		return fmt.Errorf("charge distance max must be positive, got %v", p.ChargeDistanceMax)
	}
	return nil
}

// Simulation is the tuning surface of a force-directed layout engine.
type Simulation interface {
	SetCollide(radius float64)
	SetCharge(strength, distanceMax float64)
	SetLinkDistance(distance float64)
}

// Configurator applies Params to a simulation at most once.
type Configurator struct {
	params Params
	mu     sync.Mutex
	done   bool
}

// NewConfigurator validates p and returns a configurator for it.
func NewConfigurator(p Params) (*Configurator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("layout params: %w", err)
	}
	return &Configurator{params: p}, nil
}

// Params returns the configured parameters.
func (c *Configurator) Params() Params { return c.params }

// Configure issues the one-time configuration to sim. Later calls return
// ErrAlreadyConfigured without touching sim.
func (c *Configurator) Configure(sim Simulation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return ErrAlreadyConfigured
	}
	sim.SetCollide(c.params.CollisionRadius)
	sim.SetCharge(c.params.ChargeStrength, c.params.ChargeDistanceMax)
	sim.SetLinkDistance(c.params.LinkDistance)
	c.done = true
	return nil
}

// Configured reports whether Configure has run.
func (c *Configurator) Configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
