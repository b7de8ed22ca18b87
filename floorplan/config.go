package floorplan

import "time"

// Strategy selects how the bisection tree is walked.
type Strategy int

const (
	// Exhaustive performs full bisection down to leaf granularity. Default.
	Exhaustive Strategy = iota
	// Quick uses a single flat MILP at leaf granularity rather than bisection.
	Quick
	// SLRLevelOnly stops after the SLR-boundary cuts and keeps vertices at
	// SLR granularity.
	SLRLevelOnly
)

// OptPriority selects the lexicographic objective ordering.
type OptPriority int

const (
	// PriorityArea maximizes the slack of the binding area dimension first.
	PriorityArea OptPriority = iota
	// PrioritySLRCrossing minimizes total SLR crossing width first (default).
	PrioritySLRCrossing
)

// Config holds every floorplanner tuning parameter from §6, constructed
// via functional options in the style of builder.BuilderOption.
type Config struct {
	Strategy    Strategy
	OptPriority OptPriority

	MinAreaLimit float64
	MaxAreaLimit float64

	MinSLRWidthLimit float64
	MaxSLRWidthLimit float64

	MaxSearchTime time.Duration

	EnableHBMBindingAdjustment bool
	HBMPortVertices            []string

	// RatioSteps is how many loosening steps are tried between Min and Max
	// before a bisection step is declared infeasible.
	RatioSteps int
}

// Option mutates a Config during construction.
type Option func(*Config)

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:         Exhaustive,
		OptPriority:      PrioritySLRCrossing,
		MinAreaLimit:     0.55,
		MaxAreaLimit:     0.85,
		MinSLRWidthLimit: 0.6,
		MaxSLRWidthLimit: 0.8,
		MaxSearchTime:    30 * time.Second,
		RatioSteps:       4,
	}
}

// NewConfig applies opts over DefaultConfig, later options winning.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithStrategy(s Strategy) Option { return func(c *Config) { c.Strategy = s } }

func WithOptPriority(p OptPriority) Option { return func(c *Config) { c.OptPriority = p } }

func WithAreaLimits(min, max float64) Option {
	return func(c *Config) { c.MinAreaLimit, c.MaxAreaLimit = min, max }
}

func WithSLRWidthLimits(min, max float64) Option {
	return func(c *Config) { c.MinSLRWidthLimit, c.MaxSLRWidthLimit = min, max }
}

func WithMaxSearchTime(d time.Duration) Option {
	return func(c *Config) { c.MaxSearchTime = d }
}

func WithHBMBindingAdjustment(vertexNames []string) Option {
	return func(c *Config) {
		c.EnableHBMBindingAdjustment = true
		c.HBMPortVertices = vertexNames
	}
}
