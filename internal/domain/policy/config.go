package policy

import (
	"math"

	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/pkg/logger"
)

// StaticConfig configures a StaticWindow.
type StaticConfig struct {
	StartDay     int     `json:"start_day" yaml:"start_day" koanf:"start_day"`
	DurationDays int     `json:"duration_days" yaml:"duration_days" koanf:"duration_days"`
	Intensity    float64 `json:"intensity" yaml:"intensity" koanf:"intensity"`
}

// DynamicConfig configures a DynamicThreshold.
type DynamicConfig struct {
	OnThreshold  float64 `json:"on_threshold" yaml:"on_threshold" koanf:"on_threshold"`
	OffThreshold float64 `json:"off_threshold" yaml:"off_threshold" koanf:"off_threshold"`
	Intensity    float64 `json:"intensity" yaml:"intensity" koanf:"intensity"`
}

// Config is the tagged variant decoded from requests and scenario files.
// Only the block matching Kind is read; combined reads both.
type Config struct {
	Kind    Kind           `json:"kind" yaml:"kind" koanf:"kind"`
	Static  *StaticConfig  `json:"static,omitempty" yaml:"static,omitempty" koanf:"static"`
	Dynamic *DynamicConfig `json:"dynamic,omitempty" yaml:"dynamic,omitempty" koanf:"dynamic"`
}

// Reference settings of each policy, as listed in the parameter catalog.
const (
	DefaultStaticStartDay   = 14
	DefaultStaticDuration   = 28
	DefaultOnThreshold      = 3.8
	DefaultOffThreshold     = 1.0
	DefaultDistancingFactor = 0.6
)

// DefaultConfig returns the reference configuration of kind. Unknown kinds
// yield a config that New rejects.
func DefaultConfig(kind Kind) Config {
	cfg := Config{Kind: kind}
	if kind == KindStatic || kind == KindCombined {
		cfg.Static = &StaticConfig{
			StartDay:     DefaultStaticStartDay,
			DurationDays: DefaultStaticDuration,
			Intensity:    DefaultDistancingFactor,
		}
	}
	if kind == KindDynamic || kind == KindCombined {
		cfg.Dynamic = &DynamicConfig{
			OnThreshold:  DefaultOnThreshold,
			OffThreshold: DefaultOffThreshold,
			Intensity:    DefaultDistancingFactor,
		}
	}
	return cfg
}

// WithDefaults fills the blocks that c's kind needs but leaves out.
func (c Config) WithDefaults() Config {
	kind, err := ParseKind(string(c.Kind))
	if err != nil {
		return c
	}
	ref := DefaultConfig(kind)
	if c.Static == nil {
		c.Static = ref.Static
	}
	if c.Dynamic == nil {
		c.Dynamic = ref.Dynamic
	}
	return c
}

// Option tunes policy construction.
type Option func(*options)

type options struct {
	log logger.Logger
}

// WithLogger attaches a logger to stateful policies.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// New validates cfg and builds a fresh Policy for one run over horizon days.
func New(cfg Config, horizon int, opts ...Option) (Policy, error) {
	const op = "policy.new"
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	kind, err := ParseKind(string(cfg.Kind))
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindNone:
		return None{}, nil
	case KindStatic:
		if cfg.Static == nil {
			return nil, invalid(op, "static policy requires a static block")
		}
		return newStatic(cfg.Static, horizon)
	case KindDynamic:
		if cfg.Dynamic == nil {
			return nil, invalid(op, "dynamic policy requires a dynamic block")
		}
		return newDynamic(cfg.Dynamic, o.log)
	default:
		if cfg.Static == nil || cfg.Dynamic == nil {
			return nil, invalid(op, "combined policy requires both static and dynamic blocks")
		}
		s, err := newStatic(cfg.Static, horizon)
		if err != nil {
			return nil, err
		}
		d, err := newDynamic(cfg.Dynamic, o.log)
		if err != nil {
			return nil, err
		}
		return &Combined{Static: s, Dynamic: d}, nil
	}
}

// Validate checks cfg without keeping the result.
func (c Config) Validate(horizon int) error {
	_, err := New(c, horizon)
	return err
}

func newStatic(c *StaticConfig, horizon int) (*StaticWindow, error) {
	return NewStaticWindow(c.StartDay, c.DurationDays, c.Intensity, horizon)
}

func newDynamic(c *DynamicConfig, log logger.Logger) (*DynamicThreshold, error) {
	return NewDynamicThreshold(c.OnThreshold, c.OffThreshold, c.Intensity, log)
}

func checkIntensity(op string, v float64) error {
	if !finite(v) || v < 0 || v > 1 {
		return invalid(op, "intensity must be within [0,1], got %v", v)
	}
	return nil
}

func invalid(op, format string, args ...any) error {
	return simerr.Invalid(op, format, args...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
