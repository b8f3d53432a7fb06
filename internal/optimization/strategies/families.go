package strategies

import (
	"go.uber.org/zap"

	"github.com/blackboxopt/asktell/internal/optimization"
)

// option reads a typed value from family options, falling back to a
// default when absent.
func optionFloat(opts optimization.Options, key string, def float64) float64 {
	if v, ok := opts[key].(float64); ok {
		return v
	}
	return def
}

func optionInt64(opts optimization.Options, key string, def int64) int64 {
	switch v := opts[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return def
}

// ZeroFamily configures the Zero baseline.
func ZeroFamily() *optimization.Family {
	return optimization.NewFamily("Zero", nil,
		func(opts optimization.Options, instrumentation *optimization.Instrumentation, settings optimization.Settings) (*optimization.Protocol, error) {
			return optimization.NewProtocol(instrumentation, NewZero(instrumentation.Dimension()), settings)
		})
}

// RandomSearchFamily configures seeded random search. Options: sigma
// (float64, default 1), seed (int64, default 0).
func RandomSearchFamily(options optimization.Options) *optimization.Family {
	return optimization.NewFamily("RandomSearch", options,
		func(opts optimization.Options, instrumentation *optimization.Instrumentation, settings optimization.Settings) (*optimization.Protocol, error) {
			strategy := NewRandomSearch(
				instrumentation.Dimension(),
				optionFloat(opts, "sigma", 1),
				optionInt64(opts, "seed", 0),
			)
			return optimization.NewProtocol(instrumentation, strategy, settings)
		})
}

// OnePlusOneFamily configures the (1+1) hill climber. Options: sigma
// (float64, default 1), seed (int64, default 0).
func OnePlusOneFamily(options optimization.Options, logger *zap.Logger) *optimization.Family {
	return optimization.NewFamily("OnePlusOne", options,
		func(opts optimization.Options, instrumentation *optimization.Instrumentation, settings optimization.Settings) (*optimization.Protocol, error) {
			strategy := NewOnePlusOne(
				instrumentation.Dimension(),
				optionFloat(opts, "sigma", 1),
				optionInt64(opts, "seed", 0),
				logger,
			)
			return optimization.NewProtocol(instrumentation, strategy, settings)
		})
}

// DefaultRegistry returns a registry with every built-in family
// registered under its default configuration.
func DefaultRegistry(logger *zap.Logger) (*optimization.Registry, error) {
	registry := optimization.NewRegistry()
	families := []*optimization.Family{
		ZeroFamily(),
		RandomSearchFamily(nil),
		OnePlusOneFamily(nil, logger),
	}
	for _, family := range families {
		if err := registry.Register(family); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
