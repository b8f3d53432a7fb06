// Package optimization implements the ask/tell execution protocol for
// derivative-free optimization: candidate bookkeeping, loss validation,
// recommendation tracking, scheduling drivers and the registry of named
// optimizer families. Search heuristics plug in through the Strategy
// interface and live in the strategies subpackage.
package optimization

import (
	"fmt"

	"go.uber.org/zap"
)

// Strategy is the algorithm plug-in consumed by the protocol. InternalAsk
// must be callable any number of times; InternalTell must accept
// representations that were either produced by InternalAsk or injected
// externally through Tell.
type Strategy interface {
	// InternalAsk proposes the next internal representation to evaluate.
	InternalAsk() []float64

	// InternalTell reports an observed loss for an internal representation.
	InternalTell(data []float64, loss float64)
}

// Event names an observable protocol hook.
type Event string

const (
	// EventAsk fires synchronously after each Ask.
	EventAsk Event = "ask"
	// EventTell fires synchronously after each accepted Tell.
	EventTell Event = "tell"
)

// Callback observes protocol events. For ask events loss is nil; for tell
// events it points at the accepted loss. Callbacks must not alter
// optimizer state; if one panics, the panic propagates.
type Callback func(p *Protocol, c *Candidate, loss *float64)

// Settings configures a protocol instance.
type Settings struct {
	// Budget is the advisory evaluation budget used by Minimize. The
	// protocol itself never enforces it: asking beyond the budget is legal.
	Budget int

	// NumWorkers bounds how many asked-but-not-told candidates may be
	// outstanding at once. Defaults to 1.
	NumWorkers int

	// Name identifies the instance in representations and logs. Families
	// overwrite it with their own deterministic representation.
	Name string

	// Logger receives structured protocol logs. Defaults to zap.NewNop().
	Logger *zap.Logger
}

// Protocol orchestrates candidate generation and evaluation bookkeeping
// around a pluggable Strategy. It assumes a single coordinating thread
// issuing asks and tells; evaluations may run elsewhere, and any
// multi-thread access must be serialized at the boundary, not here.
type Protocol struct {
	instrumentation *Instrumentation
	strategy        Strategy
	settings        Settings
	logger          *zap.Logger

	numAsk  int
	numTell int

	// archive keeps the best (lowest) observed loss per exact point.
	archive map[string]float64
	// pending tracks asked-but-not-yet-told representations.
	pending map[string]int
	// suggestions are externally injected points consumed before the
	// strategy's own proposals, one per Ask.
	suggestions [][]float64

	best     *Candidate
	bestLoss float64

	callbacks map[Event][]Callback
}

// NewProtocol creates an ask/tell protocol over the given parameter space
// and strategy.
func NewProtocol(instrumentation *Instrumentation, strategy Strategy, settings Settings) (*Protocol, error) {
	const op = "NewProtocol"
	if instrumentation == nil {
		return nil, NewConfigurationError("instrumentation is required").
			WithComponent("optimization").WithOperation(op)
	}
	if strategy == nil {
		return nil, NewConfigurationError("strategy is required").
			WithComponent("optimization").WithOperation(op)
	}
	if settings.NumWorkers < 0 {
		return nil, NewConfigurationError("num workers must not be negative, got %d", settings.NumWorkers).
			WithComponent("optimization").WithOperation(op)
	}
	if settings.NumWorkers == 0 {
		settings.NumWorkers = 1
	}
	if settings.Name == "" {
		settings.Name = "Protocol"
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Protocol{
		instrumentation: instrumentation,
		strategy:        strategy,
		settings:        settings,
		logger:          logger.Named("protocol"),
		archive:         make(map[string]float64),
		pending:         make(map[string]int),
		callbacks:       make(map[Event][]Callback),
	}, nil
}

// NumAsk returns how many candidates have been asked.
func (p *Protocol) NumAsk() int { return p.numAsk }

// NumTell returns how many losses have been accepted.
func (p *Protocol) NumTell() int { return p.numTell }

// Budget returns the advisory evaluation budget.
func (p *Protocol) Budget() int { return p.settings.Budget }

// NumWorkers returns the outstanding-candidate bound.
func (p *Protocol) NumWorkers() int { return p.settings.NumWorkers }

// Instrumentation returns the parameter space.
func (p *Protocol) Instrumentation() *Instrumentation { return p.instrumentation }

// String returns a deterministic representation of the configured
// instance.
func (p *Protocol) String() string {
	return fmt.Sprintf("Instance of %s(instrumentation=%s, budget=%d, num_workers=%d)",
		p.settings.Name, p.instrumentation, p.settings.Budget, p.settings.NumWorkers)
}

// RegisterCallback attaches an observer invoked synchronously after each
// event of the given kind.
func (p *Protocol) RegisterCallback(event Event, cb Callback) error {
	if event != EventAsk && event != EventTell {
		return NewConfigurationError("unknown event %q, want %q or %q", event, EventAsk, EventTell).
			WithComponent("optimization").WithOperation("RegisterCallback")
	}
	p.callbacks[event] = append(p.callbacks[event], cb)
	return nil
}

// Ask produces the next candidate to evaluate. A pending suggestion is
// consumed first; otherwise the strategy proposes. Safe to call up to
// NumWorkers times before any Tell.
func (p *Protocol) Ask() (*Candidate, error) {
	var data []float64
	if len(p.suggestions) > 0 {
		data = p.suggestions[0]
		p.suggestions = p.suggestions[1:]
	} else {
		data = p.strategy.InternalAsk()
	}
	candidate, err := p.instrumentation.FromData(data)
	if err != nil {
		return nil, WrapError(err, "strategy proposed an invalid representation").
			WithComponent("optimization").WithOperation("Ask")
	}
	p.numAsk++
	p.pending[candidate.Key()]++
	p.logger.Debug("ask",
		zap.Int("num_ask", p.numAsk),
		zap.Float64s("data", candidate.Data),
	)
	for _, cb := range p.callbacks[EventAsk] {
		cb(p, candidate, nil)
	}
	return candidate, nil
}

// Tell reports an observed loss for a candidate, whether or not it was
// produced by this instance's own Ask. Rejection is atomic: on a shape or
// loss-type error no state changes at all.
func (p *Protocol) Tell(candidate *Candidate, loss interface{}) error {
	const op = "Tell"
	if candidate == nil {
		return NewValidationError("candidate is required").
			WithComponent("optimization").WithOperation(op)
	}
	if len(candidate.Data) != p.instrumentation.Dimension() {
		return NewValidationError("shapes do not match: %d and %d",
			p.instrumentation.Dimension(), len(candidate.Data)).
			WithComponent("optimization").WithOperation(op)
	}
	value, err := CoerceLoss(loss)
	if err != nil {
		return err
	}

	key := candidate.Key()
	if old, ok := p.archive[key]; !ok || value < old {
		p.archive[key] = value
	}
	// Strict less-than, so the first-told candidate wins ties.
	if p.best == nil || value < p.bestLoss {
		best := NewCandidate(candidate.Data, candidate.Args)
		best.Loss = &value
		p.best = best
		p.bestLoss = value
	}
	p.numTell++
	candidate.Loss = &value
	if n, ok := p.pending[key]; ok {
		if n <= 1 {
			delete(p.pending, key)
		} else {
			p.pending[key] = n - 1
		}
	}
	p.logger.Debug("tell",
		zap.Int("num_tell", p.numTell),
		zap.Float64("loss", value),
		zap.Float64("best_loss", p.bestLoss),
	)
	for _, cb := range p.callbacks[EventTell] {
		cb(p, candidate, &value)
	}
	p.strategy.InternalTell(candidate.Data, value)
	return nil
}

// ProvideRecommendation returns the best-known candidate by the archive's
// bookkeeping. It never requires a prior Ask: before any Tell it decodes
// the origin of the internal space.
func (p *Protocol) ProvideRecommendation() *Candidate {
	if p.best != nil {
		best := NewCandidate(p.best.Data, p.best.Args)
		loss := p.bestLoss
		best.Loss = &loss
		return best
	}
	origin, err := p.instrumentation.FromData(make([]float64, p.instrumentation.Dimension()))
	if err != nil {
		// The origin always matches the instrumentation's own dimension.
		panic(err)
	}
	return origin
}

// Suggest injects an externally chosen point (in external argument space)
// so that the next Ask returns it verbatim, bypassing the strategy's own
// proposal for exactly one call. Multiple suggestions queue up in order.
func (p *Protocol) Suggest(args []float64) error {
	data, err := p.instrumentation.DataFrom(args)
	if err != nil {
		return WrapError(err, "cannot encode suggested values").
			WithComponent("optimization").WithOperation("Suggest")
	}
	p.suggestions = append(p.suggestions, data)
	return nil
}

// Pending returns how many asked-but-not-told points are outstanding.
func (p *Protocol) Pending() int {
	n := 0
	for _, c := range p.pending {
		n += c
	}
	return n
}
