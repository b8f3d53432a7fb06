package optimization

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Objective is the fitness function driven by Minimize. It receives the
// candidate's decoded external arguments and returns the loss to
// minimize.
type Objective func(args []float64) float64

// Executor runs evaluation tasks for the Minimize driver. Any blocking
// (waiting for a worker slot or a completed evaluation) happens here, not
// inside the protocol primitives.
type Executor interface {
	// Go schedules a task. It may run it inline or concurrently.
	Go(task func())
}

type sequentialExecutor struct{}

func (sequentialExecutor) Go(task func()) { task() }

// Sequential returns an executor running every evaluation inline, in
// submission order.
func Sequential() Executor { return sequentialExecutor{} }

type concurrentExecutor struct{}

func (concurrentExecutor) Go(task func()) { go task() }

// Concurrent returns an executor running each evaluation in its own
// goroutine, allowing true ask/tell overlap in steady mode.
func Concurrent() Executor { return concurrentExecutor{} }

// MinimizeOptions tunes the scheduling driver. Zero values fall back to
// the protocol's construction-time settings.
type MinimizeOptions struct {
	// Budget is the number of evaluations to run. Defaults to the
	// protocol's advisory budget.
	Budget int

	// NumWorkers bounds in-flight evaluations. Defaults to the protocol's
	// worker count.
	NumWorkers int

	// BatchMode issues a full round of NumWorkers asks, evaluates them
	// all, tells them all, then repeats: a full synchronization barrier
	// each round. When false, the steady scheduler issues a new ask as
	// soon as a worker slot frees.
	BatchMode bool

	// Executor runs the evaluations. Defaults to Sequential().
	Executor Executor

	// Verbosity enables periodic progress logging when positive.
	Verbosity int
}

type completion struct {
	candidate *Candidate
	loss      float64
}

// Minimize repeatedly asks, evaluates the objective and tells, until the
// budget is consumed, then returns the final recommendation.
//
// Steady (non-batch) scheduling is event-driven: asks are issued whenever
// one of the NumWorkers slots is free, and tells are processed from a
// completion queue. With a single worker this reduces to strict
// ask/tell alternation; with a concurrent executor it overlaps asks with
// outstanding evaluations.
func (p *Protocol) Minimize(ctx context.Context, objective Objective, opts MinimizeOptions) (*Candidate, error) {
	const op = "Minimize"
	if objective == nil {
		return nil, NewConfigurationError("objective is required").
			WithComponent("optimization").WithOperation(op)
	}
	budget := opts.Budget
	if budget == 0 {
		budget = p.settings.Budget
	}
	if budget <= 0 {
		return nil, NewConfigurationError("budget must be positive, got %d", budget).
			WithComponent("optimization").WithOperation(op)
	}
	workers := opts.NumWorkers
	if workers == 0 {
		workers = p.settings.NumWorkers
	}
	if workers < 1 {
		return nil, NewConfigurationError("num workers must be positive, got %d", workers).
			WithComponent("optimization").WithOperation(op)
	}
	executor := opts.Executor
	if executor == nil {
		executor = Sequential()
	}

	var err error
	if opts.BatchMode {
		err = p.minimizeBatch(ctx, objective, budget, workers, executor, opts.Verbosity)
	} else {
		err = p.minimizeSteady(ctx, objective, budget, workers, executor, opts.Verbosity)
	}
	if err != nil {
		return nil, err
	}
	return p.ProvideRecommendation(), nil
}

// minimizeBatch runs full rounds: all asks of a round precede all tells
// of that round, and tells are applied in ask order.
func (p *Protocol) minimizeBatch(ctx context.Context, objective Objective, budget, workers int, executor Executor, verbosity int) error {
	for remaining := budget; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return WrapError(err, "minimize interrupted").
				WithComponent("optimization").WithOperation("Minimize")
		}
		n := workers
		if remaining < n {
			n = remaining
		}
		round := make([]*Candidate, n)
		losses := make([]float64, n)
		for i := 0; i < n; i++ {
			candidate, err := p.Ask()
			if err != nil {
				return err
			}
			round[i] = candidate
		}
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			i := i
			executor.Go(func() {
				defer wg.Done()
				losses[i] = objective(round[i].Args)
			})
		}
		wg.Wait()
		for i := 0; i < n; i++ {
			if err := p.Tell(round[i], losses[i]); err != nil {
				return err
			}
		}
		remaining -= n
		p.logProgress(verbosity)
	}
	return nil
}

// minimizeSteady keeps up to workers evaluations in flight and issues a
// new ask the moment a slot frees.
func (p *Protocol) minimizeSteady(ctx context.Context, objective Objective, budget, workers int, executor Executor, verbosity int) error {
	completions := make(chan completion, workers)
	issued, inFlight := 0, 0
	for told := 0; told < budget; {
		if err := ctx.Err(); err != nil {
			// Drain outstanding evaluations so their goroutines can exit.
			for ; inFlight > 0; inFlight-- {
				<-completions
			}
			return WrapError(err, "minimize interrupted").
				WithComponent("optimization").WithOperation("Minimize")
		}
		for inFlight < workers && issued < budget {
			candidate, err := p.Ask()
			if err != nil {
				return err
			}
			issued++
			inFlight++
			executor.Go(func() {
				completions <- completion{candidate: candidate, loss: objective(candidate.Args)}
			})
		}
		done := <-completions
		inFlight--
		if err := p.Tell(done.candidate, done.loss); err != nil {
			return err
		}
		told++
		p.logProgress(verbosity)
	}
	return nil
}

func (p *Protocol) logProgress(verbosity int) {
	if verbosity <= 0 {
		return
	}
	p.logger.Info("progress",
		zap.Int("num_ask", p.numAsk),
		zap.Int("num_tell", p.numTell),
		zap.Float64("best_loss", p.bestLoss),
	)
}

// Optimize is a deprecated alias for Minimize kept for callers of the old
// entry point. It logs a warning and completes normally.
//
// Deprecated: use Minimize.
func (p *Protocol) Optimize(ctx context.Context, objective Objective, opts MinimizeOptions) (*Candidate, error) {
	p.logger.Warn("Optimize is deprecated, use Minimize")
	return p.Minimize(ctx, objective, opts)
}
