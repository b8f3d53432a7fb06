package optimization

import (
	"encoding/json"
	"os"
)

// StatefulStrategy is implemented by strategies whose internal state can
// be captured in a snapshot. Strategies without it are dumped with the
// protocol bookkeeping only.
type StatefulStrategy interface {
	Strategy

	// MarshalState serializes the strategy's internal state.
	MarshalState() ([]byte, error)

	// UnmarshalState restores previously serialized state.
	UnmarshalState(data []byte) error
}

// snapshot is the on-disk resume format: everything needed to continue
// asking and telling identically, plus the strategy's own state when it
// supports capture.
type snapshot struct {
	Name        string             `json:"name"`
	NumAsk      int                `json:"num_ask"`
	NumTell     int                `json:"num_tell"`
	Archive     map[string]float64 `json:"archive"`
	Pending     map[string]int     `json:"pending,omitempty"`
	Suggestions [][]float64        `json:"suggestions,omitempty"`
	BestData    []float64          `json:"best_data,omitempty"`
	BestLoss    *float64           `json:"best_loss,omitempty"`
	Strategy    json.RawMessage    `json:"strategy,omitempty"`
}

// Dump writes the protocol state to path so a protocol constructed with
// the same instrumentation and strategy can resume via Load.
func (p *Protocol) Dump(path string) error {
	const op = "Dump"
	snap := snapshot{
		Name:        p.settings.Name,
		NumAsk:      p.numAsk,
		NumTell:     p.numTell,
		Archive:     p.archive,
		Pending:     p.pending,
		Suggestions: p.suggestions,
	}
	if p.best != nil {
		snap.BestData = p.best.Data
		loss := p.bestLoss
		snap.BestLoss = &loss
	}
	if s, ok := p.strategy.(StatefulStrategy); ok {
		state, err := s.MarshalState()
		if err != nil {
			return WrapError(err, "cannot capture strategy state").
				WithComponent("optimization").WithOperation(op)
		}
		snap.Strategy = state
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return WrapError(err, "cannot encode snapshot").
			WithComponent("optimization").WithOperation(op)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapError(err, "cannot write snapshot").
			WithComponent("optimization").WithOperation(op)
	}
	return nil
}

// Load restores a snapshot written by Dump into this protocol. The
// protocol must have been constructed with the same instrumentation and
// strategy type as the one that was dumped.
func (p *Protocol) Load(path string) error {
	const op = "Load"
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapError(err, "cannot read snapshot").
			WithComponent("optimization").WithOperation(op)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return WrapError(err, "cannot decode snapshot").
			WithComponent("optimization").WithOperation(op)
	}
	if snap.Strategy != nil {
		s, ok := p.strategy.(StatefulStrategy)
		if !ok {
			return NewValidationError("snapshot carries strategy state but strategy %T cannot restore it", p.strategy).
				WithComponent("optimization").WithOperation(op)
		}
		if err := s.UnmarshalState(snap.Strategy); err != nil {
			return WrapError(err, "cannot restore strategy state").
				WithComponent("optimization").WithOperation(op)
		}
	}
	p.numAsk = snap.NumAsk
	p.numTell = snap.NumTell
	p.archive = snap.Archive
	if p.archive == nil {
		p.archive = make(map[string]float64)
	}
	p.pending = snap.Pending
	if p.pending == nil {
		p.pending = make(map[string]int)
	}
	p.suggestions = snap.Suggestions
	p.best = nil
	if snap.BestData != nil && snap.BestLoss != nil {
		best, err := p.instrumentation.FromData(snap.BestData)
		if err != nil {
			return WrapError(err, "snapshot best does not fit the instrumentation").
				WithComponent("optimization").WithOperation(op)
		}
		loss := *snap.BestLoss
		best.Loss = &loss
		p.best = best
		p.bestLoss = loss
	}
	return nil
}
