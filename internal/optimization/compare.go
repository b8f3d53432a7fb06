package optimization

// Compare consumes relative-ranking feedback instead of scalar losses:
// winners beat losers. The partial ranking is converted into synthetic
// scalar losses by rank index over the concatenated winners-then-losers
// ordering, so every winner receives a strictly lower pseudo-loss than
// every loser, and each pair is routed through the normal Tell path. Only
// the relative order between the two groups is contractual; the ordering
// within each group is arbitrary.
//
// The two sets must be disjoint and non-empty.
func (p *Protocol) Compare(winners, losers []*Candidate) error {
	const op = "Compare"
	if len(winners) == 0 || len(losers) == 0 {
		return NewValidationError("winners and losers must both be non-empty").
			WithComponent("optimization").WithOperation(op)
	}
	seen := make(map[string]struct{}, len(winners))
	for _, c := range winners {
		seen[c.Key()] = struct{}{}
	}
	for _, c := range losers {
		if _, ok := seen[c.Key()]; ok {
			return NewValidationError("winners and losers must be disjoint, %v appears in both", c.Data).
				WithComponent("optimization").WithOperation(op)
		}
	}
	ranked := make([]*Candidate, 0, len(winners)+len(losers))
	ranked = append(ranked, winners...)
	ranked = append(ranked, losers...)
	for rank, candidate := range ranked {
		if err := p.Tell(candidate, float64(rank)); err != nil {
			return err
		}
	}
	return nil
}
