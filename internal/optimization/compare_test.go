package optimization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareRoutesRanksThroughTell(t *testing.T) {
	p, strategy := newTestProtocol(t, 1, Settings{NumWorkers: 4})

	candidates := make([]*Candidate, 4)
	for i := range candidates {
		c, err := p.Ask()
		require.NoError(t, err)
		candidates[i] = c
	}

	winners := candidates[:2]
	losers := candidates[2:]
	require.NoError(t, p.Compare(winners, losers))

	assert.Equal(t, 4, p.NumTell())
	assert.Equal(t, 0, p.Pending())
	// Winners-then-losers, by rank index.
	assert.Equal(t, []string{"s0", "s1", "s2", "s3", "u0", "u1", "u2", "u3"}, strategy.log)

	// Every winner carries a strictly lower pseudo-loss than every loser.
	for _, w := range winners {
		require.NotNil(t, w.Loss)
		for _, l := range losers {
			require.NotNil(t, l.Loss)
			assert.Less(t, *w.Loss, *l.Loss)
		}
	}
}

func TestCompareValidation(t *testing.T) {
	p, _ := newTestProtocol(t, 1, Settings{NumWorkers: 2})
	a, err := p.Ask()
	require.NoError(t, err)
	b, err := p.Ask()
	require.NoError(t, err)

	err = p.Compare(nil, []*Candidate{a})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	err = p.Compare([]*Candidate{a}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	err = p.Compare([]*Candidate{a, b}, []*Candidate{b})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, p.NumTell(), "nothing told on rejection")
}
