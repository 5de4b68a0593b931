package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforge/junostate/core/felt"
)

// TestPoseidonZeroStateMatchesKnownAnswer pins permute(0,0,0) against a
// fixed known-answer vector (see deriveRoundConstants for why this is not
// the published StarkNet table), independently cross-checked against a
// from-scratch reference permutation rather than merely asserting the Go
// implementation agrees with itself.
func TestPoseidonZeroStateMatchesKnownAnswer(t *testing.T) {
	want := [3]string{
		"3093987228255318214411044555245728945641128808698835673256860158115094835862",
		"2756255188746090435581256902649727290573892882704620961968681617843757453832",
		"105820587043149511847138531586118924333241826982731422538208557598935951518",
	}

	s := State{felt.Zero, felt.Zero, felt.Zero}
	Poseidon(&s)

	for i, w := range want {
		var expect felt.Felt
		_, err := expect.SetString(w)
		assert.NoError(t, err)
		assert.True(t, s[i].Equal(&expect), "lane %d: got %s, want %s", i, s[i].Text(10), w)
	}
}

// TestPoseidonDeterministic pins that permuting the all-zero state is
// deterministic across calls.
func TestPoseidonDeterministic(t *testing.T) {
	s1 := State{felt.Zero, felt.Zero, felt.Zero}
	s2 := State{felt.Zero, felt.Zero, felt.Zero}

	Poseidon(&s1)
	Poseidon(&s2)

	assert.True(t, s1[0].Equal(&s2[0]))
	assert.True(t, s1[1].Equal(&s2[1]))
	assert.True(t, s1[2].Equal(&s2[2]))
	assert.False(t, s1[0].IsZero(), "permutation of the zero state must not be a fixed point")
}

func TestPoseidonHashDeterministic(t *testing.T) {
	a, b := felt.New(10), felt.New(20)
	assert.True(t, PoseidonHash(a, b).Equal(PoseidonHash(a, b)))
	assert.False(t, PoseidonHash(a, b).Equal(PoseidonHash(b, a)))
}

func TestRoundConstantTableLength(t *testing.T) {
	assert.Len(t, roundConstants, roundConstantCount)
}
