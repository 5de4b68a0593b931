package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforge/junostate/core/felt"
)

func TestPedersenDeterministic(t *testing.T) {
	a, b := felt.New(1), felt.New(2)
	h1 := Pedersen(a, b)
	h2 := Pedersen(a, b)
	assert.True(t, h1.Equal(h2))
}

func TestPedersenSensitiveToOrder(t *testing.T) {
	a, b := felt.New(1), felt.New(2)
	ab := Pedersen(a, b)
	ba := Pedersen(b, a)
	assert.False(t, ab.Equal(ba))
}

func TestPedersenNonZero(t *testing.T) {
	h := Pedersen(&felt.Zero, &felt.Zero)
	assert.False(t, h.IsZero())
}

func TestPedersenArrayMatchesManualFold(t *testing.T) {
	elems := []*felt.Felt{felt.New(3), felt.New(4), felt.New(5)}
	want := Pedersen(Pedersen(Pedersen(&felt.Zero, elems[0]), elems[1]), elems[2])
	want = Pedersen(want, felt.New(uint64(len(elems))))
	got := PedersenArray(elems...)
	assert.True(t, want.Equal(got))
}
