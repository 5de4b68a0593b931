package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforge/junostate/core/felt"
)

func TestBitsRoundTripsThroughBitSet(t *testing.T) {
	bits := FeltToBits(251, felt.New(0xdeadbeef))
	bs := bits.BitSet()
	back := BitsFromBitSet(bs, bits.Len())
	assert.True(t, bits.Equal(back))
}

func TestCommonPrefixLen(t *testing.T) {
	a := BitsOf(true, true, false, true)
	b := BitsOf(true, true, true, false)
	assert.EqualValues(t, 2, CommonPrefixLen(a, b))
}

func TestSliceFromPrefixAndAppend(t *testing.T) {
	full := FeltToBits(8, felt.New(0b10110101))

	assert.True(t, full.Prefix(4).Equal(BitsOf(true, false, true, true)))
	assert.True(t, full.From(4).Equal(BitsOf(false, true, false, true)))
	assert.True(t, full.Slice(2, 6).Equal(BitsOf(true, true, false, true)))
	assert.True(t, full.Prefix(3).Append(full.From(3)).Equal(full))
}

func TestFeltRoundTrip(t *testing.T) {
	k := felt.New(12345)
	bits := FeltToBits(252, k)
	assert.True(t, bits.Felt().Equal(k))
}
