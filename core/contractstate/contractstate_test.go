package contractstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stateforge/junostate/core/crypto"
	"github.com/stateforge/junostate/core/felt"
)

func TestHashMatchesManualFold(t *testing.T) {
	classHash, root, nonce := felt.New(1), felt.New(2), felt.New(3)
	h0 := crypto.Pedersen(classHash, root)
	h1 := crypto.Pedersen(h0, nonce)
	want := crypto.Pedersen(h1, &felt.Zero)

	got := Hash(classHash, root, nonce)
	assert.True(t, want.Equal(got))
}

func TestHashSensitiveToEachInput(t *testing.T) {
	base := Hash(felt.New(1), felt.New(2), felt.New(3))
	assert.False(t, base.Equal(Hash(felt.New(9), felt.New(2), felt.New(3))))
	assert.False(t, base.Equal(Hash(felt.New(1), felt.New(9), felt.New(3))))
	assert.False(t, base.Equal(Hash(felt.New(1), felt.New(2), felt.New(9))))
}
