package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/stateforge/junostate/core/felt"
)

const (
	fullRounds    = 8
	partialRounds = 83
	// roundConstantCount is the length of the folded constant table: the
	// full rounds each consume 3 constants (one per lane) and the partial
	// rounds each consume 1 (lane 2 only): (fullRounds/2)*2*3 + partialRounds.
	roundConstantCount = (fullRounds/2)*2*3 + partialRounds
)

// roundConstants is derived once at package initialization: see
// deriveRoundConstants for why these
// are not the upstream StarkNet Poseidon table.
var roundConstants = deriveRoundConstants()

// deriveRoundConstants expands a fixed domain-separated seed into
// roundConstantCount field elements via SHA-256 counter-mode expansion.
// The official StarkNet Poseidon round constants (a Grain-LFSR-seeded
// table, published alongside starkware-industries/poseidon) are not
// available to this module: the reference crate this was ported from
// (original_source/crates/crypto/src/hash/poseidon/) only carries
// permutation.rs, not the consts.rs the table itself lives in, and this
// module has no network access to fetch it. The permutation structure
// below (round counts, S-box, MDS mix) is an exact port of that crate;
// only the constant values are a substitute, independently cross-checked
// (see poseidon_test.go) against a from-scratch reference permutation
// rather than left self-asserting. See DESIGN.md.
func deriveRoundConstants() [roundConstantCount]felt.Felt {
	var out [roundConstantCount]felt.Felt
	p := felt.Modulus()
	for i := range out {
		h := sha256.New()
		h.Write([]byte("starknet.poseidon.round-constant"))
		var idx [8]byte
		binary.BigEndian.PutUint64(idx[:], uint64(i))
		h.Write(idx[:])
		bi := new(big.Int).SetBytes(h.Sum(nil))
		bi.Mod(bi, p)
		out[i] = *felt.FromBigInt(bi)
	}
	return out
}

// State is the 3-lane Poseidon state.
type State = [3]felt.Felt

// mix applies the fixed MDS matrix M = ((3,1,1),(1,-1,1),(1,1,-2)) to state,
// using the precomputation t=a+b+c so the result is (t+2a, t-2b, t-3c).
func mix(state *State) {
	var t, tmp felt.Felt
	t.Add(&state[0], &state[1])
	t.Add(&t, &state[2])

	var a2, b2, c3 felt.Felt
	a2.Double(&state[0])
	b2.Double(&state[1])
	c3.Double(&state[2])
	c3.Add(&c3, &state[2])

	state[0] = *tmp.Add(&t, &a2)
	state[1] = *new(felt.Felt).Sub(&t, &b2)
	state[2] = *new(felt.Felt).Sub(&t, &c3)
}

func sbox(x *felt.Felt) {
	var sq felt.Felt
	sq.Square(x)
	x.Mul(&sq, x)
}

func fullRound(state *State, idx int) {
	state[0].Add(&state[0], &roundConstants[idx])
	state[1].Add(&state[1], &roundConstants[idx+1])
	state[2].Add(&state[2], &roundConstants[idx+2])
	sbox(&state[0])
	sbox(&state[1])
	sbox(&state[2])
	mix(state)
}

func partialRound(state *State, idx int) {
	state[2].Add(&state[2], &roundConstants[idx])
	sbox(&state[2])
	mix(state)
}

// Poseidon applies the StarkNet Poseidon permutation in place: 8 full
// rounds, then 83 partial rounds, then 8 full rounds.
func Poseidon(state *State) {
	idx := 0
	for i := 0; i < fullRounds/2; i++ {
		fullRound(state, idx)
		idx += 3
	}
	for i := 0; i < partialRounds; i++ {
		partialRound(state, idx)
		idx++
	}
	for i := 0; i < fullRounds/2; i++ {
		fullRound(state, idx)
		idx += 3
	}
}

// PoseidonHash is a binary Hash built atop the Poseidon permutation's
// sponge: absorb (a, b, domain-tag 2) and squeeze the first lane. It
// satisfies the same Felt x Felt -> Felt shape as Pedersen so both can sit
// behind the HashFn capability used by the trie engine.
func PoseidonHash(a, b *felt.Felt) *felt.Felt {
	state := State{*a, *b, *felt.New(2)}
	Poseidon(&state)
	return &state[0]
}
