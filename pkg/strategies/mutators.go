/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mutators.go
Description: In-place byte mutation strategies for the Akaylee file fuzzer. Implements bit
flipping and magic boundary-value overwrites. Both strategies keep the leading and trailing
format markers intact and return an undo record so the buffer can be restored without cloning.
*/

package strategies

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
)

const (
	// MinBufferLen is the smallest buffer either strategy will touch
	MinBufferLen = 12

	// guard bytes kept intact at each end of the buffer
	headerGuard = 4
	footerGuard = 4

	// the magic writer reserves room for its widest value plus the footer guard
	magicTailReserve = 12
)

// ErrBufferTooShort is returned for buffers shorter than MinBufferLen
var ErrBufferTooShort = errors.New("buffer too short to mutate")

// NumMutations returns how many indices a strategy draws for a buffer of length n.
// Integer division keeps this exactly floor((n-4) * 0.01).
func NumMutations(n int) int {
	if n < headerGuard {
		return 0
	}
	return (n - headerGuard) / 100
}

func checkLen(buf []byte) error {
	if len(buf) < MinBufferLen {
		return fmt.Errorf("%w: %d bytes (minimum %d)", ErrBufferTooShort, len(buf), MinBufferLen)
	}
	return nil
}

// drawIndices draws k indices uniformly from [lo, hi)
func drawIndices(rng *rand.Rand, k, lo, hi int) []int {
	idxs := make([]int, k)
	for i := range idxs {
		idxs[i] = lo + rng.Intn(hi-lo)
	}
	return idxs
}

// BitFlipMutator flips one random bit in each of a handful of random bytes
type BitFlipMutator struct{}

// NewBitFlipMutator creates a new bit flip mutator
func NewBitFlipMutator() *BitFlipMutator {
	return &BitFlipMutator{}
}

// Mutate corrupts buf in place. Indices come from [4, len-4), so the first and last
// four bytes are never flipped. Repeated indices are flipped again; only the first
// capture is kept for restoring.
func (m *BitFlipMutator) Mutate(buf []byte, rng *rand.Rand) (*interfaces.Mutation, error) {
	if err := checkLen(buf); err != nil {
		return nil, err
	}

	k := NumMutations(len(buf))
	mutation := &interfaces.Mutation{
		Strategy: m.Name(),
		Undo:     make(interfaces.UndoRecord, k),
	}
	if k == 0 {
		return mutation, nil
	}

	mutation.Indices = drawIndices(rng, k, headerGuard, len(buf)-footerGuard)
	for _, idx := range mutation.Indices {
		mutation.Undo.Record(idx, buf[idx])
		buf[idx] ^= 1 << uint(rng.Intn(8))
	}

	return mutation, nil
}

// Name returns the name of this mutator
func (m *BitFlipMutator) Name() string {
	return "bitflip"
}

// Description returns a description of this mutator
func (m *BitFlipMutator) Description() string {
	return "Flips a single random bit in roughly 1% of the bytes between the 4-byte header and footer guards"
}

// MagicValue is an integer boundary constant written little-endian over Width bytes
type MagicValue struct {
	Width int
	Value uint64
}

// MagicValues covers zero, signed max and unsigned max for each integer width
var MagicValues = [12]MagicValue{
	{1, 0x0},
	{1, 0x7f},
	{1, 0xff},
	{2, 0x0},
	{2, 0x7fff},
	{2, 0xffff},
	{4, 0x0},
	{4, 0x7fffffff},
	{4, 0xffffffff},
	{8, 0x0},
	{8, 0x7fffffffffffffff},
	{8, 0xffffffffffffffff},
}

// MagicMutator overwrites random positions with integer boundary values.
// Boundary integers tend to trip off-by-one and overflow bugs in length fields.
type MagicMutator struct{}

// NewMagicMutator creates a new magic value mutator
func NewMagicMutator() *MagicMutator {
	return &MagicMutator{}
}

// Mutate corrupts buf in place. Indices come from [4, len-12), so even an 8-byte write
// stays clear of the trailing guard bytes.
func (m *MagicMutator) Mutate(buf []byte, rng *rand.Rand) (*interfaces.Mutation, error) {
	if err := checkLen(buf); err != nil {
		return nil, err
	}

	k := NumMutations(len(buf))
	mutation := &interfaces.Mutation{
		Strategy: m.Name(),
		Undo:     make(interfaces.UndoRecord, k),
	}
	if k == 0 {
		return mutation, nil
	}

	mutation.Indices = drawIndices(rng, k, headerGuard, len(buf)-magicTailReserve)
	for _, idx := range mutation.Indices {
		magic := MagicValues[rng.Intn(len(MagicValues))]
		for j := 0; j < magic.Width; j++ {
			mutation.Undo.Record(idx+j, buf[idx+j])
			buf[idx+j] = byte(magic.Value >> (8 * uint(j)))
		}
	}

	return mutation, nil
}

// Name returns the name of this mutator
func (m *MagicMutator) Name() string {
	return "magic"
}

// Description returns a description of this mutator
func (m *MagicMutator) Description() string {
	return "Overwrites random positions with 1/2/4/8-byte zero, signed-max and unsigned-max values"
}

// Restore undoes a mutation. Afterwards buf is identical to its pre-mutation state.
func Restore(buf []byte, mutation *interfaces.Mutation) {
	if mutation == nil {
		return
	}
	mutation.Undo.Restore(buf)
}
