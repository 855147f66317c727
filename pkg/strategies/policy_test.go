/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: policy_test.go
Description: Tests for strategy parsing and per-round mutator selection.
*/

package strategies

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyBitFlip, got)

	got, err = ParseStrategy("  MAGIC ")
	require.NoError(t, err)
	assert.Equal(t, StrategyMagic, got)

	_, err = ParseStrategy("havoc")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestPolicyPick(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	bitflip := NewPolicy(StrategyBitFlip)
	magic := NewPolicy(StrategyMagic)
	alternate := NewPolicy(StrategyAlternate)

	for round := 0; round < 10; round++ {
		assert.Equal(t, "bitflip", bitflip.Pick(round, rng).Name())
		assert.Equal(t, "magic", magic.Pick(round, rng).Name())

		want := "bitflip"
		if round%2 == 1 {
			want = "magic"
		}
		assert.Equal(t, want, alternate.Pick(round, rng).Name())
	}
}

func TestRandomPolicyUsesBothAndIsSeeded(t *testing.T) {
	policy := NewPolicy(StrategyRandom)

	pick := func(seed int64) []string {
		rng := rand.New(rand.NewSource(seed))
		names := make([]string, 200)
		for i := range names {
			names[i] = policy.Pick(i, rng).Name()
		}
		return names
	}

	a := pick(5)
	assert.Equal(t, a, pick(5))
	assert.Contains(t, a, "bitflip")
	assert.Contains(t, a, "magic")
}

func TestPolicyMutators(t *testing.T) {
	mutators := NewPolicy(StrategyBitFlip).Mutators()
	require.Len(t, mutators, 2)
	assert.Equal(t, "bitflip", mutators[0].Name())
	assert.Equal(t, "magic", mutators[1].Name())
}
