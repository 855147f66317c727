/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: policy.go
Description: Strategy selection for the Akaylee file fuzzer. Decides which mutator runs in a
given round, either a fixed strategy, a round-robin alternation, or a seeded random pick.
*/

package strategies

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
)

// Strategy names a mutator selection policy
type Strategy string

const (
	StrategyBitFlip   Strategy = "bitflip"
	StrategyMagic     Strategy = "magic"
	StrategyAlternate Strategy = "alternate"
	StrategyRandom    Strategy = "random"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names
var ErrUnknownStrategy = errors.New("unknown mutation strategy")

// Strategies lists every supported policy, default first
var Strategies = []Strategy{StrategyBitFlip, StrategyMagic, StrategyAlternate, StrategyRandom}

// ParseStrategy converts a name into a Strategy. An empty name selects bit flipping.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategyBitFlip, nil
	}
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Policy picks exactly one mutator per round
type Policy struct {
	strategy Strategy
	bitFlip  interfaces.Mutator
	magic    interfaces.Mutator
}

// NewPolicy creates a policy for the given strategy
func NewPolicy(strategy Strategy) *Policy {
	return &Policy{
		strategy: strategy,
		bitFlip:  NewBitFlipMutator(),
		magic:    NewMagicMutator(),
	}
}

// Strategy returns the configured strategy
func (p *Policy) Strategy() Strategy {
	return p.strategy
}

// Pick returns the mutator for round. Only the random policy consumes randomness.
func (p *Policy) Pick(round int, rng *rand.Rand) interfaces.Mutator {
	switch p.strategy {
	case StrategyMagic:
		return p.magic
	case StrategyAlternate:
		if round%2 == 0 {
			return p.bitFlip
		}
		return p.magic
	case StrategyRandom:
		if rng.Intn(2) == 0 {
			return p.bitFlip
		}
		return p.magic
	default:
		return p.bitFlip
	}
}

// Mutators returns every mutator the policy can hand out
func (p *Policy) Mutators() []interfaces.Mutator {
	return []interfaces.Mutator{p.bitFlip, p.magic}
}
