package simulation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelfishTrialZeroMaliciousRate(t *testing.T) {
	cfg := SelfishConfig{
		MaliciousRate: 0,
		Rounds:        200,
		Difficulty:    1,
		Trials:        1,
		Seed:          42,
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	res := runSelfishTrial(cfg, rng, nil)

	require.Equal(t, 0, res.AdversaryBlocks)
	require.Equal(t, 200, res.HonestBlocks)
	require.Equal(t, float64(0), res.ProfitRatio)
}

func TestSelfishAdvantageManifests(t *testing.T) {
	sim := NewSimulation()
	cfg := SelfishConfig{
		MaliciousRate: 0.45,
		Rounds:        3000,
		Difficulty:    1,
		Trials:        2,
		Seed:          42,
		Workers:       2,
	}

	summary, err := sim.RunSelfish(cfg)
	require.NoError(t, err)

	// With near-equal mining power and the two-block disclosure rules,
	// withholding must pay more than the raw power share.
	require.Greater(t, summary.ProfitRatio, cfg.MaliciousRate)
	// Orphaned work exists on both sides of the race.
	require.Greater(t, summary.OrphanedBlocks, 0)
}

func TestSelfishTrialDeterministicTransitions(t *testing.T) {
	cfg := SelfishConfig{
		MaliciousRate: 0.35,
		Rounds:        500,
		Difficulty:    1,
		Trials:        1,
		Seed:          7,
	}

	runOnce := func() ([]float64, SelfishResult) {
		rng := rand.New(rand.NewSource(cfg.Seed))
		ratios := make([]float64, 0, cfg.Rounds)
		res := runSelfishTrial(cfg, rng, func(round int, ratio float64) {
			ratios = append(ratios, ratio)
		})
		return ratios, res
	}

	ratiosA, resA := runOnce()
	ratiosB, resB := runOnce()

	require.Equal(t, ratiosA, ratiosB)
	require.Equal(t, resA, resB)
}

func TestSelfishSummaryDeterministicAcrossWorkers(t *testing.T) {
	cfg := SelfishConfig{
		MaliciousRate: 0.3,
		Rounds:        300,
		Difficulty:    1,
		Trials:        4,
		Seed:          99,
	}

	one := cfg
	one.Workers = 1
	many := cfg
	many.Workers = 4

	a, err := NewSimulation().RunSelfish(one)
	require.NoError(t, err)
	b, err := NewSimulation().RunSelfish(many)
	require.NoError(t, err)

	require.Equal(t, a.ProfitRatio, b.ProfitRatio)
	require.Equal(t, a.AdversaryBlocks, b.AdversaryBlocks)
	require.Equal(t, a.HonestBlocks, b.HonestBlocks)
	require.Equal(t, a.SealedBlocks, b.SealedBlocks)
}

// Replays the round loop by hand and checks the resolver's invariants
// after every single resolution step.
func TestSelfishRoundLoopInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	bc := NewBlockDB()
	engine := NewBlake3pow(1)

	honestMiner := NewMiner(HonestMiner, 0.6, engine, bc, rng)
	adversary := NewMiner(AdversaryMiner, 0.4, engine, bc, rng)
	resolver := NewBranchResolver(adversary.Chain(), rng)
	honest := honestMiner.Chain()

	for round := 0; round < 300; round++ {
		if rng.Float64() < 0.4 {
			adversary.Extend(resolver.Private())
			resolver.AdversaryExtended()
		} else {
			honestMiner.Extend(honest)
			honest = resolver.HonestExtended(honest)
		}
		honest = resolver.Converge(honest)

		require.GreaterOrEqual(t, resolver.Undisclosed(), 0)
		require.NoError(t, honest.Verify())
		require.NoError(t, resolver.Private().Verify())
		require.NoError(t, resolver.Public().Verify())
		require.Equal(t, honest.Tip().Hash(), resolver.Public().Tip().Hash())
	}
}

func TestSelfishConfigValidation(t *testing.T) {
	sim := NewSimulation()
	base := SelfishConfig{MaliciousRate: 0.3, Rounds: 10, Difficulty: 1, Trials: 1}

	bad := base
	bad.MaliciousRate = -0.1
	_, err := sim.RunSelfish(bad)
	require.Error(t, err)

	bad = base
	bad.MaliciousRate = 1.5
	_, err = sim.RunSelfish(bad)
	require.Error(t, err)

	bad = base
	bad.Rounds = 0
	_, err = sim.RunSelfish(bad)
	require.Error(t, err)

	bad = base
	bad.Difficulty = 0
	_, err = sim.RunSelfish(bad)
	require.Error(t, err)

	bad = base
	bad.Trials = 0
	_, err = sim.RunSelfish(bad)
	require.Error(t, err)

	bad = base
	bad.Workers = -1
	_, err = sim.RunSelfish(bad)
	require.Error(t, err)
}
