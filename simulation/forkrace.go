package simulation

import (
	"math/rand"
)

// SelectChain applies the longest-chain rule across a node population:
// find the maximum chain length, pick uniformly at random among the
// nodes holding it, and give every node a full copy of that chain.
// Picking uniformly instead of first-found avoids a deterministic bias
// toward one node from iteration order alone.
func SelectChain(nodes []*Miner, rng *rand.Rand) *Chain {
	maxLen := 0
	for _, node := range nodes {
		if node.Chain().Len() > maxLen {
			maxLen = node.Chain().Len()
		}
	}
	candidates := make([]*Miner, 0, len(nodes))
	for _, node := range nodes {
		if node.Chain().Len() == maxLen {
			candidates = append(candidates, node)
		}
	}
	chosen := candidates[rng.Intn(len(candidates))].Chain()
	for _, node := range nodes {
		node.SetChain(chosen.Copy())
	}
	return chosen.Copy()
}

// runForkRaceTrial plays the multi-node longest-chain race until one
// population's representative chain outgrows the threshold, then
// reports whether the adversary's chain displaced the honest one.
// Equal final lengths are settled by a fair coin, modeling equal
// propagation odds.
func runForkRaceTrial(cfg ForkRaceConfig, rng *rand.Rand) bool {
	honestCount := int(float64(cfg.NodeCount) * (1 - cfg.MaliciousRate))
	maliciousCount := cfg.NodeCount - honestCount

	if maliciousCount == 0 {
		// The race needs a challenger; an empty adversary population
		// loses every trial by definition.
		return false
	}
	if honestCount == 0 {
		return true
	}

	bc := NewBlockDB()
	engine := NewBlake3pow(cfg.Difficulty)

	honestNodes := make([]*Miner, honestCount)
	for i := range honestNodes {
		honestNodes[i] = NewMiner(HonestMiner, cfg.SuccessRate, engine, bc, rng)
	}
	maliciousNodes := make([]*Miner, maliciousCount)
	for i := range maliciousNodes {
		maliciousNodes[i] = NewMiner(AdversaryMiner, cfg.SuccessRate, engine, bc, rng)
	}

	for {
		for _, node := range honestNodes {
			node.TryMine()
		}
		for _, node := range maliciousNodes {
			node.TryMine()
		}

		chainHonest := SelectChain(honestNodes, rng)
		chainMalicious := SelectChain(maliciousNodes, rng)

		lenHonest := chainHonest.Height()
		lenMalicious := chainMalicious.Height()

		if lenHonest > cfg.Threshold || lenMalicious > cfg.Threshold {
			if lenMalicious > lenHonest {
				return true
			}
			if lenMalicious == lenHonest && rng.Float64() < 0.5 {
				return true
			}
			return false
		}
	}
}
