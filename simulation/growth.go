package simulation

import (
	"math/rand"
)

// runGrowthTrial measures how fast an all-honest population grows the
// canonical chain: every node attempts a block each round, the
// population converges on the longest chain, and the result is blocks
// gained per round over the whole budget.
func runGrowthTrial(cfg GrowthConfig, rng *rand.Rand) float64 {
	bc := NewBlockDB()
	engine := NewBlake3pow(cfg.Difficulty)

	nodes := make([]*Miner, cfg.NodeCount)
	for i := range nodes {
		nodes[i] = NewMiner(HonestMiner, cfg.SuccessRate, engine, bc, rng)
	}

	var selected *Chain
	for round := 0; round < cfg.Rounds; round++ {
		for _, node := range nodes {
			node.TryMine()
		}
		selected = SelectChain(nodes, rng)
	}

	return float64(selected.Height()) / float64(cfg.Rounds)
}
