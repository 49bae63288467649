package simulation

import (
	"math/rand"
)

// SelfishResult is the outcome of one selfish-mining trial.
type SelfishResult struct {
	AdversaryBlocks int
	HonestBlocks    int
	SealedBlocks    int
	ProfitRatio     float64
}

// runSelfishTrial plays the two-party disclosure model for the
// configured round budget. Exactly one miner seals per round: a single
// Bernoulli draw with the malicious rate picks the adversary, the
// honest miner otherwise. After the actor extends, the branch resolver
// applies its disclosure rules and both observers converge on one
// canonical chain.
func runSelfishTrial(cfg SelfishConfig, rng *rand.Rand, onRound func(round int, ratio float64)) SelfishResult {
	bc := NewBlockDB()
	engine := NewBlake3pow(cfg.Difficulty)

	honest := NewMiner(HonestMiner, 1-cfg.MaliciousRate, engine, bc, rng)
	adversary := NewMiner(AdversaryMiner, cfg.MaliciousRate, engine, bc, rng)
	resolver := NewBranchResolver(adversary.Chain(), rng)

	honestChain := honest.Chain()

	for round := 0; round < cfg.Rounds; round++ {
		if rng.Float64() < cfg.MaliciousRate {
			adversary.Extend(resolver.Private())
			resolver.AdversaryExtended()
		} else {
			honest.Extend(honestChain)
			honestChain = resolver.HonestExtended(honestChain)
		}
		honestChain = resolver.Converge(honestChain)

		if onRound != nil {
			onRound(round+1, profitRatio(honestChain))
		}
	}

	honest.SetChain(honestChain)

	return SelfishResult{
		AdversaryBlocks: honestChain.CountOwner(AdversaryOwner),
		HonestBlocks:    honestChain.CountOwner(HonestOwner),
		SealedBlocks:    bc.Sealed(),
		ProfitRatio:     profitRatio(honestChain),
	}
}

// profitRatio is the adversary-authored fraction of the canonical
// chain, genesis excluded.
func profitRatio(canonical *Chain) float64 {
	adv := canonical.CountOwner(AdversaryOwner)
	hon := canonical.CountOwner(HonestOwner)
	if adv+hon == 0 {
		return 0
	}
	return float64(adv) / float64(adv+hon)
}
