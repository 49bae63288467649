package simulation

import (
	"math/rand"
	"time"
)

type Kind uint

const (
	HonestMiner Kind = iota
	AdversaryMiner
)

func (k Kind) Owner() Owner {
	if k == AdversaryMiner {
		return AdversaryOwner
	}
	return HonestOwner
}

func (k Kind) String() string {
	if k == AdversaryMiner {
		return "adversary"
	}
	return "honest"
}

// Miner extends a chain tip with freshly sealed blocks. Each miner
// holds its own view of the canonical chain; resolution replaces that
// view wholesale with a copy, never in place.
type Miner struct {
	chain     *Chain
	bc        *BlockDB
	engine    *Blake3pow
	minerType Kind
	rate      float64
	rng       *rand.Rand
}

func NewMiner(kind Kind, rate float64, engine *Blake3pow, bc *BlockDB, rng *rand.Rand) *Miner {
	return &Miner{
		chain:     NewChain(),
		bc:        bc,
		engine:    engine,
		minerType: kind,
		rate:      rate,
		rng:       rng,
	}
}

func (m *Miner) Chain() *Chain {
	return m.chain
}

// SetChain replaces the miner's view of the canonical chain. The caller
// hands over ownership; pass a copy when the chain is shared.
func (m *Miner) SetChain(c *Chain) {
	m.chain = c
}

// TryMine runs the miner's per-round Bernoulli draw and, on success,
// seals a block on its own tip. Returns nil when the draw fails.
func (m *Miner) TryMine() *Block {
	if m.rng.Float64() >= m.rate {
		return nil
	}
	return m.Extend(m.chain)
}

// Extend unconditionally seals a new block on the tip of c and appends
// it. Used by the round driver once the round's draw has already
// selected this miner.
func (m *Miner) Extend(c *Chain) *Block {
	pending := c.Tip().PendingBlock(m.minerType.Owner(), uint64(time.Now().Unix()))
	m.engine.Seal(pending)
	c.Append(pending)
	m.bc.Add(pending)
	return pending
}
