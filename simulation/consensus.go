package simulation

import (
	log "github.com/sirupsen/logrus"
)

// Blake3pow seals blocks by brute-force nonce search until the block
// hash clears the required leading-zero prefix. The search has no upper
// bound on attempts; it terminates with probability 1 and the expected
// attempt count (16^difficulty) is the simulated latency cost.
type Blake3pow struct {
	difficulty int
}

func NewBlake3pow(difficulty int) *Blake3pow {
	return &Blake3pow{difficulty: difficulty}
}

func (blake3pow *Blake3pow) Difficulty() int {
	return blake3pow.difficulty
}

// Seal fixes the header's nonce so that its hash meets the difficulty.
// Nonces are tried in order from zero, so sealing is deterministic
// given the header contents.
func (blake3pow *Blake3pow) Seal(header *Block) Hash {
	var (
		attempts = int64(0)
		nonce    = uint64(0)
	)
	for {
		attempts++
		if (attempts % (1 << 20)) == 0 {
			log.WithFields(log.Fields{
				"number":   header.Number(),
				"attempts": attempts,
			}).Debug("Still sealing block")
		}
		header.SetNonce(EncodeNonce(nonce))
		hash := header.Hash()
		if hash.MeetsDifficulty(blake3pow.difficulty) {
			return hash
		}
		nonce++
	}
}
