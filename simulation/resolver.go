package simulation

import (
	"fmt"
	"math/rand"
)

// leadState classifies the adversary's undisclosed lead at the moment
// an honest block lands. One handler per state keeps the counter
// transitions mechanically checkable.
type leadState int

const (
	leadNone leadState = iota
	leadOne
	leadTwo
	leadDeep
)

func classifyLead(undisclosed int) leadState {
	switch {
	case undisclosed < 0:
		panic(fmt.Sprintf("undisclosed lead is negative: %d", undisclosed))
	case undisclosed == 0:
		return leadNone
	case undisclosed == 1:
		return leadOne
	case undisclosed == 2:
		return leadTwo
	default:
		return leadDeep
	}
}

// BranchResolver is the selfish-mining disclosure state machine. It
// owns the adversary's private chain and the chain the adversary has
// published so far, and tracks the undisclosed lead between them.
//
// The lead counter and the raw length difference intentionally diverge
// after a deep-lead disclosure (one block released, counter reduced by
// two); the counter, not the length difference, drives the branching.
type BranchResolver struct {
	private     *Chain
	public      *Chain
	undisclosed int

	rng *rand.Rand
}

func NewBranchResolver(private *Chain, rng *rand.Rand) *BranchResolver {
	return &BranchResolver{
		private: private,
		public:  private.Copy(),
		rng:     rng,
	}
}

func (r *BranchResolver) Private() *Chain {
	return r.private
}

func (r *BranchResolver) Public() *Chain {
	return r.public
}

func (r *BranchResolver) Undisclosed() int {
	return r.undisclosed
}

// AdversaryExtended records that the adversary sealed one more private
// block this round. The strategy's own publish trigger fires only when
// a two-block cushion exists with nothing left undisclosed by length;
// in practice disclosure is forced by the honest-side rules below,
// which is what makes the withholding strategic.
func (r *BranchResolver) AdversaryExtended() {
	r.undisclosed++
	if r.undisclosed == 2 && r.private.Len() == r.public.Len() {
		r.public = r.private.Copy()
		r.undisclosed = 0
	}
	r.assertInvariant()
}

// HonestExtended resolves the round in which the honest miner sealed a
// block onto honest. The lead considered is the one held before that
// block. Returns the honest observer's chain, which the resolution may
// have replaced. Disclosure per lead state:
//
//	none: abandon stale private work, restart from the honest chain
//	one:  publish, tie, fair coin decides which side is orphaned
//	two:  publish everything, the honest block is orphaned
//	deep: release a single block, keep a cushion, lead drops by two
func (r *BranchResolver) HonestExtended(honest *Chain) *Chain {
	switch classifyLead(r.undisclosed) {
	case leadNone:
		r.private = honest.Copy()
		r.undisclosed = 0

	case leadOne:
		r.public = r.private.Copy()
		r.undisclosed = 0
		if r.rng.Float64() < 0.5 {
			// Honest side adopts the published chain; its fresh block
			// is orphaned.
			honest = r.public.Copy()
		} else {
			// Adversary's single-block lead is wasted.
			r.private = honest.Copy()
			r.public = honest.Copy()
		}

	case leadTwo:
		r.public = r.private.Copy()
		r.undisclosed = 0

	case leadDeep:
		r.public = r.private.Prefix(r.public.Len() + 1)
		r.undisclosed -= 2
	}
	r.assertInvariant()
	return honest
}

// Converge applies the longest-chain rule between the published chain
// and the honest observer's chain so both observers leave the round on
// one canonical chain. Ties go to the published chain, modeling the
// adversary's block winning the propagation race it engineered.
func (r *BranchResolver) Converge(honest *Chain) *Chain {
	switch {
	case r.public.Len() > honest.Len():
		honest = r.public.Copy()
	case r.public.Len() < honest.Len():
		r.public = honest.Copy()
	default:
		honest = r.public.Copy()
	}
	return honest
}

// assertInvariant aborts on counter corruption. Clamping instead would
// silently bias the measured attack probability.
func (r *BranchResolver) assertInvariant() {
	if r.undisclosed < 0 {
		panic(fmt.Sprintf("branch resolver invariant violated: undisclosed lead %d < 0", r.undisclosed))
	}
}
