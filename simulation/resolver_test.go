package simulation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// appendBlock grows a chain with an unsealed block; the resolver only
// looks at lengths and linkage, not difficulty.
func appendBlock(c *Chain, owner Owner) {
	c.Append(c.Tip().PendingBlock(owner, uint64(c.Len())))
}

func newTestResolver(seed int64) (*BranchResolver, *Chain) {
	rng := rand.New(rand.NewSource(seed))
	private := NewChain()
	return NewBranchResolver(private, rng), NewChain()
}

func requireResolved(t *testing.T, r *BranchResolver, honest *Chain) {
	t.Helper()
	require.GreaterOrEqual(t, r.Undisclosed(), 0)
	require.NoError(t, honest.Verify())
	require.NoError(t, r.Private().Verify())
	require.NoError(t, r.Public().Verify())
}

func TestResolverNoLeadAbandonsPrivateWork(t *testing.T) {
	r, honest := newTestResolver(1)

	appendBlock(honest, HonestOwner)
	honest = r.HonestExtended(honest)
	honest = r.Converge(honest)

	require.Equal(t, 0, r.Undisclosed())
	require.Equal(t, honest.Tip().Hash(), r.Private().Tip().Hash())
	require.Equal(t, honest.Tip().Hash(), r.Public().Tip().Hash())
	require.Equal(t, HonestOwner, honest.Tip().Owner())
	requireResolved(t, r, honest)
}

func TestResolverLeadOneRacesOnHonestCatchUp(t *testing.T) {
	r, honest := newTestResolver(7)

	appendBlock(r.Private(), AdversaryOwner)
	r.AdversaryExtended()
	require.Equal(t, 1, r.Undisclosed())

	appendBlock(honest, HonestOwner)
	honest = r.HonestExtended(honest)
	honest = r.Converge(honest)

	require.Equal(t, 0, r.Undisclosed())
	// Exactly one of the two competing blocks survives.
	require.Equal(t, 1, honest.Height())
	winner := honest.Tip().Owner()
	require.Contains(t, []Owner{HonestOwner, AdversaryOwner}, winner)
	// Both observers end the round on the same chain.
	require.Equal(t, honest.Tip().Hash(), r.Public().Tip().Hash())
	requireResolved(t, r, honest)
}

func TestResolverTieBreakIsFair(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const trials = 2000

	adversaryWins := 0
	for i := 0; i < trials; i++ {
		private := NewChain()
		r := NewBranchResolver(private, rng)
		honest := NewChain()

		appendBlock(r.Private(), AdversaryOwner)
		r.AdversaryExtended()
		appendBlock(honest, HonestOwner)
		honest = r.HonestExtended(honest)
		honest = r.Converge(honest)

		if honest.Tip().Owner() == AdversaryOwner {
			adversaryWins++
		}
	}

	fraction := float64(adversaryWins) / float64(trials)
	require.InDelta(t, 0.5, fraction, 0.05)
}

func TestResolverLeadTwoOrphansHonestBlock(t *testing.T) {
	r, honest := newTestResolver(3)

	for i := 0; i < 2; i++ {
		appendBlock(r.Private(), AdversaryOwner)
		r.AdversaryExtended()
	}
	require.Equal(t, 2, r.Undisclosed())

	appendBlock(honest, HonestOwner)
	honest = r.HonestExtended(honest)
	honest = r.Converge(honest)

	require.Equal(t, 0, r.Undisclosed())
	require.Equal(t, 2, honest.Height())
	require.Equal(t, 0, honest.CountOwner(HonestOwner))
	require.Equal(t, 2, honest.CountOwner(AdversaryOwner))
	requireResolved(t, r, honest)
}

func TestResolverDeepLeadDisclosure(t *testing.T) {
	r, honest := newTestResolver(5)

	for i := 0; i < 3; i++ {
		appendBlock(r.Private(), AdversaryOwner)
		r.AdversaryExtended()
	}
	require.Equal(t, 3, r.Undisclosed())
	publicLenBefore := r.Public().Len()

	appendBlock(honest, HonestOwner)
	honest = r.HonestExtended(honest)

	// The strategy releases a single block but reduces its lead
	// counter by two. This asymmetry is what the modeled strategy
	// does; it is pinned here on purpose.
	require.Equal(t, 1, r.Undisclosed())
	require.Equal(t, publicLenBefore+1, r.Public().Len())

	honest = r.Converge(honest)
	// The honest block loses the propagation tie against the
	// released block.
	require.Equal(t, AdversaryOwner, honest.Tip().Owner())
	requireResolved(t, r, honest)
}

func TestResolverConvergeAdoptsLongerHonestChain(t *testing.T) {
	r, honest := newTestResolver(9)

	appendBlock(honest, HonestOwner)
	appendBlock(honest, HonestOwner)
	honest = r.Converge(honest)

	require.Equal(t, honest.Len(), r.Public().Len())
	require.Equal(t, honest.Tip().Hash(), r.Public().Tip().Hash())
}

func TestClassifyLeadRejectsNegativeCounter(t *testing.T) {
	require.Panics(t, func() { classifyLead(-1) })
}

func TestResolverChainsNeverAlias(t *testing.T) {
	r, honest := newTestResolver(11)

	for i := 0; i < 2; i++ {
		appendBlock(r.Private(), AdversaryOwner)
		r.AdversaryExtended()
	}
	appendBlock(honest, HonestOwner)
	honest = r.HonestExtended(honest)
	honest = r.Converge(honest)

	// Growing the honest observer's copy must not leak into the
	// resolver's chains.
	appendBlock(honest, HonestOwner)
	require.Equal(t, honest.Len()-1, r.Public().Len())
	require.Equal(t, honest.Len()-1, r.Private().Len())
}
