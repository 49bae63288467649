package simulation

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/dominant-strategies/go-quai/event"
)

// ProgressEvent reports a completed trial on the progress feed. Purely
// observational; the simulation never reads it back.
type ProgressEvent struct {
	Model     string
	Trial     int
	Completed int
	Trials    int
	// Metric is the just-finished trial's outcome: profit ratio, win
	// indicator, or growth rate depending on the model.
	Metric float64
}

// SelfishSummary aggregates selfish-mining trials for one configuration.
type SelfishSummary struct {
	Config          SelfishConfig
	ProfitRatio     float64
	AdversaryBlocks int
	HonestBlocks    int
	SealedBlocks    int
	OrphanedBlocks  int
}

// ForkRaceSummary aggregates fork-race trials for one configuration.
type ForkRaceSummary struct {
	Config  ForkRaceConfig
	Wins    int
	WinRate float64
}

// GrowthSummary aggregates chain-growth trials for one configuration.
type GrowthSummary struct {
	Config     GrowthConfig
	GrowthRate float64
}

// Simulation runs independent trials of a fork-competition model and
// aggregates their outcomes. Trials fan out over a bounded worker pool;
// each trial owns a random stream seeded from the global seed plus its
// trial index, so results are reproducible regardless of worker
// interleaving.
type Simulation struct {
	progressFeed event.Feed
}

func NewSimulation() *Simulation {
	return &Simulation{}
}

// SubscribeProgress delivers trial-completion events to ch until the
// subscription is cancelled.
func (sim *Simulation) SubscribeProgress(ch chan<- ProgressEvent) event.Subscription {
	return sim.progressFeed.Subscribe(ch)
}

// RunSelfish estimates the selfish-mining profit ratio for the given
// configuration.
func (sim *Simulation) RunSelfish(cfg SelfishConfig) (*SelfishSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]SelfishResult, cfg.Trials)
	sim.runTrials("selfish", cfg.Trials, cfg.Workers, cfg.Seed, func(trial int, rng *rand.Rand) float64 {
		results[trial] = runSelfishTrial(cfg, rng, nil)
		return results[trial].ProfitRatio
	})

	summary := &SelfishSummary{Config: cfg}
	for _, res := range results {
		summary.AdversaryBlocks += res.AdversaryBlocks
		summary.HonestBlocks += res.HonestBlocks
		summary.SealedBlocks += res.SealedBlocks
	}
	if total := summary.AdversaryBlocks + summary.HonestBlocks; total > 0 {
		summary.ProfitRatio = float64(summary.AdversaryBlocks) / float64(total)
		summary.OrphanedBlocks = summary.SealedBlocks - total
	}
	return summary, nil
}

// RunForkRace estimates the probability that the adversary's chain
// displaces the honest one in the longest-chain race.
func (sim *Simulation) RunForkRace(cfg ForkRaceConfig) (*ForkRaceSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wins := make([]bool, cfg.Trials)
	sim.runTrials("forkrace", cfg.Trials, cfg.Workers, cfg.Seed, func(trial int, rng *rand.Rand) float64 {
		wins[trial] = runForkRaceTrial(cfg, rng)
		if wins[trial] {
			return 1
		}
		return 0
	})

	summary := &ForkRaceSummary{Config: cfg}
	for _, won := range wins {
		if won {
			summary.Wins++
		}
	}
	summary.WinRate = float64(summary.Wins) / float64(cfg.Trials)
	return summary, nil
}

// RunGrowth estimates the canonical chain's growth rate in blocks per
// round for an all-honest population.
func (sim *Simulation) RunGrowth(cfg GrowthConfig) (*GrowthSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rates := make([]float64, cfg.Trials)
	sim.runTrials("growth", cfg.Trials, cfg.Workers, cfg.Seed, func(trial int, rng *rand.Rand) float64 {
		rates[trial] = runGrowthTrial(cfg, rng)
		return rates[trial]
	})

	summary := &GrowthSummary{Config: cfg}
	for _, rate := range rates {
		summary.GrowthRate += rate
	}
	summary.GrowthRate /= float64(cfg.Trials)
	return summary, nil
}

// runTrials drives the worker pool. Each worker pulls trial indices,
// builds the trial's private random stream, runs it, and reports
// completion on the progress feed. Trials share no mutable state; each
// writes only its own result slot.
func (sim *Simulation) runTrials(model string, trials, workers int, seed int64, run func(trial int, rng *rand.Rand) float64) {
	var (
		wg        sync.WaitGroup
		completed atomic.Int64
		trialCh   = make(chan int)
	)

	workers = resolveWorkers(workers)
	if workers > trials {
		workers = trials
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range trialCh {
				rng := rand.New(rand.NewSource(seed + int64(trial)))
				metric := run(trial, rng)
				sim.progressFeed.Send(ProgressEvent{
					Model:     model,
					Trial:     trial,
					Completed: int(completed.Add(1)),
					Trials:    trials,
					Metric:    metric,
				})
			}
		}()
	}

	for trial := 0; trial < trials; trial++ {
		trialCh <- trial
	}
	close(trialCh)
	wg.Wait()
}
