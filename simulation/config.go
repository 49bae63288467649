package simulation

import (
	"fmt"
	"runtime"
)

// SelfishConfig parameterizes the two-party selfish-mining model.
type SelfishConfig struct {
	// MaliciousRate is the probability that the adversary is the miner
	// who seals in a given round.
	MaliciousRate float64
	Rounds        int
	Difficulty    int
	Trials        int
	Seed          int64
	Workers       int
}

func (c SelfishConfig) Validate() error {
	if err := validateRate("malicious rate", c.MaliciousRate); err != nil {
		return err
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	return validateCommon(c.Difficulty, c.Trials, c.Workers)
}

// ForkRaceConfig parameterizes the multi-node longest-chain race.
type ForkRaceConfig struct {
	NodeCount int
	// MaliciousRate is the adversarial fraction of the node population.
	MaliciousRate float64
	// SuccessRate is each node's per-round block probability.
	SuccessRate float64
	Difficulty  int
	// Threshold is the chain height (genesis excluded) past which the
	// trial terminates and the race is settled.
	Threshold int
	Trials    int
	Seed      int64
	Workers   int
}

func (c ForkRaceConfig) Validate() error {
	if c.NodeCount <= 0 {
		return fmt.Errorf("node count must be positive, got %d", c.NodeCount)
	}
	if err := validateRate("malicious rate", c.MaliciousRate); err != nil {
		return err
	}
	if err := validateRate("success rate", c.SuccessRate); err != nil {
		return err
	}
	if c.SuccessRate == 0 {
		return fmt.Errorf("success rate must be positive, got 0")
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %d", c.Threshold)
	}
	return validateCommon(c.Difficulty, c.Trials, c.Workers)
}

// GrowthConfig parameterizes the all-honest chain-growth model.
type GrowthConfig struct {
	NodeCount   int
	SuccessRate float64
	Difficulty  int
	Rounds      int
	Trials      int
	Seed        int64
	Workers     int
}

func (c GrowthConfig) Validate() error {
	if c.NodeCount <= 0 {
		return fmt.Errorf("node count must be positive, got %d", c.NodeCount)
	}
	if err := validateRate("success rate", c.SuccessRate); err != nil {
		return err
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	return validateCommon(c.Difficulty, c.Trials, c.Workers)
}

func validateRate(name string, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%s must be within [0, 1], got %v", name, rate)
	}
	return nil
}

func validateCommon(difficulty, trials, workers int) error {
	if difficulty <= 0 {
		return fmt.Errorf("difficulty must be positive, got %d", difficulty)
	}
	if trials <= 0 {
		return fmt.Errorf("trials must be positive, got %d", trials)
	}
	if workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", workers)
	}
	return nil
}

func resolveWorkers(workers int) int {
	if workers == 0 {
		return runtime.NumCPU()
	}
	return workers
}
