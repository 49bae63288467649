package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/minerlab/forksim/simulation"
)

var rootCmd = &cobra.Command{
	Use:   "forksim",
	Short: "Monte-Carlo simulator for proof-of-work fork competition",
	Long: `forksim estimates how often an adversarial mining strategy captures
the canonical chain of a proof-of-work blockchain. It runs three models:
a two-party selfish-mining model with strategic block disclosure, a
multi-node longest-chain fork race, and an all-honest chain-growth
baseline.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

var selfishCmd = &cobra.Command{
	Use:   "selfish",
	Short: "Run the selfish-mining disclosure model over a sweep of malicious rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		rates, err := cmd.Flags().GetFloat64Slice("malicious-rates")
		if err != nil {
			return err
		}
		rounds, err := cmd.Flags().GetInt("rounds")
		if err != nil {
			return err
		}
		sim := newSimulationWithProgress()
		for _, rate := range rates {
			summary, err := sim.RunSelfish(simulation.SelfishConfig{
				MaliciousRate: rate,
				Rounds:        rounds,
				Difficulty:    viper.GetInt("difficulty"),
				Trials:        viper.GetInt("trials"),
				Seed:          viper.GetInt64("seed"),
				Workers:       viper.GetInt("workers"),
			})
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"maliciousRate":   rate,
				"profitRatio":     summary.ProfitRatio,
				"adversaryBlocks": summary.AdversaryBlocks,
				"honestBlocks":    summary.HonestBlocks,
				"orphanedBlocks":  summary.OrphanedBlocks,
			}).Info("Selfish mining profit ratio")
		}
		return nil
	},
}

var forkraceCmd = &cobra.Command{
	Use:   "forkrace",
	Short: "Run the longest-chain fork race over a sweep of malicious rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		rates, err := cmd.Flags().GetFloat64Slice("malicious-rates")
		if err != nil {
			return err
		}
		sim := newSimulationWithProgress()
		for _, rate := range rates {
			summary, err := sim.RunForkRace(simulation.ForkRaceConfig{
				NodeCount:     viper.GetInt("nodes"),
				MaliciousRate: rate,
				SuccessRate:   viper.GetFloat64("success-rate"),
				Difficulty:    viper.GetInt("difficulty"),
				Threshold:     viper.GetInt("threshold"),
				Trials:        viper.GetInt("trials"),
				Seed:          viper.GetInt64("seed"),
				Workers:       viper.GetInt("workers"),
			})
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"maliciousRate": rate,
				"winRate":       summary.WinRate,
				"wins":          summary.Wins,
				"trials":        summary.Config.Trials,
			}).Info("Fork attack success rate")
		}
		return nil
	},
}

var growthCmd = &cobra.Command{
	Use:   "growth",
	Short: "Run the all-honest chain-growth model over node count and success rate sweeps",
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeCounts, err := cmd.Flags().GetIntSlice("node-counts")
		if err != nil {
			return err
		}
		successRates, err := cmd.Flags().GetFloat64Slice("success-rates")
		if err != nil {
			return err
		}
		rounds, err := cmd.Flags().GetInt("rounds")
		if err != nil {
			return err
		}
		sim := newSimulationWithProgress()
		for _, nodes := range nodeCounts {
			for _, rate := range successRates {
				summary, err := sim.RunGrowth(simulation.GrowthConfig{
					NodeCount:   nodes,
					SuccessRate: rate,
					Difficulty:  viper.GetInt("difficulty"),
					Rounds:      rounds,
					Trials:      viper.GetInt("trials"),
					Seed:        viper.GetInt64("seed"),
					Workers:     viper.GetInt("workers"),
				})
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{
					"nodes":       nodes,
					"successRate": rate,
					"growthRate":  summary.GrowthRate,
				}).Info("Blockchain growth rate")
			}
		}
		return nil
	},
}

// newSimulationWithProgress attaches a logging subscriber to the
// simulation's progress feed.
func newSimulationWithProgress() *simulation.Simulation {
	sim := simulation.NewSimulation()
	ch := make(chan simulation.ProgressEvent, 64)
	sub := sim.SubscribeProgress(ch)
	go func() {
		defer sub.Unsubscribe()
		for ev := range ch {
			log.WithFields(log.Fields{
				"model":     ev.Model,
				"completed": ev.Completed,
				"trials":    ev.Trials,
				"metric":    ev.Metric,
			}).Debug("Trial completed")
		}
	}()
	return sim
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Int64("seed", 42, "random seed; the same seed reproduces the same outcomes")
	pf.Int("trials", 10, "independent trials per configuration")
	pf.Int("difficulty", 2, "required leading zero hex characters in block hashes")
	pf.Int("workers", 0, "concurrent trial workers, 0 means NumCPU")
	pf.Bool("verbose", false, "enable per-trial progress logging")
	for _, name := range []string{"seed", "trials", "difficulty", "workers", "verbose"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	selfishCmd.Flags().Float64Slice("malicious-rates", []float64{0.1, 0.2, 0.3, 0.4}, "adversary per-round mining probabilities to sweep")
	selfishCmd.Flags().Int("rounds", 1000, "rounds per trial")

	forkraceCmd.Flags().Float64Slice("malicious-rates", []float64{0.1, 0.2, 0.3, 0.4}, "adversarial node fractions to sweep")
	forkraceCmd.Flags().Int("nodes", 100, "total node count")
	forkraceCmd.Flags().Float64("success-rate", 1e-4, "per-node per-round block probability")
	forkraceCmd.Flags().Int("threshold", 6, "chain height past which a trial is settled")
	for _, name := range []string{"nodes", "success-rate", "threshold"} {
		if err := viper.BindPFlag(name, forkraceCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	growthCmd.Flags().IntSlice("node-counts", []int{100, 500, 1000, 2000}, "node counts to sweep")
	growthCmd.Flags().Float64Slice("success-rates", []float64{1e-5, 1e-4, 1e-3, 1e-2}, "per-node block probabilities to sweep")
	growthCmd.Flags().Int("rounds", 2000, "rounds per trial")

	rootCmd.AddCommand(selfishCmd, forkraceCmd, growthCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("Simulation failed")
		os.Exit(1)
	}
}
