package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/dramsim/sim"
)

// newSweepCmd runs the same configuration once per scrub interval.
// Every point reuses the same seed, so differences between points come from
// the interval and not from different random draws.
func newSweepCmd() *cobra.Command {
	opts := &commonOptions{}
	var configPath string

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the simulation across several scrub intervals",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			c.SilenceUsage = true

			cfg, err := LoadSweepConfig(configPath)
			if err != nil {
				return err
			}
			if c.Flags().Changed("tie-break") {
				cfg.TieBreak = opts.tieBreak
			}
			key, err := opts.setup(c, cfg.Seed)
			if err != nil {
				return err
			}

			s, err := opts.openSession()
			if err != nil {
				return err
			}
			err = runSweep(c, s, cfg, key)
			if cerr := s.close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	opts.addFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&configPath, "config", "", "Sweep YAML file")
	_ = sweepCmd.MarkFlagRequired("config")
	return sweepCmd
}

func runSweep(c *cobra.Command, s *session, cfg *SweepConfig, key sim.SimulationKey) error {
	out := c.OutOrStdout()
	for i, interval := range cfg.ScrubIntervals {
		logrus.Infof("Sweep point %d/%d: scrub_interval=%vs", i+1, len(cfg.ScrubIntervals), interval)
		point := cfg.At(interval)
		warnSuspicious(point)

		m, err := s.simulate(point, key)
		if err != nil {
			return fmt.Errorf("scrub_interval=%v: %w", interval, err)
		}
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(out, "Scrub Interval: %v\n", interval); err != nil {
			return err
		}
		if err := m.Print(out); err != nil {
			return err
		}
	}
	return nil
}
