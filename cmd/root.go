package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	sim "github.com/inference-sim/dramsim/sim"
	"github.com/inference-sim/dramsim/sim/monitor"
	"github.com/inference-sim/dramsim/sim/record"
)

// commonOptions are the flags shared by run and sweep.
type commonOptions struct {
	seed         int64  // Seed for event generation
	logLevel     string // Log verbosity level
	tieBreak     string // Ordering of equal-time events
	record       bool   // Record per-window statistics to SQLite
	recordPath   string // SQLite file for --record (empty = generated name)
	sampleMemory bool   // Sample process RSS after each window
}

func (o *commonOptions) addFlags(c *cobra.Command) {
	c.Flags().Int64Var(&o.seed, "seed", 0, "Seed for random event generation (default: derived from the clock)")
	c.Flags().StringVar(&o.logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&o.tieBreak, "tie-break", string(sim.TieBreakKind), "Ordering of equal-time events (kind, fifo)")
	c.Flags().BoolVar(&o.record, "record", false, "Record per-window statistics to a SQLite database")
	c.Flags().StringVar(&o.recordPath, "record-db", "", "SQLite file for --record (default: dramsim_<id>.sqlite3)")
	c.Flags().BoolVar(&o.sampleMemory, "sample-memory", false, "Sample process memory after each batch window")
}

// setup applies the log level and resolves the seed. A seed not given on the
// command line falls back to yamlSeed, then to the clock.
func (o *commonOptions) setup(c *cobra.Command, yamlSeed *int64) (sim.SimulationKey, error) {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log level: %s", o.logLevel)
	}
	logrus.SetLevel(level)

	seed := o.seed
	switch {
	case c.Flags().Changed("seed"):
	case yamlSeed != nil:
		seed = *yamlSeed
	default:
		seed = time.Now().UnixNano()
		logrus.Infof("No --seed given; using %d", seed)
	}
	return sim.NewSimulationKey(seed), nil
}

// session holds the observers that outlive a single simulation.
type session struct {
	recorder *record.Recorder
	sampler  *monitor.MemorySampler
}

func (o *commonOptions) openSession() (*session, error) {
	s := &session{}
	if o.record {
		r, err := record.New(o.recordPath)
		if err != nil {
			return nil, err
		}
		s.recorder = r
	}
	if o.sampleMemory {
		reader, err := monitor.NewProcessRSS()
		if err != nil {
			s.close()
			return nil, err
		}
		s.sampler = monitor.NewMemorySampler(reader)
	}
	return s, nil
}

func (s *session) close() error {
	if s.sampler != nil && len(s.sampler.Samples) > 0 {
		logrus.Infof("RSS after last window: %.1f MiB (peak %.1f MiB)",
			float64(s.sampler.Last())/(1<<20), float64(s.sampler.Peak)/(1<<20))
	}
	if s.recorder != nil {
		return s.recorder.Close()
	}
	return nil
}

// simulate builds, runs and records one simulation.
func (s *session) simulate(cfg sim.SimConfig, key sim.SimulationKey) (*sim.Metrics, error) {
	simulator, err := sim.NewSimulator(cfg, key)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		simulator.AddObserver(s.recorder)
	}
	if s.sampler != nil {
		simulator.AddObserver(s.sampler)
	}

	startTime := time.Now()
	m, err := simulator.Run()
	if err != nil {
		return nil, err
	}
	logrus.WithField("run", simulator.ID).Infof("Simulated %d windows in %v (peak schedule %d events)",
		m.Windows, time.Since(startTime), m.PeakSchedule)

	if s.recorder != nil {
		if err := s.recorder.RecordRun(simulator); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewRootCmd builds the dramsim command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dramsim",
		Short: "Discrete-event simulator for memory bit errors and scrubbing",
	}
	rootCmd.AddCommand(newRunCmd(), newSweepCmd())
	return rootCmd
}

// newRunCmd executes one simulation from positional arguments.
// Flag parsing is done in RunE so negative numbers stay positional.
func newRunCmd() *cobra.Command {
	opts := &commonOptions{}
	runCmd := &cobra.Command{
		Use:                "run " + runArgsUsage,
		Short:              "Run the memory error simulation",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(c *cobra.Command, args []string) error {
			positional, flagArgs := splitRunArgs(c.Flags(), args)
			if err := c.Flags().Parse(flagArgs); err != nil {
				return c.FlagErrorFunc()(c, err)
			}
			if help, _ := c.Flags().GetBool("help"); help {
				return c.Help()
			}
			positional = append(positional, c.Flags().Args()...)
			if err := cobra.ExactArgs(len(runArgNames))(c, positional); err != nil {
				return err
			}
			c.SilenceUsage = true

			cfg, err := parseRunArgs(positional)
			if err != nil {
				return err
			}
			cfg.TieBreak = sim.TieBreak(opts.tieBreak)
			if err := cfg.Validate(); err != nil {
				return err
			}
			key, err := opts.setup(c, nil)
			if err != nil {
				return err
			}
			warnSuspicious(cfg)

			s, err := opts.openSession()
			if err != nil {
				return err
			}
			m, err := s.simulate(cfg, key)
			if cerr := s.close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			logrus.Info("Simulation complete.")
			return m.Print(c.OutOrStdout())
		},
	}
	opts.addFlags(runCmd)
	return runCmd
}

// warnSuspicious logs legal inputs that likely don't do what the caller expects.
func warnSuspicious(cfg sim.SimConfig) {
	if rem := cfg.NumAccesses % int64(cfg.Batches); rem != 0 {
		logrus.Warnf("num_accesses=%d is not divisible by batches=%d; %d accesses are dropped",
			cfg.NumAccesses, cfg.Batches, rem)
	}
	if cfg.ScrubInterval >= cfg.BatchDuration() {
		logrus.Warnf("scrub_interval=%vs >= window length %vs; each row is scrubbed once per window, at its start",
			cfg.ScrubInterval, cfg.BatchDuration())
	}
}

// Execute runs the CLI root command
func Execute() {
	// logrus.Fatal exits through atexit so open recorders are flushed.
	logrus.RegisterExitHandler(func() { atexit.Exit(1) })

	if err := NewRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
