package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	sim "github.com/inference-sim/dramsim/sim"
)

// runArgNames lists the positional arguments of `run`, in order.
var runArgNames = []string{"rows", "cols", "error_rate", "num_accesses", "scrub_interval", "sim_time", "batches"}

var runArgsUsage = strings.Join(runArgNames, " ")

// parseRunArgs converts the seven positional arguments into a SimConfig.
// It checks syntax only; SimConfig.Validate checks ranges.
func parseRunArgs(args []string) (sim.SimConfig, error) {
	var cfg sim.SimConfig
	if len(args) != len(runArgNames) {
		return cfg, fmt.Errorf("expected %d arguments (%s), got %d", len(runArgNames), runArgsUsage, len(args))
	}

	var err error
	if cfg.Rows, err = parseInt(args, 0); err != nil {
		return cfg, err
	}
	if cfg.Cols, err = parseInt(args, 1); err != nil {
		return cfg, err
	}
	if cfg.ErrorRate, err = parseFloat(args, 2); err != nil {
		return cfg, err
	}
	if cfg.NumAccesses, err = parseInt64(args, 3); err != nil {
		return cfg, err
	}
	if cfg.ScrubInterval, err = parseFloat(args, 4); err != nil {
		return cfg, err
	}
	if cfg.SimTime, err = parseFloat(args, 5); err != nil {
		return cfg, err
	}
	if cfg.Batches, err = parseInt(args, 6); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseInt(args []string, i int) (int, error) {
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", runArgNames[i], args[i])
	}
	return v, nil
}

func parseInt64(args []string, i int) (int64, error) {
	v, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a 64-bit integer", runArgNames[i], args[i])
	}
	return v, nil
}

func parseFloat(args []string, i int) (float64, error) {
	v, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", runArgNames[i], args[i])
	}
	return v, nil
}

// splitRunArgs separates positional arguments from flags and their values.
// Tokens that parse as numbers are positional even with a leading '-', so
// "-4" reaches validation instead of failing as an unknown shorthand flag.
// Everything after "--" is positional.
func splitRunArgs(fs *pflag.FlagSet, args []string) (positional, flags []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return append(positional, args[i+1:]...), flags
		case !strings.HasPrefix(a, "-") || a == "-" || isNumber(a):
			positional = append(positional, a)
		default:
			flags = append(flags, a)
			if takesValue(fs, a) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		}
	}
	return positional, flags
}

// takesValue reports whether flag token a consumes the following token.
func takesValue(fs *pflag.FlagSet, a string) bool {
	if strings.Contains(a, "=") {
		return false
	}
	var f *pflag.Flag
	if long, ok := strings.CutPrefix(a, "--"); ok {
		f = fs.Lookup(long)
	} else if len(a) == 2 {
		f = fs.ShorthandLookup(a[1:])
	}
	return f != nil && f.NoOptDefVal == ""
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
