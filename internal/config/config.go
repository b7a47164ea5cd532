// Package config loads the layered configuration cmd/gobori runs with:
// defaults, then an optional config file, then environment variables, then
// command-line flags, in that order of increasing precedence, the same
// layering viper documents for this style of CLI tool.
package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is a flat struct of independently toggleable search tunables, plus
// the front-end settings (input path, objective variable, timeout) the
// solver core itself takes as direct call arguments.
type Config struct {
	// Input selects the FlatZinc-like model file to load.
	Input string

	// Mode holds the --mode setting ("solve", "solve-all", or "optimize").
	// cmd/gobori takes the mode from its subcommand and does not read this
	// field.
	Mode string

	// Objective names the variable to optimize in "optimize" mode.
	Objective string
	// Minimize selects minimization over maximization in "optimize" mode.
	Minimize bool

	// Timeout bounds total search wall-clock time; zero means unbounded.
	Timeout time.Duration

	// Verbose enables Debug-level structured logging (internal/logging).
	Verbose bool

	// NogoodLearning, RestartEnabled, ActivitySelection, ActivityFirst mirror
	// gobori.Solver's Set* toggles one-to-one.
	NogoodLearning    bool
	RestartEnabled    bool
	ActivitySelection bool
	ActivityFirst     bool

	// BisectionThreshold is passed through to Solver.SetBisectionThreshold;
	// inert until a bisection branching strategy exists, kept here so a
	// future core change needs no new config wiring.
	BisectionThreshold int

	// MetricsAddr, when non-empty, serves internal/metrics on this address
	// during "watch" mode.
	MetricsAddr string
}

// Default matches the engine's own out-of-the-box behavior (the searcher's
// state after construction), not a "safe but slow" conservative choice.
func Default() *Config {
	return &Config{
		Mode:              "solve",
		Minimize:          true,
		NogoodLearning:    true,
		RestartEnabled:    true,
		ActivitySelection: true,
	}
}

// Load builds a Config from defaults, an optional file at configPath (if
// non-empty), GOBORI_-prefixed environment variables, and flags already
// registered on fs, in that precedence order (lowest to highest).
func Load(fs *pflag.FlagSet, configPath string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("mode", def.Mode)
	v.SetDefault("minimize", def.Minimize)
	v.SetDefault("nogoodLearning", def.NogoodLearning)
	v.SetDefault("restartEnabled", def.RestartEnabled)
	v.SetDefault("activitySelection", def.ActivitySelection)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("gobori")
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Input:              v.GetString("input"),
		Mode:               v.GetString("mode"),
		Objective:          v.GetString("objective"),
		Minimize:           v.GetBool("minimize"),
		Timeout:            v.GetDuration("timeout"),
		Verbose:            v.GetBool("verbose"),
		NogoodLearning:     v.GetBool("nogoodLearning"),
		RestartEnabled:     v.GetBool("restartEnabled"),
		ActivitySelection:  v.GetBool("activitySelection"),
		ActivityFirst:      v.GetBool("activityFirst"),
		BisectionThreshold: v.GetInt("bisectionThreshold"),
		MetricsAddr:        v.GetString("metricsAddr"),
	}
	return cfg, nil
}

// RegisterFlags declares every flag Load's BindPFlags call expects to find,
// matching cobra's convention of each subcommand registering its own flags
// on a *pflag.FlagSet before config.Load is called.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("input", "", "path to the FlatZinc-like model file")
	fs.String("mode", "solve", "solve | solve-all | optimize")
	fs.String("objective", "", "objective variable name (optimize mode)")
	fs.Bool("minimize", true, "minimize the objective (optimize mode); false maximizes")
	fs.Duration("timeout", 0, "search wall-clock budget; 0 means unbounded")
	fs.BoolP("verbose", "v", false, "enable debug-level structured logging")
	fs.Bool("nogoodLearning", true, "enable recording of learned NoGoods")
	fs.Bool("restartEnabled", true, "enable the Luby-like restart schedule")
	fs.Bool("activitySelection", true, "consult the activity map during variable selection")
	fs.Bool("activityFirst", false, "rank activity ahead of domain size in variable selection")
	fs.Int("bisectionThreshold", 0, "reserved; inert until a bisection strategy exists")
	fs.String("metricsAddr", "", "serve Prometheus metrics on this address during watch mode")
}
