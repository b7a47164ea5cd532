// Command gobori is the thin CLI driver around the solver core: it parses a
// FlatZinc-like model file (internal/flatzinc), builds a gobori.Model, and
// drives the Solver façade through one of solve/solve-all/optimize/watch.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/soraci/gobori/internal/config"
	"github.com/soraci/gobori/internal/flatzinc"
	"github.com/soraci/gobori/internal/logging"
	"github.com/soraci/gobori/internal/metrics"
	"github.com/soraci/gobori/pkg/gobori"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gobori",
		Short: "A finite-domain constraint solver driven by a FlatZinc-like model file",
	}
	root.AddCommand(
		newSolveCmd("solve", "Find one solution and print it"),
		newSolveCmd("solve-all", "Enumerate every solution"),
		newOptimizeCmd(),
		newWatchCmd(),
	)
	return root
}

// loadModelAndCfg is shared setup for every subcommand: resolve the layered
// config over the flags the caller registered on fs (flags > env > file >
// defaults), parse the
// model, and build the Solver with the resolved tunables applied.
func loadModelAndCfg(fs *pflag.FlagSet, configFile string) (*config.Config, *gobori.Model, flatzinc.Solve, *gobori.Solver, error) {
	cfg, err := config.Load(fs, configFile)
	if err != nil {
		return nil, nil, flatzinc.Solve{}, nil, err
	}
	if cfg.Input == "" {
		return nil, nil, flatzinc.Solve{}, nil, fmt.Errorf("--input is required")
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, nil, flatzinc.Solve{}, nil, err
	}
	defer f.Close()

	m := gobori.NewModel()
	goal, err := flatzinc.Parse(f, m)
	if err != nil {
		return nil, nil, flatzinc.Solve{}, nil, err
	}
	if err := m.BuildConstraintWatchList(); err != nil {
		return nil, nil, flatzinc.Solve{}, nil, err
	}

	sv := gobori.NewSolver(m)
	sv.SetVerbose(cfg.Verbose)
	sv.SetNogoodLearning(cfg.NogoodLearning)
	sv.SetRestartEnabled(cfg.RestartEnabled)
	sv.SetActivitySelection(cfg.ActivitySelection)
	sv.SetActivityFirst(cfg.ActivityFirst)
	sv.SetBisectionThreshold(cfg.BisectionThreshold)

	log := logging.New(cfg.Verbose)
	sv.SetNarrator(logging.NewNarrator(log))

	return cfg, m, goal, sv, nil
}

func solveContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()
	if cfg.Timeout > 0 {
		timeoutCtx, timeoutCancel := context.WithTimeout(ctx, cfg.Timeout)
		return timeoutCtx, func() { timeoutCancel(); cancel() }
	}
	return ctx, cancel
}

func printSolution(sol *gobori.Solution) {
	if sol == nil {
		fmt.Println("UNSAT")
		return
	}
	values := sol.Values()
	for name, val := range values {
		fmt.Printf("%s = %d\n", name, val)
	}
	fmt.Println("----------")
}

func printStats(cmd *cobra.Command, sv *gobori.Solver) {
	s := sv.Stats()
	cmd.PrintErrf(
		"restarts=%d fails=%d maxDepth=%d avgDepth=%.2f nogoods=%d checks=%d prunes=%d\n",
		s.RestartCount, s.FailCount, s.MaxDepth, s.AvgDepth(), s.NogoodsSize,
		s.NogoodCheckCount, s.NogoodPruneCount,
	)
}

func newSolveCmd(use, short string) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, sv, err := loadModelAndCfg(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			ctx, cancel := solveContext(cfg)
			defer cancel()

			if use == "solve-all" {
				count := sv.SolveAll(ctx, func(sol *gobori.Solution) bool {
					printSolution(sol)
					return true
				})
				fmt.Printf("%d solution(s)\n", count)
			} else {
				sol, found := sv.Solve(ctx)
				if !found {
					if sv.IsStopped() {
						fmt.Println("UNKNOWN (cancelled)")
					} else {
						fmt.Println("UNSAT")
					}
				} else {
					printSolution(sol)
				}
			}
			printStats(cmd, sv)
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "path to a config file (viper-supported format)")
	return cmd
}

func newOptimizeCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Branch-and-bound optimize the model's objective variable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, m, goal, sv, err := loadModelAndCfg(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			objective := cfg.Objective
			if objective == "" {
				objective = goal.Objective
			}
			if objective == "" {
				return fmt.Errorf("optimize requires --objective or a solve minimize/maximize statement")
			}
			objID, err := m.VariableByName(objective)
			if err != nil {
				return err
			}
			minimize := cfg.Minimize
			if goal.Mode == "maximize" {
				minimize = false
			} else if goal.Mode == "minimize" {
				minimize = true
			}

			ctx, cancel := solveContext(cfg)
			defer cancel()

			sol, found := sv.SolveOptimize(ctx, objID, minimize, func(sol *gobori.Solution) bool {
				printSolution(sol)
				return true
			})
			if !found {
				fmt.Println("UNSAT")
			} else {
				fmt.Println("=== best ===")
				printSolution(sol)
			}
			printStats(cmd, sv)
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "path to a config file (viper-supported format)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Solve while serving Prometheus metrics on --metricsAddr",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, sv, err := loadModelAndCfg(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			if cfg.MetricsAddr == "" {
				return fmt.Errorf("watch requires --metricsAddr")
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
			go srv.ListenAndServe()
			defer srv.Close()

			stop := make(chan struct{})
			go func() {
				for {
					select {
					case <-stop:
						return
					case <-time.After(time.Second):
						metrics.Refresh(sv.Stats())
					}
				}
			}()

			ctx, cancel := solveContext(cfg)
			defer cancel()
			sol, found := sv.Solve(ctx)
			close(stop)
			metrics.Refresh(sv.Stats())

			if !found {
				fmt.Println("UNSAT")
			} else {
				printSolution(sol)
			}
			printStats(cmd, sv)
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "path to a config file (viper-supported format)")
	return cmd
}
