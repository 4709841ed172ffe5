package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/navlab/turtlenav/pkg/agent"
	"github.com/navlab/turtlenav/pkg/config"
	"github.com/navlab/turtlenav/pkg/env"
	"github.com/navlab/turtlenav/pkg/experiment"
	"github.com/navlab/turtlenav/pkg/sim"
	"github.com/navlab/turtlenav/pkg/store"
	"github.com/navlab/turtlenav/pkg/transport"
)

var (
	flagConfig   string
	flagProfile  string
	flagEpisodes int
	flagAgent    string
	flagStore    string
	flagSeed     int64
	flagLimit    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "turtlenav",
		Short: "Turtlenav runs episodic navigation experiments against a simulated robot and records agent trajectories.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run evaluation episodes against the simulated world",
		RunE:  runEpisodes,
	}
	runCmd.Flags().StringVar(&flagConfig, "config", "", "path to a JSON run config")
	runCmd.Flags().StringVar(&flagProfile, "profile", "", "config profile: compact or extended")
	runCmd.Flags().IntVar(&flagEpisodes, "episodes", 0, "number of episodes to run")
	runCmd.Flags().StringVar(&flagAgent, "agent", "", "policy: greedy or random")
	runCmd.Flags().StringVar(&flagStore, "store", "", "path to the trajectory database")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "seed for the world and the random agent")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Print stored episode summaries",
		RunE:  replayEpisodes,
	}
	replayCmd.Flags().StringVar(&flagStore, "store", "", "path to the trajectory database")
	replayCmd.Flags().IntVar(&flagLimit, "limit", 20, "max episodes to list")

	for _, envFile := range []string{
		".env",
		"../../.env",
		"../../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.Execute()
}

func loadRunConfig() (config.AppConfig, error) {
	path := flagConfig
	if path == "" {
		path = os.Getenv("TURTLENAV_CONFIG")
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %v", err)
		}
		cfg = loaded
	}

	if flagProfile != "" {
		cfg.Profile = flagProfile
	}
	if flagEpisodes > 0 {
		cfg.Episodes = flagEpisodes
	}
	if flagAgent != "" {
		cfg.Agent = flagAgent
	}
	if flagStore != "" {
		cfg.StorePath = flagStore
	} else if cfg.StorePath == "" {
		cfg.StorePath = os.Getenv("TURTLENAV_STORE")
	}
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	return cfg, nil
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	envCfg, err := cfg.EnvConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()

	broker := transport.NewBroker()
	defer broker.Reset()

	simCfg := cfg.Sim
	simCfg.Seed = cfg.Seed
	world, err := sim.New(broker, simCfg)
	if err != nil {
		return fmt.Errorf("failed to create world: %v", err)
	}
	go world.Run(ctx)

	e, err := env.New(broker, world, envCfg)
	if err != nil {
		return fmt.Errorf("failed to create environment: %v", err)
	}
	defer e.Close()

	var policy agent.Agent
	switch cfg.Agent {
	case "random":
		policy = agent.NewRandom(cfg.Seed)
	case "", "greedy":
		policy = agent.NewGreedy()
	default:
		return fmt.Errorf("unknown agent %q", cfg.Agent)
	}

	opts := []experiment.RunnerOption{
		experiment.WithEpisodes(cfg.Episodes),
		experiment.WithMaxSteps(cfg.MaxSteps),
	}
	if cfg.StorePath != "" {
		trajectories, err := store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open store: %v", err)
		}
		defer trajectories.Close()
		opts = append(opts, experiment.WithStore(trajectories))
	}

	log.Printf("Start: (%.1f, %.1f), Goal: (%.1f, %.1f), Profile: %s, Agent: %s",
		envCfg.Start.X, envCfg.Start.Y, envCfg.Goal.X, envCfg.Goal.Y, envCfg.Profile, cfg.Agent)

	runner := experiment.NewRunner(e, policy, opts...)
	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %v", err)
	}

	log.Printf("Finished %d episode(s), total reward %.2f", len(summary.Episodes), summary.TotalReward)
	return nil
}

func replayEpisodes(cmd *cobra.Command, args []string) error {
	path := flagStore
	if path == "" {
		path = os.Getenv("TURTLENAV_STORE")
	}
	if path == "" {
		return fmt.Errorf("--store is required")
	}

	trajectories, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open store: %v", err)
	}
	defer trajectories.Close()

	episodes, err := trajectories.ListEpisodes(flagLimit)
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		log.Println("No episodes recorded")
		return nil
	}

	for _, ep := range episodes {
		log.Printf("%s  %s  steps=%d reward=%.2f reason=%s goal=(%.1f, %.1f)",
			ep.CreatedAt.Format("2006-01-02 15:04:05"), ep.ID, ep.Steps, ep.TotalReward,
			ep.Reason, ep.GoalX, ep.GoalY)
	}
	return nil
}
