/*
Pinocchio runs a single illustrative scenario end to end: an agent
learning in a small grid world while a panel of stakeholders judges
whether its actions violate, merely fail to comply with, or get a pass
on (defeat) a regulative norm. This is a demo of the wiring, not a
preset catalog.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"pinocchio/config"
	"pinocchio/env"
)

var (
	configPath = flag.String("config", "./config.yaml", "path to the run's config.yaml")
	steps      = flag.Int("steps", 0, "override the config's step budget (0 keeps the config default)")
	timeout    = flag.Int("timeout", 0, "override the config's reload timeout (0 keeps the config default)")
)

func runApp() error {
	flag.Parse()

	e := env.New(42)
	if err := e.LoadPreset("adam", appleWorldPreset{}); err != nil {
		return fmt.Errorf("loading preset: %w", err)
	}

	cfg, err := config.FromYAML(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	for _, a := range e.Agents {
		cfg.ApplyHyperparameters(a.QAgent)
	}
	if cfg.Steps > 0 {
		e.Steps = cfg.Steps
	}
	if cfg.Timeout > 0 {
		e.Timeout = cfg.Timeout
	}
	if cfg.Stochasticity > 0 {
		e.Stochasticity = cfg.Stochasticity
	}
	window := cfg.Window
	if window <= 0 {
		window = 100
	}
	if *steps > 0 {
		e.Steps = *steps
	}
	if *timeout > 0 {
		e.Timeout = *timeout
	}

	ctx, cancel, err := cfg.WithRunDeadline(context.Background())
	if err != nil {
		return fmt.Errorf("applying run deadline: %w", err)
	}
	defer cancel()

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		record, err := e.Run(ctx, "adam", window, []string{"R", "V"})
		if err != nil {
			runErr = err
			return
		}
		fmt.Printf("run %q finished in %s over %d steps\n", record.Title, record.Duration, record.Steps)
	}()

	ticker := channerics.NewTicker(done, 2*time.Second)
	for {
		select {
		case <-done:
			return runErr
		case <-ticker:
			fmt.Printf("iteration %d, historic runs: %d\n", e.Iterations, len(e.Historic))
		}
	}
}

func main() {
	if err := runApp(); err != nil {
		fmt.Println(err)
	}
}
