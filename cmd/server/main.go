package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"briscola-env/internal/agent"
	"briscola-env/internal/config"
	"briscola-env/internal/database"
	"briscola-env/internal/game"
	"briscola-env/internal/server"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(cfg, logger)
	case "simulate":
		err = simulate(cfg, logger, args)
	default:
		err = fmt.Errorf("unknown command %q (want serve or simulate)", cmd)
	}
	if err != nil {
		logger.Error("exiting", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(cfg config.Config, logger *zap.Logger) error {
	logger.Info("starting Briscola server", zap.String("addr", cfg.Addr), zap.String("db_driver", cfg.DBDriver))

	db, err := database.New(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	hub := server.NewHub(server.HubOptions{
		Recorder:   db,
		TrickLimit: cfg.TrickLimit,
		DefaultBot: cfg.Bot,
		Logger:     logger,
	})
	go hub.Run()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewRouter(hub, db, cfg.StaticDir, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// simulate plays agent against agent and stores every hand.
func simulate(cfg config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	hands := fs.Int("hands", cfg.Hands, "number of hands to play")
	seed := fs.Uint64("seed", cfg.Seed, "seed of the first hand, 0 for random")
	p0 := fs.String("p0", cfg.Bot, "agent in seat 0 (random, greedy, neural)")
	p1 := fs.String("p1", cfg.Opponent, "agent in seat 1 (random, greedy, neural)")
	record := fs.Bool("record", true, "store hands in the results database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a0, err := agent.New(*p0, *seed)
	if err != nil {
		return err
	}
	a1, err := agent.New(*p1, *seed+1)
	if err != nil {
		return err
	}

	var db *database.Service
	if *record {
		db, err = database.New(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	env := game.NewEnv(game.WithLogger(logger), game.WithTrickLimit(cfg.TrickLimit))
	runner := agent.NewRunner(env, a0, a1, logger)

	var recordErr error
	summary := runner.Simulate(*hands, *seed, func(res agent.EpisodeResult) {
		if db == nil || recordErr != nil {
			return
		}
		recordErr = db.RecordResult(game.HandResult{
			GameID:     uuid.NewString(),
			Players:    res.Agents,
			Scores:     res.Scores,
			Winner:     res.Winner,
			Tricks:     len(res.Tricks),
			Seed:       res.Seed,
			Reason:     "simulation",
			FinishedAt: time.Now().UTC(),
		})
	})
	if recordErr != nil {
		return fmt.Errorf("record simulation: %w", recordErr)
	}

	logger.Info("simulation finished",
		zap.Int("hands", summary.Hands),
		zap.Ints("wins", summary.Wins[:]),
		zap.Int("ties", summary.Ties))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
