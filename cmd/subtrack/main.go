package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spacesedan/subtrack/config"
	"github.com/spacesedan/subtrack/internal/clients"
	"github.com/spacesedan/subtrack/internal/logging"
	"github.com/spacesedan/subtrack/internal/sheetstore"
	"github.com/spacesedan/subtrack/internal/tracker"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "subtrack",
	Short:         "Tracks a subreddit's new posts into a Google Sheet with daily score snapshots.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(initSheetCmd, pollCmd, snapshotCmd, runCmd)
}

type app struct {
	cfg     *config.Config
	store   *sheetstore.Store
	tracker *tracker.Tracker
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	sheetsClient, err := clients.GetSheetsClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := sheetstore.New(sheetsClient, cfg.WorksheetName, cfg.TrackDays)

	var seen tracker.SeenCache
	if vc := clients.InitValkey(cfg); vc != nil {
		seen = vc
	}

	t := tracker.NewTracker(clients.GetRedditClient(cfg), store, seen, tracker.Options{
		Subreddit:    cfg.Subreddit,
		FetchLimit:   cfg.PostFetchLimit,
		TrackDays:    cfg.TrackDays,
		StoreBody:    cfg.StoreBody,
		BodyMaxChars: cfg.BodyMaxChars,
	})

	return &app{cfg: cfg, store: store, tracker: t}, nil
}

var initSheetCmd = &cobra.Command{
	Use:   "init-sheet",
	Short: "Writes the header row if the worksheet is empty.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return fatal("setup failed", err)
		}
		if err := a.store.EnsureHeader(cmd.Context()); err != nil {
			return fatal("init-sheet failed", err)
		}
		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Runs one ingestion cycle: append rows for newly listed posts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return fatal("setup failed", err)
		}
		defer clients.CloseValkey()

		if err := a.store.EnsureHeader(cmd.Context()); err != nil {
			return fatal("poll failed", err)
		}
		if _, err := a.tracker.Ingest(cmd.Context()); err != nil {
			return fatal("poll failed", err)
		}
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Runs one snapshot cycle: fill day-N cells for posts past a day boundary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return fatal("setup failed", err)
		}
		defer clients.CloseValkey()

		if err := a.store.EnsureHeader(cmd.Context()); err != nil {
			return fatal("snapshot failed", err)
		}
		if _, _, err := a.tracker.Snapshot(cmd.Context()); err != nil {
			return fatal("snapshot failed", err)
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs both stages on their configured intervals until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := setup(ctx)
		if err != nil {
			return fatal("setup failed", err)
		}
		defer clients.CloseValkey()

		if err := a.store.EnsureHeader(ctx); err != nil {
			return fatal("run failed", err)
		}

		pollTicker := time.NewTicker(a.cfg.PollInterval)
		snapshotTicker := time.NewTicker(a.cfg.SnapshotInterval)
		defer pollTicker.Stop()
		defer snapshotTicker.Stop()

		stopChan := make(chan os.Signal, 1)
		signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

		slog.Info("Tracker started",
			slog.String("subreddit", a.cfg.Subreddit),
			slog.Duration("poll_interval", a.cfg.PollInterval),
			slog.Duration("snapshot_interval", a.cfg.SnapshotInterval))

		// Run both stages once at startup so a fresh deploy does not wait a
		// full interval before doing anything.
		runIngest(ctx, a)
		runSnapshot(ctx, a)

		for {
			select {
			case <-pollTicker.C:
				runIngest(ctx, a)

			case <-snapshotTicker.C:
				runSnapshot(ctx, a)

			case <-stopChan:
				slog.Info("Shutting down tracker gracefully...")
				cancel()
				return nil
			}
		}
	},
}

func runIngest(ctx context.Context, a *app) {
	if _, err := a.tracker.Ingest(ctx); err != nil {
		slog.Error("Poll cycle failed, will retry on next tick",
			slog.String("error", err.Error()))
	}
}

func runSnapshot(ctx context.Context, a *app) {
	if _, _, err := a.tracker.Snapshot(ctx); err != nil {
		slog.Error("Snapshot cycle failed, will retry on next tick",
			slog.String("error", err.Error()))
	}
}

func fatal(msg string, err error) error {
	slog.Error(msg, slog.String("error", err.Error()))
	return err
}
