package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/gonkalabs/eraseme/internal/api"
	"github.com/gonkalabs/eraseme/internal/clipboard"
	"github.com/gonkalabs/eraseme/internal/config"
	"github.com/gonkalabs/eraseme/internal/sanitize"
	"github.com/gonkalabs/eraseme/internal/sanitize/ner"
	"github.com/gonkalabs/eraseme/internal/selection"
	"github.com/gonkalabs/eraseme/internal/watcher"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	app := &cli.Command{
		Name:  "eraseme",
		Usage: "mask PII on the clipboard with reversible placeholders",
		Commands: []*cli.Command{
			watchCommand(),
			tagsCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("eraseme", "err", err)
		os.Exit(1)
	}
}

func selectionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "selection",
		Aliases: []string{"s"},
		Usage:   "selection file written by the selection UI (overrides SELECTION_FILE)",
	}
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(c *cli.Command) (*config.Cfg, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if s := c.String("selection"); s != "" {
		cfg.SelectionFile = s
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "watch the clipboard, masking plain copies and restoring masked ones",
		Flags: []cli.Flag{selectionFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := cfg.RequireNER(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return runWatch(ctx, cfg)
		},
	}
}

func runWatch(ctx context.Context, cfg *config.Cfg) error {
	policy, err := selection.NewPolicy(cfg.SelectionFile)
	if err != nil {
		return err
	}
	cache, err := sanitize.NewCache(cfg.CacheSize)
	if err != nil {
		return err
	}
	cb, err := clipboard.NewSystem()
	if err != nil {
		return err
	}

	masker := sanitize.NewMasker(cache, ner.New(cfg.NERServerURL, cfg.NERTimeout))
	w := watcher.New(cb, masker, policy.Tags, watcher.WithInterval(cfg.PollInterval))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// SIGINT/SIGTERM stop the watcher; SIGHUP re-reads the selection file.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, append([]os.Signal{os.Interrupt, syscall.SIGTERM}, reloadSignals...)...)
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if isReload(sig) {
					if err := policy.Reload(); err != nil {
						slog.Error("selection reload failed", "err", err)
					}
					continue
				}
				slog.Info("shutting down", "signal", sig)
				cancel()
				return
			}
		}
	}()

	if cfg.ControlAddr != "" {
		srv := startControlServer(cfg.ControlAddr, api.New(masker, policy))
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			if err := srv.Shutdown(shutCtx); err != nil {
				slog.Error("control api shutdown error", "err", err)
			}
		}()
	}

	slog.Info("starting clipboard watcher",
		"ner", cfg.NERServerURL,
		"selection", cfg.SelectionFile,
		"tags", policy.Tags().Sorted(),
		"cacheSize", cache.Capacity(),
		"control", cfg.ControlAddr,
	)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func startControlServer(addr string, h *api.Handler) *http.Server {
	mux := http.NewServeMux()
	h.Register(mux)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		slog.Info("control api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("control api error", "err", err)
		}
	}()
	return srv
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "print the category table and the tags the current selection masks",
		Flags: []cli.Flag{selectionFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			set, err := selection.Load(cfg.SelectionFile)
			if err != nil {
				return err
			}
			selected := make(map[string]bool, len(set))
			for _, label := range set {
				selected[label] = true
			}
			for _, label := range selection.Labels() {
				mark := " "
				if selected[label] {
					mark = "x"
				}
				tags := selection.TagsFor(selection.Set{label}).Sorted()
				fmt.Printf("[%s] %s\t%s\n", mark, label, strings.Join(tags, ","))
			}
			fmt.Printf("masking: %s\n", strings.Join(selection.TagsFor(set).Sorted(), ","))
			return nil
		},
	}
}
