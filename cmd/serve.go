package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"opentrends/internal/config"
	"opentrends/internal/model"
	"opentrends/internal/server"
	"opentrends/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the background refresher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := server.Options{
			Selector: a.selector,
			Resolver: a.policy,
			History:  a.history,
			Registry: a.registry,
			UserID:   a.prefs.UserID,
			Language: a.prefs.Language,
			FeedSize: cfg.Server.FeedSize,
		}
		if bs, err := a.openBookmarks(); err != nil {
			slog.Warn("serve: bookmarks disabled", "err", err)
		} else {
			opts.Bookmarks = bs
		}

		workers := []worker.Worker{&worker.Refresher{
			Policy:   a.policy,
			Modes:    model.Modes(),
			Interval: config.Duration(cfg.Server.RefreshInterval),
		}}
		if iv := config.Duration(cfg.Digest.Interval); iv > 0 {
			workers = append(workers, &worker.DigestWriter{
				Policy:    a.policy,
				Modes:     digestModes(cfg),
				OutputDir: cfg.Digest.OutputDir,
				Title:     cfg.Digest.Title,
				TopN:      cfg.Digest.TopN,
				Interval:  iv,
			})
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 2)
		go func() { errCh <- worker.NewManager(workers...).Start(ctx) }()
		go func() { errCh <- server.New(opts).Run(ctx, cfg.Server.Addr) }()

		var firstErr error
		for range 2 {
			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
				firstErr = err
				stop()
			}
		}
		return firstErr
	},
}

func digestModes(cfg config.Config) []model.Mode {
	modes := make([]model.Mode, 0, len(cfg.Digest.Modes))
	for _, s := range cfg.Digest.Modes {
		if m, err := model.ParseMode(s); err == nil {
			modes = append(modes, m)
		}
	}
	return modes
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
