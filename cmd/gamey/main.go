// Package main is the entry point for the gamey state orchestrator demo.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/gamey/internal/app"
	"github.com/Faultbox/gamey/internal/config"
	"github.com/Faultbox/gamey/internal/event"
	"github.com/Faultbox/gamey/internal/features"
	"github.com/Faultbox/gamey/internal/logger"
	"github.com/Faultbox/gamey/internal/metrics"
	"github.com/Faultbox/gamey/internal/states"
)

func main() {
	root := &cobra.Command{
		Use:           "gamey",
		Short:         "Drive a game through its run-states",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().AddFlagSet(config.Flags())
	root.AddCommand(runCmd(), tableCmd(), saveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var step time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play a scripted tour: lobby, play, pause, play, end, lobby",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, step)
		},
	}
	cmd.Flags().DurationVar(&step, "step", 500*time.Millisecond, "Delay between scripted transitions")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, step time.Duration) error {
	logger.Info("=== gamey ===")
	log := logger.Named("gamey")
	logger.Sugar.Debugf("Config: %+v", cfg)

	opts := []app.Option{app.WithLogger(log)}
	var collector *metrics.Collector
	if cfg.Metrics.Addr != "" {
		collector = metrics.New()
		opts = append(opts, app.WithMetrics(collector))
	} else {
		logger.Debug("metrics disabled, no metrics.addr configured")
	}

	a, err := app.New(cfg, features.Factories(), opts...)
	if err != nil {
		return err
	}

	if collector != nil {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: collector.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	a.On(event.StateChange, func(e event.Event) {
		ch := e.Data.(states.Change)
		log.Info("state changed", zap.Stringer("from", ch.From), zap.Stringer("to", ch.To))
	})

	clockCtx, stopClock := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Run(clockCtx)
	}()

	tour := []states.Transition{
		states.TransitionLobby,
		states.TransitionPlay,
		states.TransitionPause,
		states.TransitionPlay,
		states.TransitionEnd,
		states.TransitionLobby,
	}

	var tourErr error
	for _, t := range tour {
		if err := a.Transition(ctx, string(t), nil); err != nil {
			tourErr = fmt.Errorf("%s: %w", t, err)
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(step):
		}
		if ctx.Err() != nil {
			logger.Warn("tour interrupted", zap.String("state", a.StateName()))
			break
		}
	}

	stopClock()
	<-done

	// the run context may already be cancelled; Close applies queue_timeout itself
	if err := a.Close(context.Background()); err != nil {
		logger.Error("close failed", zap.Error(err))
	}
	logger.Info("gamey closed")
	return tourErr
}

func tableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the transition table",
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FROM\tTRANSITION\tTO\tTHEN")

			from := append([]states.State{states.Incept}, states.Managed...)
			for _, s := range from {
				for _, t := range states.Transitions {
					to, chain, ok := states.Route(s, t)
					if !ok {
						continue
					}
					then := "-"
					if chain != "" {
						then = string(chain)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s, t, to, then)
				}
			}
			w.Flush()
		},
	}
}

func saveCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "save-config",
		Short: "Write the effective configuration as YAML",
		Long:  "Write the effective configuration (defaults, file and flags merged) to --out, or to the user config directory.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			path := out
			if path == "" {
				path = config.DefaultPath()
				err = cfg.Save()
			} else {
				err = cfg.SaveTo(path)
			}
			if err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Destination file (default: user config dir)")
	return cmd
}
