package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/todo-board/internal/credential"
	"github.com/nhle/todo-board/internal/host"
	"github.com/nhle/todo-board/internal/model"
)

// shutdownTimeout bounds the graceful stop of the host.
const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	var rateLimit float64
	var rateBurst int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Own the data and serve it to other todo-board processes",
		Long: `serve opens the configured local storage and exposes it over HTTP, so that
every window and script talks to one owner instead of writing the files
directly. Point clients at it with storage.backend: remote.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := openEnv(ctx, opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.cfg.Storage.Backend == model.BackendRemote {
				return errors.New("serve needs local storage; set storage.backend to file, sqlite or postgres")
			}
			if !cmd.Flags().Changed("addr") {
				addr = e.cfg.Host.Addr
			}

			secret, err := credential.SigningSecret()
			if err != nil {
				return fmt.Errorf("reading signing secret: %w", err)
			}

			w, err := e.backend.Watch(e.bus)
			if err != nil {
				e.log.WithError(err).Warnw("watching data dir failed")
			}
			if w != nil {
				defer w.Close()
			}

			srv := host.New(e.backend.Store, e.bus, e.log, host.Config{
				Addr:      addr,
				Secret:    secret,
				TokenTTL:  time.Duration(e.cfg.Host.TokenTTLSec) * time.Second,
				RateLimit: rateLimit,
				RateBurst: rateBurst,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s storage on %s\n", e.cfg.Storage.Backend, addr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default host.addr from config)")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "requests per second per client address; 0 disables")
	cmd.Flags().IntVar(&rateBurst, "rate-burst", 0, "requests a client may send at once when rate limiting (default 500)")
	return cmd
}
