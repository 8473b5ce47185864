package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go-deepsearch/internal/api"
	"golang.org/x/sync/errgroup"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var port int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.closeLogged()
			if port > 0 {
				a.cfg.Server.Port = port
			}

			system := actor.NewActorSystem()
			app := api.New(system.Root, a.coordinator, a.metrics, api.Options{
				Port:          a.cfg.Server.Port,
				StatusTimeout: a.cfg.Server.StatusTimeout,
				RunRetention:  a.cfg.Server.RunRetention,
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(app.Start)
			g.Go(func() error {
				<-gctx.Done()
				log.Info().Msg("shutting down gracefully")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return app.Stop(shutdownCtx)
			})

			err = g.Wait()
			log.Info().Msg("server exiting")
			return err
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return serve
}
