package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"proposal_assistant/metrics"
	"proposal_assistant/server"
	"proposal_assistant/session"
)

func serveCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if !root.verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			agent, err := buildAgent(ctx, cfg, log, m)
			if err != nil {
				return err
			}

			regOpts := []session.RegistryOption{
				session.WithGauge(m),
				session.WithRegistryLogger(log),
				session.WithGenerationTimeout(cfg.LLM.Timeout),
				session.WithIdleTTL(cfg.Store.TTL),
			}
			if cfg.Store.RedisAddr != "" {
				store, err := session.NewRedisStore(ctx, cfg.Store.RedisAddr, cfg.Store.TTL)
				if err != nil {
					return err
				}
				defer store.Close()
				regOpts = append(regOpts, session.WithStore(store))
				log.Info("persisting sessions to redis", "addr", cfg.Store.RedisAddr)
			}
			reg := session.NewRegistry(agent, regOpts...)

			srv, err := server.New(reg,
				server.WithLogger(log),
				server.WithMetrics(m),
				server.WithRequestTimeout(cfg.Server.RequestTimeout),
				server.WithCORSOrigins(cfg.Server.CORSOrigins),
			)
			if err != nil {
				return err
			}
			httpSrv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("starting web server", "addr", cfg.Server.Addr, "mode", agent.Mode().String())
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				return reg.RunSweeper(gctx, time.Minute)
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				log.Info("shutting down web server")
				return httpSrv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
