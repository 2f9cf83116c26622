package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/voting-be/internal/api"
	"github.com/isdelr/voting-be/internal/auth"
	"github.com/isdelr/voting-be/internal/monitoring"
	"github.com/isdelr/voting-be/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the voting HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		// Set up WebSocket Hub
		hub := websocket.NewHub(st.candidates)
		hubCtx, stopHub := context.WithCancel(context.Background())
		defer stopHub()
		go hub.Run(hubCtx)

		// Set up the background vote count reconciler
		if cfg.ReconcileSchedule != "" {
			reconciler, err := monitoring.NewReconciler(st.candidates, st.events, cfg.ReconcileSchedule)
			if err != nil {
				return err
			}
			reconciler.Run()
			defer reconciler.Stop()
		}

		router := api.NewRouter(api.Dependencies{
			Candidates:  st.candidates,
			Users:       st.users,
			Events:      st.events,
			Tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
			Hub:         hub,
			CORSOrigins: cfg.CORSOrigins,
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Int("port", cfg.ServerPort).Str("store", cfg.StoreDriver).Msg("Server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
		case <-ctx.Done():
		}
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exiting")
		return nil
	},
}

