package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server",
	Long:  "Exposes the pipeline over HTTP: POST /run triggers a synchronous run, GET /diag reports non-secret configuration, GET /healthz is the liveness probe.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		}))

		r.Get("/healthz", handleHealth)
		r.Get("/diag", handleDiag)
		r.Post("/run", handleRun)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.Int("port", cfg.Server.Port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		zap.L().Info("serve: shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDiag reports where configuration resolves from, without the secrets
// themselves.
func handleDiag(w http.ResponseWriter, _ *http.Request) {
	_, source, err := cfg.Store.ResolveDSN()
	diag := map[string]any{
		"driver":           cfg.Store.Driver,
		"dsn_source":       string(source),
		"dsn_ok":           err == nil,
		"clients":          len(cfg.Clients),
		"bucket_root":      cfg.Buckets.Root,
		"context_bucket":   cfg.Buckets.Context,
		"negatives_bucket": cfg.Buckets.Negatives,
	}
	if err != nil {
		diag["dsn_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, diag)
}

// handleRun triggers a synchronous pipeline run, optionally filtered to the
// datasets named in the request body.
func handleRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Datasets []string `json:"datasets"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	runner, closeFn, err := newRunner(r.Context(), req.Datasets)
	if err != nil {
		zap.L().Error("serve: run setup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer closeFn()

	reports := runner.RunAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"results": reports})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: write response failed", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
