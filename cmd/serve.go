package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/internal/reconcile"
	"github.com/dineshlahiru/contactsync/internal/store"
	"github.com/dineshlahiru/contactsync/internal/syncer"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for sync triggers and audit queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		sy, err := initSyncer(s)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, s, sy),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newRouter(ctx context.Context, s store.Store, sy *syncer.Syncer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/institutions/{id}/history", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

		if _, err := s.GetInstitution(req.Context(), id); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "institution not found"})
			return
		}
		logs, err := s.ListSyncLogs(req.Context(), id, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if logs == nil {
			logs = []model.SyncLogEntry{}
		}
		writeJSON(w, http.StatusOK, logs)
	})

	r.Get("/usage/current", func(w http.ResponseWriter, req *http.Request) {
		monthKey := model.MonthKey(time.Now())
		usage, err := s.GetMonthlyUsage(req.Context(), monthKey)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, usage)
	})

	r.Post("/institutions/{id}/sync", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		if _, err := s.GetInstitution(req.Context(), id); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "institution not found"})
			return
		}

		var body struct {
			URL string `json:"url"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)

		// Run the full sync asynchronously against the server's lifetime
		// context, not the request's.
		go func() {
			summary, err := sy.FullSync(ctx, id, body.URL, reconcile.DefaultOptions())
			if err != nil {
				zap.L().Error("api: sync failed",
					zap.String("institution_id", id),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("api: sync finished",
				zap.String("institution_id", id),
				zap.Bool("success", summary.Success),
				zap.Int("contacts_imported", summary.ContactsImported),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":         "accepted",
			"institution_id": id,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
