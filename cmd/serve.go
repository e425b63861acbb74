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
	"golang.org/x/sync/errgroup"

	"github.com/finikas-suites/pricing-cli/internal/pricing"
	"github.com/finikas-suites/pricing-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve price quotes over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		calc, err := buildCalculator()
		if err != nil {
			return eris.Wrap(err, "load pacing table")
		}

		st, err := openStore(cmd)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		r := newRouter(calc, st, cfg.Pricing.Apartments)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// newRouter builds the quote API routes over a loaded calculator and the
// run-history store.
func newRouter(calc *pricing.Calculator, st store.Store, apartments []int64) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/quote", func(w http.ResponseWriter, req *http.Request) {
		date, err := time.Parse("2006-01-02", req.URL.Query().Get("date"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}

		occ := 0.0
		if raw := req.URL.Query().Get("occupancy"); raw != "" {
			occ, err = strconv.ParseFloat(raw, 64)
			if err != nil || occ < 0 || occ > 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "occupancy must be a number in [0, 1]"})
				return
			}
		}

		quote := calc.Calculate(occ, date, time.Now())
		if quote == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "date cannot be priced"})
			return
		}

		writeJSON(w, http.StatusOK, previewResult{
			Date:      date.Format("2006-01-02"),
			Occupancy: occ,
			Price:     quote.Price,
			Score:     quote.Score,
			MinPrice:  quote.MinPrice,
			MaxPrice:  quote.MaxPrice,
			Ladder:    pricing.Allocate(quote, apartments),
		})
	})

	r.Get("/v1/runs", func(w http.ResponseWriter, req *http.Request) {
		limit := 50
		if raw := req.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		runs, err := st.ListRuns(req.Context(), limit)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, runs)
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
