package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/wolfeidau/dysession"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a demo HTTP server using the session middleware",
	Long:  `Starts an HTTP server which counts visits in the session, clears the session on POST /logout and exposes metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		secure, _ := cmd.Flags().GetBool("secure")

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		metrics := dysession.NewMetrics(reg)

		var current atomic.Pointer[dysession.DynaSession]
		current.Store(newClient(dysession.WithMetrics(metrics)))

		// table and ttl changes apply to requests started after the reload
		loader.Watch(func(c *dysession.Config) {
			current.Store(dysession.New(nil, dysession.WithConfig(c), dysession.WithLogger(logger), dysession.WithMetrics(metrics)))
		})

		factory := func(sessionKey string) *dysession.SessionStore {
			return current.Load().NewSessionStore(sessionKey)
		}

		sessionMiddleware := dysession.Middleware(factory, dysession.CookieOptions{Secure: secure}, logger)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           newRouter(sessionMiddleware, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info().Str("addr", srv.Addr).Str("table", cfg.TableName).Msg("starting session server")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info().Str("signal", sig.String()).Msg("start shutdown")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("graceful shutdown did not complete")
				return srv.Close()
			}

			logger.Info().Msg("session server stopped")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("secure", false, "Only send the session cookie over https")
}

func newRouter(sessionMiddleware func(http.Handler) http.Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Handle("/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Get("/", visitHandler)
		r.Post("/logout", logoutHandler)
	})

	return r
}

func visitHandler(w http.ResponseWriter, r *http.Request) {
	ss, _ := dysession.FromContext(r.Context())

	data, err := ss.Data(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var visits int

	err = data.Decode("visits", &visits)
	if err != nil && !errors.Is(err, dysession.ErrFieldMissing) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	visits++

	err = ss.SetField(r.Context(), "visits", visits)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "visits: %d\n", visits)
}

func logoutHandler(w http.ResponseWriter, r *http.Request) {
	ss, _ := dysession.FromContext(r.Context())

	err := ss.Flush(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fmt.Fprintln(w, "logged out")
}
