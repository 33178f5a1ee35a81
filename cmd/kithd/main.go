// Command kithd is the thin binary that wires Kith's core packages
// (store, vcard, diff, etag, webdav, carddav) to a plain HTTP listener.
// All routing-framework concerns live here, never in the core packages,
// per spec.md §1's "HTTP transport plumbing" Non-goal. It does not
// terminate TLS itself.
package main

import (
	"context"
	"crypto/subtle"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"kith/auth"
	"kith/carddav"
	"kith/cmd/kithd/config"
	"kith/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	st, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	cardHandlers := carddav.New(st, logger, cfg.BaseURL, cfg.Addressbook)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "HEAD", "PUT", "DELETE", "OPTIONS", "PROPFIND", "REPORT"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Depth", "If-Match", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "DAV", "Allow"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/dav", func(r chi.Router) {
		r.Use(basicAuthMiddleware(cfg.AuthUsername, cfg.AuthPasswordHash))
		r.HandleFunc("/*", cardHandlers.ServeHTTP)
	})
	// The collection root itself ("/dav") doesn't match chi's "/*"
	// wildcard sub-route, so it needs its own mount.
	r.With(basicAuthMiddleware(cfg.AuthUsername, cfg.AuthPasswordHash)).HandleFunc("/dav", cardHandlers.ServeHTTP)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("starting kithd", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down kithd")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("kithd stopped")
}

// basicAuthMiddleware decodes the Authorization header and checks it
// against the single configured credential, per spec.md §6. OPTIONS
// bypasses auth entirely (the client discovery probe).
func basicAuthMiddleware(username, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 {
				unauthorized(w)
				return
			}
			valid, err := auth.VerifyPassword(pass, passwordHash)
			if err != nil || !valid {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="kith"`)
	w.WriteHeader(http.StatusUnauthorized)
}
