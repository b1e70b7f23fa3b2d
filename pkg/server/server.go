package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"

	"github.com/cogenplan/cogenplan/pkg/common"
	"github.com/cogenplan/cogenplan/pkg/export"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/storage"
)

// DefaultBuildingID is used for every request in single-building mode.
const DefaultBuildingID = "default"

type contextKey string

const (
	buildingIDContextKey contextKey = "buildingID"
	emailContextKey      contextKey = "email"
)

var oidcIssuers = map[string]string{
	"google": "https://accounts.google.com",
	"apple":  "https://appleid.apple.com",
}

// tokenVerifier is a function that validates an OIDC ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server exposes scenario storage and analysis runs over HTTP.
type Server struct {
	storage storage.Database
	export  *export.Influx

	listenAddr string
	httpServer *http.Server

	adminEmails    []string
	oidcAudiences  map[string]string
	oidcVerifiers  map[string]tokenVerifier
	bypassAuth     bool
	singleBuilding bool
	serverName     string

	// demandDir resolves relative demand files of stored scenarios.
	demandDir  string
	workers    int
	maxSamples int
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(s storage.Database, x *export.Influx) *Server {
	srv := &Server{
		storage:    s,
		export:     x,
		serverName: "cogenplan",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	adminEmails := lflag.String("admin-emails", "", "comma-delimited list of email addresses allowed to use the API (empty allows any verified token)")
	oidcAudience := lflag.String("oidc-audience", "", "Google client ID to validate id tokens against")
	oidcAudiences := map[string]string{}
	lflag.JSON(&oidcAudiences, "oidc-audiences", oidcAudiences, "JSON map of provider (google/apple) to audience/client ID")
	bypassAuth := lflag.Bool("bypass-auth", false, "Disable authentication (local development only)")
	singleBuilding := lflag.Bool("single-building", false, "Enable single-building mode (disables buildingID requirement)")
	demandDir := lflag.String("demand-dir", ".", "Directory relative demand files of stored scenarios are resolved against")
	workers := lflag.Int("analysis-workers", 0, "Concurrent sensitivity evaluations per mode (0 uses GOMAXPROCS)")
	maxSamples := lflag.Int("max-sensitivity-samples", 4096, "Upper bound on sensitivity samples per request")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *adminEmails != "" {
			srv.adminEmails = strings.Split(*adminEmails, ",")
			for i, email := range srv.adminEmails {
				srv.adminEmails[i] = strings.TrimSpace(email)
			}
		}
		if len(oidcAudiences) == 0 && *oidcAudience != "" {
			oidcAudiences = map[string]string{"google": *oidcAudience}
		}

		ctx := oidc.ClientContext(context.Background(), common.HTTPClient(10*time.Second))
		srv.oidcAudiences = make(map[string]string, len(oidcAudiences))
		srv.oidcVerifiers = make(map[string]tokenVerifier, len(oidcAudiences))
		for n, a := range oidcAudiences {
			issuer, ok := oidcIssuers[n]
			if !ok {
				log.Ctx(ctx).Error("unsupported oidc audience client", slog.String("client", n))
				os.Exit(1)
			}
			provider, err := oidc.NewProvider(ctx, issuer)
			if err != nil {
				log.Ctx(ctx).Error("failed to initialize OIDC provider", slog.String("client", n), slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcVerifiers[n] = provider.Verifier(&oidc.Config{ClientID: a}).Verify
			srv.oidcAudiences[n] = a
		}

		srv.bypassAuth = *bypassAuth
		if !srv.bypassAuth && len(srv.oidcVerifiers) == 0 {
			log.Ctx(ctx).Error("no oidc audiences configured and auth is not bypassed")
			os.Exit(1)
		}
		srv.singleBuilding = *singleBuilding
		srv.demandDir = *demandDir
		srv.workers = *workers
		srv.maxSamples = *maxSamples
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/scenario", s.handleGetScenario)
	apiMux.HandleFunc("POST /api/scenario", s.handleSetScenario)
	apiMux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	apiMux.HandleFunc("GET /api/runs", s.handleListRuns)
	apiMux.HandleFunc("GET /api/runs/{runID}", s.handleGetRun)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

func (s *Server) getBuildingID(r *http.Request) string {
	if buildingID, ok := r.Context().Value(buildingIDContextKey).(string); ok {
		return buildingID
	}
	// we want to have a stack trace when this happens
	panic("no buildingID in context")
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.setupHandler(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		// analyses with sensitivity can take a while
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  15 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName+" "+common.UserAgent())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}
