// Command warehouse starts the warehouse robot server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, level and session storage, debug logging, version
// output, and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/warehouse/api"
	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/service"
	"github.com/wricardo/mcp-training/warehouse/game/session"
	"github.com/wricardo/mcp-training/warehouse/transport/mcp"
	"github.com/wricardo/mcp-training/warehouse/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Warehouse Robot Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", envDefault("CONFIG_DIR", "configs"), "Directory containing level files")
	sessionsDir  = flag.String("sessions-dir", envDefault("SESSIONS_DIR", "sessions"), "Directory for persisted sessions")
	store        = flag.String("store", envDefault("SESSION_STORE", "json"), "Session store: json (one file per session) or sqlite")
	watchLevels  = flag.Bool("watch", true, "Reload level files when they change on disk")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

const (
	sessionMaxAge       = 24 * time.Hour
	cleanupInterval     = time.Hour
	storeSyncInterval   = 5 * time.Second
	shutdownGracePeriod = 10 * time.Second
)

// envDefault returns the environment variable key, or fallback when unset.
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store sqlite      # Keep sessions in sessions/sessions.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s mcp -port 9090     # Run MCP stdio server with internal HTTP on port 9090\n", os.Args[0])
	}
}

// newLogger builds the process logger. Stdio MCP mode must keep stdout clean,
// so logs always go to stderr.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	envErr := godotenv.Load()

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	switch {
	case envErr == nil:
		logger.Info("loaded environment variables from .env file")
	case !os.IsNotExist(envErr):
		logger.Warn("error loading .env file", zap.Error(envErr))
	}

	// Determine mode from command
	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", mode))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices(*configDir, *sessionsDir, *store)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		err = runStdioMCPWithInternalServer(ctx, svc)
	case "server", "http":
		err = runHTTPServer(ctx, svc)
	default:
		err = fmt.Errorf("unknown mode %q, use 'server' (default) or 'stdio-mcp'", mode)
	}

	if cerr := svc.Close(); cerr != nil {
		logger.Warn("failed to close services", zap.Error(cerr))
	}
	if err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// services bundles the long-lived components shared by both modes.
type services struct {
	game        service.GameService
	sessions    *session.Manager
	configs     *config.Manager
	persistence session.SessionPersistence
	closers     []io.Closer
}

// Close saves every session and releases the session store.
func (s *services) Close() error {
	var errs []error
	if err := s.sessions.SaveAllSessions(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// background runs the maintenance loops until ctx is cancelled.
func (s *services) background(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		sessionCleanupRoutine(ctx, s.sessions, cleanupInterval)
		return nil
	})
	g.Go(func() error {
		storeSyncRoutine(ctx, s.sessions, s.persistence, storeSyncInterval)
		return nil
	})
	if *watchLevels {
		g.Go(func() error {
			if err := s.configs.Watch(ctx); err != nil {
				// Watching is a convenience; the server keeps running without it.
				zap.L().Warn("level watcher stopped", zap.Error(err))
			}
			return nil
		})
	}
}

// openPersistence picks the session store named by kind.
func openPersistence(kind, dir string, configs service.ConfigManager) (session.SessionPersistence, io.Closer, error) {
	switch kind {
	case "json", "file", "":
		p, err := session.NewFilePersistence(dir, configs)
		return p, nil, err
	case "sqlite":
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create sessions directory: %w", err)
		}
		p, err := session.NewSQLitePersistence(filepath.Join(dir, "sessions.db"), configs)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q (want json or sqlite)", kind)
	}
}

// initializeServices wires the level and session managers and the game service.
func initializeServices(configDir, sessionsDir, storeKind string) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, closer, err := openPersistence(storeKind, sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		zap.L().Warn("failed to load persisted sessions", zap.Error(err))
	}

	s := &services{
		game:        service.NewGameService(sessionManager, configManager),
		sessions:    sessionManager,
		configs:     configManager,
		persistence: persistence,
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	zap.L().Info("services ready",
		zap.String("config_dir", configDir),
		zap.Int("levels", configManager.Count()),
		zap.String("store", storeKind),
		zap.Int("sessions", sessionManager.Count()))
	return s, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				zap.L().Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// storeSyncRoutine drops sessions from memory once they disappear from the
// session store, e.g. when a session file is deleted by hand.
func storeSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	if persistence == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneOrphanedSessions(manager, persistence); pruned > 0 {
				zap.L().Info("store sync pruned orphaned sessions", zap.Int("pruned", pruned))
			}
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			zap.L().Debug("pruned session from memory", zap.String("session", sess.ID))
		}
	}
	return pruned
}

// mcpHTTPHandler serves single JSON-RPC messages posted to /mcp.
func mcpHTTPHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// newRouter mounts the REST API at the root and the MCP proxy at /mcp.
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.HandleFunc("/mcp", mcpHTTPHandler(mcpClient))
	return router
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, svc *services) error {
	g, ctx := errgroup.WithContext(ctx)

	hub := websocket.NewHub()
	g.Go(func() error { return hub.Run(ctx) })
	svc.background(ctx, g)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	router := newRouter(api.NewServer(svc.game, hub), mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		zap.L().Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if ngrokShouldRun() {
		g.Go(func() error {
			runNgrokTunnel(ctx, router)
			return nil
		})
	}

	return g.Wait()
}

// ngrokShouldRun reports whether the tunnel is enabled by flag or environment.
func ngrokShouldRun() bool {
	if *ngrokEnabled {
		return true
	}
	env := os.Getenv("NGROK_ENABLED")
	return env == "true" || env == "1"
}

// ngrokAuthToken returns the auth token from flag or environment (both naming conventions).
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is cancelled.
// Tunnel failures are logged and never stop the local server.
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := ngrokAuthToken()
	if authToken == "" {
		zap.L().Warn("ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	zap.L().Info("starting ngrok tunnel")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		zap.L().Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		zap.L().Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			zap.L().Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	zap.L().Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("mcp", url+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		zap.L().Warn("ngrok server error", zap.Error(err))
	}
	zap.L().Info("ngrok tunnel closed")
}

// externalAPIAvailable reports whether a warehouse server already answers at baseURL.
func externalAPIAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured port; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, svc *services) error {
	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	zap.L().Info("checking for external API server", zap.String("url", externalURL))

	if externalAPIAvailable(ctx, externalURL) {
		zap.L().Info("MCP stdio server ready (using external HTTP server)", zap.String("url", externalURL))
		return server.ServeStdio(mcp.NewClient(externalURL).GetMCPServer())
	}

	zap.L().Info("no external API server found, starting internal HTTP server")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := fmt.Sprintf("http://%s", listener.Addr().String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	hub := websocket.NewHub()
	g.Go(func() error { return hub.Run(ctx) })
	svc.background(ctx, g)

	httpServer := &http.Server{Handler: api.NewServer(svc.game, hub)}
	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("internal HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	zap.L().Info("MCP stdio server ready (using internal HTTP server)", zap.String("url", baseURL))
	stdioErr := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())

	// stdin closed or a signal arrived: stop the internal server as well.
	cancel()
	if err := g.Wait(); err != nil && stdioErr == nil {
		return err
	}
	return stdioErr
}
