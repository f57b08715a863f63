// Command minesweeper runs the minefield game.
//
// Commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server backed by an HTTP API, internal if none is reachable
//  3. "play" plays in the terminal
//  4. "leaderboard" prints the best recorded scores
//
// Flags can also be set through environment variables or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/minesweeper/api"
	"github.com/wricardo/mcp-training/minesweeper/game/config"
	"github.com/wricardo/mcp-training/minesweeper/game/console"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
	"github.com/wricardo/mcp-training/minesweeper/game/session"
	"github.com/wricardo/mcp-training/minesweeper/transport/mcp"
	"github.com/wricardo/mcp-training/minesweeper/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Minefield Game Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newApp builds the command tree. Root flags are inherited by every command.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "minesweeper",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations, empty for built-in levels only",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "leaderboard-driver",
				Value:   "file",
				Usage:   "leaderboard storage: file or sqlite",
				Sources: cli.EnvVars("LEADERBOARD_DRIVER"),
			},
			&cli.StringFlag{
				Name:    "leaderboard-path",
				Value:   "scores",
				Usage:   "leaderboard directory (file) or database file (sqlite)",
				Sources: cli.EnvVars("LEADERBOARD_PATH"),
			},
			&cli.Uint64Flag{
				Name:    "seed",
				Usage:   "fixed seed for grid generation, 0 for random grids",
				Sources: cli.EnvVars("MINEFIELD_SEED"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.Root().ErrWriter, cmd.Bool("debug"))
			return ctx, nil
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "ngrok",
						Usage:   "expose the server through an ngrok tunnel",
						Sources: cli.EnvVars("NGROK_ENABLED"),
					},
					&cli.StringFlag{
						Name:    "ngrok-auth",
						Usage:   "ngrok auth token",
						Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "ngrok-domain",
						Usage:   "custom ngrok domain",
						Sources: cli.EnvVars("NGROK_DOMAIN"),
					},
				},
				Action: runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server",
				Action:  runStdioMCP,
			},
			{
				Name:   "play",
				Usage:  "play in the terminal",
				Action: runPlay,
			},
			{
				Name:  "leaderboard",
				Usage: "print the best recorded scores",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "n",
						Value:   leaderboard.TopN,
						Usage:   "number of scores to show",
						Aliases: []string{"top"},
					},
				},
				Action: runLeaderboard,
			},
		},
	}
}

// setupLogging writes human-readable logs to w. stdout stays free for the
// MCP stdio transport and the terminal game.
func setupLogging(w io.Writer, debug bool) {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// settings are the flag values shared by every command
type settings struct {
	host              string
	port              int
	configDir         string
	leaderboardDriver string
	leaderboardPath   string
	seed              uint64
}

func settingsFrom(cmd *cli.Command) settings {
	return settings{
		host:              cmd.String("host"),
		port:              cmd.Int("port"),
		configDir:         cmd.String("config-dir"),
		leaderboardDriver: cmd.String("leaderboard-driver"),
		leaderboardPath:   cmd.String("leaderboard-path"),
		seed:              cmd.Uint64("seed"),
	}
}

func (s settings) addr() string {
	return net.JoinHostPort(s.host, fmt.Sprint(s.port))
}

func (s settings) engineOptions() []engine.Option {
	if s.seed == 0 {
		return nil
	}
	return []engine.Option{engine.WithSeed(s.seed)}
}

// services is everything a running game needs
type services struct {
	game     service.GameService
	sessions *session.Manager
	scores   leaderboard.Store
}

func (s *services) Close() error {
	return s.scores.Close()
}

// initializeServices wires the session and config managers, the leaderboard
// and the game service.
func initializeServices(s settings) (*services, error) {
	configManager, err := config.NewManager(s.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	scores, err := leaderboard.Open(s.leaderboardDriver, s.leaderboardPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open leaderboard: %w", err)
	}

	sessionManager := session.NewManager(s.engineOptions()...)
	gameService := service.NewGameService(sessionManager, configManager, service.WithLeaderboard(scores))

	return &services{
		game:     gameService,
		sessions: sessionManager,
		scores:   scores,
	}, nil
}

// sessionCleanupRoutine removes sessions that have not been accessed for
// maxAge, checking every interval until ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}

// newHandler combines the API server with the /mcp JSON-RPC endpoint
func newHandler(apiServer http.Handler, mcpServer *server.MCPServer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// notifications get no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Error().Err(err).Msg("failed to write MCP response")
		}
	})
	return mux
}

// runServe starts the HTTP server with REST API, WebSocket hub and /mcp
// endpoint, plus an ngrok tunnel when enabled.
func runServe(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)
	svc, err := initializeServices(s)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	go sessionCleanupRoutine(ctx, svc.sessions, cleanupInterval, sessionMaxAge)

	addr := s.addr()
	mcpClient := mcp.NewClient("http://" + addr)
	handler := newHandler(api.NewServer(svc.game, hub), mcpClient.GetMCPServer())

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).Str("version", Version).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errCh:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return err
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	ngrokServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		ngrokServer.Close()
	}()

	url := tun.URL()
	log.Info().Str("url", url).Msg("ngrok tunnel established")
	log.Info().Msgf("  REST API (ngrok): %s/api", url)
	log.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", url)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", url)

	if err := ngrokServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// apiReachable reports whether a game API answers at baseURL
func apiReachable(ctx context.Context, baseURL string) bool {
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

// startInternalAPI serves the API on a random loopback port and returns its
// base URL. The server stops when ctx is done.
func startInternalAPI(ctx context.Context, gameService service.GameService) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	baseURL := "http://" + listener.Addr().String()
	log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	return baseURL, nil
}

// runStdioMCP serves MCP over stdio. It reuses the API at --host/--port when
// one answers, otherwise it starts an internal one.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL := "http://" + s.addr()
	if apiReachable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("using external API server for MCP")
	} else {
		svc, err := initializeServices(s)
		if err != nil {
			return err
		}
		defer svc.Close()
		go sessionCleanupRoutine(ctx, svc.sessions, cleanupInterval, sessionMaxAge)

		if baseURL, err = startInternalAPI(ctx, svc.game); err != nil {
			return err
		}
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Msg("MCP stdio server ready")

	stdio := server.NewStdioServer(mcpClient.GetMCPServer())
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runPlay plays rounds in the terminal until the player quits
func runPlay(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)
	scores, err := leaderboard.Open(s.leaderboardDriver, s.leaderboardPath)
	if err != nil {
		return fmt.Errorf("failed to open leaderboard: %w", err)
	}
	defer scores.Close()

	root := cmd.Root()
	in := root.Reader
	if in == nil {
		in = os.Stdin
	}
	out := root.Writer
	if out == nil {
		out = os.Stdout
	}

	game := console.New(in, out,
		console.WithLeaderboard(scores),
		console.WithEngineOptions(s.engineOptions()...),
	)
	if err := game.Run(ctx); err != nil && !errors.Is(err, console.ErrInputClosed) {
		return err
	}
	return nil
}

// runLeaderboard prints the best scores
func runLeaderboard(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)
	n := cmd.Int("n")
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	scores, err := leaderboard.Open(s.leaderboardDriver, s.leaderboardPath)
	if err != nil {
		return fmt.Errorf("failed to open leaderboard: %w", err)
	}
	defer scores.Close()

	top, err := scores.Top(ctx, n)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	if len(top) == 0 {
		fmt.Fprintln(out, "No scores recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "Top %d scores!\n\n", n)
	for i, e := range top {
		fmt.Fprintf(out, "%2d. %-20s %6d  level %d  %s\n",
			i+1, e.Name, e.Score, e.Difficulty, e.RecordedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
