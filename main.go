// Command battleboard runs the Battle Board game server.
//
// Commands:
//  1. "serve" (default) – HTTP server exposing the REST API, the WebSocket state stream and an /mcp endpoint
//  2. "mcp" – MCP stdio server; reuses a running server or starts an internal one
//  3. "validate" – checks every preset in the config directory
//  4. "simulate" – plays seeded games in memory and prints statistics
//
// Settings come from the environment (and an optional .env file); flags
// override them. ngrok tunneling is available for sharing a local server.
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

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/battleboard/api"
	"github.com/wricardo/mcp-training/battleboard/game/config"
	"github.com/wricardo/mcp-training/battleboard/game/controller"
	"github.com/wricardo/mcp-training/battleboard/game/engine"
	"github.com/wricardo/mcp-training/battleboard/game/service"
	"github.com/wricardo/mcp-training/battleboard/game/simulate"
	"github.com/wricardo/mcp-training/battleboard/transport/mcp"
	"github.com/wricardo/mcp-training/battleboard/transport/websocket"
	"github.com/wricardo/mcp-training/battleboard/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Battle Board Server"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Fatal("battleboard failed")
	}
}

// newCommand builds the CLI. Global flags apply to every subcommand.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "battleboard",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before reading the environment"},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (PORT)"},
			&cli.StringFlag{Name: "config-dir", Usage: "directory containing table presets (CONFIG_DIR)"},
			&cli.StringFlag{Name: "preset", Usage: "preset used when a game starts without players (PRESET)"},
			&cli.DurationFlag{Name: "move-delay", Usage: "fixed delay before a rolled move commits (MOVE_DELAY)"},
			&cli.DurationFlag{Name: "battle-delay", Usage: "fixed delay before a finished battle completes (BATTLE_COMPLETE_DELAY)"},
			&cli.IntFlag{Name: "seed", Usage: "dice seed, 0 for random (DICE_SEED)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging (DEBUG)"},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action: runServe,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel (NGROK_ENABLED)"},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token (NGROK_AUTHTOKEN)"},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (NGROK_DOMAIN)"},
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server backed by the REST API",
				Action:  runStdioMCP,
			},
			{
				Name:   "validate",
				Usage:  "validate every preset in the config directory",
				Action: runValidate,
			},
			{
				Name:   "simulate",
				Usage:  "play seeded games without timers and print statistics",
				Action: runSimulate,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 1000, Usage: "number of games"},
					&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON"},
				},
			},
		},
	}
}

// loadSettings reads the environment and applies flag overrides
func loadSettings(cmd *cli.Command) (config.Settings, error) {
	settings, err := config.LoadSettings(cmd.String("env-file"))
	if err != nil {
		return settings, err
	}

	if cmd.IsSet("host") {
		settings.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("config-dir") {
		settings.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("preset") {
		settings.Preset = cmd.String("preset")
	}
	if cmd.IsSet("move-delay") {
		settings.MoveDelay = cmd.Duration("move-delay")
	}
	if cmd.IsSet("battle-delay") {
		settings.BattleCompleteDelay = cmd.Duration("battle-delay")
	}
	if cmd.IsSet("seed") {
		settings.DiceSeed = int64(cmd.Int("seed"))
	}
	if cmd.IsSet("debug") {
		settings.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		settings.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		settings.NgrokAuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		settings.NgrokDomain = cmd.String("ngrok-domain")
	}

	setupLogging(settings.Debug)
	return settings, nil
}

// setupLogging configures the standard logrus logger
func setupLogging(debug bool) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// application holds the wired components of one game server
type application struct {
	settings config.Settings
	ctrl     *controller.Controller
	presets  *config.Manager
	service  service.GameService
	hub      *websocket.Hub
	api      *api.Server
	log      *logrus.Entry
}

// newApplication wires preset manager, controller, service, hub and API.
// Nothing runs until start is called.
func newApplication(settings config.Settings, log *logrus.Entry) (*application, error) {
	presets, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create preset manager: %w", err)
	}

	ctrlOpts := []controller.Option{controller.WithLogger(log)}
	if settings.DiceSeed != 0 {
		ctrlOpts = append(ctrlOpts, controller.WithRoller(engine.NewRoller(settings.DiceSeed)))
		log.WithField("seed", settings.DiceSeed).Info("Dice seeded")
	}
	ctrl := controller.New(ctrlOpts...)

	svcOpts := []service.Option{service.WithLogger(log)}
	if _, err := presets.LoadPreset(settings.Preset); err != nil {
		log.WithError(err).WithField("preset", settings.Preset).Warn("Default preset unavailable, using the first valid preset")
		svcOpts = append(svcOpts, service.WithDefaultPreset(presets.GetDefault().Name))
	} else {
		svcOpts = append(svcOpts, service.WithDefaultPreset(settings.Preset))
	}
	if settings.MoveDelay > 0 || settings.BattleCompleteDelay > 0 {
		move, battle := settings.MoveDelay, settings.BattleCompleteDelay
		if move == 0 {
			move = controller.DefaultMoveDelay
		}
		if battle == 0 {
			battle = controller.DefaultBattleCompleteDelay
		}
		svcOpts = append(svcOpts, service.WithFixedDelays(move, battle))
	}
	gameService := service.NewGameService(ctrl, presets, svcOpts...)

	hub := websocket.NewHub(log)

	return &application{
		settings: settings,
		ctrl:     ctrl,
		presets:  presets,
		service:  gameService,
		hub:      hub,
		api:      api.NewServer(gameService, hub, log),
		log:      log,
	}, nil
}

// start runs the controller and hub loops until ctx is done and streams every
// snapshot to WebSocket clients
func (a *application) start(ctx context.Context) error {
	go a.ctrl.Run(ctx)
	go a.hub.Run(ctx)

	_, err := a.ctrl.Subscribe(ctx, service.Watch(func(state engine.GameState, events []service.GameEvent) {
		a.hub.BroadcastState(state)
		for _, event := range events {
			a.hub.BroadcastEvent(event.Type, event)
		}
	}))
	if err != nil {
		return fmt.Errorf("subscribe hub: %w", err)
	}
	return nil
}

// handler combines the API with an /mcp endpoint backed by mcpClient
func (a *application) handler(mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", a.api)

	if mcpClient == nil {
		return mainRouter
	}

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runServe starts the HTTP server and, when enabled, an ngrok tunnel
func runServe(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logrus.StandardLogger())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(settings, log)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.start(ctx); err != nil {
		return err
	}

	addr := settings.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr), log)
	mainRouter := app.handler(mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.WithField("version", Version).Infof("Starting %s", AppName)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(logrus.Fields{
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if settings.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, settings, mainRouter, log)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, settings config.Settings, handler http.Handler, log *logrus.Entry) {
	log = log.WithField("component", "ngrok")

	authToken := settings.NgrokAuthToken
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
		log.WithField("domain", settings.NgrokDomain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.WithFields(logrus.Fields{
		"rest":      ngrokURL + "/api",
		"websocket": ngrokURL + "/ws",
		"mcp":       ngrokURL + "/mcp",
	}).Infof("Ngrok tunnel established: %s", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.WithError(err).Warn("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses a server already listening
// on the configured address; otherwise it starts an internal API on a random
// loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logrus.StandardLogger())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	externalURL := fmt.Sprintf("http://%s", settings.Addr())
	baseURL, err := findExternalServer(ctx, externalURL)
	if err != nil {
		log.WithField("url", externalURL).Info("No external API server found, starting internal HTTP server")

		app, err := newApplication(settings, log)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		if err := app.start(ctx); err != nil {
			return err
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		httpServer := &http.Server{Handler: app.handler(nil)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		log.WithField("url", baseURL).Info("MCP stdio server ready (using internal HTTP server)")
	} else {
		log.WithField("url", baseURL).Info("MCP stdio server ready (using external HTTP server)")
	}

	mcpClient := mcp.NewClient(baseURL, log)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// findExternalServer returns url when a healthy server answers there
func findExternalServer(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/health", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return url, nil
}

// runValidate validates every preset and fails if any is invalid
func runValidate(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	results, err := validate.Dir(settings.ConfigDir)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	invalid := 0
	for _, result := range results {
		if result.Valid {
			fmt.Fprintf(w, "✅ %s\n", result.File)
			for _, line := range result.Info {
				fmt.Fprintf(w, "   %s\n", line)
			}
			continue
		}
		invalid++
		fmt.Fprintf(w, "❌ %s\n", result.File)
		for _, line := range result.Errors {
			fmt.Fprintf(w, "   - %s\n", line)
		}
	}

	fmt.Fprintf(w, "\n%d presets, %d invalid\n", len(results), invalid)
	if invalid > 0 {
		return fmt.Errorf("%d invalid presets", invalid)
	}
	return nil
}

// runSimulate plays seeded games with the configured preset
func runSimulate(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	presets, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to create preset manager: %w", err)
	}
	preset, err := presets.LoadPreset(settings.Preset)
	if err != nil {
		return err
	}

	seed := settings.DiceSeed
	if seed == 0 {
		if seed, err = engine.NewSeed(); err != nil {
			return err
		}
	}

	games := int(cmd.Int("games"))
	if games <= 0 {
		return fmt.Errorf("games must be positive, got %d", games)
	}

	logrus.WithFields(logrus.Fields{
		"preset": preset.Name,
		"games":  games,
		"seed":   seed,
	}).Info("Simulating")

	summary, _, err := simulate.Run(preset.Seeds(), games, seed)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(w, preset, summary, seed)
	return nil
}

func printSummary(w io.Writer, preset *config.Preset, summary simulate.Summary, seed int64) {
	roster, _ := engine.NewRoster(preset.Seeds())
	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.ID] = p.Name
	}

	fmt.Fprintf(w, "Preset %s: %d games from seed %d\n\n", preset.Name, summary.Games, seed)
	for _, id := range summary.Ranking() {
		wins := summary.Wins[id]
		fmt.Fprintf(w, "  %-16s %6d wins (%.1f%%)\n", names[id], wins, 100*float64(wins)/float64(summary.Games))
	}
	fmt.Fprintf(w, "\nWins on cell %d:  %d\n", engine.FinalPosition, summary.WinsOnFinal)
	fmt.Fprintf(w, "Average turns:    %.1f (max %d)\n", summary.AvgTurns, summary.MaxTurns)
	fmt.Fprintf(w, "Trapped rolls:    %d\n", summary.Trapped)
	fmt.Fprintf(w, "Battles:          %d (avg %.1f rounds)\n", summary.Battles, summary.AvgBattleRounds)
}
