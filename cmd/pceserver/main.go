// pce-engine orchestrator server - serves the cognition pipeline's HTTP,
// SSE, and WebSocket surfaces over an embedded SQLite store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sbrunomello/pce-engine/pkg/api"
	"github.com/sbrunomello/pce-engine/pkg/config"
	"github.com/sbrunomello/pce-engine/pkg/events"
	"github.com/sbrunomello/pce-engine/pkg/llmclient"
	"github.com/sbrunomello/pce-engine/pkg/notify"
	"github.com/sbrunomello/pce-engine/pkg/pipeline"
	"github.com/sbrunomello/pce-engine/pkg/plugins"
	"github.com/sbrunomello/pce-engine/pkg/retention"
	"github.com/sbrunomello/pce-engine/pkg/sanitize"
	"github.com/sbrunomello/pce-engine/pkg/store"
	"github.com/sbrunomello/pce-engine/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	log.Printf("Starting %s", version.Full())
	log.Printf("Config Directory: %s", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	stats := cfg.Stats()
	log.Printf("Loaded configuration: api_port=%d cci_window=%d approvals_ttl_s=%d",
		stats.APIPort, stats.CCIWindow, stats.ApprovalsTTLS)

	st, err := store.Open(ctx, store.Config{
		Path:         cfg.StateDBPath,
		HistoryBound: cfg.CCI.Window,
	})
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("Error closing state store: %v", err)
		}
	}()
	log.Println("Opened state store at", cfg.StateDBPath)

	sanitizer := sanitize.NewService()
	llmClient := llmclient.New(llmclient.Config{
		APIKey:      cfg.OpenRouter.APIKey,
		Model:       cfg.OpenRouter.Model,
		BaseURL:     cfg.OpenRouter.BaseURL,
		Timeout:     time.Duration(cfg.OpenRouter.TimeoutS) * time.Second,
		HTTPReferer: cfg.OpenRouter.HTTPReferer,
		XTitle:      cfg.OpenRouter.XTitle,
	}, sanitizer)

	assistant := plugins.NewAssistant(cfg.Assistant, llmClient)
	robotics := plugins.NewRobotics()
	trader := plugins.NewTrader()

	registry := plugins.NewRegistry()
	registry.Register(plugins.Domain{Name: "assistant", Decider: assistant, Adapter: assistant})
	registry.Register(plugins.Domain{Name: "os.robotics", Decider: robotics, Adapter: robotics})
	registry.Register(plugins.Domain{Name: "os.trader", Decider: trader})
	log.Println("Registered domain plugins: assistant, os.robotics, os.trader")

	schemas := pipeline.NewSchemaRegistry()
	for _, eventType := range []string{
		"observation.assistant.v1",
		"feedback.assistant.v1",
		"project.goal.defined",
		"part.candidate.added",
		"budget.updated",
		"purchase.requested",
		"purchase.completed",
		"purchase.rejected",
		"test.result.recorded",
		"market_signal",
		"robot_telemetry",
	} {
		schemas.Register(eventType, pipeline.RequireDomain)
	}

	var notifier *notify.Service
	if cfg.Slack.Enabled {
		notifier = notify.NewService(notify.ServiceConfig{
			Token:   os.Getenv(cfg.Slack.TokenEnv),
			Channel: cfg.Slack.Channel,
		})
		if notifier == nil {
			log.Printf("Warning: slack.enabled is true but token/channel missing, notifications disabled")
		} else {
			log.Println("Slack approval notifications enabled")
		}
	}

	pipe := pipeline.New(st, registry, schemas, notifier, pipeline.Config{
		HistoryBound: cfg.CCI.Window,
	})

	connManager := events.NewConnectionManager(events.NewStoreCatchupAdapter(st), requestWriteTimeout)
	pipe.SetBroadcaster(connManager)

	sweeper := retention.NewSweeper(st, st,
		time.Duration(cfg.Approvals.TTLSeconds)*time.Second,
		time.Duration(cfg.Approvals.SweepIntervalS)*time.Second)
	sweeper.RunOnce(ctx)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	server := api.NewServer(cfg, st, pipe, connManager)

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("Server stopped")
}

const requestWriteTimeout = 10 * time.Second
