// Command counsellor runs the conversation memory service for the
// counselling chat backend: the in-memory session store, the idle-session
// sweeper, and the ops endpoint. The chat-serving HTTP layer consumes the
// store in process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rvhari80/ivy-ai-counsellor/internal/sweeper"
	"github.com/rvhari80/ivy-ai-counsellor/pkg/config"
	"github.com/rvhari80/ivy-ai-counsellor/pkg/memory"
	"github.com/rvhari80/ivy-ai-counsellor/pkg/observability"
	"github.com/rvhari80/ivy-ai-counsellor/pkg/summarizer"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	configFile = flag.String("config", getEnv("CONFIG_FILE", ""), "Configuration file")
	httpPort   = flag.Int("http-port", getEnvInt("PORT", 0), "Ops HTTP server port (overrides config)")
)

func main() {
	flag.Parse()

	log.Printf("Starting counsellor memory service v%s", Version)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *httpPort != 0 {
		cfg.Server.Port = *httpPort
	}

	observability.InitMetrics()

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Store error: %v", err)
	}

	checker := observability.NewHealthChecker()
	checker.Register(observability.Check{
		Name: "memory_store",
		Probe: func(context.Context) error {
			store.Count()
			return nil
		},
	})

	sweep := sweeper.New(store, cfg.Sweep.Schedule)
	if err := sweep.Start(); err != nil {
		log.Fatalf("Sweeper error: %v", err)
	}

	obsServer := observability.NewServer(cfg.Server.Port, checker)
	errChan := make(chan error, 1)
	go func() {
		log.Printf("Ops server listening on :%d", cfg.Server.Port)
		errChan <- obsServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Printf("Server error: %v", err)
	case <-quit:
		log.Println("Shutting down...")
	}

	sweep.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := obsServer.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Printf("Stopped with %d active sessions", store.Count())
}

// buildStore assembles the memory store with its summarization client.
func buildStore(cfg *config.Config) (*memory.Store, error) {
	timeout, err := cfg.SummarizationTimeout()
	if err != nil {
		return nil, err
	}

	var client summarizer.Client
	switch cfg.Summarizer.Provider {
	case "openai":
		oc, err := summarizer.NewOpenAI(summarizer.OpenAIConfig{
			APIKey:      cfg.Summarizer.APIKey,
			Model:       cfg.Summarizer.Model,
			Instruction: cfg.Summarizer.Instruction,
		})
		if err != nil {
			// No key means summaries degrade to the fallback marker,
			// matching the rest of the service staying up.
			log.Printf("Summarization disabled: %v", err)
			break
		}
		client = summarizer.NewInstrumented(oc, summarizer.InstrumentedConfig{
			RequestsPerSecond: cfg.Summarizer.RequestsPerSecond,
			Burst:             cfg.Summarizer.Burst,
		})
	case "none":
		log.Printf("Summarization disabled by configuration")
	default:
		return nil, fmt.Errorf("unsupported summarizer provider: %s", cfg.Summarizer.Provider)
	}

	return memory.NewStore(memory.Config{
		WindowPairs:      cfg.Memory.WindowPairs,
		IdleTimeout:      cfg.IdleTimeout(),
		SummarizeTimeout: timeout,
	}, client), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
