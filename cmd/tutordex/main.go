// Command tutordex is the TutorDex Aggregator process: a single binary
// dispatching to the collector (C3), the worker pool (C10), and the
// stale-job sweep, all driven off one tutordex.yaml (spec §6).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tutordex/aggregator/pkg/assignment"
	"github.com/tutordex/aggregator/pkg/collector"
	"github.com/tutordex/aggregator/pkg/config"
	"github.com/tutordex/aggregator/pkg/database"
	"github.com/tutordex/aggregator/pkg/delivery"
	"github.com/tutordex/aggregator/pkg/enrichment"
	"github.com/tutordex/aggregator/pkg/llmextract"
	"github.com/tutordex/aggregator/pkg/metrics"
	"github.com/tutordex/aggregator/pkg/pipeline"
	"github.com/tutordex/aggregator/pkg/queue"
	"github.com/tutordex/aggregator/pkg/rawstore"
	"github.com/tutordex/aggregator/pkg/telegram"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	configDir := getEnv("CONFIG_DIR", "./deploy/config")
	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL and applied migrations")

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "collector":
		runCollector(ctx, cfg, dbClient, args)
	case "worker":
		runWorker(ctx, cfg, dbClient, args)
	case "requeue-stale":
		runRequeueStale(ctx, cfg, dbClient)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  tutordex collector tail
  tutordex collector backfill --since RFC3339 --until RFC3339 [--channels id,id,...]
  tutordex worker run
  tutordex worker oneshot
  tutordex requeue-stale`)
}

// runCollector dispatches "collector tail" / "collector backfill".
func runCollector(ctx context.Context, cfg *config.Config, dbClient *database.Client, args []string) {
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	source, err := telegram.NewMTProtoSource(cfg.Telegram)
	if err != nil {
		log.Fatalf("Failed to build Telegram source: %v", err)
	}

	raw := rawstore.New(dbClient.Pool, time.Hour)
	q := queue.New(dbClient.Pool)
	c := collector.New(source, raw, q, cfg.PipelineVersion)

	allChannels := channelIDs(cfg.Channels)

	switch args[0] {
	case "tail":
		log.Printf("Starting collector tail over %d channel(s)", len(allChannels))
		if err := c.Tail(ctx, allChannels); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Collector tail exited with error: %v", err)
		}
	case "backfill":
		fs := flag.NewFlagSet("backfill", flag.ExitOnError)
		since := fs.String("since", "", "RFC3339 start of backfill window (required)")
		until := fs.String("until", "", "RFC3339 end of backfill window (required)")
		channelsFlag := fs.String("channels", "", "comma-separated channel IDs (default: all configured channels)")
		if err := fs.Parse(args[1:]); err != nil {
			log.Fatalf("Failed to parse backfill flags: %v", err)
		}

		sinceT, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			log.Fatalf("Invalid --since: %v", err)
		}
		untilT, err := time.Parse(time.RFC3339, *until)
		if err != nil {
			log.Fatalf("Invalid --until: %v", err)
		}

		channels := allChannels
		if *channelsFlag != "" {
			channels, err = parseChannelList(*channelsFlag)
			if err != nil {
				log.Fatalf("Invalid --channels: %v", err)
			}
		}

		log.Printf("Starting backfill over %d channel(s), window [%s, %s]", len(channels), sinceT, untilT)
		if err := c.Backfill(ctx, channels, sinceT, untilT); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Backfill exited with error: %v", err)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func channelIDs(channels []config.ChannelConfig) []int64 {
	ids := make([]int64, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ChannelID
	}
	return ids
}

func parseChannelList(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("channel id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// runWorker dispatches "worker run" (long-lived pool + admin HTTP
// surface) / "worker oneshot" (claim and process a single batch, then
// exit — useful for cron-driven deployments and local debugging).
func runWorker(ctx context.Context, cfg *config.Config, dbClient *database.Client, args []string) {
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	q := queue.New(dbClient.Pool)
	executor, reg := buildExecutor(cfg, dbClient)

	switch args[0] {
	case "run":
		pool := queue.NewWorkerPool(workerID(), q, cfg.Queue, reg.InstrumentExecutor(cfg.PipelineVersion, executor), executor.Deliver)
		reg.WireQueuePool(pool)

		if err := pool.Start(ctx); err != nil {
			log.Fatalf("Failed to start worker pool: %v", err)
		}
		log.Println("Worker pool started")

		httpPort := getEnv("HTTP_PORT", "8080")
		srv := adminServer(httpPort, dbClient, pool, reg)
		go func() {
			log.Printf("Admin HTTP server listening on :%s (/health, /metrics)", httpPort)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Admin HTTP server error: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("Shutdown signal received, draining worker pool")
		pool.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Admin HTTP server shutdown error: %v", err)
		}
	case "oneshot":
		worker := queue.NewWorker(workerID(), q, cfg.Queue, reg.InstrumentExecutor(cfg.PipelineVersion, executor), executor.Deliver)
		runErr := worker.RunOnce(ctx)
		worker.Stop() // drains any in-flight C9 delivery goroutine before the process exits
		if runErr != nil {
			if errors.Is(runErr, queue.ErrNoJobsAvailable) {
				log.Println("Oneshot: no jobs available")
				return
			}
			log.Fatalf("Oneshot worker batch failed: %v", runErr)
		}
		log.Println("Oneshot worker batch complete")
	default:
		usage()
		os.Exit(1)
	}
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// buildExecutor wires C5-C9 into a pipeline.Executor and returns it
// alongside the metrics registry the worker/admin surface share.
func buildExecutor(cfg *config.Config, dbClient *database.Client) (*pipeline.Executor, *metrics.Registry) {
	prompts, err := llmextract.NewPromptBuilder(cfg.LLM.SystemPromptPath, cfg.LLM.ExampleSetDir)
	if err != nil {
		log.Fatalf("Failed to build LLM prompt builder: %v", err)
	}
	extractor := llmextract.New(cfg.LLM, prompts)

	raw := rawstore.New(dbClient.Pool, time.Hour)

	var geocoder enrichment.Geocoder
	if cfg.Enrichment.GeocodingEnabled {
		geocoder = enrichment.NewOneMapGeocoder(cfg.Enrichment.GeocodingURL, 24*time.Hour)
	}
	detector := enrichment.NewDetector(dbClient.Pool, time.Duration(cfg.Enrichment.DuplicateWindowMinutes)*time.Minute)
	enrich := enrichment.NewPipeline(geocoder, detector)

	assignments := assignment.New(dbClient.Pool)

	sender, err := telegram.NewBotAPISender(cfg.Telegram)
	if err != nil {
		log.Fatalf("Failed to build Telegram bot sender: %v", err)
	}

	var matcher delivery.Matcher
	if cfg.Delivery.MatcherURL != "" {
		matcher = delivery.NewHTTPMatcher(cfg.Delivery.MatcherURL, 5*time.Second)
	}

	var sink *delivery.FailureSink
	if cfg.Delivery.JSONLSinkPath != "" {
		sink, err = delivery.NewFailureSink(cfg.Delivery.JSONLSinkPath)
		if err != nil {
			log.Fatalf("Failed to open delivery failure sink: %v", err)
		}
	}

	deliverySvc := delivery.New(sender, matcher, sink, cfg.Delivery, cfg.Telegram.BroadcastChatID)

	executor, err := pipeline.NewExecutor(cfg, raw, extractor, enrich, assignments, deliverySvc)
	if err != nil {
		log.Fatalf("Failed to build pipeline executor: %v", err)
	}

	return executor, metrics.New()
}

func runRequeueStale(ctx context.Context, cfg *config.Config, dbClient *database.Client) {
	q := queue.New(dbClient.Pool)
	n, err := q.RequeueStale(ctx, cfg.Queue.StaleAfterSeconds, cfg.Queue.MaxAttempts)
	if err != nil {
		log.Fatalf("Requeue-stale failed: %v", err)
	}
	log.Printf("Requeued %d stale job(s)", n)
}

// adminServer builds the gin-based health/metrics surface, grounded on
// the teacher's cmd/tarsy/main.go router.
func adminServer(port string, dbClient *database.Client, pool *queue.WorkerPool, reg *metrics.Registry) *http.Server {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := database.Health(reqCtx, dbClient.DB())
		poolHealth := pool.Health(reqCtx)

		status := http.StatusOK
		if err != nil || !poolHealth.IsHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"database": dbHealth,
			"pool":     poolHealth,
		})
	})

	router.GET("/metrics", gin.WrapH(reg.Handler()))

	return &http.Server{Addr: ":" + port, Handler: router}
}
