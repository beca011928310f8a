// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"talentmatch-workers/internal/ai"
	"talentmatch-workers/internal/common/aws"
	"talentmatch-workers/internal/common/camunda"
	"talentmatch-workers/internal/common/config"
	"talentmatch-workers/internal/common/database"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/common/observability"
	"talentmatch-workers/internal/common/storage"
	"talentmatch-workers/internal/extractor"
	"talentmatch-workers/internal/features"
	"talentmatch-workers/internal/matching"
	"talentmatch-workers/internal/notify"
	"talentmatch-workers/internal/scoring"
	"talentmatch-workers/internal/search"
	"talentmatch-workers/internal/store"

	pep "talentmatch-workers/internal/workers/matching/process-expired-posting"
	ra "talentmatch-workers/internal/workers/matching/rank-applicants"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) with retry ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch disabled, ranked matches will not be indexed")
	}

	// --- Init MinIO with retry ---
	var objectStore *storage.MinIOClient
	err = retryWithBackoff(func() error {
		var err error
		objectStore, err = storage.NewMinIO(cfg.Storage.MinIO)
		if err != nil {
			return err
		}
		return objectStore.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "MinIO connection")

	if err != nil {
		zapLog.Fatal("minio failed after retries", zap.Error(err))
	}
	zapLog.Info("MinIO connected successfully")

	// --- Init AI Client ---
	generator, err := ai.NewGenerator(ctx, cfg.APIs.Gemini.APIKey, cfg.APIs.Gemini.Model)
	if err != nil {
		zapLog.Fatal("gemini client initialization failed", zap.Error(err))
	}
	aiClient := ai.NewClient(generator, log)
	zapLog.Info("Gemini client initialized", zap.String("model", generator.Model()))

	// --- Init AWS Notification Clients ---
	var emailNotifier *notify.EmailNotifier
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client initialization failed", zap.Error(err))
		}
		emailNotifier = notify.NewEmailNotifier(sesClient, cfg.Notifications.Email.FromEmail, true, log)
	} else {
		emailNotifier = notify.NewEmailNotifier(nil, "", false, log)
	}

	var eventNotifier *notify.EventNotifier
	if cfg.Notifications.Events.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client initialization failed", zap.Error(err))
		}
		eventNotifier = notify.NewEventNotifier(snsClient, cfg.Notifications.Events.TopicARN, true, log)
	} else {
		eventNotifier = notify.NewEventNotifier(nil, "", false, log)
	}
	zapLog.Info("All external service clients initialized")

	// --- Build the Matching Pipeline ---
	dataStore := store.New(pg.DB, redisClient.Client, objectStore, config.GetDuration(cfg.Matching.CacheTTL), log)

	pdfExtractor, err := extractor.NewPDFExtractor(ctx, log)
	if err != nil {
		zapLog.Fatal("pdf extractor initialization failed", zap.Error(err))
	}
	resumeExtractor := extractor.NewFallbackExtractor(log,
		extractor.NewTikaExtractor(cfg.Extraction.Tika.ServerURL, config.GetDuration(cfg.Extraction.Tika.Timeout), log),
		pdfExtractor,
	)

	orchestrator := matching.NewOrchestrator(matching.Dependencies{
		Store:     dataStore,
		Extractor: resumeExtractor,
		Parser:    features.NewParser(features.DefaultSkillVocabulary, log),
		Analyzer:  aiClient,
		Scorer:    scoring.NewScorer(log),
		Lock:      matching.NewRunLock(redisClient.Client, config.GetDuration(cfg.Matching.LockTTL)),
		Email:     emailNotifier,
		Events:    eventNotifier,
		Indexer:   search.NewIndexer(esClient, log),
		Logger:    log,
	}, matching.Config{
		MaxCandidates:    cfg.Matching.MaxCandidates,
		CandidateTimeout: config.GetDuration(cfg.Matching.CandidateTimeout),
	})

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	if cfg.Workers[ra.TaskType].Enabled {
		handler := ra.NewHandler(
			&ra.Config{
				Timeout: config.GetDuration(cfg.Workers[ra.TaskType].Timeout),
			},
			orchestrator, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, ra.TaskType,
			cfg.Workers[ra.TaskType].MaxJobsActive,
			config.GetDuration(cfg.Workers[ra.TaskType].Timeout),
			handler.Handle, zapLog,
		))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", ra.TaskType))
	}

	if cfg.Workers[pep.TaskType].Enabled {
		handler := pep.NewHandler(
			&pep.Config{
				Timeout: config.GetDuration(cfg.Workers[pep.TaskType].Timeout),
			},
			orchestrator, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, pep.TaskType,
			cfg.Workers[pep.TaskType].MaxJobsActive,
			config.GetDuration(cfg.Workers[pep.TaskType].Timeout),
			handler.Handle, zapLog,
		))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", pep.TaskType))
	}
	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Stop()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
