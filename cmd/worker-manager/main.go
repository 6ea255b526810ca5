// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsx "talent-intake/internal/common/aws"
	"talent-intake/internal/common/camunda"
	"talent-intake/internal/common/config"
	"talent-intake/internal/common/database"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/observability"
	"talent-intake/internal/common/zoho"
	"talent-intake/internal/platform"

	ia "talent-intake/internal/workers/intake/index-application"
	nr "talent-intake/internal/workers/intake/notify-recruiters"
	sc "talent-intake/internal/workers/intake/send-confirmation"
	scc "talent-intake/internal/workers/intake/sync-crm-contact"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	if err := config.ValidateForWorkers(cfg); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	obs := observability.New("worker-manager", log)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
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

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := esClient.Ping(ctx); err != nil {
			return err
		}
		return esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.ApplicationIndex, platform.ApplicationMapping)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init External Service Clients ---
	awsCfg, err := awsx.LoadConfig(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	records := platform.NewPostgresRecords(pg.DB, log)
	searchIndex := platform.NewSearchIndex(esClient.Client, cfg.Database.Elasticsearch.ApplicationIndex, log)
	crm := zoho.NewCRMClient(cfg.Integrations.Zoho.APIKey, cfg.Integrations.Zoho.AuthToken)

	zapLog.Info("All external service clients initialized")

	// --- Register workers ---
	var registrations []camunda.Registration

	if config.IsWorkerEnabled(cfg, ia.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, ia.TaskType)
		hcfg := ia.DefaultConfig()
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		mustValidate(zapLog, ia.TaskType, hcfg.Validate())
		registrations = append(registrations, camunda.Registration{
			TaskType: ia.TaskType,
			Config:   wcfg,
			Handler:  ia.NewHandler(hcfg, records, searchIndex, obs, log),
		})
	}

	if config.IsWorkerEnabled(cfg, sc.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, sc.TaskType)
		hcfg := sc.DefaultConfig()
		hcfg.Enabled = cfg.Integrations.AWS.SES.Enabled
		hcfg.FromEmail = cfg.Integrations.AWS.SES.FromEmail
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		mustValidate(zapLog, sc.TaskType, hcfg.Validate())
		registrations = append(registrations, camunda.Registration{
			TaskType: sc.TaskType,
			Config:   wcfg,
			Handler:  sc.NewHandler(hcfg, awsx.NewSESClient(awsCfg), obs, log),
		})
	}

	if config.IsWorkerEnabled(cfg, nr.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, nr.TaskType)
		hcfg := nr.DefaultConfig()
		hcfg.Enabled = cfg.Integrations.AWS.SNS.Enabled
		hcfg.TopicARN = cfg.Integrations.AWS.SNS.RecruiterTopicARN
		hcfg.DashboardURL = cfg.Dashboard.PublicURL
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		mustValidate(zapLog, nr.TaskType, hcfg.Validate())
		registrations = append(registrations, camunda.Registration{
			TaskType: nr.TaskType,
			Config:   wcfg,
			Handler:  nr.NewHandler(hcfg, awsx.NewSNSClient(awsCfg), obs, log),
		})
	}

	if config.IsWorkerEnabled(cfg, scc.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, scc.TaskType)
		hcfg := scc.DefaultConfig()
		hcfg.Enabled = cfg.Integrations.Zoho.AuthToken != ""
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		mustValidate(zapLog, scc.TaskType, hcfg.Validate())
		registrations = append(registrations, camunda.Registration{
			TaskType: scc.TaskType,
			Config:   wcfg,
			Handler:  scc.NewHandler(hcfg, records, crm, obs, log),
		})
	}

	workers := make([]worker.JobWorker, 0, len(registrations))
	for _, reg := range registrations {
		workers = append(workers, camunda.OpenWorker(zeebe.GetClient(), reg, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	metricsAddr := os.Getenv("WORKER_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9091"
	}
	metricsServer := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", metricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range workers {
		w.Close()
	}
	for _, w := range workers {
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func mustValidate(log *zap.Logger, taskType string, err error) {
	if err != nil {
		log.Fatal("invalid worker settings", zap.String("taskType", taskType), zap.Error(err))
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
