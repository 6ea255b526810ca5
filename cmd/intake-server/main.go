// cmd/intake-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"talent-intake/internal/api"
	"talent-intake/internal/common/auth"
	awsx "talent-intake/internal/common/aws"
	"talent-intake/internal/common/camunda"
	"talent-intake/internal/common/config"
	"talent-intake/internal/common/database"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/sheets"
	"talent-intake/internal/dashboard"
	"talent-intake/internal/intake"
	"talent-intake/internal/platform"
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
			delay *= 2
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
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake server...", zap.String("version", cfg.App.Version), zap.String("environment", cfg.App.Environment))
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL ---
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
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Elasticsearch (optional) ---
	var search api.Searcher
	if cfg.Database.Elasticsearch.GetURL() != "" {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.ApplicationIndex, platform.ApplicationMapping)
		}
		if err != nil {
			zapLog.Warn("search disabled", zap.Error(err))
		} else {
			search = platform.NewSearchIndex(esClient.Client, cfg.Database.Elasticsearch.ApplicationIndex, log)
		}
	}

	// --- S3 ---
	awsCfg, err := awsx.LoadConfig(ctx, cfg.Storage.S3.Region)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	s3Client := awsx.NewS3Client(awsCfg, cfg.Storage.S3.Endpoint, cfg.Storage.S3.UsePathStyle)
	storage := platform.NewS3Storage(s3Client, awsx.NewS3Presigner(s3Client), config.GetDuration(cfg.Storage.S3.UploadTimeout), log)

	// --- Records and sessions ---
	records := platform.NewPostgresRecords(pg.DB, log)
	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)
	sessions := platform.NewSessionManager(rdb.Client, keycloak, records,
		time.Duration(cfg.Auth.Session.TTL)*time.Second, cfg.Auth.Session.EventsChannel, log)

	// --- Follow-up processes (optional) ---
	var submissions intake.SubmissionListener
	var screenings dashboard.ScreeningListener
	if cfg.Camunda.Enabled() {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 5, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Warn("follow-up processes disabled", zap.Error(err))
		} else {
			defer zeebe.Close()
			followups := camunda.NewFollowups(zeebe, cfg.Camunda.IntakeProcessID, cfg.Camunda.ScreeningProcessID, log)
			submissions = followups
			screenings = followups
			zapLog.Info("Zeebe client connected successfully")
		}
	}

	// --- Spreadsheet export (optional) ---
	var sheetWriter dashboard.SheetWriter
	if cfg.Integrations.Sheets.SpreadsheetID != "" {
		client, err := sheets.NewClient(ctx, sheets.Config{CredentialsPath: cfg.Integrations.Sheets.CredentialsPath})
		if err != nil {
			zapLog.Warn("sheets export disabled", zap.Error(err))
		} else {
			sheetWriter = client
		}
	}

	intakeSvc := intake.NewService(
		intake.NewDraftStore(rdb, time.Duration(cfg.Intake.DraftTTL)*time.Second),
		storage, records, submissions,
		intake.Config{Bucket: cfg.Storage.S3.CVBucket, MaxCVBytes: cfg.Intake.MaxCVBytes},
		log,
	)
	board := dashboard.NewBoard(records, screenings, dashboard.BoardConfig{
		CacheTTL: config.GetDuration(cfg.Dashboard.CacheTTL),
		Location: cfg.Dashboard.Location(),
	}, log)

	server := api.NewServer(api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		CVBucket:       cfg.Storage.S3.CVBucket,
		SignedURLTTL:   time.Duration(cfg.Storage.S3.SignedURLTTL) * time.Second,
		MaxCVBytes:     cfg.Intake.MaxCVBytes,
		SpreadsheetID:  cfg.Integrations.Sheets.SpreadsheetID,
		SheetRange:     cfg.Integrations.Sheets.Range,
	}, api.Deps{
		Intake:   intakeSvc,
		Board:    board,
		Sessions: sessions,
		Records:  records,
		CVs:      storage,
		Search:   search,
		Sheets:   sheetWriter,
		Ready: func(ctx context.Context) error {
			if err := pg.Ping(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx)
		},
	}, log)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.Watch(gctx)
	})
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, draining requests...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownGrace))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	intakeSvc.Wait()
	if err != nil {
		zapLog.Error("intake server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Intake server stopped")
}
