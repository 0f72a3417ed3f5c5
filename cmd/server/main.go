// Package main provides the LINE bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/miulabs/miu-linebot-go/internal/bot"
	"github.com/miulabs/miu-linebot-go/internal/buildinfo"
	"github.com/miulabs/miu-linebot-go/internal/config"
	"github.com/miulabs/miu-linebot-go/internal/dedup"
	"github.com/miulabs/miu-linebot-go/internal/genai"
	"github.com/miulabs/miu-linebot-go/internal/lineclient"
	"github.com/miulabs/miu-linebot-go/internal/logger"
	"github.com/miulabs/miu-linebot-go/internal/maintenance"
	"github.com/miulabs/miu-linebot-go/internal/metrics"
	"github.com/miulabs/miu-linebot-go/internal/quota"
	"github.com/miulabs/miu-linebot-go/internal/r2client"
	"github.com/miulabs/miu-linebot-go/internal/ratelimit"
	"github.com/miulabs/miu-linebot-go/internal/sentry"
	"github.com/miulabs/miu-linebot-go/internal/snapshot"
	"github.com/miulabs/miu-linebot-go/internal/storage"
	"github.com/miulabs/miu-linebot-go/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterstackToken:    cfg.BetterstackToken,
		BetterstackEndpoint: cfg.BetterstackEndpoint,
	})
	log.WithField("version", buildinfo.Version).
		WithField("commit", buildinfo.Commit).
		Info("Starting Miu LINE bot server")

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, continuing without it")
	}

	startupCtx := context.Background()

	// R2 is optional. Without it the bot still works, but generated images
	// keep their short-lived provider URLs and the database has no off-host
	// backup.
	var (
		r2          *r2client.Client
		rehoster    *r2client.Rehoster
		snapshotMgr *snapshot.Manager
	)
	if cfg.R2Enabled() {
		r2, err = r2client.New(startupCtx, r2client.Config{
			Endpoint:    fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			Bucket:      cfg.R2BucketName,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to create R2 client")
		}

		if cfg.R2PublicBaseURL != "" {
			rehoster, err = r2client.NewRehoster(r2, cfg.R2PublicBaseURL)
			if err != nil {
				log.WithError(err).Fatal("Failed to create image rehoster")
			}
			log.Info("Image re-hosting enabled")
		}

		snapshotMgr = snapshot.New(r2, snapshot.Config{
			SnapshotKey: cfg.R2SnapshotPrefix + "miu.db.zst",
			LockKey:     cfg.R2SnapshotPrefix + "backup.lock",
			LockTTL:     10 * time.Minute,
			TempDir:     cfg.DataDir,
		}, log)

		// A fresh host restores last night's backup before opening the DB.
		if err := snapshotMgr.RestoreIfMissing(startupCtx, cfg.SQLitePath()); err != nil {
			log.WithError(err).Fatal("Failed to restore database backup")
		}
	} else {
		log.Info("R2 not configured, image re-hosting and backups disabled")
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	images, err := storage.NewPendingImageStore(cfg.PendingImageDir())
	if err != nil {
		log.WithError(err).Fatal("Failed to create pending image store")
	}

	// Dedup store: Redis when configured, otherwise in-process.
	var dedupStore dedup.Store
	var memoryDedup *dedup.MemoryStore
	if cfg.RedisURL != "" {
		redisStore, err := dedup.NewRedisStore(startupCtx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		dedupStore = redisStore
		log.Info("Redis dedup store connected")
	} else {
		memoryDedup = dedup.NewMemoryStore()
		dedupStore = memoryDedup
		log.Info("In-process dedup store active")
	}
	defer func() { _ = dedupStore.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	openAI, err := genai.NewOpenAIClient(genai.Config{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		ChatModel:       cfg.ChatModel,
		VisionModel:     cfg.VisionModel,
		TranscribeModel: cfg.TranscribeModel,
		ImageModel:      cfg.ImageModel,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create OpenAI client")
	}

	chatProviders := []genai.TextGenerator{openAI}
	if cfg.HasGeminiFallback() {
		gemini, err := genai.NewGeminiChat(startupCtx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.WithError(err).Warn("Failed to create Gemini fallback, chat runs on OpenAI only")
		} else {
			chatProviders = append(chatProviders, gemini)
			log.Info("Gemini chat fallback enabled")
		}
	}

	chatService, err := genai.NewChatService(genai.DefaultRetryConfig(), log, chatProviders...)
	if err != nil {
		log.WithError(err).Fatal("Failed to create chat service")
	}

	line, err := lineclient.New(cfg.LineChannelToken, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create LINE client")
	}

	userLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyConfig{
		MaxTokens:     cfg.Bot.UserRateLimitBurst,
		RefillRate:    cfg.Bot.UserRateLimitRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
	})
	defer userLimiter.Stop()

	botConfig := bot.Config{
		DB:        db,
		Images:    images,
		Chat:      chatService,
		Vision:    openAI,
		Audio:     openAI,
		Painter:   openAI,
		Quota:     quota.New(cfg.FreeDailyLimit),
		Msg:       line,
		Metrics:   m,
		Log:       log,
		UserLimit: userLimiter,
		LLMLimit:  ratelimit.New(cfg.Bot.GlobalRateLimitRPS, cfg.Bot.GlobalRateLimitRPS),
		RichMenus: bot.RichMenus{
			Onboarding: cfg.RichMenuDefaultID,
			Main:       cfg.RichMenuImageID,
		},
		UpgradeURL:        cfg.UpgradeURL,
		HistoryCharBudget: cfg.HistoryCharBudget,
		HistoryMaxStored:  cfg.HistoryMaxStored,
	}
	if rehoster != nil {
		botConfig.Rehost = rehoster
	}

	processor, err := bot.New(botConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bot processor")
	}

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		Processor:     processor,
		Dedup:         dedupStore,
		Metrics:       m,
		Logger:        log,
		DedupTTL:      cfg.DedupTTL,
		MaxBatchSize:  cfg.Bot.MaxEventsPerWebhook,
		EventTimeout:  cfg.Bot.WebhookTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create webhook handler")
	}

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentry.Middleware())
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log, m))

	setupRoutes(router, cfg, webhookHandler, db, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	jobs := startJobs(jobCtx, jobDeps{
		cfg:         cfg,
		db:          db,
		images:      images,
		memoryDedup: memoryDedup,
		snapshots:   snapshotMgr,
		schedule:    newScheduleStore(r2, cfg, log),
		log:         log,
	})

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancelJobs()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Drain in-flight webhook events before closing anything they use.
	if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Timed out waiting for in-flight events")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	jobs.wait(5 * time.Second, log)

	// Final backup so the freshest state survives a redeploy.
	if snapshotMgr != nil {
		backupCtx, backupCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if _, err := snapshotMgr.BackupAsLeader(backupCtx, db); err != nil {
			log.WithError(err).Error("Shutdown backup failed")
		}
		backupCancel()
	}

	sentry.Flush(2 * time.Second)
	if err := log.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Logger shutdown failed")
	}
	log.Info("Server stopped")
}

// newScheduleStore creates the R2-backed job schedule, or nil when R2 is not
// configured (jobs then run purely on local timers).
func newScheduleStore(r2 *r2client.Client, cfg *config.Config, log *logger.Logger) *maintenance.ScheduleStore {
	if r2 == nil {
		return nil
	}
	store, err := maintenance.NewScheduleStore(r2, cfg.R2SnapshotPrefix+"schedule.json", 15*time.Second)
	if err != nil {
		log.WithError(err).Warn("Failed to create schedule store, jobs run on local timers")
		return nil
	}
	return store
}
