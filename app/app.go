package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"reportclaw/api"
	"reportclaw/cache"
	"reportclaw/config"
	"reportclaw/crawler"
	"reportclaw/database"
	"reportclaw/database/reports"
	"reportclaw/digest"
	"reportclaw/notifications"
	"reportclaw/realtime"
)

// App represents the main application
type App struct {
	config *config.Config

	db         *database.Database
	sqldb      *database.SQLDB
	redis      *cache.RedisClient
	reportRepo *database.ReportRepository

	webhookManager *notifications.WebhookManager
	hub            *realtime.Hub
	crawlWorker    *crawler.Crawler
	digestWorker   *digest.Digest
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
	}
}

// Start starts the application
func (a *App) Start() error {
	// 1. Database Connections
	fmt.Println("🗄️  Connecting to database...")

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	// Raw pool for the digest's handwritten SQL
	sqldb, err := database.NewConnection(database.Config{
		Host:     a.config.DatabaseHost,
		Port:     a.config.DatabasePort,
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("sql pool connection failed: %w", err)
	}
	a.sqldb = sqldb

	// 2. Redis Connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Seen-cache and digest watermark degraded.")
	}
	a.redis = redisClient

	// 3. Schema initialization
	a.reportRepo = database.NewReportRepository(a.db)
	if err := a.reportRepo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// 4. Notification + realtime layers
	a.webhookManager = notifications.NewWebhookManager(a.config.WebhookURLs, a.redis)
	if a.webhookManager.Enabled() {
		log.Printf("✅ Webhook notifications ENABLED (%d endpoints)", len(a.config.WebhookURLs))
	} else {
		log.Println("ℹ️  Webhook notifications DISABLED")
	}

	a.hub = realtime.NewHub()
	go a.hub.Run()

	// 5. Background workers
	ingestRepo := reports.NewRepository(a.db)
	a.crawlWorker = crawler.New(a.config.Crawler, ingestRepo, a.redis, a.hub, a.webhookManager)
	go a.crawlWorker.Start()

	a.digestWorker = digest.New(a.sqldb, a.redis, a.webhookManager, a.config.Digest)
	if a.config.Digest.Enabled {
		go a.digestWorker.Start()
	} else {
		log.Println("ℹ️  Daily digest DISABLED")
	}

	// 6. API server
	apiServer := api.NewServer(a.reportRepo, ingestRepo, a.sqldb, a.digestWorker, a.hub, a.crawlWorker)
	go func() {
		if err := apiServer.Start(a.config.APIPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	// 7. Wait for interrupt and perform graceful shutdown
	return a.gracefulShutdown()
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown() error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	shutdownComplete := make(chan struct{})
	go func() {
		var wg sync.WaitGroup

		if a.crawlWorker != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fmt.Println("🕷️  Stopping crawler...")
				a.crawlWorker.Stop()
			}()
		}
		if a.digestWorker != nil && a.config.Digest.Enabled {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fmt.Println("📬 Stopping digest worker...")
				a.digestWorker.Stop()
			}()
		}
		wg.Wait()

		if a.sqldb != nil {
			if err := a.sqldb.Close(); err != nil {
				log.Printf("Error closing sql pool: %v", err)
			}
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-time.After(10 * time.Second):
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}
