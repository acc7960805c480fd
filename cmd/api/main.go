package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/analytics"
	"github.com/01moynul/taptosell-settlement/internal/commission"
	"github.com/01moynul/taptosell-settlement/internal/config"
	"github.com/01moynul/taptosell-settlement/internal/database"
	"github.com/01moynul/taptosell-settlement/internal/fees"
	"github.com/01moynul/taptosell-settlement/internal/handlers"
	"github.com/01moynul/taptosell-settlement/internal/invoicing"
	"github.com/01moynul/taptosell-settlement/internal/lock"
	"github.com/01moynul/taptosell-settlement/internal/notify"
	"github.com/01moynul/taptosell-settlement/internal/orders"
	"github.com/01moynul/taptosell-settlement/internal/repository/mysql"
	"github.com/01moynul/taptosell-settlement/internal/routes"
	"github.com/01moynul/taptosell-settlement/internal/scheduler"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB(ctx, cfg.Database.PrimaryDSN, logger)
	if err != nil {
		logger.Fatal("Failed to connect to primary database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	repos := mysql.NewRepositories(db, logger)

	// 2. --- Redis (optional) ---
	var rdb *redis.Client
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		locker = lock.NewRedisLocker(rdb, logger)
		logger.Info("Using redis for invoice locks and notification fan-out", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.Warn("REDIS_ADDR not set, invoice locks are process-local")
	}

	// 3. --- Notification Channels ---
	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.AWS.SESEnabled() {
		ses, err := notify.NewSESMailer(ctx, notify.SESConfig{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			SenderAddress:   cfg.AWS.SenderAddress,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize SES mailer", zap.Error(err))
		}
		mailer = ses
	} else {
		logger.Warn("SES not configured, emails are only logged")
	}

	var messenger notify.Messenger
	if cfg.Telegram.BotToken != "" {
		messenger = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.RatePerSecond, logger)
	}

	dispatcher := notify.NewDispatcher(
		notify.NewStoreNotifier(repos.Notification, rdb, logger),
		messenger,
		mailer,
		cfg.NotifyTimeout,
		logger,
	)

	// 4. --- Services ---
	ledger := commission.NewLedger(repos.Commission, logger)
	resolver := fees.NewResolver(repos.SellerSettings, repos.PlatformSettings, cfg.Settlement.DefaultPlatformFeePercent, logger)
	manager := invoicing.NewManager(repos, dispatcher, cfg.Settlement.Location, logger)
	engine := invoicing.NewEngine(repos, ledger, resolver, locker, dispatcher, invoicing.Options{
		Location:   cfg.Settlement.Location,
		DueLagDays: cfg.Settlement.InvoiceDueLagDays,
	}, logger)

	app := &handlers.Handlers{
		Orders:    orders.NewService(repos, ledger, dispatcher, manager, logger),
		Engine:    engine,
		Invoices:  manager,
		Fees:      resolver,
		Analytics: analytics.NewService(repos),
		Repos:     repos,
		Location:  cfg.Settlement.Location,
		Logger:    logger,
	}

	// 5. --- Background Workers (Cron) ---
	sched, err := scheduler.New(scheduler.NewJobs(engine, manager), scheduler.Config{
		WeeklyInvoices: cfg.Schedule.WeeklyInvoices,
		OverdueSweep:   cfg.Schedule.OverdueSweep,
		Location:       cfg.Settlement.Location,
		JobTimeout:     30 * time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to configure scheduler", zap.Error(err))
	}
	sched.Start()

	// --- Router Setup ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(app, routes.Options{
		JWTSecret:     []byte(cfg.JWTSecret),
		AllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	go func() {
		logger.Info("Starting settlement API server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	// let in-flight notifications finish before the pools close
	dispatcher.Wait()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
