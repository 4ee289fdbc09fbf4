package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	billingapp "github.com/hms/pharmacy/internal/application/billing"
	catalogapp "github.com/hms/pharmacy/internal/application/catalog"
	inventoryapp "github.com/hms/pharmacy/internal/application/inventory"
	"github.com/hms/pharmacy/internal/infrastructure/config"
	"github.com/hms/pharmacy/internal/infrastructure/event"
	"github.com/hms/pharmacy/internal/infrastructure/logger"
	"github.com/hms/pharmacy/internal/infrastructure/persistence"
	"github.com/hms/pharmacy/internal/interfaces/http/handler"
	"github.com/hms/pharmacy/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting pharmacy backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	// Repositories
	medicineRepo := persistence.NewGormMedicineRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	stockItemRepo := persistence.NewGormStockItemRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	alertRepo := persistence.NewGormAlertRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)

	stockScope := persistence.NewGormStockTransactionScope(db.DB)
	billingScope := persistence.NewGormBillingTransactionScope(db.DB)

	// Application services
	medicineService := catalogapp.NewMedicineService(medicineRepo)
	stockService := inventoryapp.NewStockService(stockScope, medicineRepo, batchRepo, stockItemRepo, transactionRepo, alertRepo)
	stockService.SetExpiryWarningDays(cfg.Pharmacy.ExpiryWarningDays)
	stockService.SetMaxRetries(cfg.Pharmacy.MaxConflictRetries)
	billingService := billingapp.NewBillingService(billingScope, saleRepo)
	billingService.SetMaxRetries(cfg.Pharmacy.MaxConflictRetries)

	// Event fan-out
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("error stopping event bus", zap.Error(err))
		}
	}()
	stockService.SetEventPublisher(eventBus)
	billingService.SetEventPublisher(eventBus)

	streamHandler := handler.NewEventStreamHandler(log,
		handler.WithStreamHeartbeat(cfg.Event.HeartbeatInterval),
		handler.WithStreamBufferSize(cfg.Event.BufferSize),
	)
	eventBus.Subscribe(streamHandler)
	if err := streamHandler.Start(); err != nil {
		log.Fatal("failed to start event stream handler", zap.Error(err))
	}
	defer streamHandler.Stop()

	// Periodic expiry maintenance
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	if cfg.Pharmacy.SweepEnabled {
		go runExpirySweep(sweepCtx, stockService, cfg.Pharmacy.SweepInterval, log)
		log.Info("expiry sweep scheduled", zap.Duration("interval", cfg.Pharmacy.SweepInterval))
	}

	// HTTP
	engine, err := router.NewEngine(cfg, log)
	if err != nil {
		log.Fatal("failed to build http engine", zap.Error(err))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewMedicineHandler(medicineService))
	r.Register(handler.NewStockHandler(stockService))
	r.Register(handler.NewBillingHandler(billingService))
	r.Register(streamHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// runExpirySweep periodically expires overdue batches and raises expiry
// warnings for the configured horizon.
func runExpirySweep(ctx context.Context, stockService *inventoryapp.StockService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := stockService.SweepExpired(ctx, "system")
			if err != nil {
				log.Error("expiry sweep failed", zap.Error(err))
			} else if expired > 0 {
				log.Info("expired batches swept", zap.Int("count", expired))
			}

			warned, err := stockService.EvaluateExpiryWarnings(ctx)
			if err != nil {
				log.Error("expiry warning evaluation failed", zap.Error(err))
			} else if warned > 0 {
				log.Info("expiry warnings raised", zap.Int("count", warned))
			}
		}
	}
}
