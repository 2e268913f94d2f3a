package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-ledger/config"
	"sales-ledger/internal/api"
	"sales-ledger/internal/broker"
	"sales-ledger/internal/redisclient"
	"sales-ledger/internal/service"
	"sales-ledger/internal/store/postgres"
	"sales-ledger/internal/util"
	"sales-ledger/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting sales-ledger service")

	tp, err := util.InitTracer("sales-ledger", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	presenter := service.NewCurrencyPresenter(cfg.Currency.Base, cfg.Currency.Rates)

	inventoryService := service.NewInventoryService(db, eventPublisher)
	salesService := service.NewSalesService(db, redisClient, eventPublisher)
	invoiceService := service.NewInvoiceService(db)
	paymentService := service.NewPaymentService(db, eventPublisher)
	reportService := service.NewReportService(db, presenter)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	rollupConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger, cfg.Kafka.ConsumerGroup)
	rollupWorker := worker.NewRollupWorker(rollupConsumer, db, redisClient)
	go func() {
		if err := rollupWorker.Start(workerCtx); err != nil {
			log.Printf("Rollup worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(inventoryService, salesService, invoiceService, paymentService, reportService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	rollupWorker.Stop()

	log.Println("Server exited")
}
