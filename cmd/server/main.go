package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/fintrack-backend/internal/adapter/grpc"
	"github.com/simaogato/fintrack-backend/internal/adapter/repository/memory"
	"github.com/simaogato/fintrack-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fintrack-backend/internal/config"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/logger"
	"github.com/simaogato/fintrack-backend/internal/usecase/dashboard"
	"github.com/simaogato/fintrack-backend/internal/usecase/investment"
	"github.com/simaogato/fintrack-backend/internal/usecase/ledger"
)

const dbConnectAttempts = 5

func main() {
	// 1. Configuration and logging
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	ctx := logger.ToContext(context.Background(), logger.L)

	// 2. Setup Store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	// 3. Initialize Services (Use Cases)
	ledgerService := ledger.NewLedgerService(store, ledger.Options{
		TouchOnNoopAdjustment: cfg.TouchOnNoopAdjustment,
	})
	investmentService := investment.NewInvestmentService(store)
	dashboardService := dashboard.NewDashboardService(store)

	// 4. Start gRPC Server
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(),
			grpcadapter.RateLimitInterceptor(limiter),
			grpcadapter.AuthInterceptor(cfg.JWTSecret),
		),
	)

	grpcAdapter := grpcadapter.NewServer(ledgerService, investmentService, dashboardService)
	grpcadapter.RegisterLedgerServiceServer(grpcServer, grpcAdapter)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GRPCAddr, err)
	}

	// Start server in a goroutine
	go func() {
		logger.L.Info("gRPC server listening", "addr", cfg.GRPCAddr, "store", cfg.StoreDriver)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, healthServer)
}

// openStore builds the configured store and returns its release function
func openStore(ctx context.Context, cfg *config.Config) (domain.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.L.Warn("using in-memory store, data is lost on shutdown")
		return memory.NewStore(), func() {}, nil
	}

	var db *postgres.DB
	var err error
	// Postgres may still be starting next to us (docker compose)
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err = postgres.NewDB(cfg.DBConnStr)
		if err == nil {
			break
		}
		logger.L.Warn("database not ready", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, nil, err
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, healthServer *health.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.L.Info("Shutting down gracefully", "signal", sig.String())

	healthServer.Shutdown()
	grpcServer.GracefulStop()
	logger.L.Info("gRPC server stopped")
}
