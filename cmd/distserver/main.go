// Package main runs the dice distribution gRPC service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/dicedist/internal/config"
	"github.com/cory-johannsen/dicedist/internal/dice"
	"github.com/cory-johannsen/dicedist/internal/distserver"
	"github.com/cory-johannsen/dicedist/internal/observability"
	"github.com/cory-johannsen/dicedist/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	builder := dice.NewBuilder(dice.Limits{
		MaxDice:     cfg.Limits.MaxDice,
		MaxSides:    cfg.Limits.MaxSides,
		MaxOutcomes: cfg.Limits.MaxOutcomes,
	}, logger)

	grpcServer := grpc.NewServer()
	distserver.RegisterDistributionServer(grpcServer, distserver.NewService(builder, logger))

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.Server.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
			}
			logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			grpcServer.GracefulStop()
		},
	})

	logger.Info("distribution server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.Server.Addr()),
		zap.Int("max_dice", cfg.Limits.MaxDice),
		zap.Int("max_sides", cfg.Limits.MaxSides),
		zap.Int("max_outcomes", cfg.Limits.MaxOutcomes),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
