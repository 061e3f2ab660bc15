package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wisefido-room-locator/internal/config"
	"wisefido-room-locator/internal/logger"
	"wisefido-room-locator/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-room-locator")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting wisefido-room-locator service",
		zap.String("version", "1.0.0"),
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	// 创建服务
	locatorService, err := service.NewLocatorService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create locator service", zap.Error(err))
	}

	// 启动服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := locatorService.Start(ctx); err != nil {
		zapLogger.Fatal("Failed to start locator service", zap.Error(err))
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭
	cancel()
	if err := locatorService.Stop(context.Background()); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
