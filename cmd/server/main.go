package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"admin_backoffice/internal/logger"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Logger tự đọc biến môi trường LOG_* để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

func main() {
	initLogger()
	defer logger.Shutdown()

	initValidator()
	cfg := initConfig()
	InitRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetAppLogger()
	server, err := InitServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	defer server.Close()

	if err := InitDefaultData(ctx, server); err != nil {
		log.Fatalf("Failed to initialize default data: %v", err)
	}

	app, err := InitFiberApp(server)
	if err != nil {
		log.Fatalf("Failed to initialize fiber app: %v", err)
	}

	// Tắt server khi nhận tín hiệu dừng
	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		timeout := time.Duration(cfg.ShutdownTimeout) * time.Second
		if err := app.ShutdownWithTimeout(timeout); err != nil {
			log.WithError(err).Error("Error while shutting down server")
		}
	}()

	log.WithFields(map[string]interface{}{
		"address":  cfg.Address,
		"protocol": "HTTP",
	}).Info("Starting server with HTTP")

	if err := app.Listen(cfg.Address, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.WithError(err).Error("Error in Fiber Listen")
	}
	log.Info("Server stopped")
}
