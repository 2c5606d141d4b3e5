package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/demariano/php-suite-sub002/controller"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/gin-gonic/gin"
)

var config *models.Config

func Init() {
	var err error
	config, err = utils.GetConfig()
	if err != nil {
		log.Fatal(err)
	}
}

// @title Catalog Data Service API
// @version 1.0
// @description Single-table DynamoDB access layer for users, categories and products.
// @description List endpoints return {data, nextCursorPointer, prevCursorPointer}; pass a cursor back
// @description as cursorPointer with direction=next or direction=prev to move between pages.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1
func main() {
	Init()
	appLogger := logger.NewLogger(config.LogLevel, config.LogFormat)
	appLogger.Debugf("Config loaded: %s", utils.PrintPrettyJSON(redacted(config)))

	if config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	c, err := controller.NewController(config, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize application: %v", err)
	}

	if err := c.Start(); err != nil {
		appLogger.Fatalf("Failed to start provisioning worker: %v", err)
	}
	if config.WorkerRunOnce {
		appLogger.Info("Provisioning finished, exiting")
		if err := c.Shutdown(context.Background()); err != nil {
			appLogger.Errorf("Shutdown failed: %v", err)
		}
		return
	}

	go func() {
		if err := c.ListenAndServe(); err != nil {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		appLogger.Errorf("Shutdown failed: %v", err)
	}
}

// redacted hides credentials before the config is logged
func redacted(cfg *models.Config) models.Config {
	out := *cfg
	if out.AWSSecretAccessKey != "" {
		out.AWSSecretAccessKey = "***"
	}
	if out.CursorSecret != "" {
		out.CursorSecret = "***"
	}
	return out
}
