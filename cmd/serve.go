package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cortexbridge/core"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Cortex operations and chat host over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, logger, err := loadRuntime(os.Stdout)
		if err != nil {
			return err
		}
		logger.Info("Starting cortexbridge server")

		server, err := core.NewServer(config, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to create server")
			return err
		}

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.RequestID())
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())
		e.Use(middleware.CORS())

		server.RegisterRoutes(e)

		go func() {
			logger.WithField("port", config.Port).Info("Starting server")
			if err := e.Start(fmt.Sprintf(":%s", config.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Fatal("Failed to start server")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server...")

		// In-flight Cortex calls get this long to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Failed to gracefully shutdown server")
			return err
		}
		logger.Info("Server shutdown complete")
		return nil
	},
}
