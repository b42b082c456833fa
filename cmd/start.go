package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"fixture-builder/core/loader"
	"fixture-builder/core/logger"
	"fixture-builder/core/middleware/auth"
	"fixture-builder/core/middleware/rayid"
	"fixture-builder/feature/builder"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fixture status server",
	Long:  `Starts the HTTP server exposing the fixture status and build endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := setup()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer a.logger.Sync()
		logg := a.logger
		zap.ReplaceGlobals(logg)

		addr, err := a.cfg.Server.Addr()
		if err != nil {
			logg.Fatal("Invalid server configuration", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		mgr := loader.NewManager()
		mgr.Register(builder.NewFeature(a.builder, a.populate, logg))

		// RayID first so every log line can be traced
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server",
				zap.String("addr", addr),
				zap.Bool("protected", a.cfg.Server.IsProtected()))
			if err := app.Listen(addr); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
