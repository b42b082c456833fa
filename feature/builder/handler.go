package builder

import (
	"errors"

	"fixture-builder/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for fixture builds.
type Handler struct {
	builder  *Builder
	populate PopulateFunc
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler building with populate.
func NewHandler(b *Builder, populate PopulateFunc, logger *zap.Logger) *Handler {
	return &Handler{builder: b, populate: populate, logger: logger}
}

// RegisterRoutes registers the fixture routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/fixtures")
	group.Get("/status", h.HandleStatus)
	group.Post("/build", h.HandleBuild)
}

// HandleStatus reports whether the fixtures are stale.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	decision, err := h.builder.Status(c.Context())
	if err != nil {
		l.Error("Fixture status check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	changes := make([]string, 0, len(decision.Changes))
	for _, change := range decision.Changes {
		changes = append(changes, change.String())
	}

	return c.JSON(fiber.Map{
		"stale":   decision.Rebuild,
		"reason":  string(decision.Reason),
		"changes": changes,
		"running": h.builder.Running(),
	})
}

// HandleBuild builds the fixtures. With force=true the staleness check is skipped.
func (h *Handler) HandleBuild(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	force := c.Query("force") == "true"

	build := h.builder.Build
	if force {
		build = h.builder.Rebuild
	}

	result, err := build(c.Context(), h.populate)
	if errors.Is(err, ErrBuildInProgress) {
		l.Warn("Fixture build rejected", zap.Error(err))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Fixture build failed", zap.Error(err))
		body := fiber.Map{"error": err.Error()}
		var buildErr *BuildError
		if errors.As(err, &buildErr) {
			body["stage"] = string(buildErr.Stage)
			if buildErr.Table != "" {
				body["table"] = buildErr.Table
			}
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}

	l.Info("Fixture build finished",
		zap.String("build_id", result.BuildID),
		zap.Stringer("state", result.State))

	return c.JSON(fiber.Map{
		"build_id": result.BuildID,
		"state":    result.State.String(),
		"reason":   string(result.Decision.Reason),
		"tables":   result.Tables,
	})
}
