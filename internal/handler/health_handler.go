package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scholar-ledger-api/internal/config"
	"github.com/noah-isme/scholar-ledger-api/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

// HealthDependency is a backing store the engine needs to serve report cards
// and balances, such as the database or the ranking cache.
type HealthDependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	School       string            `json:"school,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck pings every dependency and reports 503 with status "degraded"
// when any of them fails.
func HealthCheck(cfg config.Config, dependencies ...HealthDependency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			School:      cfg.SchoolName,
		}

		if len(dependencies) > 0 {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
			defer cancel()

			payload.Dependencies = make(map[string]string, len(dependencies))
			for _, dep := range dependencies {
				if err := dep.Ping(ctx); err != nil {
					payload.Dependencies[dep.Name] = err.Error()
					payload.Status = "degraded"
					continue
				}
				payload.Dependencies[dep.Name] = "ok"
			}
		}

		if payload.Status != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    payload,
				Message: "service degraded",
			})
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
