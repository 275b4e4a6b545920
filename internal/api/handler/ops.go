package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/switchbackmaps/switchback/internal/api/models"
	"github.com/switchbackmaps/switchback/internal/api/response"
	"github.com/switchbackmaps/switchback/internal/engine"
	"github.com/switchbackmaps/switchback/internal/provider/resilience"
)

// healthProbeTimeout bounds each provider health probe during a status check.
const healthProbeTimeout = 2 * time.Second

// Pinger verifies a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker is an external provider that can report its health.
type HealthChecker interface {
	Name() string
	CheckHealth(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	providers []HealthChecker
	registry  *resilience.Registry
	builders  *engine.Manager
}

// OpsHandlerConfig holds dependencies for the OpsHandler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	DB        Pinger // optional
	Providers []HealthChecker
	Registry  *resilience.Registry
	Builders  *engine.Manager
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		db:        cfg.DB,
		providers: cfg.Providers,
		registry:  cfg.Registry,
		builders:  cfg.Builders,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.builders != nil {
		count := h.builders.SessionCount()
		detail := "live route builders: " + strconv.Itoa(count)
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "route-builders",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}

	if h.db != nil {
		dbStatus := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		if err := h.db.Ping(r.Context()); err != nil {
			dbStatus.Status = models.HealthStatusFail
			msg := err.Error()
			dbStatus.Detail = &msg
			status.Status = models.HealthStatusDegraded
		}
		status.Subsystems = append(status.Subsystems, dbStatus)
	}

	for _, provider := range h.providers {
		status.Providers = append(status.Providers, h.probeProvider(r.Context(), provider))
	}

	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
			break
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// probeProvider checks one provider, merging circuit breaker state from
// the registry with a live health probe.
func (h *OpsHandler) probeProvider(ctx context.Context, provider HealthChecker) models.ProviderStatus {
	result := models.ProviderStatus{
		Provider: provider.Name(),
		Status:   models.HealthStatusOK,
	}

	if h.registry != nil {
		if health := h.registry.GetHealth(provider.Name()); health != nil {
			if health.LastSuccessAt != nil {
				ts := models.Timestamp(*health.LastSuccessAt)
				result.LastSuccessAt = &ts
			}
			if health.LastFailureAt != nil {
				ts := models.Timestamp(*health.LastFailureAt)
				result.LastFailureAt = &ts
			}
			switch {
			case health.IsUnhealthy():
				result.Status = models.HealthStatusFail
			case health.IsDegraded():
				result.Status = models.HealthStatusDegraded
			}
			if health.LastError != "" {
				msg := health.LastError
				result.Message = &msg
			}
		}
	}

	// A live probe catches providers that have not been called recently.
	if result.Status == models.HealthStatusOK {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()
		if err := provider.CheckHealth(probeCtx); err != nil {
			result.Status = models.HealthStatusDegraded
			msg := err.Error()
			result.Message = &msg
		}
	}

	return result
}
