package http

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"go.uber.org/fx"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/usecase"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/infrastructure/kafka"
)

// SessionCounter reports how many Telegram sessions are connected
type SessionCounter interface {
	ActiveCount() int
}

// AuditChecker reports audit stream connectivity
type AuditChecker interface {
	Enabled() bool
	IsHealthy() bool
}

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// HealthHandler handles HTTP health check requests
type HealthHandler struct {
	sessions SessionCounter
	audit    AuditChecker
	logger   zerolog.Logger
}

// HealthHandlerParams defines parameters for HealthHandler with optional dependencies
type HealthHandlerParams struct {
	fx.In

	Registry  *usecase.Registry
	Publisher *kafka.AuditPublisher `optional:"true"`
	Logger    zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(params HealthHandlerParams) *HealthHandler {
	h := &HealthHandler{
		sessions: params.Registry,
		logger:   params.Logger,
	}
	// a nil concrete pointer must not become a non-nil interface
	if params.Publisher != nil {
		h.audit = params.Publisher
	}
	return h
}

// Handle handles the health check request for fasthttp
func (h *HealthHandler) Handle(ctx *fasthttp.RequestCtx) {
	components := h.checkComponents()
	status := h.determineOverallStatus(components)

	response := HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: components,
	}

	statusCode := fasthttp.StatusOK
	if status == HealthStatusUnhealthy {
		statusCode = fasthttp.StatusServiceUnavailable
	}

	logEvent := h.logger.Debug()
	if status == HealthStatusUnhealthy {
		logEvent = h.logger.Warn()
	} else if status == HealthStatusDegraded {
		logEvent = h.logger.Info()
	}
	logEvent.
		Str("status", string(status)).
		Int("status_code", statusCode).
		Interface("components", components).
		Msg("Health check completed")

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)

	body, err := json.Marshal(response)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode health check response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetBody(body)
}

func (h *HealthHandler) checkComponents() []ComponentHealth {
	components := make([]ComponentHealth, 0, 2)

	// Check connected sessions
	sessionCount := h.sessions.ActiveCount()
	sessionsHealthy := sessionCount > 0
	sessionsMsg := ""
	if !sessionsHealthy {
		sessionsMsg = "No active Telegram sessions connected"
	}

	components = append(components, ComponentHealth{
		Name:    "telegram_sessions",
		Healthy: sessionsHealthy,
		Message: sessionsMsg,
	})

	// The audit stream only counts when Kafka is configured
	if h.audit != nil && h.audit.Enabled() {
		auditHealthy := h.audit.IsHealthy()
		auditMsg := ""
		if !auditHealthy {
			auditMsg = "Audit publisher is not healthy"
		}

		components = append(components, ComponentHealth{
			Name:    "audit_publisher",
			Healthy: auditHealthy,
			Message: auditMsg,
		})
	}

	return components
}

// determineOverallStatus determines overall health status based on component health
func (h *HealthHandler) determineOverallStatus(components []ComponentHealth) HealthStatus {
	allHealthy := true
	anyHealthy := false

	for _, component := range components {
		if !component.Healthy {
			allHealthy = false
		} else {
			anyHealthy = true
		}
	}

	if allHealthy {
		return HealthStatusHealthy
	} else if anyHealthy {
		return HealthStatusDegraded
	}

	return HealthStatusUnhealthy
}
