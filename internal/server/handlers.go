package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storably/stashsync/internal/observability/metrics"
	"github.com/storably/stashsync/internal/pms"
	"github.com/storably/stashsync/internal/store"
	"go.uber.org/zap"
)

// health serves the rollup verdict. Unhealthy maps to 503 so load balancers
// and uptime probes need no payload inspection.
func (s *Server) health(c *gin.Context) {
	report := s.tracker.Health()
	status := http.StatusOK
	if report.Status != metrics.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (s *Server) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) triggerSync(c *gin.Context) {
	entity := c.Param("entity")

	result, err := s.svc.SyncEntity(c.Request.Context(), entity)
	if err != nil {
		if strings.Contains(err.Error(), "unknown sync entity") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) webhook(c *gin.Context) {
	if s.cfg.PMSWebhookSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook secret not configured"})
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	signature := c.GetHeader(pms.SignatureHeader)
	if err := pms.VerifySignature(s.cfg.PMSWebhookSecret, payload, signature); err != nil {
		s.log.Warn("webhook signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	event, err := pms.ParseWebhook(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := s.svc.ApplyWebhook(c.Request.Context(), event); err != nil {
		if errors.Is(err, pms.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		s.log.Error("webhook apply failed",
			zap.String("event", event.Event),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "apply failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "applied", "event": event.Event})
}

// pmsHealth probes the upstream availability endpoint on demand.
func (s *Server) pmsHealth(c *gin.Context) {
	if err := s.pms.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "unreachable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listFacilities(c *gin.Context) {
	facilities, err := s.store.ListFacilities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"facilities": facilities})
}

func (s *Server) getFacility(c *gin.Context) {
	facility, err := s.store.GetFacility(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "facility not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, facility)
}

func (s *Server) listFacilityTenants(c *gin.Context) {
	facilityID := c.Param("id")
	if _, err := s.store.GetFacility(c.Request.Context(), facilityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "facility not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	tenants, err := s.store.ListTenantsByFacility(c.Request.Context(), facilityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"facility_id": facilityID, "tenants": tenants})
}
