package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "invoice-renderer"

// BucketProbe reports whether the document bucket is reachable.
type BucketProbe interface {
	BucketExists(ctx context.Context) (bool, error)
	Bucket() string
}

// Pinger checks a backing connection.
type Pinger interface {
	Ping() error
}

// SystemHandler serves the liveness endpoints
type SystemHandler struct {
	BaseHandler
	bucket BucketProbe
	db     Pinger
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(bucket BucketProbe, db Pinger) *SystemHandler {
	return &SystemHandler{bucket: bucket, db: db}
}

// Root godoc
// @ID           getServiceStatus
// @Summary      Service status
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.ServiceStatusResponse
// @Router       / [get]
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ServiceStatusResponse{Status: "ok", Service: ServiceName})
}

// Healthz godoc
// @ID           getHealthz
// @Summary      Health check
// @Description  Verifies that the document bucket exists and the database answers
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.HealthResponse
// @Failure      500 {object} dto.HealthResponse
// @Router       /healthz [get]
func (h *SystemHandler) Healthz(c *gin.Context) {
	exists, err := h.bucket.BucketExists(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.HealthResponse{OK: false, Error: err.Error()})
		return
	}
	if !exists {
		c.JSON(http.StatusInternalServerError, dto.HealthResponse{
			OK:    false,
			Error: "bucket " + h.bucket.Bucket() + " does not exist",
		})
		return
	}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, dto.HealthResponse{OK: false, Error: "database: " + err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, dto.HealthResponse{OK: true, Bucket: h.bucket.Bucket()})
}
