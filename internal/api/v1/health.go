package v1

import (
	"net/http"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/clock"
	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/logger"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	mode   string
	clock  clock.Clock
	logger *logger.Logger
}

func NewHealthHandler(cfg *config.Configuration, clk clock.Clock, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		mode:   string(cfg.Deployment.Mode),
		clock:  clk,
		logger: logger,
	}
}

// @Summary Health check
// @Description Liveness probe. Also reports the deployment mode and the engine clock.
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status: "ok",
		Mode:   h.mode,
		Time:   h.clock.Now().UTC(),
	})
}
