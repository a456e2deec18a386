package cron

import (
	"net/http"
	"time"

	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/service"
	"github.com/gin-gonic/gin"
)

// UsageHandler handles usage counter resets triggered by an external scheduler
type UsageHandler struct {
	jobService service.ScheduledJobService
	logger     *logger.Logger
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(jobService service.ScheduledJobService, logger *logger.Logger) *UsageHandler {
	return &UsageHandler{
		jobService: jobService,
		logger:     logger,
	}
}

// ResetDailyUsage godoc
// @Summary Reset daily message counters of every tenant
// @Tags Cron
// @Produce json
// @Success 200 {object} dto.JobResponse
// @Router /cron/usage/daily-reset [post]
func (h *UsageHandler) ResetDailyUsage(c *gin.Context) {
	h.logger.Infow("starting daily usage reset cron job", "time", time.Now().UTC().Format(time.RFC3339))

	resp, err := h.jobService.RunDailyReset(c.Request.Context())
	if err != nil {
		h.logger.Errorw("daily usage reset failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResetMonthlyUsage godoc
// @Summary Roll monthly usage of every tenant into the previous month snapshot
// @Tags Cron
// @Produce json
// @Success 200 {object} dto.JobResponse
// @Router /cron/usage/monthly-reset [post]
func (h *UsageHandler) ResetMonthlyUsage(c *gin.Context) {
	h.logger.Infow("starting monthly usage reset cron job", "time", time.Now().UTC().Format(time.RFC3339))

	resp, err := h.jobService.RunMonthlyReset(c.Request.Context())
	if err != nil {
		h.logger.Errorw("monthly usage reset failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
