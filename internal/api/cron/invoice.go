package cron

import (
	"net/http"
	"time"

	"github.com/convowin/convowin/internal/api/dto"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/service"
	"github.com/convowin/convowin/internal/types"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice related cron jobs
type InvoiceHandler struct {
	jobService service.ScheduledJobService
	logger     *logger.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(jobService service.ScheduledJobService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		jobService: jobService,
		logger:     logger,
	}
}

// GenerateInvoices godoc
// @Summary Generate invoices for every tenant
// @Description Invoices the given billing period, the previous month when the body is empty. Tenants already invoiced are skipped.
// @Tags Cron
// @Accept json
// @Produce json
// @Param request body dto.GenerateInvoicesRequest false "Billing period"
// @Success 200 {object} dto.JobResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /cron/invoices/generate [post]
func (h *InvoiceHandler) GenerateInvoices(c *gin.Context) {
	h.logger.Infow("starting invoice generation cron job", "time", time.Now().UTC().Format(time.RFC3339))

	var req dto.GenerateInvoicesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Errorw("failed to parse request parameters", "error", err)
			c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
			return
		}
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	var period *types.BillingPeriod
	if req.BillingPeriod != "" {
		p, err := types.ParseBillingPeriod(req.BillingPeriod)
		if err != nil {
			c.Error(err)
			return
		}
		period = &p
	}

	resp, err := h.jobService.RunInvoiceGeneration(c.Request.Context(), period)
	if err != nil {
		h.logger.Errorw("invoice generation failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MarkOverdueInvoices godoc
// @Summary Mark pending invoices past their due date as overdue
// @Tags Cron
// @Produce json
// @Success 200 {object} dto.JobResponse
// @Router /cron/invoices/mark-overdue [post]
func (h *InvoiceHandler) MarkOverdueInvoices(c *gin.Context) {
	h.logger.Infow("starting overdue invoice cron job", "time", time.Now().UTC().Format(time.RFC3339))

	resp, err := h.jobService.RunOverdueSweep(c.Request.Context())
	if err != nil {
		h.logger.Errorw("overdue invoice sweep failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
