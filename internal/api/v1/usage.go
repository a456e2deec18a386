package v1

import (
	"net/http"
	"strconv"

	"github.com/convowin/convowin/internal/api/dto"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/service"
	"github.com/gin-gonic/gin"
)

// Limit checks exposed under /tenants/:tenant_id/limits/:check
const (
	LimitCheckMessages  = "messages"
	LimitCheckTemplates = "templates"
	LimitCheckFlows     = "flows"
	LimitCheckCampaigns = "campaigns"
)

type UsageHandler struct {
	usageService service.UsageService
	logger       *logger.Logger
}

func NewUsageHandler(usageService service.UsageService, logger *logger.Logger) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
		logger:       logger,
	}
}

// GetUsageSummary godoc
// @Summary Current usage of a tenant
// @Description Counters for the running period with an estimate of the invoice they would produce
// @Tags Tenants
// @Produce json
// @Param tenant_id path string true "Tenant ID"
// @Success 200 {object} dto.UsageSummaryResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tenants/{tenant_id}/usage [get]
func (h *UsageHandler) GetUsageSummary(c *gin.Context) {
	resp, err := h.usageService.GetUsageSummary(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckLimit godoc
// @Summary Check a plan limit
// @Description check is one of messages, templates, flows or campaigns. For messages, n is the batch size and defaults to 1.
// @Tags Tenants
// @Produce json
// @Param tenant_id path string true "Tenant ID"
// @Param check path string true "Limit to check"
// @Param n query int false "Messages about to be sent"
// @Success 200 {object} dto.LimitCheckResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tenants/{tenant_id}/limits/{check} [get]
func (h *UsageHandler) CheckLimit(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant_id")
	check := c.Param("check")

	var (
		allowed bool
		err     error
	)

	switch check {
	case LimitCheckMessages:
		n := uint64(1)
		if raw := c.Query("n"); raw != "" {
			n, err = strconv.ParseUint(raw, 10, 64)
			if err != nil || n == 0 {
				c.Error(ierr.NewError("invalid message count").
					WithHint("n must be a positive integer").
					Mark(ierr.ErrValidation))
				return
			}
		}
		allowed, err = h.usageService.CanSendMessages(ctx, tenantID, n)
	case LimitCheckTemplates:
		allowed, err = h.usageService.CanCreateTemplate(ctx, tenantID)
	case LimitCheckFlows:
		allowed, err = h.usageService.CanCreateFlow(ctx, tenantID)
	case LimitCheckCampaigns:
		allowed, err = h.usageService.CanExecuteCampaign(ctx, tenantID)
	default:
		c.Error(ierr.NewError("unknown limit check").
			WithHintf("Unknown limit %q", check).
			WithReportableDetails(map[string]any{
				"allowed": []string{LimitCheckMessages, LimitCheckTemplates, LimitCheckFlows, LimitCheckCampaigns},
			}).
			Mark(ierr.ErrValidation))
		return
	}

	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.LimitCheckResponse{
		TenantID: tenantID,
		Check:    check,
		Allowed:  allowed,
	})
}

// SetResources godoc
// @Summary Report a tenant's active templates and flows
// @Tags Tenants
// @Accept json
// @Produce json
// @Param tenant_id path string true "Tenant ID"
// @Param request body dto.SetResourcesRequest true "Resource counts"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tenants/{tenant_id}/resources [put]
func (h *UsageHandler) SetResources(c *gin.Context) {
	var req dto.SetResourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	if err := h.usageService.SetResources(c.Request.Context(), c.Param("tenant_id"), req.ToResources()); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "resources updated"})
}

// RecordCampaign godoc
// @Summary Record executed campaigns
// @Tags Tenants
// @Accept json
// @Produce json
// @Param tenant_id path string true "Tenant ID"
// @Param request body dto.RecordCampaignRequest false "Campaign count, 1 when omitted"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tenants/{tenant_id}/campaigns [post]
func (h *UsageHandler) RecordCampaign(c *gin.Context) {
	req := dto.RecordCampaignRequest{Count: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
			return
		}
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	if err := h.usageService.RecordCampaign(c.Request.Context(), c.Param("tenant_id"), req.Count); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "campaign recorded"})
}
