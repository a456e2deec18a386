package v1

import (
	"net/http"

	"github.com/convowin/convowin/internal/api/dto"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/service"
	"github.com/gin-gonic/gin"
)

type BillingPlanHandler struct {
	billingPlanService service.BillingPlanService
	logger             *logger.Logger
}

func NewBillingPlanHandler(billingPlanService service.BillingPlanService, logger *logger.Logger) *BillingPlanHandler {
	return &BillingPlanHandler{
		billingPlanService: billingPlanService,
		logger:             logger,
	}
}

// UpsertBillingPlan godoc
// @Summary Create or update a tenant's billing plan
// @Description Sets limits, platform fee and overage prices. Usage counters are left untouched.
// @Tags Tenants
// @Accept json
// @Produce json
// @Param tenant_id path string true "Tenant ID"
// @Param request body dto.UpsertBillingPlanRequest true "Billing plan terms"
// @Success 200 {object} dto.BillingPlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /tenants/{tenant_id}/billing-plan [put]
func (h *BillingPlanHandler) UpsertBillingPlan(c *gin.Context) {
	var req dto.UpsertBillingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billingPlanService.UpsertBillingPlan(c.Request.Context(), c.Param("tenant_id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBillingPlan godoc
// @Summary Get a tenant's billing plan
// @Tags Tenants
// @Produce json
// @Param tenant_id path string true "Tenant ID"
// @Success 200 {object} dto.BillingPlanResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tenants/{tenant_id}/billing-plan [get]
func (h *BillingPlanHandler) GetBillingPlan(c *gin.Context) {
	resp, err := h.billingPlanService.GetBillingPlan(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
