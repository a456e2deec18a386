package v1

import (
	"net/http"

	"github.com/convowin/convowin/internal/api/dto"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/service"
	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService service.BillingService
	logger         *logger.Logger
}

func NewBillingHandler(billingService service.BillingService, logger *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// ChargeMessage godoc
// @Summary Charge an outbound message
// @Description Prices one outbound message. The Meta cost is only charged when the message opens a new conversation window.
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.ChargeMessageRequest true "Message"
// @Success 200 {object} dto.ChargeMessageResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /messages/charge [post]
func (h *BillingHandler) ChargeMessage(c *gin.Context) {
	var req dto.ChargeMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billingService.ChargeMessage(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
