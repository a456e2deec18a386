package v1

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/clock"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/service"
	"github.com/convowin/convowin/internal/types"
	"github.com/gin-gonic/gin"
)

const maxRateCardFileSize = 10 * 1024 * 1024

type RateCardHandler struct {
	rateCardService service.RateCardService
	clock           clock.Clock
	logger          *logger.Logger
}

func NewRateCardHandler(rateCardService service.RateCardService, clk clock.Clock, logger *logger.Logger) *RateCardHandler {
	return &RateCardHandler{
		rateCardService: rateCardService,
		clock:           clk,
		logger:          logger,
	}
}

// UpsertEntry godoc
// @Summary Create or update a rate card entry
// @Description Entries are keyed on market, category, tier start and effective date
// @Tags RateCards
// @Accept json
// @Produce json
// @Param request body dto.UpsertRateCardEntryRequest true "Rate card entry"
// @Success 200 {object} dto.RateCardEntryResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /rate-cards [put]
func (h *RateCardHandler) UpsertEntry(c *gin.Context) {
	var req dto.UpsertRateCardEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.rateCardService.UpsertEntry(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListEntries godoc
// @Summary List rate card entries
// @Tags RateCards
// @Produce json
// @Param filter query dto.ListRateCardRequest false "Filter"
// @Success 200 {object} dto.ListResponse[ratecard.Entry]
// @Failure 400 {object} ierr.ErrorResponse
// @Router /rate-cards [get]
func (h *RateCardHandler) ListEntries(c *gin.Context) {
	var req dto.ListRateCardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.rateCardService.ListEntries(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetEffectiveRate godoc
// @Summary Look up the rate that applies to a market, category and monthly volume
// @Tags RateCards
// @Produce json
// @Param market query string true "Market or region"
// @Param category query string true "Message category"
// @Param volume query int false "Monthly conversation volume"
// @Param as_of query string false "Date, YYYY-MM-DD"
// @Success 200 {object} dto.RateCardEntryResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /rate-cards/effective [get]
func (h *RateCardHandler) GetEffectiveRate(c *gin.Context) {
	var req dto.EffectiveRateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	asOf := h.clock.Now()
	if req.AsOf != "" {
		// already validated
		asOf, _ = types.ParseDate(req.AsOf)
	}

	var volume uint64 = 1
	if req.Volume != nil {
		volume = *req.Volume
	}

	entry, err := h.rateCardService.FindEffectiveRate(c.Request.Context(), req.Market, req.Category, volume, asOf)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.RateCardEntryResponse{Entry: entry})
}

// UploadBaseRates godoc
// @Summary Bulk upload flat rates
// @Description CSV with market, currency, marketing, utility and authentication columns, country_code optional
// @Tags RateCards
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param effective_date formData string true "Date, YYYY-MM-DD"
// @Success 200 {object} dto.RateCardUploadResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /rate-cards/upload/base [post]
func (h *RateCardHandler) UploadBaseRates(c *gin.Context) {
	h.upload(c, h.rateCardService.UploadBaseRates)
}

// UploadVolumeTiers godoc
// @Summary Bulk upload volume tiers
// @Description CSV with market, currency, category, from, to and rate columns, an empty "to" leaves the tier open ended
// @Tags RateCards
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param effective_date formData string true "Date, YYYY-MM-DD"
// @Success 200 {object} dto.RateCardUploadResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /rate-cards/upload/tiers [post]
func (h *RateCardHandler) UploadVolumeTiers(c *gin.Context) {
	h.upload(c, h.rateCardService.UploadVolumeTiers)
}

type uploadFunc func(ctx context.Context, content []byte, effectiveDate time.Time) (*dto.RateCardUploadResponse, error)

func (h *RateCardHandler) upload(c *gin.Context, fn uploadFunc) {
	var req dto.RateCardUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	content, err := readUploadedFile(c)
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := fn(c.Request.Context(), content, req.EffectiveDateValue())
	if err != nil {
		h.logger.Errorw("rate card upload failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func readUploadedFile(c *gin.Context) ([]byte, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("A CSV file is required in the \"file\" form field").
			Mark(ierr.ErrValidation)
	}
	defer file.Close()

	if header.Size > maxRateCardFileSize {
		return nil, ierr.NewError("file too large").
			WithHintf("The file must be smaller than %d MB", maxRateCardFileSize/(1024*1024)).
			Mark(ierr.ErrValidation)
	}

	content, err := io.ReadAll(io.LimitReader(file, maxRateCardFileSize))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not read the uploaded file").
			Mark(ierr.ErrValidation)
	}
	return content, nil
}
