package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/application"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/api"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/errors"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
)

// BillHandler handles HTTP requests for billing
type BillHandler struct {
	service *application.BillingService
	logger  *logging.Logger
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(service *application.BillingService, logger *logging.Logger) *BillHandler {
	return &BillHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /api/v1/bills
func (h *BillHandler) Create(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req CreateBillRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"bill.items":         len(req.Items),
		"bill.paymentMethod": string(req.PaymentMethod),
	})

	result, err := h.service.Create(c.Request.Context(), req.command(middleware.GetShopkeeperID(c)))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusCreated, result)
}

// List handles GET /api/v1/bills
func (h *BillHandler) List(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var params ListBillsParams
	if appErr := middleware.BindQuery(c, &params); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	dates, err := api.ParseDateRange(c)
	if err != nil {
		responder.RespondWithAppError(errors.ErrValidation("from and to must be RFC3339 or YYYY-MM-DD dates"))
		return
	}

	page := api.ParsePagination(c)
	query := application.ListBillsQuery{
		ShopkeeperID: middleware.GetShopkeeperID(c),
		From:         dates.From,
		To:           dates.To,
		Pagination:   toPagination(page),
	}
	if params.Status != "" {
		query.Status = &params.Status
	}
	if params.PaymentStatus != "" {
		query.PaymentStatus = &params.PaymentStatus
	}

	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.RespondPage(c, http.StatusOK, result.Items, page, result.Total)
}

// Stats handles GET /api/v1/bills/stats
func (h *BillHandler) Stats(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	dates, err := api.ParseDateRange(c)
	if err != nil {
		responder.RespondWithAppError(errors.ErrValidation("from and to must be RFC3339 or YYYY-MM-DD dates"))
		return
	}

	result, err := h.service.Stats(c.Request.Context(), middleware.GetShopkeeperID(c), dates.From, dates.To)
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

// Get handles GET /api/v1/bills/:billId
func (h *BillHandler) Get(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	billID := c.Param("billId")
	middleware.AddSpanAttributes(c, map[string]any{"bill.id": billID})

	result, err := h.service.Get(c.Request.Context(), middleware.GetShopkeeperID(c), billID)
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

// UpdateStatus handles PATCH /api/v1/bills/:billId/status
func (h *BillHandler) UpdateStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req UpdateBillStatusRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	billID := c.Param("billId")
	middleware.AddSpanAttributes(c, map[string]any{
		"bill.id":     billID,
		"bill.status": string(req.Status),
	})

	result, err := h.service.UpdateStatus(c.Request.Context(), application.UpdateBillStatusCommand{
		ShopkeeperID:  middleware.GetShopkeeperID(c),
		BillID:        billID,
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}
