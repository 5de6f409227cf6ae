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

// InventoryHandler handles HTTP requests for stock movements and reports
type InventoryHandler struct {
	ledger      *application.LedgerService
	adjustments *application.AdjustmentService
	reports     *application.ReportingService
	logger      *logging.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(
	ledger *application.LedgerService,
	adjustments *application.AdjustmentService,
	reports *application.ReportingService,
	logger *logging.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		ledger:      ledger,
		adjustments: adjustments,
		reports:     reports,
		logger:      logger,
	}
}

// RecordMovement handles POST /api/v1/inventory/movements
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req RecordMovementRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"product.id":        req.ProductID,
		"movement.type":     string(req.Type),
		"movement.quantity": req.Quantity,
	})

	result, err := h.ledger.RecordMovement(c.Request.Context(), req.command(middleware.GetShopkeeperID(c)))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusCreated, result)
}

// Adjust handles POST /api/v1/inventory/adjustments
func (h *InventoryHandler) Adjust(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req AdjustStockRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"product.id":          req.ProductID,
		"adjustment.mode":     string(req.Mode),
		"adjustment.quantity": req.Quantity,
	})

	result, err := h.adjustments.Adjust(c.Request.Context(), application.AdjustStockCommand{
		ShopkeeperID: middleware.GetShopkeeperID(c),
		ProductID:    req.ProductID,
		Mode:         req.Mode,
		Quantity:     req.Quantity,
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

// History handles GET /api/v1/inventory/ledger
func (h *InventoryHandler) History(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var params LedgerHistoryParams
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
	query := application.LedgerHistoryQuery{
		ShopkeeperID: middleware.GetShopkeeperID(c),
		From:         dates.From,
		To:           dates.To,
		Pagination:   toPagination(page),
	}
	if params.ProductID != "" {
		query.ProductID = &params.ProductID
	}
	if params.Type != "" {
		query.Type = &params.Type
	}

	result, err := h.ledger.History(c.Request.Context(), query)
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.RespondPage(c, http.StatusOK, result.Items, page, result.Total)
}

// Value handles GET /api/v1/inventory/value
func (h *InventoryHandler) Value(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.ledger.StockValue(c.Request.Context(), middleware.GetShopkeeperID(c))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

// Stats handles GET /api/v1/inventory/stats
func (h *InventoryHandler) Stats(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	dates, err := api.ParseDateRange(c)
	if err != nil {
		responder.RespondWithAppError(errors.ErrValidation("from and to must be RFC3339 or YYYY-MM-DD dates"))
		return
	}

	result, err := h.reports.MovementStats(c.Request.Context(), middleware.GetShopkeeperID(c), dates.From, dates.To)
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

// LowStock handles GET /api/v1/inventory/low-stock
func (h *InventoryHandler) LowStock(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	page := api.ParsePagination(c)
	result, err := h.reports.LowStock(c.Request.Context(), middleware.GetShopkeeperID(c), toPagination(page))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.RespondPage(c, http.StatusOK, result.Items, page, result.Total)
}

// Summary handles GET /api/v1/inventory/summary
func (h *InventoryHandler) Summary(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.reports.Summary(c.Request.Context(), middleware.GetShopkeeperID(c))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}
