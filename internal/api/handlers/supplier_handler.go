package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/application"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/api"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
)

// SupplierHandler handles HTTP requests for suppliers
type SupplierHandler struct {
	service *application.SupplierService
	logger  *logging.Logger
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(service *application.SupplierService, logger *logging.Logger) *SupplierHandler {
	return &SupplierHandler{service: service, logger: logger}
}

// Create handles POST /api/v1/suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req CreateSupplierRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.Create(c.Request.Context(), application.CreateSupplierCommand{
		ShopkeeperID: middleware.GetShopkeeperID(c),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		CreditLimit:  req.CreditLimit,
	})
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusCreated, result)
}

// Get handles GET /api/v1/suppliers/:supplierId
func (h *SupplierHandler) Get(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.Get(c.Request.Context(), middleware.GetShopkeeperID(c), c.Param("supplierId"))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

// AdjustCredit handles PATCH /api/v1/suppliers/:supplierId/credit
func (h *SupplierHandler) AdjustCredit(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req AdjustCreditRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	supplierID := c.Param("supplierId")
	middleware.AddSpanAttributes(c, map[string]any{
		"supplier.id":      supplierID,
		"credit.operation": string(req.Operation),
	})

	result, err := h.service.AdjustCredit(c.Request.Context(), application.AdjustSupplierCreditCommand{
		ShopkeeperID: middleware.GetShopkeeperID(c),
		SupplierID:   supplierID,
		Operation:    req.Operation,
		Amount:       req.Amount,
	})
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}
