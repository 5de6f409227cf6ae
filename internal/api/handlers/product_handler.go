package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/application"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/api"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	products *application.ProductService
	ledger   *application.LedgerService
	logger   *logging.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *application.ProductService, ledger *application.LedgerService, logger *logging.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		ledger:   ledger,
		logger:   logger,
	}
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req CreateProductRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"product.sku":      req.SKU,
		"product.quantity": req.Quantity,
	})

	result, err := h.products.Create(c.Request.Context(), req.command(middleware.GetShopkeeperID(c)))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusCreated, result)
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	page := api.ParsePagination(c)
	result, err := h.products.List(c.Request.Context(), middleware.GetShopkeeperID(c), toPagination(page))
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.RespondPage(c, http.StatusOK, result.Items, page, result.Total)
}

// Get handles GET /api/v1/products/:productId
func (h *ProductHandler) Get(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	productID := c.Param("productId")
	middleware.AddSpanAttributes(c, map[string]any{"product.id": productID})

	result, err := h.products.Get(c.Request.Context(), middleware.GetShopkeeperID(c), productID)
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

// Delete handles DELETE /api/v1/products/:productId
func (h *ProductHandler) Delete(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	productID := c.Param("productId")
	middleware.AddSpanAttributes(c, map[string]any{"product.id": productID})

	if err := h.products.Delete(c.Request.Context(), middleware.GetShopkeeperID(c), productID); err != nil {
		respondError(c, responder, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stock handles GET /api/v1/products/:productId/stock
func (h *ProductHandler) Stock(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	productID := c.Param("productId")
	middleware.AddSpanAttributes(c, map[string]any{"product.id": productID})

	result, err := h.ledger.Reconcile(c.Request.Context(), middleware.GetShopkeeperID(c), productID)
	if err != nil {
		respondError(c, responder, err)
		return
	}

	api.Respond(c, http.StatusOK, result)
}

func toPagination(page api.PageRequest) domain.Pagination {
	return domain.Pagination{Page: page.Page, PageSize: page.PageSize}
}
