package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
)

// Handlers groups the route handlers of the API
type Handlers struct {
	Products  *ProductHandler
	Inventory *InventoryHandler
	Bills     *BillHandler
	Suppliers *SupplierHandler
}

// RegisterRoutes mounts /api/v1. Every route is scoped to the shopkeeper in
// X-Shopkeeper-ID; idempotent guards the POSTs that move stock.
func RegisterRoutes(router *gin.Engine, h Handlers, idempotent gin.HandlerFunc) {
	RegisterValidators()

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ShopkeeperAuth())
	{
		products := v1.Group("/products")
		{
			products.POST("", h.Products.Create)
			products.GET("", h.Products.List)
			products.GET("/:productId", h.Products.Get)
			products.DELETE("/:productId", h.Products.Delete)
			products.GET("/:productId/stock", h.Products.Stock)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.POST("/movements", idempotent, h.Inventory.RecordMovement)
			inventory.POST("/adjustments", idempotent, h.Inventory.Adjust)
			inventory.GET("/ledger", h.Inventory.History)
			inventory.GET("/value", h.Inventory.Value)
			inventory.GET("/stats", h.Inventory.Stats)
			inventory.GET("/low-stock", h.Inventory.LowStock)
			inventory.GET("/summary", h.Inventory.Summary)
		}

		bills := v1.Group("/bills")
		{
			bills.POST("", idempotent, h.Bills.Create)
			bills.GET("", h.Bills.List)
			bills.GET("/stats", h.Bills.Stats)
			bills.GET("/:billId", h.Bills.Get)
			bills.PATCH("/:billId/status", h.Bills.UpdateStatus)
		}

		suppliers := v1.Group("/suppliers")
		{
			suppliers.POST("", h.Suppliers.Create)
			suppliers.GET("/:supplierId", h.Suppliers.Get)
			suppliers.PATCH("/:supplierId/credit", h.Suppliers.AdjustCredit)
		}
	}
}
