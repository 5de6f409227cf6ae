package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/errors"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/tenant"
)

const contextKeyTenant = "tenantContext"

// ShopkeeperAuth reads the identity forwarded by the auth gateway and scopes
// the request to one shopkeeper. Requests without X-Shopkeeper-ID are rejected.
func ShopkeeperAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		shopkeeperID := SanitizeString(c.GetHeader(HeaderShopkeeperID))
		if shopkeeperID == "" {
			AbortWithAppError(c, errors.ErrUnauthorized("shopkeeper context is required"))
			return
		}

		tc := &tenant.Context{
			ShopkeeperID: shopkeeperID,
			UserID:       c.GetHeader(HeaderUserID),
			Role:         c.GetHeader(HeaderUserRole),
		}
		if tc.Role == "" {
			tc.Role = tenant.RoleShopkeeper
		}

		ctx := tenant.ToContext(c.Request.Context(), tc)
		ctx = logging.ContextWithShopkeeperID(ctx, shopkeeperID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextKeyTenant, tc)

		c.Next()
	}
}

// GetShopkeeperID returns the shopkeeper the request is scoped to
func GetShopkeeperID(c *gin.Context) string {
	if val, exists := c.Get(contextKeyTenant); exists {
		if tc, ok := val.(*tenant.Context); ok {
			return tc.ShopkeeperID
		}
	}
	return tenant.ShopkeeperID(c.Request.Context())
}
