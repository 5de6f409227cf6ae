package tenant

import (
	"context"
	"errors"
)

type contextKey string

const (
	shopkeeperIDKey contextKey = "shopkeeperId"
	userIDKey       contextKey = "userId"
	roleKey         contextKey = "role"
)

// Roles recognised by the auth layer in front of this service
const (
	RoleShopkeeper = "shopkeeper"
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
)

var (
	ErrMissingShopkeeper = errors.New("shopkeeper context is required")
)

// Context holds the authenticated identity attached to a request.
// ShopkeeperID is the tenancy boundary: every read and write is scoped to it.
type Context struct {
	ShopkeeperID string `json:"shopkeeperId"`
	UserID       string `json:"userId,omitempty"`
	Role         string `json:"role,omitempty"`
}

// IsEmpty reports whether no shopkeeper is attached
func (c *Context) IsEmpty() bool {
	return c == nil || c.ShopkeeperID == ""
}

// ToContext stores tc in ctx
func ToContext(ctx context.Context, tc *Context) context.Context {
	if tc == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, shopkeeperIDKey, tc.ShopkeeperID)
	if tc.UserID != "" {
		ctx = context.WithValue(ctx, userIDKey, tc.UserID)
	}
	if tc.Role != "" {
		ctx = context.WithValue(ctx, roleKey, tc.Role)
	}
	return ctx
}

// FromContext extracts the tenant context. Returns ErrMissingShopkeeper when
// no shopkeeper was attached.
func FromContext(ctx context.Context) (*Context, error) {
	tc := &Context{}

	if v, ok := ctx.Value(shopkeeperIDKey).(string); ok {
		tc.ShopkeeperID = v
	}
	if v, ok := ctx.Value(userIDKey).(string); ok {
		tc.UserID = v
	}
	if v, ok := ctx.Value(roleKey).(string); ok {
		tc.Role = v
	}

	if tc.ShopkeeperID == "" {
		return nil, ErrMissingShopkeeper
	}
	return tc, nil
}

// ShopkeeperID returns the shopkeeper stored in ctx or ""
func ShopkeeperID(ctx context.Context) string {
	v, _ := ctx.Value(shopkeeperIDKey).(string)
	return v
}
