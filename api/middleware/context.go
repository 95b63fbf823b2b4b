package middleware

import "context"

type contextKey string

const (
	ctxWallet    contextKey = "wallet"
	ctxAdminRole contextKey = "admin_role"
	ctxDeviceID  contextKey = "device_id"
	ctxShopID    contextKey = "shop_id"
)

func WalletFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxWallet).(string); ok {
		return v
	}
	return ""
}

// AdminRoleFromContext returns the platform role resolved for the caller's
// wallet, or "" when the wallet holds no platform role.
func AdminRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminRole).(string); ok {
		return v
	}
	return ""
}

func DeviceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxDeviceID).(string); ok {
		return v
	}
	return ""
}

// ShopIDFromContext returns the shop a paired device is bound to.
func ShopIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShopID).(string); ok {
		return v
	}
	return ""
}

// WithWallet injects the caller wallet into the context.
func WithWallet(ctx context.Context, wallet string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxWallet, wallet)
}

// WithAdminRole injects the caller's platform role into the context.
func WithAdminRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminRole, role)
}
