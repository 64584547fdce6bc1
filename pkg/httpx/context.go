package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID  ctxKey = "user_id"
	CtxKeyIsAdmin ctxKey = "is_admin"
)

// UserIDFromCtx returns the authenticated user id, or "" if the request is
// unauthenticated.
func UserIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// IsAdminFromCtx reports whether the authenticated user carries the
// administrative flag.
func IsAdminFromCtx(ctx context.Context) bool {
	v, ok := ctx.Value(CtxKeyIsAdmin).(bool)
	return ok && v
}

// ContextWithAuth injects the authenticated identity for downstream handlers.
func ContextWithAuth(ctx context.Context, userID string, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	return context.WithValue(ctx, CtxKeyIsAdmin, isAdmin)
}
