package middleware

import "context"

type contextKey string

const (
	ctxAdminSubject contextKey = "admin_subject"
	ctxRole         contextKey = "actor_role"
	ctxAccessID     contextKey = "access_id"
	ctxSessionID    contextKey = "session_id"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// AdminSubjectFromContext returns the authenticated operator email.
func AdminSubjectFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAdminSubject)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

// AccessIDFromContext returns the jti of the admin token on the request.
func AccessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAccessID)
}

// SessionIDFromContext returns the buyer session bound by BuyerSession.
func SessionIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxSessionID)
}

// WithSessionID injects the buyer session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithAdmin injects an authenticated admin identity into the context.
func WithAdmin(ctx context.Context, subject, role, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAdminSubject, subject)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxAccessID, accessID)
}
