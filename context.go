package accesskit

import (
	"context"
)

// Context keys for accesskit values.
type contextKey string

const (
	contextKeyActorID   contextKey = "accesskit:actor_id"
	contextKeyIPAddress contextKey = "accesskit:ip_address"
	contextKeyUserAgent contextKey = "accesskit:user_agent"
	contextKeyRequestID contextKey = "accesskit:request_id"
)

// WithActorID adds an actor ID to the context.
// This is the user performing a role mutation, recorded in the audit log and
// checked by the optional actor guard.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Returns empty string if not set.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithIPAddress adds the client IP address to the context (for audit).
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress retrieves the IP address from context.
func GetIPAddress(ctx context.Context) string {
	if v := ctx.Value(contextKeyIPAddress); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithUserAgent adds the user agent to the context (for audit).
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent retrieves the user agent from context.
func GetUserAgent(ctx context.Context) string {
	if v := ctx.Value(contextKeyUserAgent); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context (for audit and correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AuditContext holds all audit-related information from context.
type AuditContext struct {
	ActorID   string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContext extracts all audit information from context.
func GetAuditContext(ctx context.Context) AuditContext {
	return AuditContext{
		ActorID:   GetActorID(ctx),
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithAuditContext adds all audit information to context at once.
func WithAuditContext(ctx context.Context, ac AuditContext) context.Context {
	if ac.ActorID != "" {
		ctx = WithActorID(ctx, ac.ActorID)
	}
	if ac.IPAddress != "" {
		ctx = WithIPAddress(ctx, ac.IPAddress)
	}
	if ac.UserAgent != "" {
		ctx = WithUserAgent(ctx, ac.UserAgent)
	}
	if ac.RequestID != "" {
		ctx = WithRequestID(ctx, ac.RequestID)
	}
	return ctx
}
