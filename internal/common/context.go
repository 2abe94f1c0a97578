package common

import (
	"context"
	"encoding/hex"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID   contextKey = "request_id"
	ContextKeyContentHash contextKey = "content_hash"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithContentHash records the hex content hash of the file being processed,
// used for artifact naming in OCR temp workspaces.
func WithContentHash(ctx context.Context, sum []byte) context.Context {
	return context.WithValue(ctx, ContextKeyContentHash, hex.EncodeToString(sum))
}

// ContentHashFromContext extracts the hex content hash from context
func ContentHashFromContext(ctx context.Context) string {
	if hash, ok := ctx.Value(ContextKeyContentHash).(string); ok {
		return hash
	}
	return ""
}
