package logger

import "context"

type contextKey string

const (
	loggerKey       contextKey = "storekeep.logger"
	storeIDKey      contextKey = "storekeep.store_id"
	attachmentIDKey contextKey = "storekeep.attachment_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithStoreID adds a store ID to the context.
func WithStoreID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, storeIDKey, id)
}

// StoreIDFromContext extracts the store ID from context.
func StoreIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(storeIDKey).(string); ok {
		return id
	}
	return ""
}

// WithAttachmentID adds an attachment ID to the context.
func WithAttachmentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attachmentIDKey, id)
}

// AttachmentIDFromContext extracts the attachment ID from context.
func AttachmentIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(attachmentIDKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger enriched with the store and attachment IDs
// carried by ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if id := StoreIDFromContext(ctx); id != "" {
		l = l.With("store_id", id)
	}
	if id := AttachmentIDFromContext(ctx); id != "" {
		l = l.With("attachment_id", id)
	}

	return l
}
