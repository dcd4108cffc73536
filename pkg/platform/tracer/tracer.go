// Package tracer is a small tracing abstraction so services can emit spans
// without importing OpenTelemetry directly.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanAuditPage      = "audit.page"
	SpanIdentityLookup = "identity.lookup"
	SpanManageableList = "roles.manageable"
	SpanProviderCall   = "provider.call"
)

// Attribute keys.
const (
	AttrPage           = "audit.page"
	AttrPageSize       = "audit.page_size"
	AttrUniqueIDs      = "identity.unique_ids"
	AttrIdentityID     = "identity.id"
	AttrCallerLevel    = "roles.caller_level"
	AttrProviderMethod = "provider.method"
	AttrProviderPath   = "provider.path"
	AttrDegraded       = "degraded"
)
