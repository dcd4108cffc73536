package mfa

import (
	"context"

	"gatekeeper/pkg/requestcontext"
)

func (t *Tracker) logAudit(ctx context.Context, event string, attributes ...any) {
	args := append(attributes,
		"event", event,
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	)
	t.logger.InfoContext(ctx, event, args...)
}

func (t *Tracker) logError(ctx context.Context, msg string, err error, attributes ...any) {
	args := append(attributes, "error", err, "request_id", requestcontext.RequestID(ctx))
	t.logger.ErrorContext(ctx, msg, args...)
}

func (t *Tracker) incVerification(outcome string) {
	if t.metrics != nil {
		t.metrics.IncMFAVerification(outcome)
	}
}
