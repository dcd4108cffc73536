package service

import (
	"context"

	"gatekeeper/pkg/requestcontext"
)

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	args := append(attributes,
		"event", event,
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logForbidden(ctx context.Context, reason string, attributes ...any) {
	args := append(attributes,
		"event", "role_assignment_forbidden",
		"reason", reason,
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.WarnContext(ctx, "role assignment forbidden", args...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attributes ...any) {
	args := append(attributes, "error", err, "request_id", requestcontext.RequestID(ctx))
	s.logger.ErrorContext(ctx, msg, args...)
}

func (s *Service) incAssignment(action, outcome string) {
	if s.metrics != nil {
		s.metrics.IncRoleAssignment(action, outcome)
	}
}

// actionNone labels assignment outcomes that never reached the write.
const actionNone = "none"
