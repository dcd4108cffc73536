package service

import (
	"context"
	"log/slog"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/platform/tracer"
)

// Store is the role-assignment persistence the service needs.
// Error Contract: Find methods return sentinel.ErrNotFound when the row doesn't exist.
type Store interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	FindRole(ctx context.Context, roleID id.RoleID) (*models.Role, error)
	FindAssignedRole(ctx context.Context, identityID id.IdentityID) (*models.AssignedRole, error)
	ListAssignedBelow(ctx context.Context, level catalog.Level) ([]models.AssignedRole, error)
	UpsertAssignment(ctx context.Context, up models.Upsert) (*models.AssignmentResult, error)
}

// Resolver batch-resolves identity ids through the admin directory.
type Resolver interface {
	Resolve(ctx context.Context, ids []id.IdentityID) identity.Resolved
}

// Service is the role assignment engine: hierarchical checks plus the
// read and write operations on role assignments.
type Service struct {
	store    Store
	resolver Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, resolver Resolver, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
