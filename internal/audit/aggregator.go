package audit

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/platform/metrics"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/platform/tracer"
	"gatekeeper/pkg/requestcontext"
)

// DefaultPageSize is the number of records per audit page.
const DefaultPageSize = 20

// Resolver batch-resolves identity ids. *identity.BatchResolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, ids []id.IdentityID) identity.Resolved
}

// Aggregator builds paginated audit pages by joining raw records with
// identity display data.
type Aggregator struct {
	store    Store
	resolver Resolver
	logger   *slog.Logger
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(a *Aggregator) {
		a.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

func NewAggregator(store Store, resolver Resolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:    store,
		resolver: resolver,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetPage returns one page of the audit trail, newest first. It never fails:
// a store error yields an empty, zero-count page with Degraded set.
// page < 1 is treated as 1 and a non-positive pageSize as DefaultPageSize.
func (a *Aggregator) GetPage(ctx context.Context, page, pageSize int) *Page {
	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	start := time.Now()
	ctx, span := a.tracer.Start(ctx, tracer.SpanAuditPage,
		tracer.Int(tracer.AttrPage, page),
		tracer.Int(tracer.AttrPageSize, pageSize),
	)

	result, err := a.buildPage(ctx, span, page, pageSize)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to load audit page",
			"page", page,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		result = degradedPage(page)
	}

	span.SetAttributes(tracer.Bool(tracer.AttrDegraded, result.Degraded))
	span.End(err)
	if a.metrics != nil {
		a.metrics.ObserveAuditPage(time.Since(start).Seconds(), result.Degraded)
	}
	return result
}

func (a *Aggregator) buildPage(ctx context.Context, span tracer.Span, page, pageSize int) (*Page, error) {
	total, err := a.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Entries:     []Entry{},
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  totalPages(total, pageSize),
	}
	if total == 0 || page > result.TotalPages {
		return result, nil
	}

	rows, err := a.store.ListPage(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return result, nil
	}

	refs := referencedIdentities(rows)
	resolved := a.resolver.Resolve(ctx, refs)
	span.SetAttributes(tracer.Int(tracer.AttrUniqueIDs, len(identity.Unique(refs))))

	result.Entries = make([]Entry, 0, len(rows))
	for _, row := range rows {
		result.Entries = append(result.Entries, toEntry(row, resolved))
	}
	return result, nil
}

// referencedIdentities lists the affected and acting identity of every row.
// Duplicates are kept; the resolver dedupes.
func referencedIdentities(rows []Row) []id.IdentityID {
	refs := make([]id.IdentityID, 0, len(rows)*2)
	for _, row := range rows {
		if row.IdentityID != nil {
			refs = append(refs, *row.IdentityID)
		}
		if row.ChangedBy != nil {
			refs = append(refs, *row.ChangedBy)
		}
	}
	return refs
}

func toEntry(row Row, resolved identity.Resolved) Entry {
	return Entry{
		ID:           row.ID,
		AssignmentID: row.AssignmentID,
		Action:       row.Action,
		ChangedAt:    row.ChangedAt,
		Identity:     summaryFor(row.IdentityID, resolved),
		ChangedBy:    summaryFor(row.ChangedBy, resolved),
		OldRole:      row.OldRole,
		NewRole:      row.NewRole,
	}
}

// summaryFor keeps the id visible even when the identity could not be
// resolved; email and display name are then empty.
func summaryFor(identityID *id.IdentityID, resolved identity.Resolved) *identity.Summary {
	if identityID == nil {
		return nil
	}
	if found, ok := resolved[*identityID]; ok {
		summary := found.Summary()
		summary.ID = *identityID
		return &summary
	}
	return &identity.Summary{ID: *identityID}
}

func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total-1)/pageSize + 1
}

func degradedPage(page int) *Page {
	return &Page{
		Entries:     []Entry{},
		CurrentPage: page,
		Degraded:    true,
	}
}
