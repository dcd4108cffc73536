package identity

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"gatekeeper/internal/platform/metrics"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/platform/tracer"
	"gatekeeper/pkg/requestcontext"
)

const defaultLookupConcurrency = 8

// Resolved maps identity ids to the identities that resolved. Ids whose
// lookup failed are absent.
type Resolved map[id.IdentityID]*Identity

// BatchResolver resolves a set of identity ids through a Directory with at
// most one lookup per unique id, running lookups in parallel.
type BatchResolver struct {
	directory   Directory
	concurrency int
	logger      *slog.Logger
	tracer      tracer.Tracer
	metrics     *metrics.Metrics
}

type ResolverOption func(*BatchResolver)

func WithConcurrency(n int) ResolverOption {
	return func(r *BatchResolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *BatchResolver) {
		r.logger = logger
	}
}

func WithResolverTracer(t tracer.Tracer) ResolverOption {
	return func(r *BatchResolver) {
		r.tracer = t
	}
}

func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *BatchResolver) {
		r.metrics = m
	}
}

func NewBatchResolver(directory Directory, opts ...ResolverOption) *BatchResolver {
	r := &BatchResolver{
		directory:   directory,
		concurrency: defaultLookupConcurrency,
		logger:      slog.Default(),
		tracer:      tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up every distinct non-nil id once. A failed lookup is logged
// and left out of the result; it never fails the batch.
func (r *BatchResolver) Resolve(ctx context.Context, ids []id.IdentityID) Resolved {
	unique := Unique(ids)
	resolved := make(Resolved, len(unique))
	if len(unique) == 0 {
		return resolved
	}

	// each goroutine writes only its own slot
	results := make([]*Identity, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, identityID := range unique {
		g.Go(func() error {
			results[i] = r.lookup(gctx, identityID)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // lookups never return errors to the group

	for i, identityID := range unique {
		if results[i] != nil {
			resolved[identityID] = results[i]
		}
	}
	return resolved
}

func (r *BatchResolver) lookup(ctx context.Context, identityID id.IdentityID) *Identity {
	ctx, span := r.tracer.Start(ctx, tracer.SpanIdentityLookup, tracer.String(tracer.AttrIdentityID, identityID.String()))
	found, err := r.directory.GetIdentityByID(ctx, identityID)
	span.End(err)

	if err != nil || found == nil {
		r.incLookup("failed")
		r.logger.WarnContext(ctx, "identity lookup failed",
			"identity_id", identityID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	r.incLookup("ok")
	return found
}

func (r *BatchResolver) incLookup(outcome string) {
	if r.metrics != nil {
		r.metrics.IncIdentityLookup(outcome)
	}
}

// Unique drops nil and repeated ids, keeping first-seen order.
func Unique(ids []id.IdentityID) []id.IdentityID {
	seen := make(map[id.IdentityID]struct{}, len(ids))
	out := make([]id.IdentityID, 0, len(ids))
	for _, identityID := range ids {
		if identityID.IsNil() {
			continue
		}
		if _, ok := seen[identityID]; ok {
			continue
		}
		seen[identityID] = struct{}{}
		out = append(out, identityID)
	}
	return out
}
