package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/platform/circuit"
)

// ResilientDirectory guards administrative identity lookups with a circuit
// breaker so a failing provider is not hammered once per audit row.
type ResilientDirectory struct {
	next    identity.Directory
	breaker *circuit.Breaker[*identity.Identity]
}

// NewResilientDirectory wraps next. Not-found answers count as successes.
func NewResilientDirectory(next identity.Directory, logger *slog.Logger, opts ...circuit.Option) *ResilientDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]circuit.Option{
		circuit.WithSuccessPredicate(func(err error) bool {
			return err == nil || errors.Is(err, sentinel.ErrNotFound)
		}),
		circuit.WithStateChange(func(name string, from, to circuit.State) {
			logger.Warn("identity directory circuit state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
	}, opts...)
	return &ResilientDirectory{
		next:    next,
		breaker: circuit.New[*identity.Identity]("identity-directory", opts...),
	}
}

func (d *ResilientDirectory) GetIdentityByID(ctx context.Context, identityID id.IdentityID) (*identity.Identity, error) {
	found, err := d.breaker.Execute(func() (*identity.Identity, error) {
		return d.next.GetIdentityByID(ctx, identityID)
	})
	if errors.Is(err, circuit.ErrOpen) {
		return nil, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return found, err
}
