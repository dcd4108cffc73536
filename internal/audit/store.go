package audit

import "context"

// Store reads the audit trail. Writes happen inside the role-assignment
// transaction, not through this interface.
type Store interface {
	Count(ctx context.Context) (int, error)
	// ListPage returns records newest first.
	ListPage(ctx context.Context, limit, offset int) ([]Row, error)
}
