package landplot

import "context"

// Repository provides persistence for landplots.
type Repository interface {
	Create(ctx context.Context, tenantID string, plot *Landplot) error
	Get(ctx context.Context, tenantID, id string) (*Landplot, error)
	List(ctx context.Context, tenantID string) ([]Summary, error)
}
