package species

import "context"

// Repository provides persistence for species growth plans.
type Repository interface {
	CreatePlan(ctx context.Context, tenantID string, plan *GrowthPlan) error
	GetPlan(ctx context.Context, tenantID, speciesID string) (*GrowthPlan, error)
	List(ctx context.Context, tenantID string) ([]Species, error)
	RenumberStages(ctx context.Context, tenantID, speciesID string, orderedStageIDs []string) error
}
