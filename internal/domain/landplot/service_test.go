package landplot_test

import (
	"context"
	"testing"

	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/repository"
	"github.com/ganot/cropline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLandplotService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant1"

	repo := &mocks.LandplotRepository{}
	repo.On("Create", ctx, tenantID, mock.Anything).Return(nil)

	svc := landplot.NewService(repo, nil)
	plot, err := svc.Create(ctx, tenantID, landplot.CreateRequest{Name: "North field"})
	require.NoError(t, err)
	require.NotEmpty(t, plot.ID)
	require.Equal(t, tenantID, plot.TenantID)
}

func TestLandplotService_CreateValidation(t *testing.T) {
	svc := landplot.NewService(&mocks.LandplotRepository{}, nil)
	_, err := svc.Create(context.Background(), "tenant1", landplot.CreateRequest{Name: " "})
	require.ErrorIs(t, err, landplot.ErrInvalidInput)

	negative := -1.0
	_, err = svc.Create(context.Background(), "tenant1", landplot.CreateRequest{Name: "x", AreaHectares: &negative})
	require.ErrorIs(t, err, landplot.ErrInvalidInput)
}

func TestLandplotService_GetNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LandplotRepository{}
	repo.On("Get", ctx, "tenant1", "missing").Return((*landplot.Landplot)(nil), repository.ErrNotFound)

	svc := landplot.NewService(repo, nil)
	_, err := svc.Get(ctx, "tenant1", "missing")
	require.ErrorIs(t, err, landplot.ErrLandplotNotFound)
}
