// Package testserver starts a full cropline stack over an in-memory database
// for HTTP and MCP tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/cropline/internal/app"
	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/ganot/cropline/internal/store"
	"github.com/ganot/cropline/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	App      *app.App
	Token    string
	TenantID string
}

// NewApp creates the services over a fresh, migrated in-memory database.
func NewApp(t *testing.T) *app.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := store.Open(store.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })

	return app.New(db, nil, 2)
}

// New starts the REST API with bearer auth; token resolves to tenantID.
func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	a := NewApp(t)
	router := transport.NewServer(a.HTTPServices(), transport.Options{
		Auth:     transport.AuthMiddleware(a.APIKeys),
		Observer: a.Metrics,
		Metrics:  a.Metrics.Handler(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ts := &TestServer{
		Server:   server,
		App:      a,
		Token:    token,
		TenantID: tenantID,
	}
	require.NoError(t, ts.AddAPIKey(token, tenantID))
	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.App.APIKeys.Add(context.Background(), tenantID, token, "test")
}

// Do sends an authenticated JSON request and returns the response body.
func (ts *TestServer) Do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

// SeedPlan stores a landplot "lp1" and a two-stage tomato plan for tenantID:
// Germination (30 days; Fertilize at day 2, Irrigate weekly from day 0)
// then Growth (1 month; Harvest prep at day 20).
func SeedPlan(t *testing.T, a *app.App, tenantID string) *species.GrowthPlan {
	t.Helper()
	ctx := context.Background()

	_, err := a.Landplots.Create(ctx, tenantID, landplot.CreateRequest{ID: "lp1", Name: "North field"})
	require.NoError(t, err)

	weekly := interval.Days(7)
	plan, err := a.Species.ImportPlan(ctx, tenantID, species.PlanDefinition{
		Species: species.SpeciesDefinition{Name: "Tomato"},
		Stages: []species.StageDefinition{
			{
				Name:              "Germination",
				EstimatedDuration: interval.Days(30),
				Events: []species.EventDefinition{
					{Name: "Fertilize", Offset: interval.Days(2)},
					{Name: "Irrigate", Offset: interval.Days(0), Repeat: &weekly},
				},
			},
			{
				Name:              "Growth",
				EstimatedDuration: interval.Months(1),
				Events: []species.EventDefinition{
					{Name: "Harvest prep", Offset: interval.Days(20)},
				},
			},
		},
	})
	require.NoError(t, err)
	return plan
}
