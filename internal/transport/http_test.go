package transport_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/testserver"
	"github.com/ganot/cropline/internal/transport"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func plantCrop(t *testing.T, ts *testserver.TestServer) *crop.Timeline {
	t.Helper()
	plan := testserver.SeedPlan(t, ts.App, ts.TenantID)
	resp, body := ts.Do(t, http.MethodPost, "/api/crops", map[string]any{
		"landplot_id": "lp1",
		"species_id":  plan.Species.ID,
		"start_date":  "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	return ptr(decode[crop.Timeline](t, body))
}

func ptr[T any](v T) *T { return &v }

func TestHTTPServer_Health(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_RequiresToken(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp, err := http.Get(ts.Server.URL + "/api/crops")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ts.Token = "wrong"
	resp2, _ := ts.Do(t, http.MethodGet, "/api/crops", nil)
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestHTTPServer_CropLifecycle(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	tl := plantCrop(t, ts)
	require.Len(t, tl.Stages, 2)
	germination := tl.Stages[0]
	require.Equal(t, crop.StageActive, germination.Stage.Status())

	resp, body := ts.Do(t, http.MethodGet, "/api/crops/"+tl.Crop.ID+"/estimate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	est := decode[crop.Estimate](t, body)
	require.True(t, est.EstimatedCompletion.Equal(day("2024-02-29")), est.EstimatedCompletion)

	fertilize := germination.Events[0]
	resp, body = ts.Do(t, http.MethodPost, "/api/events/"+fertilize.ID+"/done", map[string]string{"done_date": "2024-01-03"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	irrigate := germination.Series[0].Occurrences[0]
	resp, body = ts.Do(t, http.MethodPost, "/api/events/"+irrigate.ID+"/done", map[string]string{"done_date": "2024-01-02"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	tl = ptr(decode[crop.Timeline](t, body))
	occ := tl.Stages[0].Series[0].Occurrences
	require.Len(t, occ, 2)
	require.True(t, occ[1].DueDate.Equal(day("2024-01-09")))

	resp, body = ts.Do(t, http.MethodPost, "/api/stages/"+germination.Stage.ID+"/finish", map[string]string{"done_date": "2024-01-02"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, transport.CodeOrderViolation, decode[transport.ErrorBody](t, body).Code)

	resp, body = ts.Do(t, http.MethodPost, "/api/stages/"+germination.Stage.ID+"/finish", map[string]string{"done_date": "2024-01-10"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	tl = ptr(decode[crop.Timeline](t, body))
	require.Equal(t, crop.StageFinished, tl.Stages[0].Stage.Status())
	require.Len(t, tl.Stages[0].Series[0].Occurrences, 1, "undone occurrence is discarded")
	growth := tl.Stages[1]
	require.True(t, growth.Stage.StartDate.Equal(day("2024-01-10")))
	require.True(t, growth.Events[0].DueDate.Equal(day("2024-01-30")))

	resp, body = ts.Do(t, http.MethodPost, "/api/stages/"+germination.Stage.ID+"/finish", map[string]string{"done_date": "2024-01-11"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, transport.CodeState, decode[transport.ErrorBody](t, body).Code)

	resp, _ = ts.Do(t, http.MethodPost, "/api/crops/"+tl.Crop.ID+"/harvest", map[string]any{"finish_date": "2024-03-01"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = ts.Do(t, http.MethodPost, "/api/stages/"+growth.Stage.ID+"/finish", map[string]string{"done_date": "2024-02-15"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = ts.Do(t, http.MethodPost, "/api/crops/"+tl.Crop.ID+"/harvest", map[string]any{
		"finish_date":    "2024-02-20",
		"weight_in_tons": 3.5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	tl = ptr(decode[crop.Timeline](t, body))
	require.True(t, tl.Crop.Finished())
	require.Equal(t, 3.5, *tl.Crop.WeightInTons)

	resp, body = ts.Do(t, http.MethodGet, "/api/crops/"+tl.Crop.ID+"/activity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NotEmpty(t, decode[[]map[string]any](t, body))

	resp, _ = ts.Do(t, http.MethodGet, "/api/harvest/next", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHTTPServer_AdHocAndComments(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	tl := plantCrop(t, ts)
	stageID := tl.Stages[0].Stage.ID

	resp, body := ts.Do(t, http.MethodPost, "/api/stages/"+stageID+"/events", map[string]string{"name": "Scout pests"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, transport.CodeValidation, decode[transport.ErrorBody](t, body).Code)

	resp, body = ts.Do(t, http.MethodPost, "/api/stages/"+stageID+"/events", map[string]string{
		"name":      "Scout pests",
		"done_date": "2024-01-04",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	ev := decode[crop.Event](t, body)
	require.True(t, ev.AdHoc())
	require.True(t, ev.DueDate.Equal(day("2024-01-04")))

	resp, body = ts.Do(t, http.MethodPut, "/api/stages/"+stageID+"/comments", map[string]string{"comments": "dry week"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	tl = ptr(decode[crop.Timeline](t, body))
	require.Equal(t, "dry week", *tl.Stages[0].Stage.Comments)
}

func TestHTTPServer_CalendarAndNextHarvest(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	tl := plantCrop(t, ts)

	resp, body := ts.Do(t, http.MethodGet, "/api/calendar?filter=ongoing", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	tasks := decode[[]calendar.Task](t, body)
	var prep *calendar.Task
	for i, task := range tasks {
		require.NotEqual(t, calendar.ClassCropFinish, task.Class, "no harvest record before the last stage finishes")
		if task.Name == "Harvest prep" {
			prep = &tasks[i]
		}
	}
	require.NotNil(t, prep)
	require.True(t, prep.Estimated)
	require.True(t, prep.DueDate.Equal(day("2024-02-20")), prep.DueDate)

	resp, _ = ts.Do(t, http.MethodGet, "/api/calendar?format=xlsx&crop_id="+tl.Crop.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")

	resp, _ = ts.Do(t, http.MethodGet, "/api/calendar?filter=bogus", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.Do(t, http.MethodGet, "/api/harvest/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	next := decode[crop.HarvestForecast](t, body)
	require.Equal(t, tl.Crop.ID, next.CropID)
	require.Equal(t, "Tomato", next.SpeciesName)
}

func TestHTTPServer_NotFoundAndTenantIsolation(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	tl := plantCrop(t, ts)

	resp, body := ts.Do(t, http.MethodGet, "/api/crops/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, transport.CodeNotFound, decode[transport.ErrorBody](t, body).Code)

	require.NoError(t, ts.AddAPIKey("other", "tenant2"))
	ts.Token = "other"
	resp, _ = ts.Do(t, http.MethodGet, "/api/crops/"+tl.Crop.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_SpeciesImportAndRenumber(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	yamlPlan := `
species:
  name: Lettuce
stages:
  - name: Seedling
    estimated_duration: {days: 14}
  - name: Head
    estimated_duration: {weeks: 3}
`
	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/api/species", strings.NewReader(yamlPlan))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/yaml")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "weeks is not a duration unit")

	resp, body := ts.Do(t, http.MethodPost, "/api/species", map[string]any{
		"species": map[string]any{"name": "Lettuce"},
		"stages": []map[string]any{
			{"name": "Seedling", "estimated_duration": map[string]int{"days": 14}},
			{"name": "Head", "estimated_duration": map[string]int{"days": 21}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var plan struct {
		Species struct {
			ID string `json:"id"`
		} `json:"species"`
		Stages []struct {
			Stage struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"stage"`
		} `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(body, &plan))
	require.Len(t, plan.Stages, 2)

	resp, body = ts.Do(t, http.MethodPost, "/api/species/"+plan.Species.ID+"/renumber", map[string]any{
		"stage_ids": []string{plan.Stages[1].Stage.ID, plan.Stages[0].Stage.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &plan))
	require.Equal(t, "Head", plan.Stages[0].Stage.Name)

	resp, _ = ts.Do(t, http.MethodPost, "/api/species/"+plan.Species.ID+"/renumber", map[string]any{
		"stage_ids": []string{plan.Stages[0].Stage.ID},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.Do(t, http.MethodGet, "/api/species", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestHTTPServer_Landplots(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp, body := ts.Do(t, http.MethodPost, "/api/landplots", map[string]any{"name": "South", "area_hectares": 2.5})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[map[string]any](t, body)

	resp, body = ts.Do(t, http.MethodGet, "/api/landplots/"+created["id"].(string), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = ts.Do(t, http.MethodPost, "/api/landplots", map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.Do(t, http.MethodPost, "/api/landplots", map[string]any{"name": "x", "unknown": true})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.Do(t, http.MethodGet, "/api/landplots", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[[]map[string]any](t, body), 1)
}

func TestHTTPServer_Metrics(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	plantCrop(t, ts)

	resp, err := http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	require.Contains(t, sb.String(), `cropline_transitions_total{op="instantiate_timeline",outcome="ok"} 1`)
	require.Contains(t, sb.String(), `route="POST /api/crops"`)
}
