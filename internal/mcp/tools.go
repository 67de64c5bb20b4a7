package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/interval"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var errNoTenant = errors.New("unauthorized: no tenant in context")

type cropIDInput struct {
	CropID string `json:"crop_id" jsonschema:"crop ID"`
}

type instantiateInput struct {
	LandplotID string `json:"landplot_id" jsonschema:"landplot the crop is planted on"`
	SpeciesID  string `json:"species_id" jsonschema:"species whose growth plan is copied"`
	StartDate  string `json:"start_date" jsonschema:"planting date, YYYY-MM-DD or RFC 3339"`
	Comments   string `json:"comments,omitempty" jsonschema:"free-text notes"`
}

type finishStageInput struct {
	StageID  string `json:"stage_id" jsonschema:"ID of the active stage"`
	DoneDate string `json:"done_date" jsonschema:"date the stage finished"`
}

type markEventDoneInput struct {
	EventID  string `json:"event_id" jsonschema:"event ID"`
	DoneDate string `json:"done_date" jsonschema:"date the work was done"`
}

type adHocInput struct {
	StageID       string `json:"stage_id" jsonschema:"stage the task belongs to"`
	Name          string `json:"name" jsonschema:"task name"`
	Description   string `json:"description,omitempty" jsonschema:"task description"`
	EstimatedDate string `json:"estimated_date,omitempty" jsonschema:"planned date; required unless done_date is set"`
	DoneDate      string `json:"done_date,omitempty" jsonschema:"completion date, when already done"`
}

type calendarInput struct {
	CropIDs []string `json:"crop_ids,omitempty" jsonschema:"crops to include; all crops when empty"`
	Filter  string   `json:"filter,omitempty" jsonschema:"ongoing or finished; empty for all"`
}

type harvestInput struct {
	CropID       string   `json:"crop_id" jsonschema:"crop ID"`
	FinishDate   string   `json:"finish_date" jsonschema:"harvest date, on or after the last stage finish"`
	WeightInTons *float64 `json:"weight_in_tons,omitempty" jsonschema:"harvested weight in tons"`
	Comments     *string  `json:"comments,omitempty" jsonschema:"replaces the crop comments when set"`
}

type noInput struct{}

func registerTools(server *sdkmcp.Server, svc Services, logger *slog.Logger) {
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "instantiate_timeline",
		Description: "Plant a crop: copy the species growth plan into a new crop timeline starting on start_date",
	}, func(ctx context.Context, tenantID string, in instantiateInput) (any, error) {
		start, err := interval.ParseDate(in.StartDate)
		if err != nil {
			return nil, err
		}
		return svc.Crops.InstantiateTimeline(ctx, tenantID, crop.CreateRequest{
			LandplotID: in.LandplotID,
			SpeciesID:  in.SpeciesID,
			StartDate:  start,
			Comments:   in.Comments,
		})
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "get_timeline",
		Description: "Get a crop with its stages, events and recurrence series",
	}, func(ctx context.Context, tenantID string, in cropIDInput) (any, error) {
		return svc.Crops.GetTimeline(ctx, tenantID, in.CropID)
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "finish_stage",
		Description: "Finish the active stage. Undone events of the stage are removed and the next stage starts on done_date",
	}, func(ctx context.Context, tenantID string, in finishStageInput) (any, error) {
		done, err := interval.ParseDate(in.DoneDate)
		if err != nil {
			return nil, err
		}
		return svc.Crops.FinishStage(ctx, tenantID, in.StageID, done)
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "mark_event_done",
		Description: "Mark an event done. Periodic events schedule their next occurrence",
	}, func(ctx context.Context, tenantID string, in markEventDoneInput) (any, error) {
		done, err := interval.ParseDate(in.DoneDate)
		if err != nil {
			return nil, err
		}
		return svc.Crops.MarkEventDone(ctx, tenantID, in.EventID, done)
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "add_adhoc_event",
		Description: "Add a hand-made task to a stage",
	}, func(ctx context.Context, tenantID string, in adHocInput) (any, error) {
		estimated, err := interval.ParseDatePtr(in.EstimatedDate)
		if err != nil {
			return nil, err
		}
		done, err := interval.ParseDatePtr(in.DoneDate)
		if err != nil {
			return nil, err
		}
		return svc.Crops.AddAdHocEvent(ctx, tenantID, in.StageID, crop.AdHocRequest{
			Name:          in.Name,
			Description:   in.Description,
			EstimatedDate: estimated,
			DoneDate:      done,
		})
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "estimate_completion",
		Description: "Project the crop's completion date and per-stage start and finish dates",
	}, func(ctx context.Context, tenantID string, in cropIDInput) (any, error) {
		return svc.Crops.EstimateCropCompletion(ctx, tenantID, in.CropID)
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "project_calendar",
		Description: "List calendar tasks (events, stage finishes, harvests) across crops, ordered by due date",
	}, func(ctx context.Context, tenantID string, in calendarInput) (any, error) {
		return svc.Calendar.ProjectCalendar(ctx, tenantID, calendar.Query{
			CropIDs: in.CropIDs,
			Filter:  crop.ListFilter(in.Filter),
		})
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "next_harvest",
		Description: "Find the ongoing crop expected to finish first",
	}, func(ctx context.Context, tenantID string, _ noInput) (any, error) {
		next, err := svc.Crops.NextHarvest(ctx, tenantID)
		if err != nil || next != nil {
			return next, err
		}
		return map[string]string{"message": "no ongoing crops"}, nil
	})

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "submit_harvest",
		Description: "Record the harvest of a crop whose last stage is finished",
	}, func(ctx context.Context, tenantID string, in harvestInput) (any, error) {
		finish, err := interval.ParseDate(in.FinishDate)
		if err != nil {
			return nil, err
		}
		return svc.Crops.SubmitHarvest(ctx, tenantID, in.CropID, crop.HarvestRequest{
			FinishDate:   finish,
			WeightInTons: in.WeightInTons,
			Comments:     in.Comments,
		})
	})
}

// addTool registers a tool whose handler returns a JSON-encodable value.
func addTool[In any](server *sdkmcp.Server, logger *slog.Logger, tool *sdkmcp.Tool, h func(ctx context.Context, tenantID string, in In) (any, error)) {
	sdkmcp.AddTool(server, tool, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		tenantID := getTenantID(ctx)
		if tenantID == "" {
			return nil, nil, errNoTenant
		}
		out, err := h(ctx, tenantID, in)
		if err != nil {
			if logger != nil {
				logger.Info("tool call failed", "tool", tool.Name, "tenant_id", tenantID, "session_id", getSessionID(ctx), "error", err)
			}
			return errorResult(err)
		}
		return jsonResult(out)
	})
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorResult reports domain errors as tool errors carrying an APIError, so
// the model sees the code and hint. Anything else fails the call.
func errorResult(err error) (*sdkmcp.CallToolResult, any, error) {
	apiErr := MapError(err)
	if apiErr == nil {
		return nil, nil, err
	}
	data, mErr := json.Marshal(apiErr)
	if mErr != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
