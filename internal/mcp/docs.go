package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `cropline tracks crops through the stages of their species' growth plan.

Model:
- Landplot: a field. Crops are planted on one.
- Species: owns a growth plan of ordered stage templates, each with event templates.
- Crop: one planting. Its timeline copies the plan: stages (pending, active, finished) and events.
- Events are one-off, ad-hoc (added by hand) or periodic. Completing a periodic event schedules the next one.

Workflow:
1) get_timeline or project_calendar to see what is due.
2) mark_event_done as work is completed; finish_stage when a stage is over.
3) estimate_completion / next_harvest to plan ahead.
4) submit_harvest once the last stage is finished.

Dates are RFC 3339 date-times or bare YYYY-MM-DD. Docs: cropline://docs/concepts, cropline://docs/plan-format.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "cropline://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Crop lifecycle rules",
		Description: "Stage ordering, event scheduling and harvest rules enforced by the engine.",
		Content: `# Crop lifecycle rules

## Stages

- Exactly one stage is active until the crop's last stage finishes.
- ` + "`finish_stage`" + ` only accepts the active stage. The done date may not precede the stage start or any completed event of the stage.
- Finishing a stage deletes its undone events and starts the next stage on the done date. Events of the next stage are dated from there.

## Events

- Plan events are due at stage start plus their offset. Events of a pending stage have no due date yet; the calendar shows an estimate.
- Completing a periodic occurrence adds the next occurrence, due one interval after the done date.
- Ad-hoc events need an estimated or a done date.

## Estimates

Completion is projected stage by stage: finished stages use their finish date, others their estimated duration. No backtracking is done.

## Harvest

` + "`submit_harvest`" + ` requires the last stage to be finished and a finish date on or after it. A crop is harvested once.
`,
	},
	{
		URI:         "cropline://docs/plan-format",
		Name:        "docs_plan_format",
		Title:       "Growth plan file format",
		Description: "YAML layout accepted by plan import.",
		Content: `# Growth plan file format

` + "```yaml" + `
species:
  name: Tomato
stages:
  - name: Germination
    estimated_duration: {days: 30}
    events:
      - name: Irrigate
        offset: {days: 0}
        repeat: {days: 7}
      - name: Thin seedlings
        offset: {days: 10}
  - name: Flowering
    estimated_duration: {months: 1}
` + "```" + `

Durations carry exactly one of ` + "`days`, `months` or `years`" + `.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
