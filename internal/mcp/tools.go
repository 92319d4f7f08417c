package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListStudiesInput takes no arguments.
type ListStudiesInput struct{}

// StudyReportInput selects a study to export.
type StudyReportInput struct {
	StudyID string `json:"study_id" jsonschema:"ID of the study, from list_studies"`
}

// ParticipationEventsInput selects a participation's event stream.
type ParticipationEventsInput struct {
	ParticipationID string `json:"participation_id" jsonschema:"ID of the participation, from study_report"`
}

func registerTools(server *sdkmcp.Server, svc Services) {
	readOnly := &sdkmcp.ToolAnnotations{ReadOnlyHint: true}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_studies",
		Description: "List all studies with their study code and participation count",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListStudiesInput) (*sdkmcp.CallToolResult, any, error) {
		studies, err := svc.Studies.List(ctx)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(map[string]any{"studies": studies})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "study_report",
		Description: "Export every participation of a study with derived status, per-email sorting correctness and the full event stream",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in StudyReportInput) (*sdkmcp.CallToolResult, any, error) {
		if in.StudyID == "" {
			return nil, nil, fmt.Errorf("study_id is required")
		}
		rep, err := svc.Reports.Study(ctx, in.StudyID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(rep)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "participation_events",
		Description: "Return the behavioural events of one participation, oldest first",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ParticipationEventsInput) (*sdkmcp.CallToolResult, any, error) {
		if in.ParticipationID == "" {
			return nil, nil, fmt.Errorf("participation_id is required")
		}
		records, err := svc.Reports.Events(ctx, in.ParticipationID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(map[string]any{"events": records})
	})
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
