package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/task"
)

func registerTasksResource(s *server.MCPServer) {
	resource := mcp.NewResource(
		"pdf-analyze://tasks",
		"Analysis Tasks",
		mcp.WithResourceDescription("Built-in analysis task definitions: prompts, temperatures, and token budgets."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		configs := make([]task.Config, 0, len(task.Names()))
		for _, name := range task.Names() {
			cfg, err := task.Get(name)
			if err != nil {
				continue
			}
			configs = append(configs, cfg)
		}

		payload := map[string]any{
			"tasks": configs,
			"count": len(configs),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
