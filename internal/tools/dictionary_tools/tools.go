// Package dictionary_tools exposes hh.ru reference data: the region tree and
// key skill suggestions.
package dictionary_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avoronov/hh-mcp/internal/hh"
	"github.com/avoronov/hh-mcp/internal/server"
	"github.com/avoronov/hh-mcp/internal/tools/clientutil"
)

// RegisterDictionaryTools registers reference data tools.
func RegisterDictionaryTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	areasTool := mcp.NewTool("hh_list_areas",
		mcp.WithDescription("List hh.ru regions (areas) with the ids used in vacancy search filters"),
		mcp.WithString("filter",
			mcp.Description("Optional case-insensitive substring to filter region names"),
		),
	)
	s.AddTool(areasTool, clientutil.Instrument(sc, "hh_list_areas",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAreas(ctx, request, sc)
		}))

	skillsTool := mcp.NewTool("hh_suggest_skills",
		mcp.WithDescription("Suggest key skills matching a text prefix"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to complete, at least 2 characters"),
		),
	)
	s.AddTool(skillsTool, clientutil.Instrument(sc, "hh_suggest_skills",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSuggestSkills(ctx, request, sc)
		}))

	return nil
}

func handleListAreas(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	filter, _ := args["filter"].(string)

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	areas, err := client.Areas(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list areas: %v", err)), nil
	}

	var b strings.Builder
	writeAreas(&b, areas, strings.ToLower(filter), 0)
	if b.Len() == 0 {
		return mcp.NewToolResultText("No areas matched the filter."), nil
	}

	return mcp.NewToolResultText(b.String()), nil
}

// writeAreas renders the region tree indented by depth. With a filter set,
// only matching nodes are printed but their subtrees are still walked.
func writeAreas(b *strings.Builder, areas []hh.Area, filter string, depth int) {
	for _, a := range areas {
		if filter == "" || strings.Contains(strings.ToLower(a.Name), filter) {
			fmt.Fprintf(b, "%s%s (id: %s)\n", strings.Repeat("  ", depth), a.Name, a.ID)
			writeAreas(b, a.Areas, "", depth+1)
			continue
		}
		writeAreas(b, a.Areas, filter, depth)
	}
}

func handleSuggestSkills(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text, ok := args["text"].(string)
	if !ok || len(strings.TrimSpace(text)) < 2 {
		return mcp.NewToolResultError("text is required and must be at least 2 characters"), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	skills, err := client.SuggestSkills(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to suggest skills: %v", err)), nil
	}

	if len(skills) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No skills matched %q.", text)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Skills matching %q:\n\n", text)
	for _, s := range skills {
		fmt.Fprintf(&b, "- %s (id: %s)\n", s.Text, s.ID)
	}

	return mcp.NewToolResultText(b.String()), nil
}
