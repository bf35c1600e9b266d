// Package resume_tools exposes the caller's resumes: listing, details and
// the publish (bump) operation.
package resume_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avoronov/hh-mcp/internal/hh"
	"github.com/avoronov/hh-mcp/internal/server"
	"github.com/avoronov/hh-mcp/internal/tools/batch"
	"github.com/avoronov/hh-mcp/internal/tools/clientutil"
)

// RegisterResumeTools registers resume tools. Publishing mutates hh.ru state
// and is only registered when write operations are enabled.
func RegisterResumeTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("hh_list_resumes",
		mcp.WithDescription("List the authenticated user's resumes"),
	)
	s.AddTool(listTool, clientutil.Instrument(sc, "hh_list_resumes",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListResumes(ctx, request, sc)
		}))

	getTool := mcp.NewTool("hh_get_resume",
		mcp.WithDescription("Get the details of one resume"),
		mcp.WithString("resume_id",
			mcp.Required(),
			mcp.Description("The resume id"),
		),
	)
	s.AddTool(getTool, clientutil.Instrument(sc, "hh_get_resume",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetResume(ctx, request, sc)
		}))

	if sc.Yolo() {
		publishTool := mcp.NewTool("hh_publish_resume",
			mcp.WithDescription("Publish (bump) one or several resumes so they rise in employer searches"),
			mcp.WithString("resume_id",
				mcp.Required(),
				mcp.Description("A resume id, or an array of resume ids to publish"),
			),
		)
		s.AddTool(publishTool, clientutil.Instrument(sc, "hh_publish_resume",
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handlePublishResume(ctx, request, sc)
			}))
	}

	return nil
}

func handleListResumes(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := client.MyResumes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list resumes: %v", err)), nil
	}

	if len(page.Items) == 0 {
		return mcp.NewToolResultText("No resumes found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d resumes:\n\n", page.Found)
	for i, r := range page.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   ID: %s\n", r.ID)
		if r.Status != nil {
			fmt.Fprintf(&b, "   Status: %s\n", r.Status.Name)
		}
		fmt.Fprintf(&b, "   Views: %d total, %d new\n", r.TotalViews, r.NewViews)
		fmt.Fprintf(&b, "   Updated: %s\n\n", r.UpdatedAt)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleGetResume(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	resumeID, ok := args["resume_id"].(string)
	if !ok || resumeID == "" {
		return mcp.NewToolResultError("resume_id is required"), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := client.GetResume(ctx, resumeID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get resume %s: %v", resumeID, err)), nil
	}

	return mcp.NewToolResultText(formatResume(r)), nil
}

func handlePublishResume(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseIDs(args["resume_id"], "resume_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.Run(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if err := client.PublishResume(ctx, id); err != nil {
			return "", err
		}
		return "published", nil
	})

	if batch.AllFailed(results) {
		return mcp.NewToolResultError(batch.Summarize(results)), nil
	}
	return mcp.NewToolResultText(batch.Summarize(results)), nil
}

func formatResume(r *hh.Resume) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "ID: %s\n", r.ID)
	fmt.Fprintf(&b, "Name: %s %s\n", r.FirstName, r.LastName)
	if r.Age != nil {
		fmt.Fprintf(&b, "Age: %d\n", *r.Age)
	}
	if r.Area != nil {
		fmt.Fprintf(&b, "Area: %s\n", r.Area.Name)
	}
	if r.Salary != nil && r.Salary.From != nil {
		fmt.Fprintf(&b, "Expected salary: %d %s\n", *r.Salary.From, r.Salary.Currency)
	}
	if r.Status != nil {
		fmt.Fprintf(&b, "Status: %s\n", r.Status.Name)
	}
	fmt.Fprintf(&b, "Updated: %s\n", r.UpdatedAt)
	if r.AlternateURL != "" {
		fmt.Fprintf(&b, "URL: %s\n", r.AlternateURL)
	}
	if len(r.SkillSet) > 0 {
		fmt.Fprintf(&b, "\nSkills: %s\n", strings.Join(r.SkillSet, ", "))
	}
	if len(r.Experience) > 0 {
		b.WriteString("\n## Experience\n\n")
		for _, e := range r.Experience {
			end := e.End
			if end == "" {
				end = "now"
			}
			fmt.Fprintf(&b, "- %s at %s (%s - %s)\n", e.Position, e.Company, e.Start, end)
		}
	}
	return b.String()
}
