// Package negotiation_tools covers the applicant side of hh.ru negotiations:
// listing threads, reading messages, applying to vacancies and replying.
package negotiation_tools

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

// RegisterNegotiationTools registers negotiation tools. Applying to a vacancy
// and sending messages mutate hh.ru state and are only registered when write
// operations are enabled.
func RegisterNegotiationTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("hh_list_negotiations",
		mcp.WithDescription("List the authenticated user's negotiations (applications and employer responses)"),
		mcp.WithNumber("page",
			mcp.Description("Page number, starting at 0"),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Results per page, up to 100 (default 20)"),
		),
	)
	s.AddTool(listTool, clientutil.Instrument(sc, "hh_list_negotiations",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListNegotiations(ctx, request, sc)
		}))

	getTool := mcp.NewTool("hh_get_negotiation",
		mcp.WithDescription("Get the details of one negotiation thread"),
		mcp.WithString("negotiation_id",
			mcp.Required(),
			mcp.Description("The negotiation id"),
		),
	)
	s.AddTool(getTool, clientutil.Instrument(sc, "hh_get_negotiation",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetNegotiation(ctx, request, sc)
		}))

	messagesTool := mcp.NewTool("hh_list_negotiation_messages",
		mcp.WithDescription("List the messages of one negotiation thread"),
		mcp.WithString("negotiation_id",
			mcp.Required(),
			mcp.Description("The negotiation id"),
		),
	)
	s.AddTool(messagesTool, clientutil.Instrument(sc, "hh_list_negotiation_messages",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))

	if sc.Yolo() {
		applyTool := mcp.NewTool("hh_apply_to_vacancy",
			mcp.WithDescription("Apply to a vacancy with one of the user's resumes, optionally with a cover message"),
			mcp.WithString("vacancy_id",
				mcp.Required(),
				mcp.Description("The vacancy id to apply to"),
			),
			mcp.WithString("resume_id",
				mcp.Required(),
				mcp.Description("The resume id to apply with"),
			),
			mcp.WithString("message",
				mcp.Description("Optional cover message"),
			),
		)
		s.AddTool(applyTool, clientutil.Instrument(sc, "hh_apply_to_vacancy",
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleApply(ctx, request, sc)
			}))

		sendTool := mcp.NewTool("hh_send_negotiation_message",
			mcp.WithDescription("Send a message in an existing negotiation thread"),
			mcp.WithString("negotiation_id",
				mcp.Required(),
				mcp.Description("The negotiation id"),
			),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("The message text"),
			),
		)
		s.AddTool(sendTool, clientutil.Instrument(sc, "hh_send_negotiation_message",
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleSendMessage(ctx, request, sc)
			}))
	}

	return nil
}

func handleListNegotiations(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	page := 0
	if v, ok := args["page"].(float64); ok {
		page = int(v)
	}
	perPage := 0
	if v, ok := args["per_page"].(float64); ok {
		perPage = int(v)
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	np, err := client.Negotiations(ctx, page, perPage)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list negotiations: %v", err)), nil
	}

	if len(np.Items) == 0 {
		return mcp.NewToolResultText("No negotiations found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d negotiations (page %d of %d):\n\n", np.Found, np.Page+1, np.Pages)
	for i, n := range np.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, negotiationTitle(&n))
		fmt.Fprintf(&b, "   ID: %s\n", n.ID)
		if n.State != nil {
			fmt.Fprintf(&b, "   State: %s\n", n.State.Name)
		}
		if n.HasUpdates {
			b.WriteString("   Has unread updates\n")
		}
		fmt.Fprintf(&b, "   Updated: %s\n\n", n.UpdatedAt)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleGetNegotiation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, ok := args["negotiation_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("negotiation_id is required"), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n, err := client.GetNegotiation(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get negotiation %s: %v", id, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", negotiationTitle(n))
	fmt.Fprintf(&b, "ID: %s\n", n.ID)
	if n.State != nil {
		fmt.Fprintf(&b, "State: %s\n", n.State.Name)
	}
	fmt.Fprintf(&b, "Created: %s\n", n.CreatedAt)
	fmt.Fprintf(&b, "Updated: %s\n", n.UpdatedAt)
	if n.Vacancy != nil {
		fmt.Fprintf(&b, "Vacancy: %s (%s)\n", n.Vacancy.Name, n.Vacancy.ID)
		if n.Vacancy.AlternateURL != "" {
			fmt.Fprintf(&b, "Vacancy URL: %s\n", n.Vacancy.AlternateURL)
		}
	}
	if n.Resume != nil {
		fmt.Fprintf(&b, "Resume: %s (%s)\n", n.Resume.Title, n.Resume.ID)
	}
	if n.ViewedByOpponent {
		b.WriteString("Viewed by the employer\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, ok := args["negotiation_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("negotiation_id is required"), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mp, err := client.NegotiationMessages(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list messages for negotiation %s: %v", id, err)), nil
	}

	if len(mp.Items) == 0 {
		return mcp.NewToolResultText("No messages in this negotiation."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d messages:\n\n", len(mp.Items))
	for _, m := range mp.Items {
		author := "unknown"
		if m.Author != nil {
			author = m.Author.ParticipantType
		}
		fmt.Fprintf(&b, "[%s] %s:\n%s\n\n", m.CreatedAt, author, m.Text)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleApply(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	vacancyID, ok := args["vacancy_id"].(string)
	if !ok || vacancyID == "" {
		return mcp.NewToolResultError("vacancy_id is required"), nil
	}
	resumeID, ok := args["resume_id"].(string)
	if !ok || resumeID == "" {
		return mcp.NewToolResultError("resume_id is required"), nil
	}
	message, _ := args["message"].(string)

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.Apply(ctx, vacancyID, resumeID, message); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to apply to vacancy %s: %v", vacancyID, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Applied to vacancy %s with resume %s.", vacancyID, resumeID)), nil
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, ok := args["negotiation_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("negotiation_id is required"), nil
	}
	message, ok := args["message"].(string)
	if !ok || strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.SendNegotiationMessage(ctx, id, message); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message in negotiation %s: %v", id, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent in negotiation %s.", id)), nil
}

func negotiationTitle(n *hh.Negotiation) string {
	if n.Vacancy != nil {
		return n.Vacancy.Name
	}
	return "Negotiation " + n.ID
}
