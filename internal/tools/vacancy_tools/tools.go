// Package vacancy_tools exposes vacancy search and employer lookup tools.
package vacancy_tools

import (
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avoronov/hh-mcp/internal/hh"
	"github.com/avoronov/hh-mcp/internal/server"
	"github.com/avoronov/hh-mcp/internal/tools/clientutil"
)

// RegisterVacancyTools registers all vacancy-related tools with the MCP
// server. All of them are read-only.
func RegisterVacancyTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("hh_search_vacancies",
		mcp.WithDescription("Search vacancies on hh.ru by text query with optional filters"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Search query (e.g., 'golang developer')"),
		),
		mcp.WithString("area",
			mcp.Description("Area id to search in (e.g., '1' for Moscow, '2' for Saint Petersburg; see hh_list_areas)"),
		),
		mcp.WithNumber("salary_from",
			mcp.Description("Minimum salary"),
		),
		mcp.WithBoolean("only_with_salary",
			mcp.Description("Only return vacancies that disclose a salary"),
		),
		mcp.WithString("experience",
			mcp.Description("Experience filter: noExperience, between1And3, between3And6, moreThan6"),
		),
		mcp.WithString("schedule",
			mcp.Description("Schedule filter: fullDay, shift, flexible, remote, flyInFlyOut"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number (default: 0)"),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Results per page (default: 20, max: 100)"),
		),
	)
	s.AddTool(searchTool, clientutil.Instrument(sc, "hh_search_vacancies",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchVacancies(ctx, request, sc)
		}))

	getTool := mcp.NewTool("hh_get_vacancy",
		mcp.WithDescription("Get the full description of a vacancy, converted to Markdown"),
		mcp.WithString("vacancy_id",
			mcp.Required(),
			mcp.Description("The vacancy id"),
		),
	)
	s.AddTool(getTool, clientutil.Instrument(sc, "hh_get_vacancy",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetVacancy(ctx, request, sc)
		}))

	similarTool := mcp.NewTool("hh_list_similar_vacancies",
		mcp.WithDescription("List vacancies similar to a given one"),
		mcp.WithString("vacancy_id",
			mcp.Required(),
			mcp.Description("The vacancy id to find similar vacancies for"),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Results per page (default: 20)"),
		),
	)
	s.AddTool(similarTool, clientutil.Instrument(sc, "hh_list_similar_vacancies",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSimilarVacancies(ctx, request, sc)
		}))

	employerTool := mcp.NewTool("hh_get_employer",
		mcp.WithDescription("Get details about an employer"),
		mcp.WithString("employer_id",
			mcp.Required(),
			mcp.Description("The employer id"),
		),
	)
	s.AddTool(employerTool, clientutil.Instrument(sc, "hh_get_employer",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEmployer(ctx, request, sc)
		}))

	return nil
}

func handleSearchVacancies(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	params := hh.VacancySearchParams{
		Text:    text,
		Page:    0,
		PerPage: 20,
	}
	if area, ok := args["area"].(string); ok {
		params.Area = area
	}
	if salary, ok := args["salary_from"].(float64); ok {
		params.SalaryFrom = int(salary)
	}
	if only, ok := args["only_with_salary"].(bool); ok {
		params.OnlyWithSalary = only
	}
	if exp, ok := args["experience"].(string); ok {
		params.Experience = exp
	}
	if sched, ok := args["schedule"].(string); ok {
		params.Schedule = sched
	}
	if page, ok := args["page"].(float64); ok {
		params.Page = int(page)
	}
	if perPage, ok := args["per_page"].(float64); ok {
		params.PerPage = int(perPage)
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := client.SearchVacancies(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search vacancies: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d vacancies (page %d of %d):\n\n", page.Found, page.Page+1, page.Pages)
	for i, v := range page.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.Name)
		fmt.Fprintf(&b, "   ID: %s\n", v.ID)
		if v.Employer != nil {
			fmt.Fprintf(&b, "   Employer: %s\n", v.Employer.Name)
		}
		if v.Area != nil {
			fmt.Fprintf(&b, "   Area: %s\n", v.Area.Name)
		}
		fmt.Fprintf(&b, "   Salary: %s\n", formatSalary(v.Salary))
		if v.Snippet != nil && v.Snippet.Requirement != "" {
			fmt.Fprintf(&b, "   Requirements: %s\n", stripHighlights(v.Snippet.Requirement))
		}
		fmt.Fprintf(&b, "   URL: %s\n\n", v.AlternateURL)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleGetVacancy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	vacancyID, ok := args["vacancy_id"].(string)
	if !ok || vacancyID == "" {
		return mcp.NewToolResultError("vacancy_id is required"), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	v, err := client.GetVacancy(ctx, vacancyID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get vacancy %s: %v", vacancyID, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Name)
	if v.Employer != nil {
		fmt.Fprintf(&b, "Employer: %s (id %s)\n", v.Employer.Name, v.Employer.ID)
	}
	if v.Area != nil {
		fmt.Fprintf(&b, "Area: %s\n", v.Area.Name)
	}
	fmt.Fprintf(&b, "Salary: %s\n", formatSalary(v.Salary))
	if v.Experience != nil {
		fmt.Fprintf(&b, "Experience: %s\n", v.Experience.Name)
	}
	if v.Schedule != nil {
		fmt.Fprintf(&b, "Schedule: %s\n", v.Schedule.Name)
	}
	if v.Employment != nil {
		fmt.Fprintf(&b, "Employment: %s\n", v.Employment.Name)
	}
	if len(v.KeySkills) > 0 {
		skills := make([]string, len(v.KeySkills))
		for i, s := range v.KeySkills {
			skills[i] = s.Name
		}
		fmt.Fprintf(&b, "Key skills: %s\n", strings.Join(skills, ", "))
	}
	fmt.Fprintf(&b, "Published: %s\n", v.PublishedAt)
	if v.Archived {
		b.WriteString("Status: ARCHIVED\n")
	}
	fmt.Fprintf(&b, "URL: %s\n\n", v.AlternateURL)

	// hh.ru serves descriptions as HTML; convert so the model gets clean
	// Markdown instead of tag soup.
	description := v.Description
	if description == "" {
		description = v.BrandedDescription
	}
	if description != "" {
		markdown, err := htmltomarkdown.ConvertString(description)
		if err != nil {
			markdown = description
		}
		b.WriteString("## Description\n\n")
		b.WriteString(markdown)
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleSimilarVacancies(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	vacancyID, ok := args["vacancy_id"].(string)
	if !ok || vacancyID == "" {
		return mcp.NewToolResultError("vacancy_id is required"), nil
	}

	perPage := 20
	if v, ok := args["per_page"].(float64); ok {
		perPage = int(v)
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := client.SimilarVacancies(ctx, vacancyID, perPage)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list similar vacancies: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d similar vacancies:\n\n", page.Found)
	for i, v := range page.Items {
		fmt.Fprintf(&b, "%d. %s (id %s", i+1, v.Name, v.ID)
		if v.Employer != nil {
			fmt.Fprintf(&b, ", %s", v.Employer.Name)
		}
		fmt.Fprintf(&b, ") %s\n", formatSalary(v.Salary))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleGetEmployer(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	employerID, ok := args["employer_id"].(string)
	if !ok || employerID == "" {
		return mcp.NewToolResultError("employer_id is required"), nil
	}

	client, err := clientutil.ClientFor(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	e, err := client.GetEmployer(ctx, employerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get employer %s: %v", employerID, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Name)
	fmt.Fprintf(&b, "ID: %s\n", e.ID)
	fmt.Fprintf(&b, "Trusted: %t\n", e.Trusted)
	if e.OpenVacancies > 0 {
		fmt.Fprintf(&b, "Open vacancies: %d\n", e.OpenVacancies)
	}
	if e.SiteURL != "" {
		fmt.Fprintf(&b, "Site: %s\n", e.SiteURL)
	}
	if e.AlternateURL != "" {
		fmt.Fprintf(&b, "URL: %s\n", e.AlternateURL)
	}
	if e.Description != "" {
		markdown, err := htmltomarkdown.ConvertString(e.Description)
		if err != nil {
			markdown = e.Description
		}
		fmt.Fprintf(&b, "\n%s\n", markdown)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// formatSalary renders a salary range for humans.
func formatSalary(s *hh.Salary) string {
	if s == nil {
		return "not disclosed"
	}
	var parts []string
	if s.From != nil {
		parts = append(parts, fmt.Sprintf("from %d", *s.From))
	}
	if s.To != nil {
		parts = append(parts, fmt.Sprintf("to %d", *s.To))
	}
	if len(parts) == 0 {
		return "not disclosed"
	}
	out := strings.Join(parts, " ") + " " + s.Currency
	if s.Gross {
		out += " (gross)"
	}
	return out
}

// stripHighlights removes the highlighttext markers hh.ru embeds in search
// snippets.
func stripHighlights(s string) string {
	s = strings.ReplaceAll(s, "<highlighttext>", "")
	return strings.ReplaceAll(s, "</highlighttext>", "")
}
