package vacancy_tools

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/hh-mcp/internal/hh"
	"github.com/avoronov/hh-mcp/internal/server"
)

func newTestContext(t *testing.T, handler http.Handler) *server.ServerContext {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	sc := server.NewServerContext(t.Context(), "hh-mcp-test/0.0", "test-token", true, nil)
	sc.SetAPIBaseURL(api.URL)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestRegisterVacancyTools(t *testing.T) {
	sc := newTestContext(t, http.NotFoundHandler())
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(false))

	require.NoError(t, RegisterVacancyTools(s, sc))
}

func TestHandleSearchVacancies(t *testing.T) {
	var gotQuery map[string]string
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vacancies", r.URL.Path)
		gotQuery = map[string]string{
			"text":     r.URL.Query().Get("text"),
			"area":     r.URL.Query().Get("area"),
			"salary":   r.URL.Query().Get("salary"),
			"per_page": r.URL.Query().Get("per_page"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"found": 2, "page": 0, "pages": 1,
			"items": [
				{
					"id": "101", "name": "Go Developer", "alternate_url": "https://hh.ru/vacancy/101",
					"salary": {"from": 200000, "to": 300000, "currency": "RUR", "gross": true},
					"area": {"id": "1", "name": "Moscow"},
					"employer": {"id": "55", "name": "Acme"},
					"snippet": {"requirement": "Knows <highlighttext>Go</highlighttext> well"}
				},
				{"id": "102", "name": "Backend Engineer", "alternate_url": "https://hh.ru/vacancy/102", "salary": null}
			]
		}`))
	}))

	result, err := handleSearchVacancies(t.Context(), toolRequest(map[string]any{
		"text":        "golang",
		"area":        "1",
		"salary_from": float64(150000),
		"per_page":    float64(50),
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "golang", gotQuery["text"])
	assert.Equal(t, "1", gotQuery["area"])
	assert.Equal(t, "150000", gotQuery["salary"])
	assert.Equal(t, "50", gotQuery["per_page"])

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 vacancies")
	assert.Contains(t, text, "Go Developer")
	assert.Contains(t, text, "Employer: Acme")
	assert.Contains(t, text, "from 200000 to 300000 RUR (gross)")
	assert.Contains(t, text, "Knows Go well")
	assert.NotContains(t, text, "highlighttext")
	assert.Contains(t, text, "not disclosed")
}

func TestHandleSearchVacanciesMissingText(t *testing.T) {
	sc := newTestContext(t, http.NotFoundHandler())

	result, err := handleSearchVacancies(t.Context(), toolRequest(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSearchVacanciesAPIError(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"type":"forbidden","value":"token_revoked"}]}`))
	}))

	result, err := handleSearchVacancies(t.Context(), toolRequest(map[string]any{
		"text": "golang",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "token_revoked")
}

func TestHandleGetVacancy(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vacancies/101", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "101", "name": "Go Developer", "alternate_url": "https://hh.ru/vacancy/101",
			"salary": {"from": 200000, "currency": "RUR"},
			"area": {"id": "1", "name": "Moscow"},
			"employer": {"id": "55", "name": "Acme"},
			"experience": {"id": "between3And6", "name": "3-6 years"},
			"schedule": {"id": "remote", "name": "Remote"},
			"key_skills": [{"name": "Go"}, {"name": "PostgreSQL"}],
			"published_at": "2026-08-01T10:00:00+0300",
			"description": "<p>We build <b>services</b> in Go.</p>"
		}`))
	}))

	result, err := handleGetVacancy(t.Context(), toolRequest(map[string]any{
		"vacancy_id": "101",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "# Go Developer")
	assert.Contains(t, text, "Employer: Acme")
	assert.Contains(t, text, "Key skills: Go, PostgreSQL")
	assert.Contains(t, text, "## Description")
	assert.Contains(t, text, "**services**")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "ARCHIVED")
}

func TestHandleGetVacancyArchived(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "101", "name": "Old Role", "archived": true}`))
	}))

	result, err := handleGetVacancy(t.Context(), toolRequest(map[string]any{
		"vacancy_id": "101",
	}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "ARCHIVED")
}

func TestHandleGetVacancyMissingID(t *testing.T) {
	sc := newTestContext(t, http.NotFoundHandler())

	result, err := handleGetVacancy(t.Context(), toolRequest(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSimilarVacancies(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vacancies/101/similar_vacancies", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"found": 1, "page": 0, "pages": 1,
			"items": [{"id": "202", "name": "Go Engineer", "employer": {"name": "Widgets"}}]
		}`))
	}))

	result, err := handleSimilarVacancies(t.Context(), toolRequest(map[string]any{
		"vacancy_id": "101",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 1 similar vacancies")
	assert.Contains(t, text, "Go Engineer")
	assert.Contains(t, text, "Widgets")
}

func TestHandleGetEmployer(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/employers/55", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "55", "name": "Acme", "trusted": true, "open_vacancies": 12,
			"site_url": "https://acme.example",
			"description": "<p>We make <i>everything</i>.</p>"
		}`))
	}))

	result, err := handleGetEmployer(t.Context(), toolRequest(map[string]any{
		"employer_id": "55",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "# Acme")
	assert.Contains(t, text, "Trusted: true")
	assert.Contains(t, text, "Open vacancies: 12")
	assert.Contains(t, text, "everything")
	assert.NotContains(t, text, "<i>")
}

func TestHandlersWithoutCredentials(t *testing.T) {
	sc := server.NewServerContext(t.Context(), "hh-mcp-test/0.0", "", false, nil)
	t.Cleanup(func() { _ = sc.Shutdown() })

	result, err := handleSearchVacancies(t.Context(), toolRequest(map[string]any{
		"text": "golang",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no hh.ru credentials")
}

func TestFormatSalary(t *testing.T) {
	from := 100000
	to := 150000

	tests := []struct {
		name   string
		salary *hh.Salary
		want   string
	}{
		{name: "nil", salary: nil, want: "not disclosed"},
		{name: "empty range", salary: &hh.Salary{Currency: "RUR"}, want: "not disclosed"},
		{
			name:   "full range gross",
			salary: &hh.Salary{From: &from, To: &to, Currency: "RUR", Gross: true},
			want:   "from 100000 to 150000 RUR (gross)",
		},
		{
			name:   "from only net",
			salary: &hh.Salary{From: &from, Currency: "EUR"},
			want:   "from 100000 EUR",
		},
		{
			name:   "to only",
			salary: &hh.Salary{To: &to, Currency: "RUR"},
			want:   "to 150000 RUR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSalary(tt.salary))
		})
	}
}
