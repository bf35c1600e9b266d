package dictionary_tools

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/hh-mcp/internal/server"
)

const areasBody = `[
	{
		"id": "113", "name": "Russia",
		"areas": [
			{"id": "1", "name": "Moscow", "areas": []},
			{"id": "2", "name": "Saint Petersburg", "areas": []}
		]
	},
	{"id": "16", "name": "Belarus", "areas": [{"id": "1002", "name": "Minsk", "areas": []}]}
]`

func newTestContext(t *testing.T, handler http.Handler) *server.ServerContext {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	sc := server.NewServerContext(t.Context(), "hh-mcp-test/0.0", "test-token", false, nil)
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

func TestRegisterDictionaryTools(t *testing.T) {
	sc := newTestContext(t, http.NotFoundHandler())
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(false))

	require.NoError(t, RegisterDictionaryTools(s, sc))
}

func TestHandleListAreas(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/areas", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(areasBody))
	}))

	result, err := handleListAreas(t.Context(), toolRequest(nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Russia (id: 113)")
	assert.Contains(t, text, "  Moscow (id: 1)")
	assert.Contains(t, text, "  Saint Petersburg (id: 2)")
	assert.Contains(t, text, "Minsk (id: 1002)")
}

func TestHandleListAreasFilter(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(areasBody))
	}))

	result, err := handleListAreas(t.Context(), toolRequest(map[string]any{
		"filter": "moscow",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Moscow (id: 1)")
	assert.NotContains(t, text, "Saint Petersburg")
	assert.NotContains(t, text, "Belarus")
}

func TestHandleListAreasFilterNoMatch(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(areasBody))
	}))

	result, err := handleListAreas(t.Context(), toolRequest(map[string]any{
		"filter": "atlantis",
	}), sc)
	require.NoError(t, err)
	assert.Equal(t, "No areas matched the filter.", resultText(t, result))
}

func TestHandleSuggestSkills(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/suggests/skill_set", r.URL.Path)
		require.Equal(t, "kuber", r.URL.Query().Get("text"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{"id": "3022", "text": "Kubernetes"}]}`))
	}))

	result, err := handleSuggestSkills(t.Context(), toolRequest(map[string]any{
		"text": "kuber",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, `Skills matching "kuber"`)
	assert.Contains(t, text, "Kubernetes (id: 3022)")
}

func TestHandleSuggestSkillsTooShort(t *testing.T) {
	sc := newTestContext(t, http.NotFoundHandler())

	for _, text := range []string{"", "k", "  k  "} {
		result, err := handleSuggestSkills(t.Context(), toolRequest(map[string]any{
			"text": text,
		}), sc)
		require.NoError(t, err)
		assert.True(t, result.IsError, "text %q should be rejected", text)
	}
}

func TestHandleSuggestSkillsNoMatch(t *testing.T) {
	sc := newTestContext(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": []}`))
	}))

	result, err := handleSuggestSkills(t.Context(), toolRequest(map[string]any{
		"text": "zz",
	}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No skills matched")
}
