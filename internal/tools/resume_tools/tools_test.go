package resume_tools

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

func newTestContext(t *testing.T, yolo bool, handler http.Handler) *server.ServerContext {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	sc := server.NewServerContext(t.Context(), "hh-mcp-test/0.0", "test-token", yolo, nil)
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

func TestRegisterResumeTools(t *testing.T) {
	sc := newTestContext(t, true, http.NotFoundHandler())
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(false))

	require.NoError(t, RegisterResumeTools(s, sc))
}

func TestHandleListResumes(t *testing.T) {
	sc := newTestContext(t, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/resumes/mine", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"found": 1, "page": 0, "pages": 1,
			"items": [{
				"id": "res-1", "title": "Go Developer",
				"status": {"id": "published", "name": "Published"},
				"total_views": 42, "new_views": 3,
				"updated_at": "2026-08-20T12:00:00+0300"
			}]
		}`))
	}))

	result, err := handleListResumes(t.Context(), toolRequest(nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 1 resumes")
	assert.Contains(t, text, "Go Developer")
	assert.Contains(t, text, "Status: Published")
	assert.Contains(t, text, "42 total, 3 new")
}

func TestHandleListResumesEmpty(t *testing.T) {
	sc := newTestContext(t, false, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"found": 0, "items": []}`))
	}))

	result, err := handleListResumes(t.Context(), toolRequest(nil), sc)
	require.NoError(t, err)
	assert.Equal(t, "No resumes found.", resultText(t, result))
}

func TestHandleGetResume(t *testing.T) {
	sc := newTestContext(t, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/resumes/res-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "res-1", "title": "Go Developer",
			"first_name": "Ivan", "last_name": "Petrov",
			"age": 30,
			"area": {"id": "1", "name": "Moscow"},
			"salary": {"from": 250000, "currency": "RUR"},
			"skill_set": ["Go", "Kubernetes"],
			"experience": [
				{"company": "Acme", "position": "Backend Engineer", "start": "2021-02-01"},
				{"company": "Widgets", "position": "Developer", "start": "2018-06-01", "end": "2021-01-31"}
			],
			"updated_at": "2026-08-20T12:00:00+0300"
		}`))
	}))

	result, err := handleGetResume(t.Context(), toolRequest(map[string]any{
		"resume_id": "res-1",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "# Go Developer")
	assert.Contains(t, text, "Ivan Petrov")
	assert.Contains(t, text, "Age: 30")
	assert.Contains(t, text, "Expected salary: 250000 RUR")
	assert.Contains(t, text, "Skills: Go, Kubernetes")
	assert.Contains(t, text, "Backend Engineer at Acme (2021-02-01 - now)")
	assert.Contains(t, text, "Developer at Widgets (2018-06-01 - 2021-01-31)")
}

func TestHandleGetResumeMissingID(t *testing.T) {
	sc := newTestContext(t, false, http.NotFoundHandler())

	result, err := handleGetResume(t.Context(), toolRequest(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandlePublishResume(t *testing.T) {
	var published bool
	sc := newTestContext(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/resumes/res-1/publish", r.URL.Path)
		published = true
		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := handlePublishResume(t.Context(), toolRequest(map[string]any{
		"resume_id": "res-1",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.True(t, published)
	text := resultText(t, result)
	assert.Contains(t, text, `"successful": 1`)
	assert.Contains(t, text, "published")
}

func TestHandlePublishResumePartialFailure(t *testing.T) {
	sc := newTestContext(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/resumes/res-2/publish" {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"description": "Can't update resume more often than once in 4 hours"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := handlePublishResume(t.Context(), toolRequest(map[string]any{
		"resume_id": []any{"res-1", "res-2"},
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, "one success keeps the call successful")

	text := resultText(t, result)
	assert.Contains(t, text, `"successful": 1`)
	assert.Contains(t, text, `"failed": 1`)
	assert.Contains(t, text, "4 hours")
}

func TestHandlePublishResumeAllFail(t *testing.T) {
	sc := newTestContext(t, true, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"description": "Can't update resume more often than once in 4 hours"}`))
	}))

	result, err := handlePublishResume(t.Context(), toolRequest(map[string]any{
		"resume_id": "res-1",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "4 hours")
}

func TestPublishNotRegisteredWithoutYolo(t *testing.T) {
	sc := newTestContext(t, false, http.NotFoundHandler())
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(false))
	require.NoError(t, RegisterResumeTools(s, sc))

	// The publish tool only exists in yolo mode, so calling it must fail
	// with an unknown-tool error.
	response := s.HandleMessage(t.Context(), []byte(`{
		"jsonrpc": "2.0", "id": 1, "method": "tools/call",
		"params": {"name": "hh_publish_resume", "arguments": {"resume_id": "res-1"}}
	}`))
	_, ok := response.(mcp.JSONRPCError)
	require.True(t, ok, "expected a JSON-RPC error, got %T", response)
}
