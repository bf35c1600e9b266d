package hh

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)
	return NewClient("test-token", "hh-mcp-test/0.0", WithBaseURL(api.URL))
}

func TestClientSendsRequiredHeaders(t *testing.T) {
	var gotHeaders http.Header
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "u1", "email": "ivan@example.com"}`))
	}))

	user, err := client.Me(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Bearer test-token", gotHeaders.Get("Authorization"))
	assert.Equal(t, "hh-mcp-test/0.0", gotHeaders.Get("User-Agent"))
	assert.Equal(t, "hh-mcp-test/0.0", gotHeaders.Get("HH-User-Agent"))
	assert.Equal(t, "application/json", gotHeaders.Get("Accept"))
}

func TestClientDecodesAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"type":"oauth","value":"token_revoked"}],"description":"token revoked"}`))
	}))

	_, err := client.Me(t.Context())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "token_revoked", apiErr.Value)
	assert.Equal(t, "token revoked", apiErr.Description)
	assert.True(t, apiErr.IsUnauthorized())
	assert.Contains(t, apiErr.Error(), "token_revoked")
}

func TestClientAPIErrorFallsBackToType(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"type":"bad_argument"}]}`))
	}))

	_, err := client.Me(t.Context())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad_argument", apiErr.Value)
	assert.False(t, apiErr.IsUnauthorized())
}

func TestClientAPIErrorUnparsableBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream blew up"))
	}))

	_, err := client.Me(t.Context())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "hh api: status 502", apiErr.Error())
}

func TestSearchVacanciesQuery(t *testing.T) {
	var got string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"found": 0, "items": []}`))
	}))

	_, err := client.SearchVacancies(t.Context(), VacancySearchParams{
		Text:           "golang",
		Area:           "1",
		SalaryFrom:     100000,
		OnlyWithSalary: true,
		Experience:     "between1And3",
		Schedule:       "remote",
		Page:           2,
		PerPage:        50,
	})
	require.NoError(t, err)

	q, err := url.ParseQuery(got)
	require.NoError(t, err)
	assert.Equal(t, "golang", q.Get("text"))
	assert.Equal(t, "1", q.Get("area"))
	assert.Equal(t, "100000", q.Get("salary"))
	assert.Equal(t, "true", q.Get("only_with_salary"))
	assert.Equal(t, "between1And3", q.Get("experience"))
	assert.Equal(t, "remote", q.Get("schedule"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "50", q.Get("per_page"))
}

func TestSearchVacanciesClampsPerPage(t *testing.T) {
	tests := []struct {
		name    string
		perPage int
		want    string
	}{
		{name: "zero defaults", perPage: 0, want: "20"},
		{name: "negative defaults", perPage: -1, want: "20"},
		{name: "above max defaults", perPage: 500, want: "20"},
		{name: "in range kept", perPage: 100, want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("per_page")
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"found": 0, "items": []}`))
			}))

			_, err := client.SearchVacancies(t.Context(), VacancySearchParams{Text: "x", PerPage: tt.perPage})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetVacancyEscapesID(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "x"}`))
	}))

	_, err := client.GetVacancy(t.Context(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/vacancies/a%2Fb", gotPath)
}

func TestPublishResumeEmptyBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.PublishResume(t.Context(), "res-1"))
}

func TestApplySendsForm(t *testing.T) {
	var gotForm map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"vacancy_id": r.PostForm.Get("vacancy_id"),
			"resume_id":  r.PostForm.Get("resume_id"),
			"message":    r.PostForm.Get("message"),
		}
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, client.Apply(t.Context(), "101", "res-1", ""))
	assert.Equal(t, "101", gotForm["vacancy_id"])
	assert.Equal(t, "res-1", gotForm["resume_id"])
	assert.Empty(t, gotForm["message"])
}

func TestAreasDecodesTree(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "113", "name": "Russia", "areas": [{"id": "1", "name": "Moscow"}]}]`))
	}))

	areas, err := client.Areas(t.Context())
	require.NoError(t, err)
	require.Len(t, areas, 1)
	require.Len(t, areas[0].Areas, 1)
	assert.Equal(t, "Moscow", areas[0].Areas[0].Name)
}

func TestSuggestSkillsUnwrapsItems(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "go", r.URL.Query().Get("text"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{"id": "7", "text": "Go"}]}`))
	}))

	skills, err := client.SuggestSkills(t.Context(), "go")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "Go", skills[0].Text)
}
