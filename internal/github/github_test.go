package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRepositories(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/jodev/repos", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("per_page"))
		assert.Equal(t, "created:asc", q.Get("sort"))
		assert.Equal(t, "my-id", q.Get("client_id"))
		assert.Equal(t, "my-secret", q.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"oldest","html_url":"https://github.com/jodev/oldest","stargazers_count":3},
			{"id":2,"name":"newer","html_url":"https://github.com/jodev/newer"}
		]`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "my-id", "my-secret")

	repos, err := client.ListRepositories(context.Background(), "jodev")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "oldest", repos[0].Name)
	assert.Equal(t, 3, repos[0].Stargazers)
}

func TestListRepositories_UpstreamFailuresMapToUserNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Upstream 404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "Upstream 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "Malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not":"a list"`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(tt.handler)
			defer upstream.Close()

			client := NewClient(upstream.URL, "", "")
			repos, err := client.ListRepositories(context.Background(), "ghost")

			assert.Nil(t, repos)
			var notFound *ErrUserNotFound
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, "We couldn't find any user matching 'ghost'.", err.Error())
		})
	}
}

func TestListRepositories_UnreachableUpstream(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", "")

	_, err := client.ListRepositories(context.Background(), "ghost")
	var notFound *ErrUserNotFound
	assert.ErrorAs(t, err, &notFound)
}
