package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetze/ghaudit/internal/domain"
)

func TestPagination_FollowsNextLinks(t *testing.T) {
	pages := map[string][]map[string]string{
		"1": {{"name": "core", "slug": "core"}, {"name": "infra", "slug": "infra"}},
		"2": {{"name": "security", "slug": "security"}},
	}

	var requestedPages []string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		requestedPages = append(requestedPages, page)

		assert.Equal(t, "/orgs/acme/teams", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		if page == "1" {
			w.Header().Set("Link", `<https://api.github.com/orgs/acme/teams?page=2>; rel="next", <https://api.github.com/orgs/acme/teams?page=2>; rel="last"`)
		}
		_ = json.NewEncoder(w).Encode(pages[page])
	}))

	teams, err := client.Teams(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, requestedPages)
	assert.Equal(t, []domain.Team{
		{Name: "core", Slug: "core"},
		{Name: "infra", Slug: "infra"},
		{Name: "security", Slug: "security"},
	}, teams)
}

func TestPagination_StopsOnEmptyPage(t *testing.T) {
	calls := 0
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Lie about a next page but return nothing: the empty page wins.
		w.Header().Set("Link", `<https://api.github.com/orgs/acme/teams?page=2>; rel="next"`)
		_ = json.NewEncoder(w).Encode([]any{})
	}))

	teams, err := client.Teams(context.Background(), "acme")
	require.NoError(t, err)
	assert.Empty(t, teams)
	assert.Equal(t, 1, calls)
}

func TestPagination_StopsWithoutNextRelation(t *testing.T) {
	calls := 0
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", `<https://api.github.com/orgs/acme/teams?page=1>; rel="prev"`)
		_ = json.NewEncoder(w).Encode([]map[string]string{{"name": "core", "slug": "core"}})
	}))

	teams, err := client.Teams(context.Background(), "acme")
	require.NoError(t, err)
	assert.Len(t, teams, 1)
	assert.Equal(t, 1, calls)
}

func TestPagination_CustomPerPage(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		_ = json.NewEncoder(w).Encode([]any{})
	}))
	client.SetPerPage(25)

	_, err := client.Teams(context.Background(), "acme")
	require.NoError(t, err)
}

func TestPagination_DecodeFailure(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))

	_, err := client.Teams(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode page 1")
}
