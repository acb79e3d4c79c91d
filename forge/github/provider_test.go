package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/gizzahub/gzh-repocache/forge/ratelimit"
)

func TestNewProvider(t *testing.T) {
	provider := NewProvider("test-token")

	if provider.Name() != "github" {
		t.Errorf("Name() = %q, want %q", provider.Name(), "github")
	}
	if provider.token != "test-token" {
		t.Errorf("token = %q, want %q", provider.token, "test-token")
	}
	if provider.client == nil {
		t.Error("client should not be nil")
	}
}

func TestNewProvider_EmptyToken(t *testing.T) {
	provider := NewProvider("")

	// Client should still be created (for unauthenticated access)
	if provider.client == nil {
		t.Error("client should not be nil even with empty token")
	}
}

func TestProvider_SetToken(t *testing.T) {
	provider := NewProvider("initial-token")

	if err := provider.SetToken("new-token"); err != nil {
		t.Errorf("SetToken failed: %v", err)
	}
	if provider.token != "new-token" {
		t.Errorf("token = %q, want %q", provider.token, "new-token")
	}
}

func TestProvider_ValidateToken_EmptyToken(t *testing.T) {
	provider := NewProvider("")

	valid, err := provider.ValidateToken(context.Background())
	if err != nil {
		t.Errorf("ValidateToken returned error: %v", err)
	}
	if valid {
		t.Error("ValidateToken should return false for empty token")
	}
}

func TestConvertGitHubRepo(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got := convertGitHubRepo(&github.Repository{
		Name:          github.String("repo"),
		FullName:      github.String("acme/repo"),
		CloneURL:      github.String("https://github.com/acme/repo.git"),
		SSHURL:        github.String("git@github.com:acme/repo.git"),
		HTMLURL:       github.String("https://github.com/acme/repo"),
		Description:   github.String("a repository"),
		DefaultBranch: github.String("main"),
		Private:       github.Bool(true),
		Archived:      github.Bool(true),
		Fork:          github.Bool(true),
		Language:      github.String("Go"),
		Size:          github.Int(42),
		Topics:        []string{"tooling"},
		Visibility:    github.String("private"),
		CreatedAt:     &github.Timestamp{Time: created},
	})

	if got.Name != "repo" || got.FullName != "acme/repo" {
		t.Errorf("Name/FullName = %q/%q, want %q/%q", got.Name, got.FullName, "repo", "acme/repo")
	}
	if got.CloneURL != "https://github.com/acme/repo.git" {
		t.Errorf("CloneURL = %q", got.CloneURL)
	}
	if got.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want main", got.DefaultBranch)
	}
	if !got.Private || !got.Archived || !got.Fork {
		t.Errorf("Private/Archived/Fork = %v/%v/%v, want all true", got.Private, got.Archived, got.Fork)
	}
	if got.Size != 42 || got.Language != "Go" || got.Visibility != "private" {
		t.Errorf("Size/Language/Visibility = %d/%q/%q", got.Size, got.Language, got.Visibility)
	}
	if len(got.Topics) != 1 || got.Topics[0] != "tooling" {
		t.Errorf("Topics = %v, want [tooling]", got.Topics)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestListOrganizationRepos_PaginationTerminates(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orgs/acme/repos" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			// Last page: no Link header, so NextPage is 0.
			fmt.Fprint(w, `[{"name":"beta"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/orgs/acme/repos?page=2>; rel="next"`, srvURL))
		fmt.Fprint(w, `[{"name":"alpha"}]`)
	}))
	defer srv.Close()
	srvURL = srv.URL

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	client.BaseURL = base

	p := &Provider{client: client, rateLimiter: ratelimit.NewLimiter(100)}

	repos, err := p.ListOrganizationRepos(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListOrganizationRepos() error = %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("ListOrganizationRepos() returned %d repos, want 2 across both pages", len(repos))
	}
	if repos[0].Name != "alpha" || repos[1].Name != "beta" {
		t.Errorf("repos = %q, %q; want alpha, beta", repos[0].Name, repos[1].Name)
	}
}
