package gitea

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"code.gitea.io/sdk/gitea"

	"github.com/gizzahub/gzh-repocache/forge/ratelimit"
)

func TestNewProvider_RequiresBaseURL(t *testing.T) {
	_, err := NewProvider("token", "")
	if err == nil {
		t.Error("expected error when baseURL is empty")
	}
}

func TestProvider_Name(t *testing.T) {
	// Name() needs no client, so a minimal struct avoids the network.
	p := &Provider{}
	if p.Name() != "gitea" {
		t.Errorf("Name() = %q, want %q", p.Name(), "gitea")
	}
}

func TestProvider_ValidateToken_EmptyToken(t *testing.T) {
	p := &Provider{token: ""}

	valid, err := p.ValidateToken(context.Background())
	if err != nil {
		t.Errorf("ValidateToken returned error: %v", err)
	}
	if valid {
		t.Error("ValidateToken should return false for empty token")
	}
}

func TestConvertGiteaRepo(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	got := convertGiteaRepo(&gitea.Repository{
		Name:          "repo",
		FullName:      "acme/repo",
		CloneURL:      "https://gitea.example.com/acme/repo.git",
		SSHURL:        "git@gitea.example.com:acme/repo.git",
		HTMLURL:       "https://gitea.example.com/acme/repo",
		Description:   "a repository",
		DefaultBranch: "main",
		Private:       true,
		Archived:      true,
		Fork:          true,
		Size:          42,
		Stars:         7,
		Created:       created,
		Updated:       updated,
	})

	if got.Name != "repo" || got.FullName != "acme/repo" {
		t.Errorf("Name/FullName = %q/%q, want %q/%q", got.Name, got.FullName, "repo", "acme/repo")
	}
	if got.CloneURL != "https://gitea.example.com/acme/repo.git" {
		t.Errorf("CloneURL = %q", got.CloneURL)
	}
	if got.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want main", got.DefaultBranch)
	}
	if !got.Private || !got.Archived || !got.Fork {
		t.Errorf("Private/Archived/Fork = %v/%v/%v, want all true", got.Private, got.Archived, got.Fork)
	}
	if got.Size != 42 || got.Stars != 7 {
		t.Errorf("Size/Stars = %d/%d, want 42/7", got.Size, got.Stars)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(updated) {
		t.Errorf("timestamps = %v/%v, want %v/%v", got.CreatedAt, got.UpdatedAt, created, updated)
	}
}

func TestListOrganizationRepos_PaginationTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/version":
			fmt.Fprint(w, `{"version":"1.22.0"}`)
		case "/api/v1/orgs/acme/repos":
			// An empty page terminates the listing loop.
			if r.URL.Query().Get("page") == "2" {
				fmt.Fprint(w, `[]`)
				return
			}
			fmt.Fprint(w, `[{"name":"alpha"},{"name":"beta"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := gitea.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("gitea.NewClient() error = %v", err)
	}

	p := &Provider{client: client, rateLimiter: ratelimit.NewLimiter(100)}

	repos, err := p.ListOrganizationRepos(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListOrganizationRepos() error = %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("ListOrganizationRepos() returned %d repos, want 2 (second page empty)", len(repos))
	}
	if repos[0].Name != "alpha" || repos[1].Name != "beta" {
		t.Errorf("repos = %q, %q; want alpha, beta", repos[0].Name, repos[1].Name)
	}
}
