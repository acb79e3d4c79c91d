package github

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/gizzahub/gzh-repocache/forge"
	"github.com/gizzahub/gzh-repocache/forge/ratelimit"
)

// Provider implements forge.AuthenticatedClient against the GitHub API.
type Provider struct {
	client      *github.Client
	token       string
	rateLimiter *ratelimit.Limiter
	mu          sync.RWMutex
}

// NewProvider creates a GitHub client authenticated with token, or an
// unauthenticated client if token is empty.
func NewProvider(token string) *Provider {
	p := &Provider{
		token:       token,
		rateLimiter: ratelimit.NewLimiter(5000),
	}
	p.initClient(token)
	return p
}

func (p *Provider) initClient(token string) {
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc := oauth2.NewClient(context.Background(), ts)
		p.client = github.NewClient(tc)
	} else {
		p.client = github.NewClient(nil)
	}
}

// SetToken replaces the authentication token and rebuilds the client.
func (p *Provider) SetToken(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.initClient(token)
	return nil
}

// ValidateToken reports whether the current token authenticates.
func (p *Provider) ValidateToken(ctx context.Context) (bool, error) {
	if p.token == "" {
		return false, nil
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return false, err
	}
	_, resp, err := p.client.Users.Get(ctx, "")
	if resp != nil {
		p.rateLimiter.UpdateFromHeaders(resp.Response)
	}
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Name returns "github".
func (p *Provider) Name() string { return "github" }

// GetRepository fetches owner/repo's metadata; gitdriver uses this to
// validate that a clone's remote still resolves on GitHub.
func (p *Provider) GetRepository(ctx context.Context, owner, repo string) (*forge.Repository, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	ghRepo, resp, err := p.client.Repositories.Get(ctx, owner, repo)
	if resp != nil {
		p.rateLimiter.UpdateFromHeaders(resp.Response)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repo %s/%s: %w", owner, repo, err)
	}
	return convertGitHubRepo(ghRepo), nil
}

// ListOrganizationRepos lists every repository in org.
func (p *Provider) ListOrganizationRepos(ctx context.Context, org string) ([]*forge.Repository, error) {
	var allRepos []*forge.Repository

	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := p.client.Repositories.ListByOrg(ctx, org, opts)
		if resp != nil {
			p.rateLimiter.UpdateFromHeaders(resp.Response)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for org %s: %w", org, err)
		}

		for _, repo := range repos {
			allRepos = append(allRepos, convertGitHubRepo(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

// ListOrganizations lists organizations the authenticated user belongs to.
func (p *Provider) ListOrganizations(ctx context.Context) ([]*forge.Organization, error) {
	var allOrgs []*forge.Organization

	opts := &github.ListOptions{PerPage: 100}

	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		orgs, resp, err := p.client.Organizations.List(ctx, "", opts)
		if resp != nil {
			p.rateLimiter.UpdateFromHeaders(resp.Response)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list organizations: %w", err)
		}

		for _, org := range orgs {
			allOrgs = append(allOrgs, &forge.Organization{
				Name:        org.GetLogin(),
				Description: org.GetDescription(),
				URL:         org.GetHTMLURL(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allOrgs, nil
}

// ListUserRepos lists every repository owned by user.
func (p *Provider) ListUserRepos(ctx context.Context, user string) ([]*forge.Repository, error) {
	var allRepos []*forge.Repository

	opts := &github.RepositoryListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
		Type:        "all",
	}

	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := p.client.Repositories.List(ctx, user, opts)
		if resp != nil {
			p.rateLimiter.UpdateFromHeaders(resp.Response)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for user %s: %w", user, err)
		}

		for _, repo := range repos {
			allRepos = append(allRepos, convertGitHubRepo(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

// GetRateLimit queries GitHub's rate limit endpoint for the current
// core rate limit status, feeding the response headers to the limiter.
func (p *Provider) GetRateLimit(ctx context.Context) (*forge.RateLimit, error) {
	limits, resp, err := p.client.RateLimit.Get(ctx)
	if resp != nil {
		p.rateLimiter.UpdateFromHeaders(resp.Response)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit: %w", err)
	}

	core := limits.Core
	return &forge.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
		Used:      core.Limit - core.Remaining,
	}, nil
}

func convertGitHubRepo(repo *github.Repository) *forge.Repository {
	return &forge.Repository{
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		CloneURL:      repo.GetCloneURL(),
		SSHURL:        repo.GetSSHURL(),
		HTMLURL:       repo.GetHTMLURL(),
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Private:       repo.GetPrivate(),
		Archived:      repo.GetArchived(),
		Fork:          repo.GetFork(),
		Disabled:      repo.GetDisabled(),
		Language:      repo.GetLanguage(),
		Size:          repo.GetSize(),
		Topics:        repo.Topics,
		Visibility:    repo.GetVisibility(),
		CreatedAt:     repo.GetCreatedAt().Time,
		UpdatedAt:     repo.GetUpdatedAt().Time,
		PushedAt:      repo.GetPushedAt().Time,
	}
}
