package gitea

import (
	"context"
	"fmt"

	"code.gitea.io/sdk/gitea"

	"github.com/gizzahub/gzh-repocache/forge"
	"github.com/gizzahub/gzh-repocache/forge/ratelimit"
)

// Provider implements forge.AuthenticatedClient against a Gitea
// instance's REST API.
type Provider struct {
	baseURL     string
	token       string
	client      *gitea.Client
	rateLimiter *ratelimit.Limiter
}

// NewProvider creates a Gitea provider for the instance at baseURL.
func NewProvider(token, baseURL string) (*Provider, error) {
	p := &Provider{
		baseURL:     baseURL,
		token:       token,
		rateLimiter: ratelimit.NewLimiter(1000),
	}
	if err := p.initClient(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) initClient() error {
	opts := []gitea.ClientOption{}
	if p.token != "" {
		opts = append(opts, gitea.SetToken(p.token))
	}
	client, err := gitea.NewClient(p.baseURL, opts...)
	if err != nil {
		return fmt.Errorf("failed to create Gitea client: %w", err)
	}
	p.client = client
	return nil
}

// Name returns "gitea".
func (p *Provider) Name() string { return "gitea" }

// SetToken replaces the authentication token and rebuilds the client.
func (p *Provider) SetToken(token string) error {
	p.token = token
	return p.initClient()
}

// ValidateToken reports whether the current token authenticates.
func (p *Provider) ValidateToken(ctx context.Context) (bool, error) {
	if p.token == "" {
		return false, nil
	}
	_, _, err := p.client.GetMyUserInfo()
	if err != nil {
		return false, nil
	}
	return true, nil
}

// GetRepository fetches owner/repo's metadata; gitdriver uses this to
// validate that a clone's remote still resolves against the instance.
func (p *Provider) GetRepository(ctx context.Context, owner, repo string) (*forge.Repository, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	r, resp, err := p.client.GetRepo(owner, repo)
	if resp != nil {
		p.rateLimiter.UpdateFromHeaders(resp.Response)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repo %s/%s: %w", owner, repo, err)
	}
	return convertGiteaRepo(r), nil
}

// ListOrganizationRepos lists every repository in a Gitea organization.
func (p *Provider) ListOrganizationRepos(ctx context.Context, org string) ([]*forge.Repository, error) {
	var allRepos []*forge.Repository

	page := 1
	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := p.client.ListOrgRepos(org, gitea.ListOrgReposOptions{
			ListOptions: gitea.ListOptions{Page: page, PageSize: 50},
		})
		if resp != nil {
			p.rateLimiter.UpdateFromHeaders(resp.Response)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for org %s: %w", org, err)
		}
		for _, r := range repos {
			allRepos = append(allRepos, convertGiteaRepo(r))
		}
		if len(repos) == 0 {
			break
		}
		page++
	}

	return allRepos, nil
}

// ListUserRepos lists every repository owned by user.
func (p *Provider) ListUserRepos(ctx context.Context, user string) ([]*forge.Repository, error) {
	var allRepos []*forge.Repository

	page := 1
	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := p.client.ListUserRepos(user, gitea.ListReposOptions{
			ListOptions: gitea.ListOptions{Page: page, PageSize: 50},
		})
		if resp != nil {
			p.rateLimiter.UpdateFromHeaders(resp.Response)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for user %s: %w", user, err)
		}
		for _, r := range repos {
			allRepos = append(allRepos, convertGiteaRepo(r))
		}
		if len(repos) == 0 {
			break
		}
		page++
	}

	return allRepos, nil
}

// ListOrganizations lists organizations the authenticated user belongs to.
func (p *Provider) ListOrganizations(ctx context.Context) ([]*forge.Organization, error) {
	var allOrgs []*forge.Organization

	page := 1
	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		orgs, resp, err := p.client.ListMyOrgs(gitea.ListOrgsOptions{
			ListOptions: gitea.ListOptions{Page: page, PageSize: 50},
		})
		if resp != nil {
			p.rateLimiter.UpdateFromHeaders(resp.Response)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list organizations: %w", err)
		}
		for _, org := range orgs {
			allOrgs = append(allOrgs, &forge.Organization{
				Name:        org.UserName,
				Description: org.Description,
				URL:         org.Website,
			})
		}
		if len(orgs) == 0 {
			break
		}
		page++
	}

	return allOrgs, nil
}

// GetRateLimit returns current rate limit status. Gitea has no
// dedicated rate-limit endpoint; this reflects headers observed on
// prior calls, same as the GitLab client.
func (p *Provider) GetRateLimit(ctx context.Context) (*forge.RateLimit, error) {
	remaining, limit, resetTime := p.rateLimiter.Status()
	return &forge.RateLimit{
		Limit:     limit,
		Remaining: remaining,
		Reset:     resetTime,
		Used:      limit - remaining,
	}, nil
}

func convertGiteaRepo(r *gitea.Repository) *forge.Repository {
	return &forge.Repository{
		Name:          r.Name,
		FullName:      r.FullName,
		CloneURL:      r.CloneURL,
		SSHURL:        r.SSHURL,
		HTMLURL:       r.HTMLURL,
		Description:   r.Description,
		DefaultBranch: r.DefaultBranch,
		Private:       r.Private,
		Archived:      r.Archived,
		Fork:          r.Fork,
		Size:          r.Size,
		Stars:         r.Stars,
		CreatedAt:     r.Created,
		UpdatedAt:     r.Updated,
	}
}
