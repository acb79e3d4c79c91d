package gitlab

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/xanzy/go-gitlab"

	"github.com/gizzahub/gzh-repocache/forge"
	"github.com/gizzahub/gzh-repocache/forge/ratelimit"
)

// Provider implements forge.AuthenticatedClient against the GitLab API.
type Provider struct {
	client      *gitlab.Client
	token       string
	baseURL     string
	sshHost     string
	sshPort     int
	rateLimiter *ratelimit.Limiter
	mu          sync.RWMutex
}

// ProviderOptions configures the GitLab Provider.
type ProviderOptions struct {
	Token   string
	BaseURL string // API endpoint (http/https only)
	SSHPort int    // Custom SSH port (0 = default 22)
}

// NewProvider creates a GitLab provider for baseURL, or gitlab.com when
// baseURL is empty.
func NewProvider(token, baseURL string) (*Provider, error) {
	return NewProviderWithOptions(ProviderOptions{Token: token, BaseURL: baseURL})
}

// NewProviderWithOptions creates a GitLab provider with custom options.
func NewProviderWithOptions(opts ProviderOptions) (*Provider, error) {
	p := &Provider{
		token:       opts.Token,
		baseURL:     opts.BaseURL,
		sshPort:     opts.SSHPort,
		rateLimiter: ratelimit.NewLimiter(2000),
	}

	if opts.BaseURL != "" {
		p.sshHost = extractHostFromURL(opts.BaseURL)
	}

	if err := p.initClient(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Provider) initClient() error {
	var client *gitlab.Client
	var err error

	if p.baseURL != "" {
		client, err = gitlab.NewClient(p.token, gitlab.WithBaseURL(p.baseURL))
	} else {
		client, err = gitlab.NewClient(p.token)
	}
	if err != nil {
		return fmt.Errorf("failed to create GitLab client: %w", err)
	}

	p.client = client
	return nil
}

// SetToken replaces the authentication token and rebuilds the client.
func (p *Provider) SetToken(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	return p.initClient()
}

// ValidateToken reports whether the current token authenticates.
func (p *Provider) ValidateToken(ctx context.Context) (bool, error) {
	if p.token == "" {
		return false, nil
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return false, err
	}
	_, _, err := p.client.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Name returns "gitlab".
func (p *Provider) Name() string { return "gitlab" }

// ListOrganizationRepos lists every project in a GitLab group.
func (p *Provider) ListOrganizationRepos(ctx context.Context, group string) ([]*forge.Repository, error) {
	var allRepos []*forge.Repository

	opts := &gitlab.ListGroupProjectsOptions{
		ListOptions:      gitlab.ListOptions{PerPage: 100},
		IncludeSubGroups: gitlab.Ptr(true),
	}

	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		projects, resp, err := p.client.Groups.ListGroupProjects(group, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects for group %s: %w", group, err)
		}

		for _, project := range projects {
			allRepos = append(allRepos, p.convertGitLabProject(project))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

// GetRepository fetches owner/repo's project metadata; gitdriver uses
// this to validate that a clone's remote still resolves on GitLab.
func (p *Provider) GetRepository(ctx context.Context, owner, repo string) (*forge.Repository, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	projectPath := fmt.Sprintf("%s/%s", owner, repo)
	project, _, err := p.client.Projects.GetProject(projectPath, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", projectPath, err)
	}

	return p.convertGitLabProject(project), nil
}

// ListOrganizations lists groups the authenticated user belongs to.
func (p *Provider) ListOrganizations(ctx context.Context) ([]*forge.Organization, error) {
	var allOrgs []*forge.Organization

	opts := &gitlab.ListGroupsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		groups, resp, err := p.client.Groups.ListGroups(opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list groups: %w", err)
		}

		for _, group := range groups {
			allOrgs = append(allOrgs, &forge.Organization{
				Name:        group.Path,
				Description: group.Description,
				URL:         group.WebURL,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allOrgs, nil
}

// ListUserRepos lists every project owned by user.
func (p *Provider) ListUserRepos(ctx context.Context, user string) ([]*forge.Repository, error) {
	var allRepos []*forge.Repository

	opts := &gitlab.ListProjectsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		projects, resp, err := p.client.Projects.ListUserProjects(user, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects for user %s: %w", user, err)
		}

		for _, project := range projects {
			allRepos = append(allRepos, p.convertGitLabProject(project))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

// GetRateLimit returns current rate limit status. GitLab has no
// dedicated rate-limit endpoint, so this reflects headers observed on
// prior calls.
func (p *Provider) GetRateLimit(ctx context.Context) (*forge.RateLimit, error) {
	remaining, limit, resetTime := p.rateLimiter.Status()
	return &forge.RateLimit{
		Limit:     limit,
		Remaining: remaining,
		Reset:     resetTime,
		Used:      limit - remaining,
	}, nil
}

func (p *Provider) convertGitLabProject(project *gitlab.Project) *forge.Repository {
	var createdAt, updatedAt, pushedAt time.Time
	if project.CreatedAt != nil {
		createdAt = *project.CreatedAt
	}
	if project.LastActivityAt != nil {
		updatedAt = *project.LastActivityAt
		pushedAt = *project.LastActivityAt
	}

	sshURL := project.SSHURLToRepo
	if p.sshPort > 0 && p.sshHost != "" {
		sshURL = p.buildSSHURL(project.PathWithNamespace)
	}

	return &forge.Repository{
		Name:          project.Path,
		FullName:      project.PathWithNamespace,
		CloneURL:      project.HTTPURLToRepo,
		SSHURL:        sshURL,
		HTMLURL:       project.WebURL,
		Description:   project.Description,
		DefaultBranch: project.DefaultBranch,
		Private:       project.Visibility != gitlab.PublicVisibility,
		Archived:      project.Archived,
		Fork:          project.ForkedFromProject != nil,
		Topics:        project.Topics,
		Visibility:    string(project.Visibility),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		PushedAt:      pushedAt,
	}
}

// extractHostFromURL extracts the hostname from an API base URL, e.g.
// "https://gitlab.example.com/api/v4" -> "gitlab.example.com".
func extractHostFromURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// buildSSHURL constructs an ssh://git@host:port/path.git URL for projectPath.
func (p *Provider) buildSSHURL(projectPath string) string {
	if p.sshHost == "" {
		return ""
	}
	if !strings.HasSuffix(projectPath, ".git") {
		projectPath += ".git"
	}
	if p.sshPort > 0 && p.sshPort != 22 {
		return fmt.Sprintf("ssh://git@%s:%d/%s", p.sshHost, p.sshPort, projectPath)
	}
	return fmt.Sprintf("git@%s:%s", p.sshHost, projectPath)
}
