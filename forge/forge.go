// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package forge defines the common interface and types shared by the
// hosted Git platform clients (GitHub, GitLab, Gitea). gitdriver
// consults a forge client to perform the cheap existence/default-branch
// checks that back Provider.IsValidDirectory; the rest of the module
// never talks to a forge client directly.
package forge

import (
	"context"
	"time"
)

// Repository represents a repository as reported by any Git forge.
type Repository struct {
	Name          string
	FullName      string
	CloneURL      string
	SSHURL        string
	HTMLURL       string
	Description   string
	DefaultBranch string
	Private       bool
	Archived      bool
	Fork          bool
	Disabled      bool
	Language      string
	Size          int
	Stars         int
	Topics        []string
	Visibility    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PushedAt      time.Time
}

// Organization represents an organization or group from any Git forge.
type Organization struct {
	Name        string
	Description string
	URL         string
}

// RateLimit reports the client's current API rate limit usage.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
	Used      int
}

// Client is satisfied by each forge package's concrete Provider. It is
// intentionally narrower than a general-purpose forge SDK: gitdriver
// only needs existence and metadata lookups, never full org sync.
type Client interface {
	// Name returns the forge's identifier ("github", "gitlab", "gitea").
	Name() string

	// GetRepository resolves owner/repo to its canonical metadata. It is
	// the cheap call gitdriver uses to validate that a clone's remote
	// still points at a repository the forge considers to exist.
	GetRepository(ctx context.Context, owner, repo string) (*Repository, error)

	// ListOrganizationRepos lists every repository in org.
	ListOrganizationRepos(ctx context.Context, org string) ([]*Repository, error)

	// ListUserRepos lists every repository owned by user.
	ListUserRepos(ctx context.Context, user string) ([]*Repository, error)

	// ListOrganizations lists organizations the authenticated identity
	// belongs to.
	ListOrganizations(ctx context.Context) ([]*Organization, error)

	// GetRateLimit reports current API rate limit usage.
	GetRateLimit(ctx context.Context) (*RateLimit, error)
}

// AuthenticatedClient extends Client with credential management.
type AuthenticatedClient interface {
	Client

	SetToken(token string) error
	ValidateToken(ctx context.Context) (bool, error)
}
