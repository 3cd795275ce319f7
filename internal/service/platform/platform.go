// Package platform wraps the hosting platform API for a single repository.
package platform

import (
	"context"
	"errors"

	"basegraph.app/mergebot/internal/labels"
	"basegraph.app/mergebot/internal/model"
)

var ErrFileNotFound = errors.New("file not found")

// Client is the already-authenticated, repository-scoped platform API.
type Client interface {
	labels.RepositoryClient

	// FindPullRequests returns open pull requests whose source branch is
	// branch and whose head commit is sha.
	FindPullRequests(ctx context.Context, branch string, sha model.CommitSHA) ([]model.PullRequestNumber, error)

	// FetchFile returns the raw content of path at ref, or ErrFileNotFound.
	FetchFile(ctx context.Context, path, ref string) ([]byte, error)
}

// Factory builds a Client for an installed repository.
type Factory func(repo model.Repository) (Client, error)
