package platform

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"basegraph.app/mergebot/internal/model"
)

const mergeRequestsPerPage = 100

type gitLabClient struct {
	client  *gitlab.Client
	project int64
}

// NewGitLabFactory returns a Factory for GitLab projects. defaultBaseURL is
// used for repositories without their own instance URL; empty means gitlab.com.
func NewGitLabFactory(defaultBaseURL string) Factory {
	return func(repo model.Repository) (Client, error) {
		baseURL := defaultBaseURL
		if repo.ProviderBaseURL != nil && *repo.ProviderBaseURL != "" {
			baseURL = *repo.ProviderBaseURL
		}

		client, err := newGitLabAPIClient(baseURL, repo.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("creating gitlab client for %s: %w", repo.Path, err)
		}
		return &gitLabClient{client: client, project: repo.ExternalID}, nil
	}
}

func newGitLabAPIClient(baseURL, token string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token)
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	return gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
}

func (c *gitLabClient) AddLabels(ctx context.Context, pr model.PullRequestNumber, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	add := gitlab.LabelOptions(labels)
	_, _, err := c.client.MergeRequests.UpdateMergeRequest(c.project, int64(pr), &gitlab.UpdateMergeRequestOptions{
		AddLabels: &add,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("gitlab add labels: %w", err)
	}
	return nil
}

func (c *gitLabClient) RemoveLabels(ctx context.Context, pr model.PullRequestNumber, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	remove := gitlab.LabelOptions(labels)
	_, _, err := c.client.MergeRequests.UpdateMergeRequest(c.project, int64(pr), &gitlab.UpdateMergeRequestOptions{
		RemoveLabels: &remove,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("gitlab remove labels: %w", err)
	}
	return nil
}

func (c *gitLabClient) FindPullRequests(ctx context.Context, branch string, sha model.CommitSHA) ([]model.PullRequestNumber, error) {
	opts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions:  gitlab.ListOptions{PerPage: mergeRequestsPerPage, Page: 1},
		State:        gitlab.Ptr("opened"),
		SourceBranch: gitlab.Ptr(branch),
	}

	var numbers []model.PullRequestNumber
	for {
		mrs, resp, err := c.client.MergeRequests.ListProjectMergeRequests(c.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing merge requests for branch %s: %w", branch, err)
		}
		for _, mr := range mrs {
			if mr == nil || model.CommitSHA(mr.SHA) != sha {
				continue
			}
			numbers = append(numbers, model.PullRequestNumber(mr.IID))
		}
		if resp == nil || resp.NextPage == 0 {
			return numbers, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *gitLabClient) FetchFile(ctx context.Context, path, ref string) ([]byte, error) {
	opts := &gitlab.GetRawFileOptions{}
	if ref != "" {
		opts.Ref = gitlab.Ptr(ref)
	}

	data, resp, err := c.client.RepositoryFiles.GetRawFile(c.project, path, opts, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	return data, nil
}
