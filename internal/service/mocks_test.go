package service_test

import (
	"context"
	"fmt"
	"sync"

	"basegraph.app/mergebot/internal/model"
	"basegraph.app/mergebot/internal/service/platform"
	"basegraph.app/mergebot/internal/store"
)

type mockRepositoryStore struct {
	mu            sync.Mutex
	repos         []model.Repository
	listErr       error
	getByPathCall int
}

func (m *mockRepositoryStore) GetByPath(ctx context.Context, path string) (*model.Repository, error) {
	m.mu.Lock()
	m.getByPathCall++
	m.mu.Unlock()
	for _, r := range m.repos {
		if r.Path == path {
			repo := r
			return &repo, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockRepositoryStore) ListEnabled(ctx context.Context) ([]model.Repository, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var enabled []model.Repository
	for _, r := range m.repos {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled, nil
}

// mockPlatformClient serves policy files from memory keyed by repository path.
type mockPlatformClient struct {
	files map[string]string
	path  string
}

func (m *mockPlatformClient) AddLabels(ctx context.Context, pr model.PullRequestNumber, labels []string) error {
	return nil
}

func (m *mockPlatformClient) RemoveLabels(ctx context.Context, pr model.PullRequestNumber, labels []string) error {
	return nil
}

func (m *mockPlatformClient) FindPullRequests(ctx context.Context, branch string, sha model.CommitSHA) ([]model.PullRequestNumber, error) {
	return nil, nil
}

func (m *mockPlatformClient) FetchFile(ctx context.Context, path, ref string) ([]byte, error) {
	content, ok := m.files[m.path]
	if !ok {
		return nil, platform.ErrFileNotFound
	}
	return []byte(content), nil
}

func newFactory(files map[string]string) platform.Factory {
	return func(repo model.Repository) (platform.Client, error) {
		return &mockPlatformClient{files: files, path: repo.Path}, nil
	}
}

// splitRepositoryStore lists only the first half of its repositories, so the
// second half is reachable through lazy Get loads only.
type splitRepositoryStore struct {
	repos []model.Repository
}

func newSplitRepositoryStore(n int) *splitRepositoryStore {
	repos := make([]model.Repository, n)
	for i := range repos {
		repos[i] = model.Repository{
			ID:            int64(i + 1),
			Path:          fmt.Sprintf("acme/repo-%d", i),
			ExternalID:    int64(1000 + i),
			DefaultBranch: "main",
			Enabled:       true,
		}
	}
	return &splitRepositoryStore{repos: repos}
}

func (s *splitRepositoryStore) GetByPath(ctx context.Context, path string) (*model.Repository, error) {
	for _, r := range s.repos {
		if r.Path == path {
			repo := r
			return &repo, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *splitRepositoryStore) ListEnabled(ctx context.Context) ([]model.Repository, error) {
	return s.repos[:len(s.repos)/2], nil
}
