package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"basegraph.app/mergebot/internal/labels"
	"basegraph.app/mergebot/internal/model"
	"basegraph.app/mergebot/internal/repoconfig"
	"basegraph.app/mergebot/internal/service/platform"
	"basegraph.app/mergebot/internal/store"
)

var ErrUnknownRepository = errors.New("repository is not installed")

// Repository is a loaded, ready-to-use installed repository.
type Repository struct {
	State    *labels.RepositoryState
	Platform platform.Client
}

type RegistryConfig struct {
	ConfigPath string
	Now        func() time.Time
}

// Registry holds the label policy and platform client of every installed
// repository. A published entries map is never written again: Get and Reload
// both build a new map and swap it in under mu.
type Registry struct {
	repos      store.RepositoryStore
	factory    platform.Factory
	configPath string
	now        func() time.Time

	mu       sync.RWMutex
	entries  map[string]*Repository
	loadedAt time.Time
}

func NewRegistry(repos store.RepositoryStore, factory platform.Factory, cfg RegistryConfig) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		repos:      repos,
		factory:    factory,
		configPath: cfg.ConfigPath,
		now:        cfg.Now,
		entries:    map[string]*Repository{},
	}
}

// Get returns the repository, loading it on first use.
func (r *Registry) Get(ctx context.Context, name model.RepoName) (*Repository, error) {
	r.mu.RLock()
	entry, ok := r.entries[name.String()]
	r.mu.RUnlock()
	if ok {
		return entry, nil
	}

	row, err := r.repos.GetByPath(ctx, name.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownRepository
		}
		return nil, fmt.Errorf("fetching repository %s: %w", name, err)
	}
	if !row.Enabled {
		return nil, ErrUnknownRepository
	}

	entry, err = r.load(ctx, *row, nil)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.entries[name.String()]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	next := make(map[string]*Repository, len(r.entries)+1)
	maps.Copy(next, r.entries)
	next[name.String()] = entry
	r.entries = next
	r.mu.Unlock()
	return entry, nil
}

// Reload re-reads every enabled repository and its policy file.
func (r *Registry) Reload(ctx context.Context) error {
	rows, err := r.repos.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("listing installed repositories: %w", err)
	}

	r.mu.RLock()
	previous := r.entries
	r.mu.RUnlock()

	next := make(map[string]*Repository, len(rows))
	for _, row := range rows {
		name, err := model.ParseRepoName(row.Path)
		if err != nil {
			slog.WarnContext(ctx, "skipping repository with invalid path", "path", row.Path, "error", err)
			continue
		}

		entry, err := r.load(ctx, row, previous[name.String()])
		if err != nil {
			slog.ErrorContext(ctx, "failed to load repository", "repository", row.Path, "error", err)
			if prev, ok := previous[name.String()]; ok {
				next[name.String()] = prev
			}
			continue
		}
		next[name.String()] = entry
	}

	loaded := len(next)
	r.mu.Lock()
	r.entries = next
	r.loadedAt = r.now()
	r.mu.Unlock()

	slog.InfoContext(ctx, "repository registry reloaded", "repositories", loaded)
	return nil
}

// ReloadIfStale reloads when the last full reload is older than ttl.
func (r *Registry) ReloadIfStale(ctx context.Context, ttl time.Duration) error {
	r.mu.RLock()
	loadedAt := r.loadedAt
	r.mu.RUnlock()

	if !loadedAt.IsZero() && r.now().Sub(loadedAt) < ttl {
		return nil
	}
	return r.Reload(ctx)
}

// load builds a repository entry. An invalid policy file keeps the previous
// policy when there is one.
func (r *Registry) load(ctx context.Context, row model.Repository, previous *Repository) (*Repository, error) {
	name, err := model.ParseRepoName(row.Path)
	if err != nil {
		return nil, err
	}

	client, err := r.factory(row)
	if err != nil {
		return nil, err
	}

	cfg, err := r.fetchConfig(ctx, client, row.DefaultBranch)
	if err != nil {
		if previous == nil || !errors.Is(err, repoconfig.ErrInvalidConfig) {
			return nil, fmt.Errorf("loading config of %s: %w", row.Path, err)
		}
		slog.WarnContext(ctx, "invalid repository config, keeping previous policy", "repository", row.Path, "error", err)
		cfg = repoconfig.RepoConfig{Labels: previous.State.Policy}
	}

	return &Repository{
		State: &labels.RepositoryState{
			Name:   name,
			Policy: cfg.Labels,
			Client: client,
		},
		Platform: client,
	}, nil
}

func (r *Registry) fetchConfig(ctx context.Context, client platform.Client, ref string) (repoconfig.RepoConfig, error) {
	data, err := client.FetchFile(ctx, r.configPath, ref)
	if err != nil {
		if errors.Is(err, platform.ErrFileNotFound) {
			return repoconfig.Default(), nil
		}
		return repoconfig.RepoConfig{}, err
	}
	return repoconfig.Parse(data)
}
