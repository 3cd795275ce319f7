package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"basegraph.app/mergebot/core/db"
	"basegraph.app/mergebot/internal/model"
)

const repositoryColumns = `id, path, external_id, provider_base_url, access_token, default_branch, enabled, created_at, updated_at`

type repositoryStore struct {
	conn db.DBTX
}

func NewRepositoryStore(conn db.DBTX) RepositoryStore {
	return &repositoryStore{conn: conn}
}

func (s *repositoryStore) GetByPath(ctx context.Context, path string) (*model.Repository, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+repositoryColumns+` FROM repositories WHERE path = $1`, path)

	repo, err := scanRepository(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return repo, nil
}

func (s *repositoryStore) ListEnabled(ctx context.Context) ([]model.Repository, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+repositoryColumns+` FROM repositories WHERE enabled ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repositories: %w", err)
	}
	return repos, nil
}

func scanRepository(row pgx.Row) (*model.Repository, error) {
	var repo model.Repository
	if err := row.Scan(
		&repo.ID,
		&repo.Path,
		&repo.ExternalID,
		&repo.ProviderBaseURL,
		&repo.AccessToken,
		&repo.DefaultBranch,
		&repo.Enabled,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &repo, nil
}
