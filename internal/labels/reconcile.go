package labels

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/mergebot/common/logger"
	"basegraph.app/mergebot/internal/model"
)

// RepositoryClient changes labels on a pull request. Implementations must
// accept an empty label list as a no-op.
type RepositoryClient interface {
	AddLabels(ctx context.Context, pr model.PullRequestNumber, labels []string) error
	RemoveLabels(ctx context.Context, pr model.PullRequestNumber, labels []string) error
}

// RepositoryState is what Reconcile needs to know about one repository.
// Policy must not be mutated while a Reconcile call is using it.
type RepositoryState struct {
	Name   model.RepoName
	Policy Policy
	Client RepositoryClient
}

// Reconcile applies the policy entry for trigger to pr. It issues at most one
// add call followed by at most one remove call, so a label both added and
// removed by the same entry ends up removed. A trigger without a policy entry
// is a no-op. Client errors are returned as-is (wrapped) and stop the call
// sequence; nothing is retried or rolled back.
func Reconcile(ctx context.Context, repo *RepositoryState, pr model.PullRequestNumber, trigger Trigger) error {
	mods, ok := repo.Policy.Lookup(trigger)
	if !ok {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Repository:  logger.Ptr(repo.Name.String()),
		PullRequest: logger.Ptr(int64(pr)),
		Trigger:     logger.Ptr(string(trigger)),
		Component:   "mergebot.labels",
	})
	slog.DebugContext(ctx, "performing label modifications", "modifications", mods)

	add, remove := Partition(mods)

	if len(add) > 0 {
		slog.InfoContext(ctx, "adding labels", "labels", add)
		if err := repo.Client.AddLabels(ctx, pr, add); err != nil {
			return fmt.Errorf("adding labels to %s%s: %w", repo.Name, pr, err)
		}
	}

	if len(remove) > 0 {
		slog.InfoContext(ctx, "removing labels", "labels", remove)
		if err := repo.Client.RemoveLabels(ctx, pr, remove); err != nil {
			return fmt.Errorf("removing labels from %s%s: %w", repo.Name, pr, err)
		}
	}

	return nil
}
