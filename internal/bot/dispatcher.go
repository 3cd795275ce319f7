// Package bot routes normalized events to the handler for their kind.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/mergebot/common/logger"
	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/labels"
	"basegraph.app/mergebot/internal/model"
	"basegraph.app/mergebot/internal/service"
)

// RepositoryRegistry is the subset of service.Registry the dispatcher uses.
type RepositoryRegistry interface {
	Get(ctx context.Context, name model.RepoName) (*service.Repository, error)
	Reload(ctx context.Context) error
	ReloadIfStale(ctx context.Context, ttl time.Duration) error
}

type Config struct {
	BotUsername string
	RegistryTTL time.Duration
}

type Dispatcher struct {
	registry RepositoryRegistry
	cfg      Config
}

var _ event.Visitor = (*Dispatcher)(nil)

func NewDispatcher(registry RepositoryRegistry, cfg Config) *Dispatcher {
	return &Dispatcher{registry: registry, cfg: cfg}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event) error {
	fields := logger.LogFields{
		EventKind: logger.Ptr(string(ev.Kind())),
		Component: "mergebot.bot.dispatcher",
	}
	if repo, ok := event.RepositoryOf(ev); ok {
		fields.Repository = logger.Ptr(repo.String())
	}
	ctx = logger.WithLogFields(ctx, fields)

	return event.Visit(ctx, ev, d)
}

func (d *Dispatcher) VisitComment(ctx context.Context, ev event.Comment) error {
	if ev.Author().Username == d.cfg.BotUsername {
		return nil
	}

	triggers := parseCommands(ev.Text(), d.cfg.BotUsername)
	if len(triggers) == 0 {
		return nil
	}

	repo, err := d.repository(ctx, ev.Repository())
	if repo == nil {
		return err
	}

	for _, trigger := range triggers {
		slog.InfoContext(ctx, "command received", "author", ev.Author().Username, "pull_request", int64(ev.PullRequest()), "trigger", trigger)
		if err := labels.Reconcile(ctx, repo.State, ev.PullRequest(), trigger); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) VisitWorkflowStarted(ctx context.Context, ev event.WorkflowStarted) error {
	slog.InfoContext(ctx, "workflow started",
		"name", ev.Name(),
		"branch", ev.Branch(),
		"run_id", int64(ev.RunID()),
		"workflow_type", ev.WorkflowType(),
		"url", ev.URL())

	return d.reconcileBranch(ctx, ev.Repository(), ev.Branch(), ev.CommitSHA(), labels.TriggerBuildStarted)
}

func (d *Dispatcher) VisitWorkflowCompleted(ctx context.Context, ev event.WorkflowCompleted) error {
	slog.InfoContext(ctx, "workflow completed",
		"branch", ev.Branch(),
		"run_id", int64(ev.RunID()),
		"status", ev.Status())

	var trigger labels.Trigger
	switch ev.Status() {
	case model.WorkflowStatusSuccess:
		trigger = labels.TriggerBuildSucceeded
	case model.WorkflowStatusFailure:
		trigger = labels.TriggerBuildFailed
	default:
		return nil
	}

	return d.reconcileBranch(ctx, ev.Repository(), ev.Branch(), ev.CommitSHA(), trigger)
}

func (d *Dispatcher) VisitCheckSuiteCompleted(ctx context.Context, ev event.CheckSuiteCompleted) error {
	slog.DebugContext(ctx, "check suite completed", "branch", ev.Branch(), "commit_sha", ev.CommitSHA().String())
	return nil
}

func (d *Dispatcher) VisitInstallationsChanged(ctx context.Context, _ event.InstallationsChanged) error {
	return d.registry.Reload(ctx)
}

func (d *Dispatcher) VisitRefresh(ctx context.Context, _ event.Refresh) error {
	return d.registry.ReloadIfStale(ctx, d.cfg.RegistryTTL)
}

func (d *Dispatcher) reconcileBranch(ctx context.Context, name model.RepoName, branch string, sha model.CommitSHA, trigger labels.Trigger) error {
	repo, err := d.repository(ctx, name)
	if repo == nil {
		return err
	}

	prs, err := repo.Platform.FindPullRequests(ctx, branch, sha)
	if err != nil {
		return fmt.Errorf("resolving pull requests for %s@%s: %w", branch, sha, err)
	}
	if len(prs) == 0 {
		slog.DebugContext(ctx, "no open pull request for workflow", "branch", branch, "commit_sha", sha.String())
		return nil
	}

	for _, pr := range prs {
		if err := labels.Reconcile(ctx, repo.State, pr, trigger); err != nil {
			return err
		}
	}
	return nil
}

// repository returns (nil, nil) for repositories the bot is not installed on.
func (d *Dispatcher) repository(ctx context.Context, name model.RepoName) (*service.Repository, error) {
	repo, err := d.registry.Get(ctx, name)
	if err != nil {
		if errors.Is(err, service.ErrUnknownRepository) {
			slog.WarnContext(ctx, "event for unknown repository, skipping")
			return nil, nil
		}
		return nil, err
	}
	return repo, nil
}
