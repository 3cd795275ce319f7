// Package event defines the provider-agnostic events the bot reacts to.
//
// Event is a closed set: the six variants below are the only implementations,
// and Visitor has one method per variant, so adding a variant breaks every
// consumer until it handles the new kind.
package event

import (
	"context"

	"basegraph.app/mergebot/internal/model"
)

// Kind names an event variant. It is also the discriminator on the queue.
type Kind string

const (
	KindComment              Kind = "comment"
	KindWorkflowStarted      Kind = "workflow_started"
	KindWorkflowCompleted    Kind = "workflow_completed"
	KindCheckSuiteCompleted  Kind = "check_suite_completed"
	KindInstallationsChanged Kind = "installations_changed"
	KindRefresh              Kind = "refresh"
)

type Event interface {
	Kind() Kind
	accept(ctx context.Context, v Visitor) error
}

// Visitor receives exactly one call per visited event.
type Visitor interface {
	VisitComment(ctx context.Context, ev Comment) error
	VisitWorkflowStarted(ctx context.Context, ev WorkflowStarted) error
	VisitWorkflowCompleted(ctx context.Context, ev WorkflowCompleted) error
	VisitCheckSuiteCompleted(ctx context.Context, ev CheckSuiteCompleted) error
	VisitInstallationsChanged(ctx context.Context, ev InstallationsChanged) error
	VisitRefresh(ctx context.Context, ev Refresh) error
}

func Visit(ctx context.Context, ev Event, v Visitor) error {
	return ev.accept(ctx, v)
}

// RepositoryOf returns the repository an event is scoped to. Installation
// changes and refresh ticks are not scoped to a repository.
func RepositoryOf(ev Event) (model.RepoName, bool) {
	switch e := ev.(type) {
	case Comment:
		return e.repository, true
	case WorkflowStarted:
		return e.repository, true
	case WorkflowCompleted:
		return e.repository, true
	case CheckSuiteCompleted:
		return e.repository, true
	}
	return model.RepoName{}, false
}

// Comment is a new comment posted on a pull request.
type Comment struct {
	repository model.RepoName
	author     model.User
	pr         model.PullRequestNumber
	text       string
}

func NewComment(repository model.RepoName, author model.User, pr model.PullRequestNumber, text string) Comment {
	return Comment{repository: repository, author: author, pr: pr, text: text}
}

func (e Comment) Kind() Kind                           { return KindComment }
func (e Comment) Repository() model.RepoName           { return e.repository }
func (e Comment) Author() model.User                   { return e.author }
func (e Comment) PullRequest() model.PullRequestNumber { return e.pr }
func (e Comment) Text() string                         { return e.text }

func (e Comment) accept(ctx context.Context, v Visitor) error {
	return v.VisitComment(ctx, e)
}

// WorkflowStarted is a workflow run on the platform's CI, or a run on an
// external CI system, that has started.
type WorkflowStarted struct {
	repository   model.RepoName
	name         string
	branch       string
	commitSHA    model.CommitSHA
	runID        model.RunID
	workflowType model.WorkflowType
	url          string
}

func NewWorkflowStarted(
	repository model.RepoName,
	name string,
	branch string,
	commitSHA model.CommitSHA,
	runID model.RunID,
	workflowType model.WorkflowType,
	url string,
) WorkflowStarted {
	return WorkflowStarted{
		repository:   repository,
		name:         name,
		branch:       branch,
		commitSHA:    commitSHA,
		runID:        runID,
		workflowType: workflowType,
		url:          url,
	}
}

func (e WorkflowStarted) Kind() Kind                       { return KindWorkflowStarted }
func (e WorkflowStarted) Repository() model.RepoName       { return e.repository }
func (e WorkflowStarted) Name() string                     { return e.name }
func (e WorkflowStarted) Branch() string                   { return e.branch }
func (e WorkflowStarted) CommitSHA() model.CommitSHA       { return e.commitSHA }
func (e WorkflowStarted) RunID() model.RunID               { return e.runID }
func (e WorkflowStarted) WorkflowType() model.WorkflowType { return e.workflowType }
func (e WorkflowStarted) URL() string                      { return e.url }

func (e WorkflowStarted) accept(ctx context.Context, v Visitor) error {
	return v.VisitWorkflowStarted(ctx, e)
}

// WorkflowCompleted is a workflow run that reached a status reported by the provider.
type WorkflowCompleted struct {
	repository model.RepoName
	branch     string
	commitSHA  model.CommitSHA
	runID      model.RunID
	status     model.WorkflowStatus
}

func NewWorkflowCompleted(
	repository model.RepoName,
	branch string,
	commitSHA model.CommitSHA,
	runID model.RunID,
	status model.WorkflowStatus,
) WorkflowCompleted {
	return WorkflowCompleted{
		repository: repository,
		branch:     branch,
		commitSHA:  commitSHA,
		runID:      runID,
		status:     status,
	}
}

func (e WorkflowCompleted) Kind() Kind                   { return KindWorkflowCompleted }
func (e WorkflowCompleted) Repository() model.RepoName   { return e.repository }
func (e WorkflowCompleted) Branch() string               { return e.branch }
func (e WorkflowCompleted) CommitSHA() model.CommitSHA   { return e.commitSHA }
func (e WorkflowCompleted) RunID() model.RunID           { return e.runID }
func (e WorkflowCompleted) Status() model.WorkflowStatus { return e.status }

func (e WorkflowCompleted) accept(ctx context.Context, v Visitor) error {
	return v.VisitWorkflowCompleted(ctx, e)
}

// CheckSuiteCompleted is the aggregate completion of every run for a commit.
type CheckSuiteCompleted struct {
	repository model.RepoName
	branch     string
	commitSHA  model.CommitSHA
}

func NewCheckSuiteCompleted(repository model.RepoName, branch string, commitSHA model.CommitSHA) CheckSuiteCompleted {
	return CheckSuiteCompleted{repository: repository, branch: branch, commitSHA: commitSHA}
}

func (e CheckSuiteCompleted) Kind() Kind                 { return KindCheckSuiteCompleted }
func (e CheckSuiteCompleted) Repository() model.RepoName { return e.repository }
func (e CheckSuiteCompleted) Branch() string             { return e.branch }
func (e CheckSuiteCompleted) CommitSHA() model.CommitSHA { return e.commitSHA }

func (e CheckSuiteCompleted) accept(ctx context.Context, v Visitor) error {
	return v.VisitCheckSuiteCompleted(ctx, e)
}

// InstallationsChanged signals that the set of repositories the bot serves,
// or their configuration, may have changed.
type InstallationsChanged struct{}

func (InstallationsChanged) Kind() Kind { return KindInstallationsChanged }

func (e InstallationsChanged) accept(ctx context.Context, v Visitor) error {
	return v.VisitInstallationsChanged(ctx, e)
}

// Refresh is a periodic tick used to re-evaluate time-based state.
type Refresh struct{}

func (Refresh) Kind() Kind { return KindRefresh }

func (e Refresh) accept(ctx context.Context, v Visitor) error {
	return v.VisitRefresh(ctx, e)
}
