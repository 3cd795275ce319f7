package mapper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/model"
)

type GitLabEventMapper struct{}

func NewGitLabEventMapper() *GitLabEventMapper {
	return &GitLabEventMapper{}
}

func (m *GitLabEventMapper) Map(ctx context.Context, eventType string, body []byte) ([]event.Event, error) {
	switch gitlab.EventType(eventType) {
	case gitlab.EventTypeNote:
		return m.mapNote(body)
	case gitlab.EventTypePipeline:
		return m.mapPipeline(body)
	case gitlab.EventTypeJob:
		return m.mapJob(body)
	case gitlab.EventTypeSystemHook:
		return m.mapSystem(body)
	}
	return nil, fmt.Errorf("%w: gitlab %q", ErrUnsupportedEvent, eventType)
}

func (m *GitLabEventMapper) mapNote(body []byte) ([]event.Event, error) {
	parsed, err := gitlab.ParseWebhook(gitlab.EventTypeNote, body)
	if err != nil {
		return nil, fmt.Errorf("parsing note hook: %w", err)
	}

	note, ok := parsed.(*gitlab.MergeCommentEvent)
	if !ok {
		// comments on issues, commits and snippets
		return nil, nil
	}

	repo, err := model.ParseRepoName(note.Project.PathWithNamespace)
	if err != nil {
		return nil, err
	}

	var author model.User
	if note.User != nil {
		author = model.User{ID: int64(note.User.ID), Username: note.User.Username}
	}

	return []event.Event{
		event.NewComment(repo, author, model.PullRequestNumber(note.MergeRequest.IID), note.ObjectAttributes.Note),
	}, nil
}

func (m *GitLabEventMapper) mapPipeline(body []byte) ([]event.Event, error) {
	parsed, err := gitlab.ParseWebhook(gitlab.EventTypePipeline, body)
	if err != nil {
		return nil, fmt.Errorf("parsing pipeline hook: %w", err)
	}
	pipeline, ok := parsed.(*gitlab.PipelineEvent)
	if !ok {
		return nil, fmt.Errorf("parsing pipeline hook: unexpected %T", parsed)
	}

	repo, err := model.ParseRepoName(pipeline.Project.PathWithNamespace)
	if err != nil {
		return nil, err
	}

	attrs := pipeline.ObjectAttributes
	sha := model.CommitSHA(attrs.SHA)
	runID := model.RunID(attrs.ID)
	status, terminal := workflowStatus(attrs.Status)
	external := attrs.Source == "external"

	var events []event.Event
	switch {
	case external && attrs.Status == "running":
		pipelineURL := fmt.Sprintf("%s/-/pipelines/%d", strings.TrimSuffix(pipeline.Project.WebURL, "/"), int64(attrs.ID))
		events = append(events, event.NewWorkflowStarted(repo, "external", attrs.Ref, sha, runID, model.WorkflowTypeExternal, pipelineURL))
	case external && terminal:
		events = append(events, event.NewWorkflowCompleted(repo, attrs.Ref, sha, runID, status))
	}

	if terminal {
		events = append(events, event.NewCheckSuiteCompleted(repo, attrs.Ref, sha))
	}
	return events, nil
}

func (m *GitLabEventMapper) mapJob(body []byte) ([]event.Event, error) {
	parsed, err := gitlab.ParseWebhook(gitlab.EventTypeJob, body)
	if err != nil {
		return nil, fmt.Errorf("parsing job hook: %w", err)
	}
	job, ok := parsed.(*gitlab.JobEvent)
	if !ok {
		return nil, fmt.Errorf("parsing job hook: unexpected %T", parsed)
	}

	repo, webURL, err := jobRepository(job)
	if err != nil {
		return nil, err
	}

	buildID := int64(job.BuildID)
	sha := model.CommitSHA(job.SHA)
	runID := model.RunID(buildID)

	if job.BuildStatus == "running" {
		jobURL := fmt.Sprintf("%s/-/jobs/%d", webURL, buildID)
		return []event.Event{
			event.NewWorkflowStarted(repo, job.BuildName, job.Ref, sha, runID, model.WorkflowTypePlatform, jobURL),
		}, nil
	}

	if status, terminal := workflowStatus(job.BuildStatus); terminal {
		return []event.Event{event.NewWorkflowCompleted(repo, job.Ref, sha, runID, status)}, nil
	}

	// created, pending, manual, skipped
	return nil, nil
}

// jobRepository resolves the project of a job hook. Job hooks carry the
// project only as a repository block whose homepage is the project web URL;
// path_with_namespace is used when present.
func jobRepository(job *gitlab.JobEvent) (model.RepoName, string, error) {
	if job.Repository == nil {
		return model.RepoName{}, "", fmt.Errorf("job hook without repository")
	}
	webURL := strings.TrimSuffix(job.Repository.Homepage, "/")

	path := job.Repository.PathWithNamespace
	if path == "" && webURL != "" {
		u, err := url.Parse(webURL)
		if err != nil {
			return model.RepoName{}, "", fmt.Errorf("job hook repository homepage: %w", err)
		}
		path = strings.Trim(u.Path, "/")
	}

	repo, err := model.ParseRepoName(path)
	if err != nil {
		return model.RepoName{}, "", err
	}
	return repo, webURL, nil
}

// mapSystem reports project lifecycle changes. System hooks the client
// library cannot classify are treated as unsupported rather than malformed.
func (m *GitLabEventMapper) mapSystem(body []byte) ([]event.Event, error) {
	parsed, err := gitlab.ParseHook(gitlab.EventTypeSystemHook, body)
	if err != nil {
		return nil, fmt.Errorf("%w: system hook: %w", ErrUnsupportedEvent, err)
	}

	if _, ok := parsed.(*gitlab.ProjectSystemEvent); ok {
		return []event.Event{event.InstallationsChanged{}}, nil
	}
	return nil, nil
}

// workflowStatus maps a GitLab job or pipeline status to the workflow status
// vocabulary. Cancelled runs count as failures.
func workflowStatus(s string) (model.WorkflowStatus, bool) {
	switch s {
	case "success":
		return model.WorkflowStatusSuccess, true
	case "failed", "canceled":
		return model.WorkflowStatusFailure, true
	}
	return model.WorkflowStatusPending, false
}
