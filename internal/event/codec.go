package event

import (
	"encoding/json"
	"fmt"

	"basegraph.app/mergebot/internal/model"
)

type repoWire struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type commentWire struct {
	Repository  repoWire   `json:"repository"`
	Author      model.User `json:"author"`
	PullRequest int64      `json:"pull_request"`
	Text        string     `json:"text"`
}

type workflowStartedWire struct {
	Repository   repoWire `json:"repository"`
	Name         string   `json:"name"`
	Branch       string   `json:"branch"`
	CommitSHA    string   `json:"commit_sha"`
	RunID        int64    `json:"run_id"`
	WorkflowType string   `json:"workflow_type"`
	URL          string   `json:"url"`
}

type workflowCompletedWire struct {
	Repository repoWire `json:"repository"`
	Branch     string   `json:"branch"`
	CommitSHA  string   `json:"commit_sha"`
	RunID      int64    `json:"run_id"`
	Status     string   `json:"status"`
}

type checkSuiteCompletedWire struct {
	Repository repoWire `json:"repository"`
	Branch     string   `json:"branch"`
	CommitSHA  string   `json:"commit_sha"`
}

func toRepoWire(r model.RepoName) repoWire {
	return repoWire{Owner: r.Owner(), Name: r.Name()}
}

func (w repoWire) repoName() model.RepoName {
	return model.NewRepoName(w.Owner, w.Name)
}

// Marshal encodes an event's payload for transport. Payload-less variants
// encode as an empty JSON object.
func Marshal(ev Event) ([]byte, error) {
	var payload any
	switch e := ev.(type) {
	case Comment:
		payload = commentWire{
			Repository:  toRepoWire(e.repository),
			Author:      e.author,
			PullRequest: int64(e.pr),
			Text:        e.text,
		}
	case WorkflowStarted:
		payload = workflowStartedWire{
			Repository:   toRepoWire(e.repository),
			Name:         e.name,
			Branch:       e.branch,
			CommitSHA:    string(e.commitSHA),
			RunID:        int64(e.runID),
			WorkflowType: string(e.workflowType),
			URL:          e.url,
		}
	case WorkflowCompleted:
		payload = workflowCompletedWire{
			Repository: toRepoWire(e.repository),
			Branch:     e.branch,
			CommitSHA:  string(e.commitSHA),
			RunID:      int64(e.runID),
			Status:     string(e.status),
		}
	case CheckSuiteCompleted:
		payload = checkSuiteCompletedWire{
			Repository: toRepoWire(e.repository),
			Branch:     e.branch,
			CommitSHA:  string(e.commitSHA),
		}
	case InstallationsChanged, Refresh:
		payload = struct{}{}
	default:
		return nil, fmt.Errorf("marshal event: unknown variant %T", ev)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Kind(), err)
	}
	return data, nil
}

// Unmarshal decodes a payload produced by Marshal back into its variant.
func Unmarshal(kind Kind, data []byte) (Event, error) {
	switch kind {
	case KindComment:
		var w commentWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return NewComment(w.Repository.repoName(), w.Author, model.PullRequestNumber(w.PullRequest), w.Text), nil
	case KindWorkflowStarted:
		var w workflowStartedWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return NewWorkflowStarted(
			w.Repository.repoName(),
			w.Name,
			w.Branch,
			model.CommitSHA(w.CommitSHA),
			model.RunID(w.RunID),
			model.WorkflowType(w.WorkflowType),
			w.URL,
		), nil
	case KindWorkflowCompleted:
		var w workflowCompletedWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return NewWorkflowCompleted(
			w.Repository.repoName(),
			w.Branch,
			model.CommitSHA(w.CommitSHA),
			model.RunID(w.RunID),
			model.WorkflowStatus(w.Status),
		), nil
	case KindCheckSuiteCompleted:
		var w checkSuiteCompletedWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return NewCheckSuiteCompleted(w.Repository.repoName(), w.Branch, model.CommitSHA(w.CommitSHA)), nil
	case KindInstallationsChanged:
		return InstallationsChanged{}, nil
	case KindRefresh:
		return Refresh{}, nil
	}
	return nil, fmt.Errorf("unmarshal event: unknown kind %q", kind)
}
