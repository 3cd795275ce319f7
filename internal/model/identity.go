package model

import (
	"fmt"
	"strings"
)

// RepoName identifies a repository on the hosting platform as owner/name.
// The owner may itself contain slashes (GitLab subgroups).
type RepoName struct {
	owner string
	name  string
}

func NewRepoName(owner, name string) RepoName {
	return RepoName{owner: owner, name: name}
}

// ParseRepoName splits a full path ("group/sub/project") at the last slash.
func ParseRepoName(path string) (RepoName, error) {
	path = strings.Trim(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return RepoName{}, fmt.Errorf("invalid repository path %q", path)
	}
	return RepoName{owner: path[:idx], name: path[idx+1:]}, nil
}

func (r RepoName) Owner() string { return r.owner }
func (r RepoName) Name() string  { return r.name }

func (r RepoName) String() string {
	return r.owner + "/" + r.name
}

func (r RepoName) IsZero() bool {
	return r.owner == "" && r.name == ""
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// PullRequestNumber is the per-repository pull request number (GitLab IID).
type PullRequestNumber int64

func (n PullRequestNumber) String() string {
	return fmt.Sprintf("#%d", int64(n))
}

// CommitSHA is an opaque commit identifier. It is never interpreted.
type CommitSHA string

func (s CommitSHA) String() string { return string(s) }

// RunID is the provider-assigned identifier of a workflow run.
type RunID int64
