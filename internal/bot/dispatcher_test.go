package bot_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/mergebot/internal/bot"
	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/labels"
	"basegraph.app/mergebot/internal/model"
	"basegraph.app/mergebot/internal/service"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		client     *mockPlatformClient
		registry   *mockRegistry
		dispatcher *bot.Dispatcher
	)

	repoName := model.NewRepoName("acme", "api")
	alice := model.User{ID: 7, Username: "alice"}
	sha := model.CommitSHA("9c4e1a")

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockPlatformClient{}
		registry = &mockRegistry{
			repos: map[string]*service.Repository{
				"acme/api": {
					State: &labels.RepositoryState{
						Name: repoName,
						Policy: labels.Policy{
							labels.TriggerApproved:       {labels.Add("approved"), labels.Remove("S-waiting-on-review")},
							labels.TriggerUnapproved:     {labels.Remove("approved")},
							labels.TriggerBuildStarted:   {labels.Remove("S-waiting-on-review"), labels.Add("S-waiting-on-bors")},
							labels.TriggerBuildFailed:    {labels.Remove("S-waiting-on-bors"), labels.Add("S-waiting-on-author")},
							labels.TriggerBuildSucceeded: {labels.Remove("S-waiting-on-bors")},
						},
						Client: client,
					},
					Platform: client,
				},
			},
		}
		dispatcher = bot.NewDispatcher(registry, bot.Config{BotUsername: "bors", RegistryTTL: 5 * time.Minute})
	})

	Describe("comments", func() {
		It("reconciles the approval trigger for r+", func() {
			err := dispatcher.Dispatch(ctx, event.NewComment(repoName, alice, 12, "looks good\n@bors r+"))
			Expect(err).NotTo(HaveOccurred())
			Expect(client.calls).To(Equal([]labelCall{
				{Method: "add", PR: 12, Labels: []string{"approved"}},
				{Method: "remove", PR: 12, Labels: []string{"S-waiting-on-review"}},
			}))
		})

		It("applies multiple commands in order", func() {
			err := dispatcher.Dispatch(ctx, event.NewComment(repoName, alice, 12, "@bors r+\n@BORS r-"))
			Expect(err).NotTo(HaveOccurred())
			Expect(client.calls).To(HaveLen(3))
			Expect(client.calls[2]).To(Equal(labelCall{Method: "remove", PR: 12, Labels: []string{"approved"}}))
		})

		It("ignores comments without commands", func() {
			Expect(dispatcher.Dispatch(ctx, event.NewComment(repoName, alice, 12, "r+ @bors"))).To(Succeed())
			Expect(dispatcher.Dispatch(ctx, event.NewComment(repoName, alice, 12, "@bors try"))).To(Succeed())
			Expect(client.calls).To(BeEmpty())
		})

		It("ignores the bot's own comments", func() {
			bors := model.User{ID: 1, Username: "bors"}
			Expect(dispatcher.Dispatch(ctx, event.NewComment(repoName, bors, 12, "@bors r+"))).To(Succeed())
			Expect(client.calls).To(BeEmpty())
		})

		It("skips repositories the bot is not installed on", func() {
			other := model.NewRepoName("acme", "web")
			Expect(dispatcher.Dispatch(ctx, event.NewComment(other, alice, 3, "@bors r+"))).To(Succeed())
			Expect(client.calls).To(BeEmpty())
		})

		It("surfaces registry failures", func() {
			registry.getErr = errors.New("database unavailable")
			err := dispatcher.Dispatch(ctx, event.NewComment(repoName, alice, 12, "@bors r+"))
			Expect(err).To(MatchError("database unavailable"))
		})
	})

	Describe("workflows", func() {
		BeforeEach(func() {
			client.findPullRequestsFn = func(ctx context.Context, branch string, got model.CommitSHA) ([]model.PullRequestNumber, error) {
				if branch == "feature/x" && got == sha {
					return []model.PullRequestNumber{21}, nil
				}
				return nil, nil
			}
		})

		It("reconciles build_started on the pull request being built", func() {
			ev := event.NewWorkflowStarted(repoName, "test", "feature/x", sha, 1, model.WorkflowTypePlatform, "https://ci/1")
			Expect(dispatcher.Dispatch(ctx, ev)).To(Succeed())
			Expect(client.calls).To(Equal([]labelCall{
				{Method: "add", PR: 21, Labels: []string{"S-waiting-on-bors"}},
				{Method: "remove", PR: 21, Labels: []string{"S-waiting-on-review"}},
			}))
		})

		It("reconciles build_failed on failure", func() {
			ev := event.NewWorkflowCompleted(repoName, "feature/x", sha, 1, model.WorkflowStatusFailure)
			Expect(dispatcher.Dispatch(ctx, ev)).To(Succeed())
			Expect(client.calls).To(Equal([]labelCall{
				{Method: "add", PR: 21, Labels: []string{"S-waiting-on-author"}},
				{Method: "remove", PR: 21, Labels: []string{"S-waiting-on-bors"}},
			}))
		})

		It("reconciles build_succeeded on success", func() {
			ev := event.NewWorkflowCompleted(repoName, "feature/x", sha, 1, model.WorkflowStatusSuccess)
			Expect(dispatcher.Dispatch(ctx, ev)).To(Succeed())
			Expect(client.calls).To(Equal([]labelCall{
				{Method: "remove", PR: 21, Labels: []string{"S-waiting-on-bors"}},
			}))
		})

		It("does nothing for non-terminal statuses", func() {
			ev := event.NewWorkflowCompleted(repoName, "feature/x", sha, 1, model.WorkflowStatusPending)
			Expect(dispatcher.Dispatch(ctx, ev)).To(Succeed())
			Expect(client.calls).To(BeEmpty())
		})

		It("does nothing when no pull request matches the branch head", func() {
			ev := event.NewWorkflowStarted(repoName, "test", "main", sha, 1, model.WorkflowTypePlatform, "https://ci/1")
			Expect(dispatcher.Dispatch(ctx, ev)).To(Succeed())
			Expect(client.calls).To(BeEmpty())
		})

		It("surfaces lookup failures", func() {
			client.findPullRequestsFn = func(ctx context.Context, branch string, sha model.CommitSHA) ([]model.PullRequestNumber, error) {
				return nil, errors.New("502 Bad Gateway")
			}
			ev := event.NewWorkflowStarted(repoName, "test", "feature/x", sha, 1, model.WorkflowTypePlatform, "https://ci/1")
			Expect(dispatcher.Dispatch(ctx, ev)).To(MatchError(ContainSubstring("502 Bad Gateway")))
		})
	})

	It("does not touch labels when a check suite completes", func() {
		Expect(dispatcher.Dispatch(ctx, event.NewCheckSuiteCompleted(repoName, "feature/x", sha))).To(Succeed())
		Expect(client.calls).To(BeEmpty())
	})

	It("reloads the registry when installations change", func() {
		Expect(dispatcher.Dispatch(ctx, event.InstallationsChanged{})).To(Succeed())
		Expect(registry.reloadCalls).To(Equal(1))
	})

	It("reloads stale repositories on refresh", func() {
		Expect(dispatcher.Dispatch(ctx, event.Refresh{})).To(Succeed())
		Expect(registry.staleReloadTTLs).To(Equal([]time.Duration{5 * time.Minute}))
		Expect(registry.reloadCalls).To(BeZero())
	})
})
