package event_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/model"
)

type recordingVisitor struct {
	calls []string
}

func (r *recordingVisitor) VisitComment(ctx context.Context, ev event.Comment) error {
	r.calls = append(r.calls, "comment:"+ev.Text())
	return nil
}

func (r *recordingVisitor) VisitWorkflowStarted(ctx context.Context, ev event.WorkflowStarted) error {
	r.calls = append(r.calls, "workflow_started:"+ev.Name())
	return nil
}

func (r *recordingVisitor) VisitWorkflowCompleted(ctx context.Context, ev event.WorkflowCompleted) error {
	r.calls = append(r.calls, "workflow_completed:"+string(ev.Status()))
	return nil
}

func (r *recordingVisitor) VisitCheckSuiteCompleted(ctx context.Context, ev event.CheckSuiteCompleted) error {
	r.calls = append(r.calls, "check_suite_completed:"+ev.Branch())
	return nil
}

func (r *recordingVisitor) VisitInstallationsChanged(ctx context.Context, ev event.InstallationsChanged) error {
	r.calls = append(r.calls, "installations_changed")
	return nil
}

func (r *recordingVisitor) VisitRefresh(ctx context.Context, ev event.Refresh) error {
	r.calls = append(r.calls, "refresh")
	return nil
}

var _ = Describe("Event", func() {
	repo := model.NewRepoName("acme", "api")
	sha := model.CommitSHA("0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c")

	Describe("Visit", func() {
		DescribeTable("calls exactly one visitor method",
			func(ev event.Event, expected string) {
				v := &recordingVisitor{}
				Expect(event.Visit(context.Background(), ev, v)).To(Succeed())
				Expect(v.calls).To(Equal([]string{expected}))
			},
			Entry("comment", event.NewComment(repo, model.User{ID: 1, Username: "alice"}, 12, "@bors r+"), "comment:@bors r+"),
			Entry("workflow started", event.NewWorkflowStarted(repo, "test", "main", sha, 7, model.WorkflowTypePlatform, "https://ci/7"), "workflow_started:test"),
			Entry("workflow completed", event.NewWorkflowCompleted(repo, "main", sha, 7, model.WorkflowStatusFailure), "workflow_completed:failure"),
			Entry("check suite completed", event.NewCheckSuiteCompleted(repo, "main", sha), "check_suite_completed:main"),
			Entry("installations changed", event.InstallationsChanged{}, "installations_changed"),
			Entry("refresh", event.Refresh{}, "refresh"),
		)
	})

	Describe("RepositoryOf", func() {
		It("returns the repository of repository-scoped events", func() {
			name, ok := event.RepositoryOf(event.NewCheckSuiteCompleted(repo, "main", sha))
			Expect(ok).To(BeTrue())
			Expect(name.String()).To(Equal("acme/api"))
		})

		It("reports no repository for installation changes and refresh ticks", func() {
			_, ok := event.RepositoryOf(event.InstallationsChanged{})
			Expect(ok).To(BeFalse())
			_, ok = event.RepositoryOf(event.Refresh{})
			Expect(ok).To(BeFalse())
		})
	})

	Describe("construction", func() {
		It("exposes every field it was built with", func() {
			ev := event.NewWorkflowStarted(repo, "lint", "feature/x", sha, 99, model.WorkflowTypeExternal, "https://ci.example.com/99")

			Expect(ev.Kind()).To(Equal(event.KindWorkflowStarted))
			Expect(ev.Repository()).To(Equal(repo))
			Expect(ev.Name()).To(Equal("lint"))
			Expect(ev.Branch()).To(Equal("feature/x"))
			Expect(ev.CommitSHA()).To(Equal(sha))
			Expect(ev.RunID()).To(Equal(model.RunID(99)))
			Expect(ev.WorkflowType()).To(Equal(model.WorkflowTypeExternal))
			Expect(ev.URL()).To(Equal("https://ci.example.com/99"))
		})
	})

	Describe("codec", func() {
		It("decodes a comment back to the same value", func() {
			original := event.NewComment(repo, model.User{ID: 3, Username: "bob"}, 42, "@bors r-")

			data, err := event.Marshal(original)
			Expect(err).NotTo(HaveOccurred())

			decoded, err := event.Unmarshal(original.Kind(), data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(original))
		})

		It("decodes a completed workflow with its status", func() {
			original := event.NewWorkflowCompleted(model.NewRepoName("acme/platform", "api"), "main", sha, 5, model.WorkflowStatusSuccess)

			data, err := event.Marshal(original)
			Expect(err).NotTo(HaveOccurred())

			decoded, err := event.Unmarshal(event.KindWorkflowCompleted, data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(original))
		})

		DescribeTable("decodes every repository-scoped variant back to the same value",
			func(original event.Event) {
				data, err := event.Marshal(original)
				Expect(err).NotTo(HaveOccurred())

				decoded, err := event.Unmarshal(original.Kind(), data)
				Expect(err).NotTo(HaveOccurred())
				Expect(decoded).To(Equal(original))

				name, ok := event.RepositoryOf(decoded)
				Expect(ok).To(BeTrue())
				Expect(name.Owner()).To(Equal("group/sub"))
			},
			Entry("platform workflow started",
				event.NewWorkflowStarted(model.NewRepoName("group/sub", "api"), "test", "feature/x", sha, 3301,
					model.WorkflowTypePlatform, "https://gitlab.example.com/group/sub/api/-/jobs/3301")),
			Entry("external workflow started",
				event.NewWorkflowStarted(model.NewRepoName("group/sub", "api"), "external", "main", sha, 880,
					model.WorkflowTypeExternal, "https://ci.example.com/builds/880")),
			Entry("workflow completed",
				event.NewWorkflowCompleted(model.NewRepoName("group/sub", "api"), "main", sha, 7, model.WorkflowStatusFailure)),
			Entry("check suite completed",
				event.NewCheckSuiteCompleted(model.NewRepoName("group/sub", "api"), "main", sha)),
			Entry("comment",
				event.NewComment(model.NewRepoName("group/sub", "api"), model.User{ID: 9, Username: "carol"}, 3, "@bors r+")),
		)

		It("encodes payload-less variants as an empty object", func() {
			data, err := event.Marshal(event.Refresh{})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("{}"))

			decoded, err := event.Unmarshal(event.KindRefresh, data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(event.Refresh{}))
		})

		It("rejects unknown kinds", func() {
			_, err := event.Unmarshal(event.Kind("push"), []byte("{}"))
			Expect(err).To(MatchError(ContainSubstring(`unknown kind "push"`)))
		})
	})
})
