package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/model"
	"basegraph.app/mergebot/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("decodes the event and delivery metadata", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"kind":        "check_suite_completed",
				"payload":     `{"repository":{"owner":"acme","name":"api"},"branch":"main","commit_sha":"abc"}`,
				"delivery_id": "1830000000000000001",
				"attempt":     "2",
				"trace_id":    "4bf92f3577b34da6a3ce929d0e0e4736",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.DeliveryID).To(Equal(int64(1830000000000000001)))
		Expect(msg.Attempt).To(Equal(2))
		Expect(msg.TraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
		Expect(msg.Event).To(Equal(event.NewCheckSuiteCompleted(model.NewRepoName("acme", "api"), "main", "abc")))
	})

	It("defaults the attempt to one", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID:     "1-0",
			Values: map[string]any{"kind": "refresh", "payload": "{}"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
		Expect(msg.Event).To(Equal(event.Refresh{}))
	})

	It("rejects messages without a kind", func() {
		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"payload": "{}"}})
		Expect(err).To(MatchError(ContainSubstring("missing kind")))
	})

	It("rejects unknown kinds", func() {
		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"kind": "push", "payload": "{}"}})
		Expect(err).To(HaveOccurred())
	})

	It("rejects malformed attempts", func() {
		_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"kind": "refresh", "payload": "{}", "attempt": "x"}})
		Expect(err).To(MatchError(ContainSubstring("parsing attempt")))
	})
})
