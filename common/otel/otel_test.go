package otel

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/mergebot/core/config"
)

var _ = Describe("parseHeaders", func() {
	DescribeTable("parses exporter header lists",
		func(in string, want map[string]string) {
			Expect(parseHeaders(in)).To(Equal(want))
		},
		Entry("empty", "", map[string]string{}),
		Entry("single", "authorization=Bearer abc", map[string]string{"authorization": "Bearer abc"}),
		Entry("several with spaces", " a = 1 , b=2", map[string]string{"a": "1", "b": "2"}),
		Entry("value containing =", "token=x=y", map[string]string{"token": "x=y"}),
		Entry("malformed pairs skipped", "novalue,=orphan,ok=1", map[string]string{"ok": "1"}),
	)
})

var _ = Describe("Setup", func() {
	It("is a no-op without an endpoint", func() {
		telemetry, err := Setup(context.Background(), config.OTelConfig{ServiceName: "mergebot"})
		Expect(err).NotTo(HaveOccurred())
		Expect(telemetry).To(BeNil())
	})
})
