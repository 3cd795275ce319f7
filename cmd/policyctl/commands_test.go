package main

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("policyctl", func() {
	var path string

	run := func(args ...string) (string, error) {
		out := &bytes.Buffer{}
		root := newRootCmd()
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), ".mergebot.yml")
		Expect(os.WriteFile(path, []byte(`labels:
  build_started: ["+S-waiting-on-bors", "-S-waiting-on-review", "+S-testing", "-S-approved"]
  approved: ["approved"]
  unapproved: []
`), 0o644)).To(Succeed())
	})

	It("prints the parsed policy in trigger order", func() {
		out, err := run("check", path)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("approved: +approved\nunapproved: \nbuild_started: +S-waiting-on-bors -S-waiting-on-review +S-testing -S-approved\n"))
	})

	It("rejects invalid files", func() {
		Expect(os.WriteFile(path, []byte("labels:\n  merged: [\"+x\"]\n"), 0o644)).To(Succeed())
		_, err := run("check", path)
		Expect(err).To(MatchError(ContainSubstring("unknown trigger")))
	})

	It("plans one add call then one remove call", func() {
		out, err := run("plan", path, "build_started", "--pr", "12")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("add #12 S-waiting-on-bors,S-testing\nremove #12 S-waiting-on-review,S-approved\n"))
	})

	It("reports triggers without changes", func() {
		out, err := run("plan", path, "build_failed")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("build_failed: no label changes\n"))
	})

	It("rejects unknown triggers", func() {
		_, err := run("plan", path, "merged")
		Expect(err).To(MatchError(ContainSubstring("unknown trigger")))
	})
})
