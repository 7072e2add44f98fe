package hub

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Session", func() {
	It("derives cancelled from the flag triple", func() {
		s := NewSession("m")
		Expect(s.Cancelled()).To(BeFalse())

		s.Cancel()
		Expect(s.Cancelled()).To(BeTrue())

		// a completed run is not cancelled, even if a cancel raced it
		s.completed.Store(true)
		Expect(s.Cancelled()).To(BeFalse())

		s.completed.Store(false)
		s.failed.Store(true)
		Expect(s.Cancelled()).To(BeFalse())
	})

	It("keeps the first failure message", func() {
		s := NewSession("m")
		s.fail("disk full")
		s.fail("network unreachable")
		Expect(s.Failed()).To(BeTrue())
		Expect(s.Error()).To(Equal("disk full"))
	})

	It("resets every field for a retry", func() {
		s := NewSession("m")
		s.totalBytes.Store(100)
		s.addProgress(60)
		s.setCurrentFile("weights/a.bin", 3)
		s.fail("boom")
		s.Cancel()

		s.Reset()

		snap := s.Snapshot()
		Expect(snap.ProgressBytes).To(BeZero())
		Expect(snap.TotalBytes).To(BeZero())
		Expect(snap.FileIndex).To(BeZero())
		Expect(snap.CurrentFile).To(BeEmpty())
		Expect(snap.Error).To(BeEmpty())
		Expect(snap.Failed).To(BeFalse())
		Expect(snap.Cancelled).To(BeFalse())
	})

	It("never reports more progress than the total", func() {
		s := NewSession("m")
		s.totalBytes.Store(100)
		s.addProgress(80)
		s.addProgress(80)
		Expect(s.Snapshot().ProgressBytes).To(Equal(uint64(100)))
		Expect(s.Fraction()).To(Equal(1.0))
	})

	It("reports zero progress while the total is unknown", func() {
		s := NewSession("m")
		s.addProgress(500)
		Expect(s.Fraction()).To(BeZero())
	})

	It("renders progress with the current file when known", func() {
		s := NewSession("m")
		s.totalBytes.Store(200)
		s.addProgress(100)
		Expect(s.ProgressText()).To(Equal("50.0%  (100 B/200 B)"))

		s.setCurrentFile("weights/a.bin", 0)
		Expect(s.ProgressText()).To(Equal("50.0%  weights/a.bin"))
	})

	It("formats byte counts on the binary ladder", func() {
		Expect(formatBytes(512)).To(Equal("512 B"))
		Expect(formatBytes(2048)).To(Equal("2.0 KiB"))
		Expect(formatBytes(5 * 1024 * 1024)).To(Equal("5.0 MiB"))
		Expect(formatBytes(3 * 1024 * 1024 * 1024)).To(Equal("3.0 GiB"))
	})
})
