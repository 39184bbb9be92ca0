package timer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joosthooz/smarttimers/pkg/clock"
	"github.com/joosthooz/smarttimers/pkg/timer"
)

const floatTolerance = 1e-9

// recordBlocks closes one interval per (label, elapsed) pair.
func recordBlocks(s *timer.Session, clk *clock.Stepped, blocks []timer.LabelTime) {
	GinkgoHelper()

	for _, b := range blocks {
		s.Tic(b.Label)
		clk.Advance(b.Elapsed)

		_, err := s.Toc("")
		Expect(err).NotTo(HaveOccurred())
	}
}

var _ = Describe("Report", func() {
	var (
		clk     *clock.Stepped
		session *timer.Session
	)

	BeforeEach(func() {
		clk = clock.NewStepped()

		var err error
		session, err = timer.New(timer.WithClockSource(clk))
		Expect(err).NotTo(HaveOccurred())
	})

	It("is empty for a fresh session", func() {
		Expect(session.Report()).To(BeEmpty())
	})

	It("derives relative and cumulative percentages in tic order", func() {
		recordBlocks(session, clk, []timer.LabelTime{
			{Label: "A", Elapsed: time.Second},
			{Label: "B", Elapsed: 3 * time.Second},
		})

		rows := session.Report()

		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Label).To(Equal("A"))
		Expect(rows[0].Seconds).To(Equal(1.0))
		Expect(rows[0].RelPercent).To(BeNumerically("~", 25.0, floatTolerance))
		Expect(rows[0].CumulativeSeconds).To(Equal(1.0))
		Expect(rows[0].CumulativePercent).To(BeNumerically("~", 25.0, floatTolerance))

		Expect(rows[1].Label).To(Equal("B"))
		Expect(rows[1].RelPercent).To(BeNumerically("~", 75.0, floatTolerance))
		Expect(rows[1].CumulativeSeconds).To(Equal(4.0))
		Expect(rows[1].CumulativeMinutes).To(BeNumerically("~", 4.0/60, floatTolerance))
		Expect(rows[1].CumulativePercent).To(BeNumerically("~", 100.0, floatTolerance))
	})

	It("sums relative percentages to 100 and cumulatives to the total", func() {
		recordBlocks(session, clk, []timer.LabelTime{
			{Label: "a", Elapsed: 700 * time.Millisecond},
			{Label: "b", Elapsed: 1300 * time.Millisecond},
			{Label: "c", Elapsed: 250 * time.Millisecond},
			{Label: "d", Elapsed: 4750 * time.Millisecond},
		})

		rows := session.Report()

		var relSum, secSum float64
		for _, row := range rows {
			relSum += row.RelPercent
			secSum += row.Seconds
		}

		Expect(relSum).To(BeNumerically("~", 100.0, floatTolerance))
		Expect(rows[len(rows)-1].CumulativeSeconds).To(BeNumerically("~", secSum, floatTolerance))
	})

	It("double-counts nested children by design", func() {
		session.Tic("outer")
		clk.Advance(time.Second)
		session.Tic("inner")
		clk.Advance(time.Second)

		_, err := session.Toc("")
		Expect(err).NotTo(HaveOccurred())
		_, err = session.Toc("")
		Expect(err).NotTo(HaveOccurred())

		rows := session.Report()

		// outer covers 2s of wall time, inner 1s inside it; the grand
		// total counts both, so outer gets 2/3 and inner 1/3.
		Expect(rows[0].RelPercent).To(BeNumerically("~", 200.0/3, floatTolerance))
		Expect(rows[1].RelPercent).To(BeNumerically("~", 100.0/3, floatTolerance))
	})

	It("skips still-open marks", func() {
		session.Tic("open")
		recordBlocks(session, clk, []timer.LabelTime{
			{Label: "closed", Elapsed: time.Second},
		})

		rows := session.Report()

		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Label).To(Equal("closed"))
	})
})

var _ = Describe("String", func() {
	It("renders the fixed-precision export format exactly", func() {
		clk := clock.NewStepped()
		session, err := timer.New(timer.WithClockSource(clk))
		Expect(err).NotTo(HaveOccurred())

		recordBlocks(session, clk, []timer.LabelTime{
			{Label: "A", Elapsed: 1500 * time.Millisecond},
		})

		Expect(session.String()).To(Equal(
			"       label,      seconds,      minutes,  rel_percent," +
				"    cumul_sec,    cumul_min, cumul_percent\n" +
				"           A,     1.500000,     0.025000,     100.0000," +
				"     1.500000,     0.025000,     100.0000\n"))
	})
})

var _ = Describe("Export", func() {
	var (
		clk     *clock.Stepped
		session *timer.Session
	)

	BeforeEach(func() {
		clk = clock.NewStepped()

		var err error
		session, err = timer.New(
			timer.WithClockSource(clk),
			timer.WithName("export-test"),
		)
		Expect(err).NotTo(HaveOccurred())

		recordBlocks(session, clk, []timer.LabelTime{
			{Label: "A", Elapsed: time.Second},
			{Label: "B", Elapsed: time.Second},
		})
	})

	Describe("WriteTo", func() {
		It("writes compact CSV with the export precision", func() {
			var buf bytes.Buffer

			n, err := session.WriteTo(&buf)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(buf.Len())))
			Expect(buf.String()).To(Equal(
				"label,seconds,minutes,rel_percent,cumul_sec,cumul_min,cumul_percent\n" +
					"A,1.000000,0.016667,50.0000,1.000000,0.016667,50.0000\n" +
					"B,1.000000,0.016667,50.0000,2.000000,0.033333,100.0000\n"))
		})
	})

	Describe("ExportFile", func() {
		It("writes the CSV report to the given path", func() {
			path := filepath.Join(GinkgoT().TempDir(), "report.csv")

			Expect(session.ExportFile(path, false)).To(Succeed())

			var buf bytes.Buffer
			_, err := session.WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())

			Expect(os.ReadFile(path)).To(Equal(buf.Bytes()))
		})

		It("appends instead of truncating in append mode", func() {
			path := filepath.Join(GinkgoT().TempDir(), "report.csv")

			Expect(session.ExportFile(path, false)).To(Succeed())
			Expect(session.ExportFile(path, true)).To(Succeed())

			var buf bytes.Buffer
			_, err := session.WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())

			Expect(os.ReadFile(path)).To(Equal(append(buf.Bytes(), buf.Bytes()...)))
		})

		It("derives the file name from the session name when empty", func() {
			tmpDir := GinkgoT().TempDir()
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() {
				Expect(os.Chdir(wd)).To(Succeed())
			})

			Expect(session.ExportFile("", false)).To(Succeed())

			_, err = os.Stat(filepath.Join(tmpDir, "export-test.txt"))
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

var _ = Describe("Stats", func() {
	var (
		clk     *clock.Stepped
		session *timer.Session
	)

	BeforeEach(func() {
		clk = clock.NewStepped()

		var err error
		session, err = timer.New(timer.WithClockSource(clk))
		Expect(err).NotTo(HaveOccurred())

		recordBlocks(session, clk, []timer.LabelTime{
			{Label: "io-read", Elapsed: time.Second},
			{Label: "io-write", Elapsed: 3 * time.Second},
			{Label: "compute", Elapsed: 10 * time.Second},
		})
	})

	It("aggregates over all intervals with an empty filter", func() {
		stats, ok := session.Stats("")

		Expect(ok).To(BeTrue())
		Expect(stats.Total.Seconds).To(Equal(14.0))
		Expect(stats.Min.Seconds).To(Equal(1.0))
		Expect(stats.Max.Seconds).To(Equal(10.0))
		Expect(stats.Avg.Seconds).To(BeNumerically("~", 14.0/3, floatTolerance))
		Expect(stats.Total.Minutes).To(BeNumerically("~", 14.0/60, floatTolerance))
	})

	It("restricts to labels containing the filter substring", func() {
		stats, ok := session.Stats("io-")

		Expect(ok).To(BeTrue())
		Expect(stats.Total.Seconds).To(Equal(4.0))
		Expect(stats.Min.Seconds).To(Equal(1.0))
		Expect(stats.Max.Seconds).To(Equal(3.0))
		Expect(stats.Avg.Seconds).To(Equal(2.0))
	})

	It("reports no data rather than failing when nothing matches", func() {
		stats, ok := session.Stats("network")

		Expect(ok).To(BeFalse())
		Expect(stats).To(BeZero())
	})
})

var _ = Describe("Merge", func() {
	It("appends intervals from a compatible session", func() {
		clkA := clock.NewStepped()
		clkB := clock.NewStepped()

		a, err := timer.New(timer.WithClockSource(clkA))
		Expect(err).NotTo(HaveOccurred())
		b, err := timer.New(timer.WithClockSource(clkB))
		Expect(err).NotTo(HaveOccurred())

		recordBlocks(a, clkA, []timer.LabelTime{{Label: "A", Elapsed: time.Second}})
		recordBlocks(b, clkB, []timer.LabelTime{{Label: "B", Elapsed: 2 * time.Second}})

		Expect(a.Merge(b)).To(Succeed())

		Expect(a.Labels()).To(Equal([]string{"A", "B"}))
		Expect(a.Seconds()).To(Equal([]float64{1, 2}))

		// Merged copies are independent of the source session.
		b.Reset()
		Expect(a.Labels()).To(Equal([]string{"A", "B"}))
	})

	It("fails for sessions on incompatible clocks", func() {
		a, err := timer.New(timer.WithClockSource(clock.NewStepped()))
		Expect(err).NotTo(HaveOccurred())
		b, err := timer.New(timer.WithClockSource(clock.NewSteppedAdjustable()))
		Expect(err).NotTo(HaveOccurred())

		err = a.Merge(b)

		Expect(errors.Is(err, timer.ErrIncompatibleClocks)).To(BeTrue())
	})
})
