package sampler_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eminamitani/MD-edamame/internal/sampler"
)

var _ = Describe("NextAnchor", func() {
	It("rounds up the geometric successor", func() {
		r := math.Pow(10, 1.0/9)
		next, ok := sampler.NextAnchor(28, r)
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal(int64(37)))
	})

	It("does not overshoot exact decades", func() {
		next, ok := sampler.NextAnchor(10, 10)
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal(int64(100)))
	})

	It("always advances", func() {
		next, ok := sampler.NextAnchor(5, 1+1e-15)
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal(int64(6)))
	})

	It("reports overflow", func() {
		_, ok := sampler.NextAnchor(math.MaxInt64/2, 10)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Params", func() {
	DescribeTable("rejects out-of-range values",
		func(p sampler.Params) {
			Expect(p.Validate()).To(MatchError(sampler.ErrInvalidParams))
			_, err := sampler.New(p)
			Expect(err).To(MatchError(sampler.ErrInvalidParams))
		},
		Entry("zero per decade", sampler.Params{PerDecade: 0, BurstSize: 1, Interval: 1, MaxStep: 10}),
		Entry("zero burst", sampler.Params{PerDecade: 1, BurstSize: 0, Interval: 1, MaxStep: 10}),
		Entry("zero interval", sampler.Params{PerDecade: 1, BurstSize: 1, Interval: 0, MaxStep: 10}),
		Entry("zero max step", sampler.Params{PerDecade: 1, BurstSize: 1, Interval: 1, MaxStep: 0}),
	)
})

var _ = Describe("FindTSafe", func() {
	DescribeTable("returns the minimal safe boundary",
		func(p sampler.Params, want int64) {
			t, err := sampler.FindTSafe(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(want))
			Expect(sampler.IsSafe(t, p)).To(BeTrue())
			if t > 1 {
				Expect(sampler.IsSafe(t-1, p)).To(BeFalse())
			}
		},
		Entry("9 per decade, burst 5x2", sampler.Params{PerDecade: 9, BurstSize: 5, Interval: 2, MaxStep: 100000}, int64(28)),
		Entry("10 per decade, burst 3x5", sampler.Params{PerDecade: 10, BurstSize: 3, Interval: 5, MaxStep: 1000}, int64(39)),
		Entry("5 per decade, burst 10x1", sampler.Params{PerDecade: 5, BurstSize: 10, Interval: 1, MaxStep: 1000000}, int64(16)),
		Entry("20 per decade, burst 4x3", sampler.Params{PerDecade: 20, BurstSize: 4, Interval: 3, MaxStep: 50000}, int64(74)),
		Entry("single-sample bursts", sampler.Params{PerDecade: 1, BurstSize: 1, Interval: 1, MaxStep: 10}, int64(1)),
		Entry("run shorter than the dense phase", sampler.Params{PerDecade: 9, BurstSize: 5, Interval: 2, MaxStep: 20}, int64(21)),
	)

	It("treats steps beyond the run as safe", func() {
		p := sampler.Params{PerDecade: 100, BurstSize: 100, Interval: 100, MaxStep: 50}
		Expect(sampler.IsSafe(51, p)).To(BeTrue())
		Expect(sampler.IsSafe(50, p)).To(BeFalse())
	})
})

var _ = Describe("LogBurst", func() {
	var (
		p     sampler.Params
		sched *sampler.LogBurst
	)

	BeforeEach(func() {
		p = sampler.Params{PerDecade: 9, BurstSize: 5, Interval: 2, MaxStep: 100000}
		var err error
		sched, err = sampler.New(p)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts anchoring at t_safe", func() {
		Expect(sched.TSafe()).To(Equal(int64(28)))
		Expect(sched.NextAnchor()).To(Equal(int64(28)))
	})

	It("classifies the dense phase, anchors and bursts", func() {
		decisions := make([]sampler.Decision, p.MaxStep+1)
		for step := int64(1); step <= p.MaxStep; step++ {
			decisions[step] = sched.Decide(step)
		}

		for step := int64(1); step < sched.TSafe(); step++ {
			Expect(decisions[step].Kind).To(Equal(sampler.KindDense), "step %d", step)
		}

		var anchors []int64
		for step := sched.TSafe(); step <= p.MaxStep; step++ {
			if decisions[step].Kind == sampler.KindAnchor {
				anchors = append(anchors, step)
			}
		}
		Expect(anchors[:5]).To(Equal([]int64{28, 37, 48, 62, 81}))

		for i, a := range anchors {
			if i+1 < len(anchors) {
				Expect(anchors[i+1]-a).To(BeNumerically(">", p.Window()))
			}
			Expect(decisions[a].BurstID).To(Equal(i))
			Expect(decisions[a].BurstIndex).To(Equal(0))

			for k := int64(1); k < int64(p.BurstSize); k++ {
				step := a + k*p.Interval
				if step > p.MaxStep {
					break
				}
				d := decisions[step]
				Expect(d.Kind).To(Equal(sampler.KindBurst), "step %d after anchor %d", step, a)
				Expect(d.BurstID).To(Equal(i))
				Expect(d.BurstIndex).To(Equal(int(k)))
			}
			for _, off := range []int64{1, 3, 5, 7, 9, 10} {
				if step := a + off; step <= p.MaxStep && step < anchorAfter(anchors, i) {
					Expect(decisions[step].Emit).To(BeFalse(), "step %d after anchor %d", step, a)
				}
			}
		}
	})

	It("emits only bursts and anchors after the dense phase", func() {
		emitted := 0
		for step := int64(1); step <= 1000; step++ {
			d := sched.Decide(step)
			if d.Emit {
				emitted++
				Expect(d.Kind).NotTo(Equal(sampler.KindNone))
			} else {
				Expect(d.Kind).To(Equal(sampler.KindNone))
			}
		}
		Expect(emitted).To(BeNumerically("<", 200))
	})

	It("drops bursts when the burst size is one", func() {
		s, err := sampler.New(sampler.Params{PerDecade: 4, BurstSize: 1, Interval: 1, MaxStep: 1000})
		Expect(err).NotTo(HaveOccurred())
		for step := int64(1); step <= 1000; step++ {
			Expect(s.Decide(step).Kind).NotTo(Equal(sampler.KindBurst))
		}
	})
})

var _ = Describe("ParseSchedule", func() {
	p := sampler.Params{PerDecade: 9, BurstSize: 5, Interval: 2, MaxStep: 1000}

	It("builds a stride schedule from an integer", func() {
		s, err := sampler.ParseSchedule("10", p)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Decide(20)).To(Equal(sampler.Decision{Emit: true, Kind: sampler.KindStride}))
		Expect(s.Decide(25).Emit).To(BeFalse())
	})

	It("builds the log schedule from the log token", func() {
		s, err := sampler.ParseSchedule("LOG", p)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeAssignableToTypeOf(&sampler.LogBurst{}))
	})

	It("rejects anything else", func() {
		_, err := sampler.ParseSchedule("sometimes", p)
		Expect(err).To(MatchError(sampler.ErrInvalidParams))
		_, err = sampler.ParseSchedule("0", p)
		Expect(err).To(MatchError(sampler.ErrInvalidParams))
	})
})

func anchorAfter(anchors []int64, i int) int64 {
	if i+1 < len(anchors) {
		return anchors[i+1]
	}
	return math.MaxInt64
}
