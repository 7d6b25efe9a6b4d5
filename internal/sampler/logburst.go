package sampler

// LogBurst emits every step below t_safe, then an anchor at t_safe and at
// each geometric successor, each anchor followed by BurstSize-1 samples
// spaced Interval apart.
type LogBurst struct {
	params Params
	ratio  float64
	tSafe  int64

	nextAnchor int64
	exhausted  bool // anchor progression overflowed

	bursts    int
	active    bool
	burstID   int
	index     int
	remaining int
	nextBurst int64
}

func New(p Params) (*LogBurst, error) {
	t, err := FindTSafe(p)
	if err != nil {
		return nil, err
	}
	return &LogBurst{
		params:     p,
		ratio:      p.Ratio(),
		tSafe:      t,
		nextAnchor: t,
	}, nil
}

func (s *LogBurst) TSafe() int64       { return s.tSafe }
func (s *LogBurst) Ratio() float64     { return s.ratio }
func (s *LogBurst) Params() Params     { return s.params }
func (s *LogBurst) NextAnchor() int64  { return s.nextAnchor }
func (s *LogBurst) BurstsStarted() int { return s.bursts }

func (s *LogBurst) Decide(step int64) Decision {
	if step < s.tSafe {
		return Decision{Emit: true, Kind: KindDense}
	}

	// Skipped anchors are not replayed.
	for !s.exhausted && s.nextAnchor < step {
		s.advanceAnchor()
	}

	if !s.exhausted && step == s.nextAnchor {
		s.advanceAnchor()
		s.burstID = s.bursts
		s.bursts++
		s.index = 0
		s.remaining = s.params.BurstSize - 1
		s.active = s.remaining > 0
		s.nextBurst = step + s.params.Interval
		return Decision{Emit: true, Kind: KindAnchor, BurstID: s.burstID, BurstIndex: 0}
	}

	if s.active && step == s.nextBurst {
		s.index++
		s.remaining--
		s.nextBurst += s.params.Interval
		if s.remaining == 0 {
			s.active = false
		}
		return Decision{Emit: true, Kind: KindBurst, BurstID: s.burstID, BurstIndex: s.index}
	}
	return Decision{}
}

func (s *LogBurst) advanceAnchor() {
	next, ok := NextAnchor(s.nextAnchor, s.ratio)
	if !ok {
		s.exhausted = true
		return
	}
	s.nextAnchor = next
}
