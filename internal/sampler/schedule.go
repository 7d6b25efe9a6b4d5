package sampler

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindDense
	KindAnchor
	KindBurst
	KindStride
)

func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindAnchor:
		return "anchor"
	case KindBurst:
		return "burst"
	case KindStride:
		return "stride"
	default:
		return "none"
	}
}

// Decision describes whether a step is recorded. BurstID and BurstIndex are
// only meaningful for anchor and burst samples.
type Decision struct {
	Emit       bool
	Kind       Kind
	BurstID    int
	BurstIndex int
}

// Schedule is consulted once per completed step, in increasing step order.
type Schedule interface {
	Decide(step int64) Decision
}

// Stride records every n-th step.
type Stride struct {
	n int64
}

func NewStride(n int64) (*Stride, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: stride must be >= 1, got %d", ErrInvalidParams, n)
	}
	return &Stride{n: n}, nil
}

func (s *Stride) Every() int64 { return s.n }

func (s *Stride) Decide(step int64) Decision {
	if step%s.n != 0 {
		return Decision{}
	}
	return Decision{Emit: true, Kind: KindStride}
}

// ParseSchedule maps an output method token to a schedule: an integer
// stride, or "log" for the anchor/burst schedule built from p.
func ParseSchedule(token string, p Params) (Schedule, error) {
	token = strings.TrimSpace(token)
	if strings.EqualFold(token, "log") {
		lb, err := New(p)
		if err != nil {
			return nil, err
		}
		return lb, nil
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: output method %q is neither a stride nor \"log\"", ErrInvalidParams, token)
	}
	st, err := NewStride(n)
	if err != nil {
		return nil, err
	}
	return st, nil
}
