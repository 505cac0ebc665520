package pacmap

// Phase identifies one of the three ranges of the loss-weight schedule.
type Phase int

const (
	// PhaseEarly (iterations 0-100) anneals the mid-near weight from ~1000
	// to 3, establishing global layout first.
	PhaseEarly Phase = iota
	// PhaseMid (iterations 101-200) balances neighbour and mid-near attraction.
	PhaseMid
	// PhaseLate (iterations 201+) drops mid-near pairs to refine local
	// structure.
	PhaseLate
)

// Phase boundaries: first iteration of PhaseMid and PhaseLate.
const (
	midPhaseStart  = 101
	latePhaseStart = 201
)

func (p Phase) String() string {
	switch p {
	case PhaseEarly:
		return "early"
	case PhaseMid:
		return "mid"
	case PhaseLate:
		return "late"
	default:
		return "unknown"
	}
}

// Weights scales the three losses in the total loss.
type Weights struct {
	Neighbour float64
	MidNear   float64
	Further   float64
}

// PhaseAt returns the schedule phase of 0-indexed iteration i.
func PhaseAt(i int) Phase {
	switch {
	case i < midPhaseStart:
		return PhaseEarly
	case i < latePhaseStart:
		return PhaseMid
	default:
		return PhaseLate
	}
}

// WeightsAt returns the loss weights for 0-indexed iteration i.
//
// In the early phase the mid-near weight is 1000(1-t) + 3t with t = (i-1)/100.
// t is negative at i = 0, so the first weight is slightly above 1000; the
// formula is kept unclamped.
func WeightsAt(i int) Weights {
	switch PhaseAt(i) {
	case PhaseEarly:
		t := float64(i-1) / 100
		return Weights{Neighbour: 2, MidNear: 1000*(1-t) + 3*t, Further: 1}
	case PhaseMid:
		return Weights{Neighbour: 3, MidNear: 3, Further: 1}
	default:
		return Weights{Neighbour: 1, MidNear: 0, Further: 1}
	}
}
