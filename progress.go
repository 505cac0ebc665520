package pacmap

import (
	"time"

	"github.com/rs/zerolog"
)

// Tick describes one completed optimizer iteration.
type Tick struct {
	Iteration int           // 0-indexed iteration that just completed
	Total     int           // total number of iterations in the fit
	Phase     Phase         // schedule phase of the iteration
	Weights   Weights       // loss weights used by the iteration
	Loss      float64       // weighted total loss before the step
	Elapsed   time.Duration // time since the fit started sampling pairs
}

// Observer receives one Tick per completed iteration. Tick runs on the
// fitting goroutine and must return quickly; it cannot influence the fit.
type Observer interface {
	Tick(Tick)
}

// ObserverFunc adapts a plain function into an Observer.
type ObserverFunc func(Tick)

func (f ObserverFunc) Tick(t Tick) { f(t) }

type nopObserver struct{}

func (nopObserver) Tick(Tick) {}

type multiObserver []Observer

func (m multiObserver) Tick(t Tick) {
	for _, o := range m {
		o.Tick(t)
	}
}

// Observers fans every Tick out to each non-nil observer in order.
func Observers(observers ...Observer) Observer {
	m := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// ChannelObserver sends each Tick on ch without blocking. Ticks are dropped
// while ch is full.
func ChannelObserver(ch chan<- Tick) Observer {
	return ObserverFunc(func(t Tick) {
		select {
		case ch <- t:
		default:
		}
	})
}

// LogObserver logs every n-th iteration, and the last one, at info level.
// n < 1 is treated as 1.
func LogObserver(logger zerolog.Logger, n int) Observer {
	n = max(n, 1)
	return ObserverFunc(func(t Tick) {
		if (t.Iteration+1)%n != 0 && t.Iteration != t.Total-1 {
			return
		}
		logger.Info().
			Int("iteration", t.Iteration+1).
			Int("total", t.Total).
			Stringer("phase", t.Phase).
			Float64("loss", t.Loss).
			Dur("elapsed", t.Elapsed).
			Msg("pacmap progress")
	})
}
