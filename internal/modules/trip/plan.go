package trip

import "iter"

// Plan yields the progress states for etaMinutes in order, one per tick.
// The last state has Fraction exactly 1.0. A non-positive ETA yields nothing.
func Plan(etaMinutes int) iter.Seq[ProgressState] {
	total := TotalTicks(etaMinutes)
	return func(yield func(ProgressState) bool) {
		for tick := 1; tick <= total; tick++ {
			st := ProgressState{
				ElapsedTicks: tick,
				TotalTicks:   total,
				Fraction:     float64(tick) / float64(total),
			}
			if !yield(st) {
				return
			}
		}
	}
}
