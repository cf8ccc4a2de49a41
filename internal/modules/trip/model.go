// README: Trip quote and progress state for the simulated driver approach.
package trip

// TicksPerMinute is the number of one-second ticks in a quoted minute.
const TicksPerMinute = 60

// Quote is the driver lookup result a simulation is started from.
type Quote struct {
	DriverName   string `json:"driver_name"`
	MobileNumber string `json:"mobile_number"`
	ETAMinutes   int    `json:"eta_minutes"`
}

// ProgressState is one observed step of the approach.
type ProgressState struct {
	ElapsedTicks int     `json:"elapsed_ticks"`
	TotalTicks   int     `json:"total_ticks"`
	Fraction     float64 `json:"fraction"`
}

// Done reports whether this is the final state of a run.
func (p ProgressState) Done() bool {
	return p.TotalTicks > 0 && p.ElapsedTicks >= p.TotalTicks
}

// RemainingMinutes is the whole minutes still to go for a quote of etaMinutes.
func (p ProgressState) RemainingMinutes(etaMinutes int) int {
	if etaMinutes <= 0 {
		return 0
	}
	return etaMinutes - int(float64(etaMinutes)*p.Fraction)
}

// TotalTicks returns etaMinutes*60, or 0 for a non-positive ETA.
func TotalTicks(etaMinutes int) int {
	if etaMinutes <= 0 {
		return 0
	}
	return etaMinutes * TicksPerMinute
}
