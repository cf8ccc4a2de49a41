package main

import (
	"context"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"bettercommute/internal/modules/trip"
)

// simulate runs one approach, redrawing the bar on every state. It reports
// whether the driver arrived before ctx ended.
func simulate(ctx context.Context, sim *trip.Simulator, etaMinutes int, w io.Writer) bool {
	total := trip.TotalTicks(etaMinutes)
	if total == 0 {
		return sim.Run(ctx, etaMinutes, nil)
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(arrivingIn(etaMinutes)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)

	arrived := sim.Run(ctx, etaMinutes, func(st trip.ProgressState) {
		bar.Describe(arrivingIn(st.RemainingMinutes(etaMinutes)))
		_ = bar.Set(st.ElapsedTicks)
	})
	if !arrived {
		_ = bar.Exit()
		fmt.Fprintln(w)
	}
	return arrived
}

func arrivingIn(minutes int) string {
	switch minutes {
	case 0:
		return "Arriving now"
	case 1:
		return "Arriving in 1 minute"
	default:
		return fmt.Sprintf("Arriving in %d minutes", minutes)
	}
}
