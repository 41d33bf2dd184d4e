// Package window computes the aligned 15-minute windows that identify each
// Bitcoin up/down market and the titles the exchange may list them under.
package window

import (
	"fmt"
	"time"

	// Window boundaries must not depend on the host's zoneinfo.
	_ "time/tzdata"
)

// Period is the length of one market window.
const Period = 15 * time.Minute

// MarketTimezone is the civil timezone the exchange labels windows in.
const MarketTimezone = "America/New_York"

var marketLocation = mustLoadLocation(MarketTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load market timezone %s: %v", name, err))
	}
	return loc
}

// Location returns the market timezone.
func Location() *time.Location {
	return marketLocation
}

// Window is a half-open interval [Start, End) aligned to Period.
type Window struct {
	Start time.Time
	End   time.Time
}

// Current returns the window containing now, expressed in the market timezone.
func Current(now time.Time) Window {
	// Eastern offsets are whole hours, so aligning the absolute instant is the
	// same as aligning wall-clock minutes, and stays correct across DST.
	start := now.Truncate(Period).In(marketLocation)
	return Window{Start: start, End: start.Add(Period)}
}

// Next returns the window immediately following w.
func (w Window) Next() Window {
	return Window{Start: w.End, End: w.End.Add(Period)}
}

// Contains reports whether t falls within [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// String renders the window with zero-padded hours, e.g. "03:15 – 03:30 PM ET".
func (w Window) String() string {
	return fmt.Sprintf("%s – %s ET",
		w.Start.In(marketLocation).Format("03:04"),
		w.End.In(marketLocation).Format("03:04 PM"))
}

const titlePrefix = "Bitcoin Up or Down"

// TitleVariants lists the titles the exchange has used for the window starting
// at start, e.g. "Bitcoin Up or Down - November 22, 10:15PM ET".
// The order is stable; discovery treats earlier entries as preferred.
func TitleVariants(start time.Time) []string {
	local := start.In(marketLocation)
	date := local.Format("January 2")
	clock := local.Format("3:04PM")

	return []string{
		fmt.Sprintf("%s %s %s ET", titlePrefix, date, clock),
		fmt.Sprintf("%s - %s, %s ET", titlePrefix, date, clock),
		fmt.Sprintf("%s - %s %s ET", titlePrefix, date, clock),
		fmt.Sprintf("%s %s, %s ET", titlePrefix, date, clock),
	}
}
