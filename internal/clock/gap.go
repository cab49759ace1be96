package clock

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultMsPerTick is the step length of a 20 tps world.
const DefaultMsPerTick = 50

// Gap is the offline interval measured once at startup. Immutable after
// ComputeGap returns it.
type Gap struct {
	Known        bool  // false on first run or when the stored timestamp was unusable
	LastSeen     int64 // epoch ms
	Current      int64 // epoch ms
	ElapsedMs    int64
	ElapsedTicks int64
}

// ComputeGap derives the elapsed ticks between lastSeen and now. scale is the
// debug multiplier applied to the elapsed milliseconds; values below 1 count as 1.
func ComputeGap(lastSeen int64, known bool, now int64, msPerTick int64, scale int64) Gap {
	g := Gap{Known: known, LastSeen: lastSeen, Current: now}
	if !known {
		return g
	}
	if msPerTick <= 0 {
		msPerTick = DefaultMsPerTick
	}
	if scale < 1 {
		scale = 1
	}
	g.ElapsedMs = (now - lastSeen) * scale
	g.ElapsedTicks = g.ElapsedMs / msPerTick
	return g
}

// NeedsCatchup reports whether any simulation step was missed.
func (g Gap) NeedsCatchup() bool {
	return g.Known && g.ElapsedTicks > 0
}

func (g Gap) Duration() time.Duration {
	return time.Duration(g.ElapsedMs) * time.Millisecond
}

// Breakdown splits the elapsed time into whole days, hours, minutes and seconds.
// A non-positive gap breaks down to zeros.
func (g Gap) Breakdown() (days, hours, minutes, seconds int64) {
	ms := g.ElapsedMs
	if ms <= 0 {
		return 0, 0, 0, 0
	}
	const (
		second = int64(1000)
		minute = 60 * second
		hour   = 60 * minute
		day    = 24 * hour
	)
	days = ms / day
	ms -= days * day
	hours = ms / hour
	ms -= hours * hour
	minutes = ms / minute
	ms -= minutes * minute
	seconds = ms / second
	return days, hours, minutes, seconds
}

var printer = message.NewPrinter(language.English)

func (g Gap) String() string {
	if !g.Known {
		return "no previous timestamp"
	}
	d, h, m, s := g.Breakdown()
	return printer.Sprintf("%d ms (%d ticks): %d days, %d hours, %d minutes and %d seconds",
		g.ElapsedMs, g.ElapsedTicks, d, h, m, s)
}
