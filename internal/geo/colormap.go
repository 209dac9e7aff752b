package geo

import (
	"fmt"
	"math"
	"time"
)

// Anchor colors for the recency gradient: events at the window start render
// in a muted grey-pink, events at the window end in alarm red. Alpha is fixed.
var (
	colorOld    = [3]float64{220, 210, 215}
	colorRecent = [3]float64{239, 68, 68}
)

// SentinelColor is returned for degenerate windows (end <= start) and for
// window bounds that fail to parse. It equals the t=1 "most recent" endpoint.
const SentinelColor = "rgba(239, 68, 68, 0.75)"

// windowLayouts are the accepted ISO-8601 forms for window bounds, tried in
// order. Date-only values are midnight UTC.
var windowLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ColorForTime maps an event timestamp to an rgba() color string by its
// position in the [start, end) window. The position t is deliberately not
// clamped to [0, 1]: out-of-window timestamps extrapolate past the anchor
// colors, matching the frontend gradient this feed was built against.
// A degenerate window (end at or before start) yields SentinelColor.
func ColorForTime(event, start, end time.Time) string {
	return colorForMillis(event.UnixMilli(), start.UnixMilli(), end.UnixMilli())
}

// ColorForEventTime is ColorForTime over wire types: an epoch-millisecond
// event time and ISO-8601 window bounds. Unparsable bounds degrade to
// SentinelColor rather than surfacing an error into rendering.
func ColorForEventTime(eventMillis int64, startISO, endISO string) string {
	start, okStart := ParseWindowBound(startISO)
	end, okEnd := ParseWindowBound(endISO)
	if !okStart || !okEnd {
		return SentinelColor
	}
	return colorForMillis(eventMillis, start.UnixMilli(), end.UnixMilli())
}

func colorForMillis(event, start, end int64) string {
	if end <= start {
		return SentinelColor
	}
	t := float64(event-start) / float64(end-start)
	r := lerpChannel(colorOld[0], colorRecent[0], t)
	g := lerpChannel(colorOld[1], colorRecent[1], t)
	b := lerpChannel(colorOld[2], colorRecent[2], t)
	return fmt.Sprintf("rgba(%d, %d, %d, 0.75)", r, g, b)
}

func lerpChannel(old, recent, t float64) int {
	return int(math.Round(old + (recent-old)*t))
}

// ParseWindowBound parses an ISO-8601 window bound in any accepted layout.
func ParseWindowBound(s string) (time.Time, bool) {
	for _, layout := range windowLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
