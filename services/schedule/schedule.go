// Package schedule parses free-form venue opening-hours text and fits
// visit slots into a day-plan window.
package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"planmate/utils"

	"go.uber.org/zap"
)

// Interval is one open stretch. Close may fall on the day after Open for
// venues that stay open past midnight.
type Interval struct {
	Open  time.Time
	Close time.Time
}

// Visit is a concrete slot at a venue produced by FitVisit.
type Visit struct {
	Start time.Time
	End   time.Time
	// AssumedOpen is set when the schedule text could not be parsed and
	// the venue was optimistically treated as always open.
	AssumedOpen bool
}

// Parser resolves opening-hours text into concrete intervals for a date.
type Parser interface {
	// IntervalsFor returns the open intervals covering the given calendar
	// date, including the tail of an overnight interval that started the
	// day before. The second result is false when the text was not
	// understood at all.
	IntervalsFor(scheduleText string, date time.Time) ([]Interval, bool)
}

// DefaultParser understands the schedule strings the places API returns:
// day ranges and lists in Russian or English abbreviations, "ежедневно" /
// "daily", "круглосуточно" / "24/7", and HH:MM–HH:MM time ranges with a
// 24:00 close meaning midnight of the next day.
type DefaultParser struct{}

// NewParser returns the default schedule parser.
func NewParser() Parser {
	return &DefaultParser{}
}

var (
	timeRangeRe = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(?:-|–|—|до)\s*(\d{1,2}):(\d{2})`)
	dayTokenRe  = regexp.MustCompile(`(?i)\b(пн|вт|ср|чт|пт|сб|вс|mon|tue|wed|thu|fri|sat|sun)\b`)
	dayRangeRe  = regexp.MustCompile(`(?i)\b(пн|вт|ср|чт|пт|сб|вс|mon|tue|wed|thu|fri|sat|sun)\s*(?:-|–|—)\s*(пн|вт|ср|чт|пт|сб|вс|mon|tue|wed|thu|fri|sat|sun)\b`)
	allDaysRe   = regexp.MustCompile(`(?i)ежедневно|каждый день|daily|everyday`)
	aroundClock = regexp.MustCompile(`(?i)круглосуточно|24/7|24 часа`)
)

// dayIndex maps day abbreviations to 0=Monday .. 6=Sunday.
var dayIndex = map[string]int{
	"пн": 0, "вт": 1, "ср": 2, "чт": 3, "пт": 4, "сб": 5, "вс": 6,
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// rawInterval is an interval as minutes from the midnight of an open day.
// closeMin may exceed 24*60 for overnight closes.
type rawInterval struct {
	days     [7]bool
	openMin  int
	closeMin int
}

func parseRaw(text string) ([]rawInterval, bool) {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return nil, false
	}

	var out []rawInterval
	matched := false
	for _, chunk := range strings.FieldsFunc(norm, func(r rune) bool { return r == ',' || r == ';' }) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		days := chunkDays(chunk)

		if aroundClock.MatchString(chunk) {
			out = append(out, rawInterval{days: days, openMin: 0, closeMin: 24 * 60})
			matched = true
			continue
		}

		ranges := timeRangeRe.FindAllStringSubmatch(chunk, -1)
		if len(ranges) == 0 {
			// A bare day list ("ежедневно") without hours reads as open
			// all of those days.
			if allDaysRe.MatchString(chunk) || dayTokenRe.MatchString(chunk) {
				out = append(out, rawInterval{days: days, openMin: 0, closeMin: 24 * 60})
				matched = true
			}
			continue
		}

		for _, m := range ranges {
			oh, _ := strconv.Atoi(m[1])
			om, _ := strconv.Atoi(m[2])
			ch, _ := strconv.Atoi(m[3])
			cm, _ := strconv.Atoi(m[4])
			if oh > 24 || ch > 24 || om > 59 || cm > 59 {
				continue
			}
			open := oh*60 + om
			close := ch*60 + cm
			if close <= open {
				// "22:00–02:00" closes after midnight; "24:00" already
				// lands exactly on the next midnight.
				close += 24 * 60
			}
			out = append(out, rawInterval{days: days, openMin: open, closeMin: close})
			matched = true
		}
	}
	return out, matched
}

// chunkDays resolves which weekdays a chunk applies to. No day tokens
// means every day.
func chunkDays(chunk string) [7]bool {
	var days [7]bool

	if allDaysRe.MatchString(chunk) || aroundClock.MatchString(chunk) {
		for i := range days {
			days[i] = true
		}
		return days
	}

	rest := chunk
	for _, m := range dayRangeRe.FindAllStringSubmatch(chunk, -1) {
		from, to := dayIndex[m[1]], dayIndex[m[2]]
		for i := from; ; i = (i + 1) % 7 {
			days[i] = true
			if i == to {
				break
			}
		}
		rest = strings.Replace(rest, m[0], "", 1)
	}
	for _, m := range dayTokenRe.FindAllString(rest, -1) {
		days[dayIndex[strings.ToLower(m)]] = true
	}

	any := false
	for _, d := range days {
		any = any || d
	}
	if !any {
		for i := range days {
			days[i] = true
		}
	}
	return days
}

// IntervalsFor implements Parser.
func (p *DefaultParser) IntervalsFor(text string, date time.Time) ([]Interval, bool) {
	raw, ok := parseRaw(text)
	if !ok {
		utils.GetLogger().Debug("schedule text not understood, assuming open",
			zap.String("schedule", text))
		return nil, false
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	var out []Interval

	today := mondayIndex(date.Weekday())
	yesterday := (today + 6) % 7

	for _, r := range raw {
		if r.days[today] {
			out = append(out, Interval{
				Open:  midnight.Add(time.Duration(r.openMin) * time.Minute),
				Close: midnight.Add(time.Duration(r.closeMin) * time.Minute),
			})
		}
		// The tail of yesterday's overnight interval still covers the
		// early hours of this date.
		if r.days[yesterday] && r.closeMin > 24*60 {
			out = append(out, Interval{
				Open:  midnight,
				Close: midnight.Add(time.Duration(r.closeMin-24*60) * time.Minute),
			})
		}
	}
	return out, true
}

// FitVisit places a visit at a venue. The visit starts at the arrival
// time and runs until the venue closes or the plan window ends; arriving
// before the venue opens fails unless waitForOpen is set, in which case
// the visit starts at the opening instead. It fails when less than
// minVisit remains. Unparsable schedules are assumed open for the whole
// window.
func FitVisit(p Parser, scheduleText string, arrival, windowEnd time.Time, minVisit time.Duration, waitForOpen bool) (Visit, bool) {
	intervals, parsed := p.IntervalsFor(scheduleText, arrival)
	if !parsed {
		if windowEnd.Sub(arrival) < minVisit {
			return Visit{}, false
		}
		return Visit{Start: arrival, End: windowEnd, AssumedOpen: true}, true
	}

	for _, iv := range intervals {
		start := arrival
		if start.Before(iv.Open) {
			if !waitForOpen {
				continue
			}
			start = iv.Open
		}
		if !start.Before(iv.Close) {
			continue
		}
		end := iv.Close
		if windowEnd.Before(end) {
			end = windowEnd
		}
		if end.Sub(start) >= minVisit {
			return Visit{Start: start, End: end}, true
		}
	}
	return Visit{}, false
}
