package enrichment

import (
	"regexp"
	"strconv"
	"strings"
)

// dayAliases maps every recognized day token (full name, abbreviation, or
// grouping) to the canonical day codes it expands to.
var dayAliases = map[string][]string{
	"mon": {"Mon"}, "monday": {"Mon"},
	"tue": {"Tue"}, "tues": {"Tue"}, "tuesday": {"Tue"},
	"wed": {"Wed"}, "wednesday": {"Wed"},
	"thu": {"Thu"}, "thur": {"Thu"}, "thurs": {"Thu"}, "thursday": {"Thu"},
	"fri": {"Fri"}, "friday": {"Fri"},
	"sat": {"Sat"}, "saturday": {"Sat"},
	"sun": {"Sun"}, "sunday": {"Sun"},
	"weekday":  {"Mon", "Tue", "Wed", "Thu", "Fri"},
	"weekdays": {"Mon", "Tue", "Wed", "Thu", "Fri"},
	"weekend":  {"Sat", "Sun"},
	"weekends": {"Sat", "Sun"},
	"daily":    {"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
	"everyday": {"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
}

var dayTokenRe = regexp.MustCompile(`(?i)\b(mon(?:day)?|tue(?:s|sday)?|wed(?:nesday)?|thu(?:r|rs|rsday)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?|weekdays?|weekends?|daily|everyday)\b`)

// timeRangeRe matches "4-6pm", "4pm-6pm", "16:00-18:00", "4:30pm to 6pm".
var timeRangeRe = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\s*(?:-|to)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)

// vagueWords signal the poster gave no fixed schedule at all.
var vagueWords = []string{"flexible", "anytime", "tbc", "to discuss", "negotiable", "to be confirmed"}

// ParseTimeAvailability converts a free-text schedule description into a
// structured {explicit, estimated, note}, fully replacing the LLM's
// time_availability field (spec §4.6 step 2). Segments with both a
// recognized day and a parseable time range become explicit slots;
// segments with a day but no parseable range, or with a vague-availability
// phrase, become estimated slots or a free-text note.
func ParseTimeAvailability(text string) TimeAvailability {
	text = strings.TrimSpace(text)
	if text == "" {
		return TimeAvailability{}
	}

	result := TimeAvailability{}
	var notes []string

	for _, segment := range splitSegments(text) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		days := matchedDays(segment)
		start, end, hasRange := matchedTimeRange(segment)
		isVague := containsVague(segment)

		switch {
		case len(days) > 0 && hasRange && !isVague:
			for _, d := range days {
				result.Explicit = append(result.Explicit, TimeSlot{Day: d, Start: start, End: end})
			}
		case len(days) > 0:
			for _, d := range days {
				result.Estimated = append(result.Estimated, TimeSlot{Day: d})
			}
			if isVague {
				notes = append(notes, segment)
			}
		default:
			notes = append(notes, segment)
		}
	}

	result.Note = strings.Join(notes, "; ")
	return result
}

func splitSegments(text string) []string {
	replacer := strings.NewReplacer(";", ",", " and ", ",")
	return strings.Split(replacer.Replace(text), ",")
}

func matchedDays(segment string) []string {
	var days []string
	seen := make(map[string]bool)
	for _, tok := range dayTokenRe.FindAllString(segment, -1) {
		for _, d := range dayAliases[strings.ToLower(tok)] {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	return days
}

func matchedTimeRange(segment string) (start, end string, ok bool) {
	m := timeRangeRe.FindStringSubmatch(segment)
	if m == nil {
		return "", "", false
	}
	start = normalizeClock(m[1], m[2])
	end = normalizeClock(m[2], m[1])
	return start, end, true
}

// normalizeClock normalizes one side of a time range to 24h "HH:MM",
// borrowing the am/pm suffix from the other side when this side omits it
// (e.g. "4-6pm" -> 4 inherits "pm" from 6pm).
func normalizeClock(raw, sibling string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	meridiem := ""
	switch {
	case strings.Contains(raw, "pm"):
		meridiem = "pm"
	case strings.Contains(raw, "am"):
		meridiem = "am"
	case strings.Contains(strings.ToLower(sibling), "pm"):
		meridiem = "pm"
	case strings.Contains(strings.ToLower(sibling), "am"):
		meridiem = "am"
	}

	digits := strings.TrimSuffix(strings.TrimSuffix(raw, "pm"), "am")
	digits = strings.TrimSpace(digits)

	hour, minute := digits, "00"
	if idx := strings.Index(digits, ":"); idx >= 0 {
		hour, minute = digits[:idx], digits[idx+1:]
	}

	h, err := strconv.Atoi(hour)
	if err != nil {
		return raw
	}
	if meridiem == "pm" && h < 12 {
		h += 12
	}
	if meridiem == "am" && h == 12 {
		h = 0
	}
	return padTwo(h) + ":" + minute
}

func padTwo(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func containsVague(segment string) bool {
	lower := strings.ToLower(segment)
	for _, w := range vagueWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
