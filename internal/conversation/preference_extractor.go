package conversation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
	"github.com/Rocketman2178/kairo-platform/internal/matching"
)

// ExtractPreferences parses one user turn into a partial PreferenceSet.
// Programs are matched against the organization's actual offerings so "my
// kid wants soccer" binds to a real program name rather than a loose string.
func ExtractPreferences(text string, programs []catalog.Program) PreferenceSet {
	lower := strings.ToLower(text)
	prefs := PreferenceSet{
		Days:    extractDaysOfWeek(lower),
		Time:    extractTimeOfDay(lower),
		Program: extractProgram(lower, programs),
	}
	prefs.ChildAge = extractAge(lower)
	prefs.ChildName = extractChildName(text)
	prefs.City, prefs.Location = extractPlace(text)
	prefs.WantsWaitlist = WantsWaitlist(lower)
	return prefs
}

var dayMap = map[string]int{
	"sunday":    0,
	"sun":       0,
	"monday":    1,
	"mon":       1,
	"tuesday":   2,
	"tues":      2,
	"tue":       2,
	"wednesday": 3,
	"wed":       3,
	"thursday":  4,
	"thurs":     4,
	"thu":       4,
	"friday":    5,
	"fri":       5,
	"saturday":  6,
	"sat":       6,
}

const dayPattern = `(sun(?:day)?|mon(?:day)?|tue(?:s(?:day)?)?|wed(?:nesday)?|thu(?:rs(?:day)?)?|fri(?:day)?|sat(?:urday)?)`

var (
	dayRangeRE   = regexp.MustCompile(dayPattern + `\s*[-]\s*` + dayPattern)
	dayThroughRE = regexp.MustCompile(dayPattern + `\s+(?:through|thru|to)\s+` + dayPattern)
	dayWordRE    = regexp.MustCompile(`\b` + dayPattern + `s?\b`)
)

// extractDaysOfWeek finds day mentions, including ranges like
// "tuesday-thursday" and groups like "weekdays".
func extractDaysOfWeek(text string) []int {
	var days []int
	seen := make(map[int]bool)
	add := func(d int) {
		if d >= 0 && !seen[d] {
			days = append(days, d)
			seen[d] = true
		}
	}

	for _, re := range []*regexp.Regexp{dayRangeRE, dayThroughRE} {
		if m := re.FindStringSubmatch(text); len(m) == 3 {
			start := dayToNumber(m[1])
			end := dayToNumber(m[2])
			if start >= 0 && end >= 0 {
				d := start
				for {
					add(d)
					if d == end {
						break
					}
					d = (d + 1) % 7
				}
			}
		}
	}

	for _, m := range dayWordRE.FindAllStringSubmatch(text, -1) {
		add(dayToNumber(m[1]))
	}

	if strings.Contains(text, "weekday") {
		for d := 1; d <= 5; d++ {
			add(d)
		}
	}
	if strings.Contains(text, "weekend") {
		add(6)
		add(0)
	}
	if strings.Contains(text, "any day") || strings.Contains(text, "anytime") {
		for d := 0; d <= 6; d++ {
			add(d)
		}
	}

	sort.Ints(days)
	return days
}

func dayToNumber(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if num, ok := dayMap[s]; ok {
		return num
	}
	for name, num := range dayMap {
		if strings.HasPrefix(name, s) {
			return num
		}
	}
	return -1
}

var clockRE = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)

// extractTimeOfDay maps scheduling language to a coarse bucket. Explicit
// clock times win over vaguer phrases.
func extractTimeOfDay(text string) matching.TimeOfDay {
	if m := clockRE.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if m[3] == "pm" && hour != 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		if hour >= 0 && hour <= 23 {
			return matching.BucketForHour(hour)
		}
	}

	switch {
	case strings.Contains(text, "morning") || strings.Contains(text, "before noon") || strings.Contains(text, "before lunch"):
		return matching.TimeMorning
	case strings.Contains(text, "afternoon") || strings.Contains(text, "after lunch"):
		return matching.TimeAfternoon
	case strings.Contains(text, "evening") || strings.Contains(text, "after work") || strings.Contains(text, "after school"):
		return matching.TimeEvening
	case strings.Contains(text, "any time") || strings.Contains(text, "anytime"):
		return matching.TimeAny
	}
	return ""
}

var (
	ageDirectRE  = regexp.MustCompile(`\b(?:age|aged)\s+(\d{1,2})\b`)
	ageSuffixRE  = regexp.MustCompile(`\b(\d{1,2})\s*(?:years?[- ]old|yrs?[- ]old|yo)\b`)
	ageIsRE      = regexp.MustCompile(`\b(?:is|turns|turning|just turned)\s+(\d{1,2})\b`)
	ageForRE     = regexp.MustCompile(`\bfor\s+(?:my\s+)?(\d{1,2})[- ]year[- ]old\b`)
	ageYearOldRE = regexp.MustCompile(`\b(\d{1,2})[- ]year[- ]old\b`)
)

// extractAge pulls a child age between 1 and 17 from the text.
func extractAge(text string) int {
	for _, re := range []*regexp.Regexp{ageDirectRE, ageSuffixRE, ageForRE, ageYearOldRE, ageIsRE} {
		if m := re.FindStringSubmatch(text); m != nil {
			age, err := strconv.Atoi(m[1])
			if err == nil && age >= 1 && age <= 17 {
				return age
			}
		}
	}
	return 0
}

var childNameRE = regexp.MustCompile(`\b(?i:my\s+(?:son|daughter|kid|child)|for)\s+([A-Z][a-z]+)\b`)

// extractChildName looks for a capitalized name after "my son/daughter" or
// "for". Day names and other schedule words are rejected so "for Saturday"
// never becomes a child called Saturday.
func extractChildName(text string) string {
	m := childNameRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	candidate := m[1]
	lower := strings.ToLower(candidate)
	if _, isDay := dayMap[lower]; isDay {
		return ""
	}
	switch lower {
	case "morning", "afternoon", "evening", "weekday", "weekdays", "weekend", "weekends", "ages", "age":
		return ""
	}
	return candidate
}

// extractProgram matches the text against real program names, preferring the
// longest name that appears. A whole-name hit wins; otherwise any word of a
// program name longer than three characters counts as a mention.
func extractProgram(text string, programs []catalog.Program) string {
	var best string
	for _, p := range programs {
		name := strings.ToLower(p.Name)
		if name == "" {
			continue
		}
		if strings.Contains(text, name) && len(p.Name) > len(best) {
			best = p.Name
		}
	}
	if best != "" {
		return best
	}

	for _, p := range programs {
		for _, word := range strings.Fields(strings.ToLower(p.Name)) {
			if len(word) <= 3 {
				continue
			}
			if strings.Contains(text, word) && len(p.Name) > len(best) {
				best = p.Name
			}
		}
	}
	return best
}

var (
	cityRE     = regexp.MustCompile(`\bin\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)`)
	locationRE = regexp.MustCompile(`\bat\s+(?:the\s+)?([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)`)
)

// extractPlace reads "in <City>" and "at <Venue>" phrases.
func extractPlace(text string) (city, location string) {
	if m := cityRE.FindStringSubmatch(text); m != nil {
		city = m[1]
	}
	if m := locationRE.FindStringSubmatch(text); m != nil {
		location = m[1]
	}
	return city, location
}

// WantsWaitlist detects an explicit waitlist intent in normalized text.
func WantsWaitlist(text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(text, "waitlist") ||
		strings.Contains(text, "wait list") ||
		strings.Contains(text, "waiting list") ||
		strings.Contains(text, "put us on the list") ||
		strings.Contains(text, "join the list")
}
