package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Slot labels are free text with an embedded time, e.g.
// "Morning Study (6:00 AM - 8:00 AM)" or a bare "14:30".
var (
	clock12Re = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)
	clock24Re = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	rangeRe   = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM).*?(\d{1,2}):(\d{2})\s*(AM|PM)`)
)

// UnparsedSortValue is returned for labels with no recognizable time,
// so they sort after every real time of day.
const UnparsedSortValue = 9999

// SortMinutes extracts the first time found in label and returns it as
// minutes since midnight. 12-hour times win over bare H:MM; labels
// without any time return UnparsedSortValue.
func SortMinutes(label string) int {
	if m := clock12Re.FindStringSubmatch(label); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		period := strings.ToUpper(m[3])

		if period == "PM" && hours != 12 {
			hours += 12
		} else if period == "AM" && hours == 12 {
			hours = 0
		}
		return hours*60 + minutes
	}

	if m := clock24Re.FindStringSubmatch(label); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return hours*60 + minutes
	}

	return UnparsedSortValue
}

// To12Hour rewrites the first bare H:MM in label to 12-hour form with
// an AM/PM suffix, leaving the surrounding text alone. Labels that
// already carry AM or PM are returned unchanged, as are labels with no
// time at all.
func To12Hour(label string) string {
	if strings.Contains(label, "AM") || strings.Contains(label, "PM") {
		return label
	}

	m := clock24Re.FindStringSubmatch(label)
	if m == nil {
		return label
	}

	hours, _ := strconv.Atoi(m[1])
	minutes := m[2]
	period := "AM"
	if hours >= 12 {
		period = "PM"
	}

	if hours == 0 {
		hours = 12
	} else if hours > 12 {
		hours -= 12
	}

	return strings.Replace(label, m[0], fmt.Sprintf("%d:%s %s", hours, minutes, period), 1)
}

// FormatClock renders a wall-clock time the way slot labels do, e.g.
// "3:07 PM".
func FormatClock(t time.Time) string {
	hours := t.Hour()
	period := "AM"
	if hours >= 12 {
		period = "PM"
	}
	display := hours % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, t.Minute(), period)
}

// InRange reports whether now falls inside a labelled
// "start AM/PM - end AM/PM" range. Labels without a full range are
// never in range.
func InRange(label string, now time.Time) bool {
	m := rangeRe.FindStringSubmatch(label)
	if m == nil {
		return false
	}

	start := to24Minutes(m[1], m[2], m[3])
	end := to24Minutes(m[4], m[5], m[6])
	current := now.Hour()*60 + now.Minute()

	return current >= start && current <= end
}

func to24Minutes(rawHours, rawMinutes, rawPeriod string) int {
	hours, _ := strconv.Atoi(rawHours)
	minutes, _ := strconv.Atoi(rawMinutes)
	period := strings.ToUpper(rawPeriod)

	if period == "PM" && hours != 12 {
		hours += 12
	} else if period == "AM" && hours == 12 {
		hours = 0
	}
	return hours*60 + minutes
}
