package util

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoJSONObject is returned when a text blob carries no {...} payload.
var ErrNoJSONObject = errors.New("no JSON object found")

// gviz serializes date cells as Date(year,month0,day[,hour,min,sec]).
var gvizDateRegex = regexp.MustCompile(`^Date\((\d+),(\d+),(\d+)(?:,(\d+),(\d+),(\d+)(?:,\d+)?)?\)$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"2006/01/02",
	"2006/1/2",
}

// ParseDate normalizes a date cell to an instant. Values without a zone are
// read in loc. The second result is false when s is blank or unparsable; such
// dates count as absent, never as the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if m := gvizDateRegex.FindStringSubmatch(s); m != nil {
		return parseGvizDate(m, loc)
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseGvizDate(m []string, loc *time.Location) (time.Time, bool) {
	n := make([]int, 6)
	for i := 1; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		v, err := strconv.Atoi(m[i])
		if err != nil {
			return time.Time{}, false
		}
		n[i-1] = v
	}
	year, month, day, hour, minute, sec := n[0], n[1], n[2], n[3], n[4], n[5]
	if month > 11 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month+1), day, hour, minute, sec, 0, loc)
	if t.Day() != day {
		// Date(2024,1,31) would roll over into March.
		return time.Time{}, false
	}
	return t, true
}

// ShortDate renders a date cell as M/D for cards. Unparsable input is
// returned unchanged.
func ShortDate(s string, loc *time.Location) string {
	if s == "" {
		return ""
	}
	t, ok := ParseDate(s, loc)
	if !ok {
		return s
	}
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

// CellString coerces a decoded cell value to the string form stored in a
// Record. Numbers drop trailing zeros; nil becomes "". gviz timeofday values,
// [hour, minute, second, millis], render as HH:MM, or HH:MM:SS when the
// seconds are set.
func CellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []interface{}:
		if clock, ok := timeOfDay(val); ok {
			return clock
		}
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}

func timeOfDay(parts []interface{}) (string, bool) {
	if len(parts) < 2 || len(parts) > 4 {
		return "", false
	}
	var n [3]int
	for i := 0; i < len(parts) && i < 3; i++ {
		f, ok := parts[i].(float64)
		if !ok || f < 0 || f != float64(int(f)) {
			return "", false
		}
		n[i] = int(f)
	}
	if n[0] > 23 || n[1] > 59 || n[2] > 59 {
		return "", false
	}
	if n[2] != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", n[0], n[1], n[2]), true
	}
	return fmt.Sprintf("%02d:%02d", n[0], n[1]), true
}

// ExtractJSONObject returns the text between the first '{' and the last '}'
// of blob, stripping any wrapper framing around a JSON payload.
func ExtractJSONObject(blob string) (string, error) {
	start := strings.Index(blob, "{")
	end := strings.LastIndex(blob, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return blob[start : end+1], nil
}
