package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	canonicalDateLayout = "2006/01/02"
	midnight24h         = "00:00"
)

var (
	numericCellRegex = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	timeOfDayRegex   = regexp.MustCompile(`(?i)(\d{1,2}):(\d{1,2})(?::(\d{1,2}))?\s*(AM|PM)?`)
	clock24Regex     = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// FormatDate converts a raw request-date cell into YYYY/MM/DD.
// It accepts time.Time, spreadsheet day serials (numbers or numeric strings)
// and the string forms YYYY/MM/DD, YYYY-MM-DD, MM/DD/YYYY and MM-DD-YYYY.
// Anything else yields "".
func FormatDate(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return formatYMD(v.Year(), int(v.Month()), v.Day())
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatDate(*v)
	case string:
		return formatDateString(v)
	default:
		serial, ok := toFloat(input)
		if !ok {
			return ""
		}
		return formatDateSerial(serial)
	}
}

func formatDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if numericCellRegex.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		return formatDateSerial(serial)
	}

	// Drop a trailing time component ("2024/03/05 10:00", "2024-03-05T10:00:00Z").
	if idx := strings.IndexAny(s, " T"); idx > 0 {
		s = s[:idx]
	}

	var parts []string
	switch {
	case strings.Count(s, "/") == 2:
		parts = strings.Split(s, "/")
	case strings.Count(s, "-") == 2:
		parts = strings.Split(s, "-")
	default:
		return ""
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return ""
		}
		nums[i] = n
	}

	// A leading number that looks like a year decides the field order.
	year, month, day := nums[2], nums[0], nums[1]
	if nums[0] > 1000 {
		year, month, day = nums[0], nums[1], nums[2]
	}
	return formatYMD(year, month, day)
}

func formatYMD(year, month, day int) string {
	if year < 1000 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return t.Format(canonicalDateLayout)
}

func formatDateSerial(serial float64) string {
	if serial < 1 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return ""
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return ""
	}
	return formatYMD(t.Year(), int(t.Month()), t.Day())
}

// FormatTime converts a raw request-time cell into "hh:mm AM/PM".
// Numbers are fractional-day serials; strings follow H:MM[:SS][ AM|PM] and a
// missing AM/PM is read as 24-hour time. Anything else yields "".
func FormatTime(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return formatClock(v.Hour(), v.Minute())
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatTime(*v)
	case string:
		return formatTimeString(v)
	default:
		serial, ok := toFloat(input)
		if !ok {
			return ""
		}
		return formatTimeSerial(serial)
	}
}

func formatTimeString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if numericCellRegex.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		return formatTimeSerial(serial)
	}

	m := timeOfDayRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return ""
	}
	switch strings.ToUpper(m[4]) {
	case "PM":
		if hours < 12 {
			hours += 12
		}
	case "AM":
		if hours == 12 {
			hours = 0
		}
	}
	if hours > 23 || minutes > 59 {
		return ""
	}
	return formatClock(hours, minutes)
}

func formatTimeSerial(serial float64) string {
	if serial < 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return ""
	}
	totalSeconds := int64(math.Round(serial * 86400))
	hours := int((totalSeconds / 3600) % 24)
	minutes := int((totalSeconds % 3600) / 60)
	return formatClock(hours, minutes)
}

func formatClock(hours, minutes int) string {
	suffix := "AM"
	if hours >= 12 {
		suffix = "PM"
	}
	h12 := hours % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h12, minutes, suffix)
}

// ConvertTo24Hour maps "hh:mm AM/PM" to "HH:MM" for chronological sort keys.
// Unparseable input sorts as midnight.
func ConvertTo24Hour(time12h string) string {
	time12h = strings.TrimSpace(time12h)
	if time12h == "" {
		return midnight24h
	}
	clock, modifier, hasModifier := strings.Cut(time12h, " ")
	if !hasModifier {
		if clock24Regex.MatchString(clock) {
			return fmt.Sprintf("%05s", clock)
		}
		return midnight24h
	}

	hourStr, minuteStr, ok := strings.Cut(clock, ":")
	if !ok {
		return midnight24h
	}
	hours, err := strconv.Atoi(hourStr)
	if err != nil {
		return midnight24h
	}
	minutes, err := strconv.Atoi(minuteStr)
	if err != nil {
		return midnight24h
	}
	if hours == 12 {
		hours = 0
	}
	if strings.EqualFold(strings.TrimSpace(modifier), "PM") {
		hours += 12
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// SortKey orders records chronologically: "YYYY/MM/DD HH:MM".
func SortKey(requestDate, requestTime string) string {
	return requestDate + " " + ConvertTo24Hour(requestTime)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
