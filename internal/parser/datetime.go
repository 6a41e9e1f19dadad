package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoTimestamp is returned for an empty timestamp. Callers treat the
// value as absent.
var ErrNoTimestamp = errors.New("no timestamp")

// ConvertDateTime turns "MM/DD/YYYY hh:mm:ss AM" into "YYYY/MM/DD" and a
// 24-hour "HH:MM:SS". A missing AM/PM marker means the clock is already
// 24-hour. Trailing tokens after the marker are ignored.
func ConvertDateTime(s string) (string, string, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", "", ErrNoTimestamp
	}
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed timestamp %q", s)
	}

	year, month, day, err := splitDate(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("malformed date in %q: %w", s, err)
	}

	clock, err := splitNumbers(parts[1], ":", 3)
	if err != nil {
		return "", "", fmt.Errorf("malformed time in %q: %w", s, err)
	}
	hour := clock[0]

	if len(parts) > 2 {
		switch strings.ToUpper(parts[2]) {
		case "AM":
			if hour == 12 {
				hour = 0
			}
		case "PM":
			if hour != 12 {
				hour += 12
			}
		}
	}

	date := fmt.Sprintf("%04d/%02d/%02d", year, month, day)
	tm := fmt.Sprintf("%02d:%02d:%02d", hour, clock[1], clock[2])
	return date, tm, nil
}

// splitDate accepts M/D/YYYY and YYYY-MM-DD.
func splitDate(s string) (year, month, day int, err error) {
	if strings.Contains(s, "-") {
		n, err := splitNumbers(s, "-", 3)
		if err != nil {
			return 0, 0, 0, err
		}
		return n[0], n[1], n[2], nil
	}
	n, err := splitNumbers(s, "/", 3)
	if err != nil {
		return 0, 0, 0, err
	}
	return n[2], n[0], n[1], nil
}

func splitNumbers(s, sep string, want int) ([]int, error) {
	parts := strings.Split(s, sep)
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d parts separated by %q, got %q", want, sep, s)
	}
	nums := make([]int, want)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}
