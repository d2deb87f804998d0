// Package timebucket converts clock times into hour-of-day interval labels
// so that a time column can be grouped like any other categorical column.
package timebucket

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// ErrInputFormat is returned for a time of day that is not "H:MM" with an hour in [0,23].
var ErrInputFormat = errors.New("malformed time of day")

const hoursPerDay = 24

// HourRange returns the hour interval label for a "H:MM" clock value,
// e.g. "3:12" -> "3-4" and "23:45" -> "23-0". The minute must be numeric but
// does not affect the bucket.
func HourRange(clock string) (string, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInputFormat, clock)
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour >= hoursPerDay {
		return "", fmt.Errorf("%w: hour in %q", ErrInputFormat, clock)
	}

	// Seconds are tolerated ("3:12:00").
	minuteOnly, _, _ := strings.Cut(minutePart, ":")

	_, err = strconv.Atoi(minuteOnly)
	if err != nil {
		return "", fmt.Errorf("%w: minute in %q", ErrInputFormat, clock)
	}

	return Label(hour), nil
}

// Label returns the interval label for an already-parsed hour.
func Label(hour int) string {
	return strconv.Itoa(hour) + "-" + strconv.Itoa((hour+1)%hoursPerDay)
}

// BucketColumn returns a new set in which every value of column has been
// replaced by its hour interval label. Records without the column are kept
// unchanged. The first malformed value aborts the whole call.
func BucketColumn(set *record.Set, column string) (*record.Set, error) {
	return set.Map(func(i int, rec record.Record) (record.Record, error) {
		raw, ok := rec.Attr(column)
		if !ok {
			return rec, nil
		}

		label, err := HourRange(raw)
		if err != nil {
			return record.Record{}, fmt.Errorf("record %d column %s: %w", i, column, err)
		}

		return rec.WithAttr(column, label), nil
	})
}
