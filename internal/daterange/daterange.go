package daterange

import (
    "errors"
    "fmt"
    "time"
)

const Layout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid date range")

// Presets map the selectable look-back windows to their length in days.
var Presets = map[string]int{
    "7d":  7,
    "14d": 14,
    "30d": 30,
    "60d": 60,
    "90d": 90,
}

// DefaultPreset is used when a request selects neither a preset nor dates.
const DefaultPreset = "7d"

type Range struct {
    Since time.Time
    Until time.Time
}

// FromPreset returns the window ending on the day of now and starting the
// preset's number of days earlier.
func FromPreset(preset string, now time.Time) (Range, error) {
    days, ok := Presets[preset]
    if !ok {
        return Range{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidRange, preset)
    }
    until := day(now)
    return Range{Since: until.AddDate(0, 0, -days), Until: until}, nil
}

// Custom parses an explicit YYYY-MM-DD pair; since may not be after until.
func Custom(since, until string) (Range, error) {
    from, err := time.Parse(Layout, since)
    if err != nil {
        return Range{}, fmt.Errorf("%w: since %q, use YYYY-MM-DD", ErrInvalidRange, since)
    }
    to, err := time.Parse(Layout, until)
    if err != nil {
        return Range{}, fmt.Errorf("%w: until %q, use YYYY-MM-DD", ErrInvalidRange, until)
    }
    if from.After(to) {
        return Range{}, fmt.Errorf("%w: since %s is after until %s", ErrInvalidRange, since, until)
    }
    return Range{Since: from, Until: to}, nil
}

// Resolve picks a custom range when both dates are given, otherwise a preset
// (DefaultPreset when empty). Giving only one of the dates is an error.
func Resolve(preset, since, until string, now time.Time) (Range, error) {
    if since != "" || until != "" {
        if since == "" || until == "" {
            return Range{}, fmt.Errorf("%w: both since and until are required", ErrInvalidRange)
        }
        return Custom(since, until)
    }
    if preset == "" {
        preset = DefaultPreset
    }
    return FromPreset(preset, now)
}

func (r Range) SinceString() string { return r.Since.Format(Layout) }
func (r Range) UntilString() string { return r.Until.Format(Layout) }

// Days counts both ends of the window.
func (r Range) Days() int {
    return int(r.Until.Sub(r.Since).Hours()/24) + 1
}

func (r Range) String() string {
    return r.SinceString() + ".." + r.UntilString()
}

func day(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
