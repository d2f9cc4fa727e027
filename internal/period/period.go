package period

import (
	"errors"
	"time"
)

// Tag classifies how a period was selected. It drives trend-grid choice and
// whether year-over-year deltas apply.
type Tag string

const (
	TagDaily   Tag = "daily"
	TagWeekly  Tag = "weekly"
	TagMonthly Tag = "monthly"
	TagYearly  Tag = "yearly"
	TagCustom  Tag = "custom"
)

// MaxDays bounds period length so aggregate queries stay cheap.
const MaxDays = 365

var (
	ErrInvalidRange = errors.New("invalid_period_range")
	ErrRangeTooWide = errors.New("period_range_too_wide")
	ErrInvalidTag   = errors.New("invalid_period_tag")
)

// Period is an inclusive date range with a classification tag.
type Period struct {
	Start time.Time
	End   time.Time
	Tag   Tag
}

// Custom builds a validated custom period from two dates.
func Custom(start, end time.Time) (Period, error) {
	p := Period{Start: day(start), End: day(end), Tag: TagCustom}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Daily covers a single day.
func Daily(on time.Time) Period {
	d := day(on)
	return Period{Start: d, End: d, Tag: TagDaily}
}

// Weekly covers the seven days ending on the given day.
func Weekly(end time.Time) Period {
	e := day(end)
	return Period{Start: e.AddDate(0, 0, -6), End: e, Tag: TagWeekly}
}

// Monthly covers one calendar month.
func Monthly(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1), Tag: TagMonthly}
}

// Yearly covers one calendar year.
func Yearly(year int) Period {
	return Period{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Tag:   TagYearly,
	}
}

// ParseTag validates a user-supplied tag value.
func ParseTag(raw string) (Tag, error) {
	switch Tag(raw) {
	case TagDaily, TagWeekly, TagMonthly, TagYearly, TagCustom:
		return Tag(raw), nil
	default:
		return "", ErrInvalidTag
	}
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return ErrInvalidRange
	}
	if p.Days() > MaxDays {
		return ErrRangeTooWide
	}
	return nil
}

// Days is the inclusive length of the period in days.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Year reports the calendar year of the period start.
func (p Period) Year() int {
	return p.Start.Year()
}

// PrevYear shifts the period back one calendar year, keeping the tag.
func (p Period) PrevYear() Period {
	return Period{
		Start: p.Start.AddDate(-1, 0, 0),
		End:   p.End.AddDate(-1, 0, 0),
		Tag:   p.Tag,
	}
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
