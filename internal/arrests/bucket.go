package arrests

import (
	"github.com/baystate-data/arrestlog/internal/model"
)

// Granularity is a timeline bucketing width.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ChooseGranularity picks a bucket width from the filter's date bounds:
// spans over a year bucket by month, spans over 30 days by week, shorter
// spans by day. Unbounded ranges default to week, trading precision for a
// readable chart.
func ChooseGranularity(from, to *model.Date) Granularity {
	if from == nil || to == nil {
		return GranularityWeek
	}
	span := from.DaysUntil(*to)
	switch {
	case span > 365:
		return GranularityMonth
	case span > 30:
		return GranularityWeek
	default:
		return GranularityDay
	}
}

// Truncate rounds a date down to the start of its bucket. Weeks start on
// Monday, matching the SQL bucket expressions both store drivers render,
// so grouping done in SQL and grouping done here always agree.
func Truncate(d model.Date, g Granularity) model.Date {
	t := d.Time()
	switch g {
	case GranularityMonth:
		return model.NewDate(t.Year(), t.Month(), 1)
	case GranularityWeek:
		offset := (int(t.Weekday()) + 6) % 7 // days since Monday
		return d.AddDays(-offset)
	default:
		return d
	}
}

// DayNames lists the day-of-week labels in the fixed Sunday-first output
// order, indexed by time.Weekday.
var DayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}
