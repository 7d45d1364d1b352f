package arrests

import (
	"strings"

	"go.uber.org/zap"

	"github.com/baystate-data/arrestlog/internal/model"
)

// ParseFilter builds a Filter from raw query parameters. Filters are
// optional refinements, so parsing is lenient: an unparsable date is
// treated as absent rather than failing the request. The same policy
// applies to every field.
func ParseFilter(town, dateFrom, dateTo string) model.Filter {
	f := model.Filter{Town: strings.TrimSpace(town)}

	if dateFrom != "" {
		if d, err := model.ParseDate(dateFrom); err == nil {
			f.DateFrom = &d
		} else {
			zap.L().Debug("ignoring unparsable dateFrom", zap.String("value", dateFrom))
		}
	}
	if dateTo != "" {
		if d, err := model.ParseDate(dateTo); err == nil {
			f.DateTo = &d
		} else {
			zap.L().Debug("ignoring unparsable dateTo", zap.String("value", dateTo))
		}
	}
	return f
}

// FilterKey returns a canonical, order-independent serialization of a
// filter, suitable as a cache key. Equivalent filters (e.g. "Natick" vs
// "NATICK, MA") produce the same key.
func FilterKey(f model.Filter) string {
	var b strings.Builder
	b.WriteString("town=")
	b.WriteString(NormalizeCity(f.Town))
	b.WriteString("|from=")
	if f.DateFrom != nil {
		b.WriteString(f.DateFrom.String())
	}
	b.WriteString("|to=")
	if f.DateTo != nil {
		b.WriteString(f.DateTo.String())
	}
	return b.String()
}
