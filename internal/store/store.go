// Package store provides read-only access to the arrest_logs table. It
// exposes the three capabilities the aggregation engine needs — filtered
// counts, filtered paginated scans, and filtered group-by-counts with
// store-rendered grouping keys — behind one interface with Postgres and
// SQLite drivers.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/baystate-data/arrestlog/internal/arrests"
	"github.com/baystate-data/arrestlog/internal/db"
	"github.com/baystate-data/arrestlog/internal/model"
)

// StatCounts holds the headline count triple for a filter.
type StatCounts struct {
	Total     int64
	ThisWeek  int64
	ThisMonth int64
}

// KeyCount is one group-by bucket keyed by a string label.
type KeyCount struct {
	Key   string
	Count int64
}

// DowCount is one day-of-week bucket (0 = Sunday, matching both
// EXTRACT(DOW) and strftime('%w')).
type DowCount struct {
	Dow   int
	Count int64
}

// ChargeRow carries the columns the charge-based aggregates reduce over.
type ChargeRow struct {
	Charges string
	Date    model.Date
	Age     int
	Sex     string
	Race    string
}

// Store is the read-only data source for the aggregation engine and list
// fetcher. Every method applies the same base filter conditions; the
// demographic group-bys additionally apply their dimension's quality
// predicate (age > 0, sex/race present and not 'U'). Implementations must
// be safe for concurrent use — the engine issues these queries in
// parallel.
type Store interface {
	// Counts returns the filtered total plus counts of records on or
	// after weekAgo / monthAgo (evaluation-time relative bounds supplied
	// by the caller).
	Counts(ctx context.Context, f model.Filter, weekAgo, monthAgo model.Date) (StatCounts, error)

	// AverageAge returns the mean age over quality-filtered records, or 0
	// when none qualify.
	AverageAge(ctx context.Context, f model.Filter) (float64, error)

	// CityCounts groups by the raw city_town value, count descending. The
	// engine normalizes and merges the keys.
	CityCounts(ctx context.Context, f model.Filter) ([]model.CityCount, error)

	// TimelineCounts groups by the time bucket for g, ascending.
	TimelineCounts(ctx context.Context, f model.Filter, g arrests.Granularity) ([]model.DateCount, error)

	// DayOfWeekCounts groups by day of week.
	DayOfWeekCounts(ctx context.Context, f model.Filter) ([]DowCount, error)

	// AgeRangeCounts groups quality-filtered ages into the fixed ranges.
	AgeRangeCounts(ctx context.Context, f model.Filter) ([]KeyCount, error)

	// SexCounts groups quality-filtered records by sex, count descending.
	SexCounts(ctx context.Context, f model.Filter) ([]KeyCount, error)

	// RaceCounts groups quality-filtered records by race, count descending.
	RaceCounts(ctx context.Context, f model.Filter) ([]KeyCount, error)

	// ChargeRows scans the charge-bearing columns of every filtered
	// record for the tokenizer/classifier reductions.
	ChargeRows(ctx context.Context, f model.Filter) ([]ChargeRow, error)

	// ListArrests returns a filtered page ordered by arrest_date
	// descending, with an optional free-text search over names and
	// charges.
	ListArrests(ctx context.Context, f model.Filter, search string, limit, offset int) ([]model.ArrestRecord, error)

	// CountArrests returns the total matching the same conditions as
	// ListArrests.
	CountArrests(ctx context.Context, f model.Filter, search string) (int64, error)

	// Migrate creates the arrest_logs schema if needed. Row ingestion is
	// owned by an external loader.
	Migrate(ctx context.Context) error

	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string, poolCfg *db.PoolConfig) (Store, error) {
	switch driver {
	case "postgres", "":
		pool, err := db.NewPool(ctx, databaseURL, poolCfg)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool), nil
	case "sqlite":
		if databaseURL == "" {
			return nil, eris.Wrap(db.ErrNotConfigured, "store: open sqlite")
		}
		return NewSQLite(databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: postgres, sqlite)", driver)
	}
}

// ageRangeCase is the bucket expression shared verbatim by both drivers
// (plain CASE syntax is portable). Labels are emitted in this order by the
// engine.
const ageRangeCase = `CASE
		WHEN age < 18 THEN '0-17'
		WHEN age <= 24 THEN '18-24'
		WHEN age <= 34 THEN '25-34'
		WHEN age <= 44 THEN '35-44'
		WHEN age <= 54 THEN '45-54'
		WHEN age <= 64 THEN '55-64'
		ELSE '65+'
	END`

// Quality predicates appended to the base conditions for demographic
// aggregates. Rows with missing or unknown values never reach those
// aggregates.
const (
	ageQuality  = "age IS NOT NULL AND age > 0"
	sexQuality  = "sex IS NOT NULL AND sex <> '' AND sex <> 'U'"
	raceQuality = "race IS NOT NULL AND race <> '' AND race <> 'U'"
)
