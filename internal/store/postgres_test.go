package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baystate-data/arrestlog/internal/arrests"
	"github.com/baystate-data/arrestlog/internal/db"
	"github.com/baystate-data/arrestlog/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgres(mock)
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestPostgresStore_Counts(t *testing.T) {
	mock, store := newMockStore(t)

	weekAgo := mustDate(t, "2024-06-07")
	monthAgo := mustDate(t, "2024-05-15")

	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE arrest_date >= \$2\)`).
		WithArgs("NATICK%", weekAgo.Time(), monthAgo.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"total", "week", "month"}).AddRow(int64(120), int64(4), int64(17)))

	c, err := store.Counts(context.Background(), model.Filter{Town: "Natick, MA"}, weekAgo, monthAgo)
	require.NoError(t, err)
	assert.Equal(t, StatCounts{Total: 120, ThisWeek: 4, ThisMonth: 17}, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Counts_NoFilter(t *testing.T) {
	mock, store := newMockStore(t)

	weekAgo := mustDate(t, "2024-06-07")
	monthAgo := mustDate(t, "2024-05-15")

	// Without filter conditions the recency bounds are $1 and $2.
	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE arrest_date >= \$1\)`).
		WithArgs(weekAgo.Time(), monthAgo.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"total", "week", "month"}).AddRow(int64(9), int64(1), int64(3)))

	c, err := store.Counts(context.Background(), model.Filter{}, weekAgo, monthAgo)
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AverageAge_AppliesQuality(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`COALESCE\(AVG\(age\), 0\) FROM arrest_logs WHERE age IS NOT NULL AND age > 0`).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(34.25))

	avg, err := store.AverageAge(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 34.25, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CityCounts(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`COALESCE\(city_town, ''\), COUNT\(\*\)`).
		WillReturnRows(pgxmock.NewRows([]string{"city_town", "count"}).
			AddRow("BOSTON", int64(40)).
			AddRow("Natick, MA", int64(12)))

	cities, err := store.CityCounts(context.Background(), model.Filter{})
	require.NoError(t, err)
	// Raw values pass through; normalization happens upstream.
	assert.Equal(t, []model.CityCount{
		{City: "BOSTON", Count: 40},
		{City: "Natick, MA", Count: 12},
	}, cities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_TimelineCounts_MonthBucket(t *testing.T) {
	mock, store := newMockStore(t)

	from := mustDate(t, "2023-01-01")
	to := mustDate(t, "2024-06-30")

	mock.ExpectQuery(`date_trunc\('month', arrest_date\)::date`).
		WithArgs(from.Time(), to.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"bucket", "count"}).
			AddRow(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), int64(31)).
			AddRow(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), int64(27)))

	f := model.Filter{DateFrom: &from, DateTo: &to}
	timeline, err := store.TimelineCounts(context.Background(), f, arrests.GranularityMonth)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, "2023-01-01", timeline[0].Date.String())
	assert.Equal(t, int64(31), timeline[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DayOfWeekCounts(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`EXTRACT\(DOW FROM arrest_date\)::int`).
		WillReturnRows(pgxmock.NewRows([]string{"dow", "count"}).
			AddRow(0, int64(3)).
			AddRow(5, int64(11)))

	dows, err := store.DayOfWeekCounts(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []DowCount{{Dow: 0, Count: 3}, {Dow: 5, Count: 11}}, dows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AgeRangeCounts_AppliesQuality(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`WHEN age < 18 THEN '0-17'`).
		WillReturnRows(pgxmock.NewRows([]string{"age_range", "count"}).
			AddRow("25-34", int64(8)))

	ranges, err := store.AgeRangeCounts(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []KeyCount{{Key: "25-34", Count: 8}}, ranges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SexCounts_ExcludesUnknown(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`sex IS NOT NULL AND sex <> '' AND sex <> 'U'`).
		WillReturnRows(pgxmock.NewRows([]string{"sex", "count"}).
			AddRow("M", int64(70)).
			AddRow("F", int64(30)))

	sexes, err := store.SexCounts(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []KeyCount{{Key: "M", Count: 70}, {Key: "F", Count: 30}}, sexes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ChargeRows(t *testing.T) {
	mock, store := newMockStore(t)

	from := mustDate(t, "2024-06-01")

	mock.ExpectQuery(`COALESCE\(charges, ''\), arrest_date`).
		WithArgs(from.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"charges", "arrest_date", "age", "sex", "race"}).
			AddRow("Trespassing, Larceny", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 28, "M", "W"))

	rows, err := store.ChargeRows(context.Background(), model.Filter{DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Trespassing, Larceny", rows[0].Charges)
	assert.Equal(t, "2024-06-03", rows[0].Date.String())
	assert.Equal(t, 28, rows[0].Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListArrests_WithSearch(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`first_name ILIKE \$2 OR last_name ILIKE \$2 OR charges ILIKE \$2`).
		WithArgs("WORCESTER%", "%smith%", 25, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"arrest_id", "first_name", "last_name", "age", "sex", "race",
			"charges", "arrest_date", "arrest_time", "city_town", "street_line",
			"zip_code", "processing_time", "source_file",
		}).AddRow(
			"a-1", "Jo", "Smith", 41, "F", "W",
			"Larceny", time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), "14:30",
			"WORCESTER", "1 MAIN ST", "01608", "2024-05-21T02:00:00Z", "log_0520.pdf",
		))

	records, err := store.ListArrests(context.Background(), model.Filter{Town: "Worcester"}, "smith", 25, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a-1", records[0].ArrestID)
	assert.Equal(t, "Smith", records[0].LastName)
	assert.Equal(t, "2024-05-20", records[0].ArrestDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountArrests(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM arrest_logs`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(57)))

	total, err := store.CountArrests(context.Background(), model.Filter{}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(57), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MissingTableKind(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM arrest_logs`).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"})

	_, err := store.CountArrests(context.Background(), model.Filter{}, "")
	require.Error(t, err)
	assert.Equal(t, db.KindMissingTable, db.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBucketExpr(t *testing.T) {
	assert.Equal(t, "arrest_date", timeBucketExpr(arrests.GranularityDay))
	assert.Contains(t, timeBucketExpr(arrests.GranularityWeek), "date_trunc('week'")
	assert.Contains(t, timeBucketExpr(arrests.GranularityMonth), "date_trunc('month'")
}

func TestBaseConds_Placeholders(t *testing.T) {
	s := &PostgresStore{}
	from := mustDate(t, "2024-01-01")
	to := mustDate(t, "2024-12-31")

	conds, args := s.baseConds(model.Filter{Town: "natick", DateFrom: &from, DateTo: &to})
	require.Len(t, conds, 3)
	assert.Equal(t, "UPPER(city_town) LIKE $1", conds[0])
	assert.Equal(t, "arrest_date >= $2", conds[1])
	assert.Equal(t, "arrest_date <= $3", conds[2])
	require.Len(t, args, 3)
	assert.Equal(t, "NATICK%", args[0])
}

func TestWhereSQL(t *testing.T) {
	assert.Empty(t, whereSQL(nil))
	assert.Equal(t, " WHERE a AND b", whereSQL([]string{"a", "b"}))
}
