package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/baystate-data/arrestlog/internal/arrests"
	"github.com/baystate-data/arrestlog/internal/db"
	"github.com/baystate-data/arrestlog/internal/model"
)

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore. The pool may be a *pgxpool.Pool or
// a pgxmock pool in tests.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// baseConds renders the shared filter into WHERE conditions and bind
// arguments. Every query goes through here, so all aggregates of one
// request apply identical base conditions.
func (s *PostgresStore) baseConds(f model.Filter) ([]string, []any) {
	var conds []string
	var args []any

	if f.Town != "" {
		// Prefix match on the normalized city key; stored "NATICK, MA"
		// still matches because the canonical form is its prefix.
		args = append(args, arrests.NormalizeCity(f.Town)+"%")
		conds = append(conds, fmt.Sprintf("UPPER(city_town) LIKE $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, f.DateFrom.Time())
		conds = append(conds, fmt.Sprintf("arrest_date >= $%d", len(args)))
	}
	if f.DateTo != nil {
		// arrest_date is a DATE column, so <= covers the entire day.
		args = append(args, f.DateTo.Time())
		conds = append(conds, fmt.Sprintf("arrest_date <= $%d", len(args)))
	}
	return conds, args
}

func whereSQL(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (s *PostgresStore) Counts(ctx context.Context, f model.Filter, weekAgo, monthAgo model.Date) (StatCounts, error) {
	conds, args := s.baseConds(f)

	args = append(args, weekAgo.Time())
	wk := len(args)
	args = append(args, monthAgo.Time())
	mo := len(args)

	query := fmt.Sprintf(`SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE arrest_date >= $%d),
		COUNT(*) FILTER (WHERE arrest_date >= $%d)
	FROM arrest_logs%s`, wk, mo, whereSQL(conds))

	var c StatCounts
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&c.Total, &c.ThisWeek, &c.ThisMonth); err != nil {
		return StatCounts{}, eris.Wrap(err, "postgres: query stat counts")
	}
	return c, nil
}

func (s *PostgresStore) AverageAge(ctx context.Context, f model.Filter) (float64, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, ageQuality)

	query := "SELECT COALESCE(AVG(age), 0) FROM arrest_logs" + whereSQL(conds)

	var avg float64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&avg); err != nil {
		return 0, eris.Wrap(err, "postgres: query average age")
	}
	return avg, nil
}

func (s *PostgresStore) CityCounts(ctx context.Context, f model.Filter) ([]model.CityCount, error) {
	conds, args := s.baseConds(f)

	query := fmt.Sprintf(`SELECT COALESCE(city_town, ''), COUNT(*)
	FROM arrest_logs%s
	GROUP BY 1
	ORDER BY 2 DESC, 1`, whereSQL(conds))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query city counts")
	}
	defer rows.Close()

	out := []model.CityCount{}
	for rows.Next() {
		var cc model.CityCount
		if err := rows.Scan(&cc.City, &cc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city count")
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate city counts")
	}
	return out, nil
}

// timeBucketExpr renders the grouping key for a timeline granularity.
// date_trunc('week', ...) starts weeks on Monday, matching the domain
// bucketer and the SQLite driver.
func timeBucketExpr(g arrests.Granularity) string {
	switch g {
	case arrests.GranularityMonth:
		return "date_trunc('month', arrest_date)::date"
	case arrests.GranularityWeek:
		return "date_trunc('week', arrest_date)::date"
	default:
		return "arrest_date"
	}
}

func (s *PostgresStore) TimelineCounts(ctx context.Context, f model.Filter, g arrests.Granularity) ([]model.DateCount, error) {
	conds, args := s.baseConds(f)

	query := fmt.Sprintf(`SELECT %s AS bucket, COUNT(*)
	FROM arrest_logs%s
	GROUP BY 1
	ORDER BY 1`, timeBucketExpr(g), whereSQL(conds))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query timeline")
	}
	defer rows.Close()

	out := []model.DateCount{}
	for rows.Next() {
		var bucket time.Time
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan timeline bucket")
		}
		out = append(out, model.DateCount{Date: model.DateOf(bucket), Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate timeline")
	}
	return out, nil
}

func (s *PostgresStore) DayOfWeekCounts(ctx context.Context, f model.Filter) ([]DowCount, error) {
	conds, args := s.baseConds(f)

	query := fmt.Sprintf(`SELECT EXTRACT(DOW FROM arrest_date)::int AS dow, COUNT(*)
	FROM arrest_logs%s
	GROUP BY 1
	ORDER BY 1`, whereSQL(conds))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query day of week")
	}
	defer rows.Close()

	out := []DowCount{}
	for rows.Next() {
		var dc DowCount
		if err := rows.Scan(&dc.Dow, &dc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan day of week")
		}
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate day of week")
	}
	return out, nil
}

func (s *PostgresStore) AgeRangeCounts(ctx context.Context, f model.Filter) ([]KeyCount, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, ageQuality)

	query := fmt.Sprintf(`SELECT %s AS age_range, COUNT(*)
	FROM arrest_logs%s
	GROUP BY 1`, ageRangeCase, whereSQL(conds))

	return s.keyCounts(ctx, query, args, "age range")
}

func (s *PostgresStore) SexCounts(ctx context.Context, f model.Filter) ([]KeyCount, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, sexQuality)

	query := fmt.Sprintf(`SELECT sex, COUNT(*)
	FROM arrest_logs%s
	GROUP BY 1
	ORDER BY 2 DESC, 1`, whereSQL(conds))

	return s.keyCounts(ctx, query, args, "sex")
}

func (s *PostgresStore) RaceCounts(ctx context.Context, f model.Filter) ([]KeyCount, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, raceQuality)

	query := fmt.Sprintf(`SELECT race, COUNT(*)
	FROM arrest_logs%s
	GROUP BY 1
	ORDER BY 2 DESC, 1`, whereSQL(conds))

	return s.keyCounts(ctx, query, args, "race")
}

func (s *PostgresStore) keyCounts(ctx context.Context, query string, args []any, what string) ([]KeyCount, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s counts", what)
	}
	defer rows.Close()

	out := []KeyCount{}
	for rows.Next() {
		var kc KeyCount
		if err := rows.Scan(&kc.Key, &kc.Count); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s count", what)
		}
		out = append(out, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate %s counts", what)
	}
	return out, nil
}

func (s *PostgresStore) ChargeRows(ctx context.Context, f model.Filter) ([]ChargeRow, error) {
	conds, args := s.baseConds(f)

	query := fmt.Sprintf(`SELECT COALESCE(charges, ''), arrest_date,
		COALESCE(age, 0), COALESCE(sex, ''), COALESCE(race, '')
	FROM arrest_logs%s`, whereSQL(conds))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query charge rows")
	}
	defer rows.Close()

	out := []ChargeRow{}
	for rows.Next() {
		var cr ChargeRow
		var date time.Time
		if err := rows.Scan(&cr.Charges, &date, &cr.Age, &cr.Sex, &cr.Race); err != nil {
			return nil, eris.Wrap(err, "postgres: scan charge row")
		}
		cr.Date = model.DateOf(date)
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate charge rows")
	}
	return out, nil
}

// listConds extends the base conditions with the free-text search over
// name and charge fields.
func (s *PostgresStore) listConds(f model.Filter, search string) ([]string, []any) {
	conds, args := s.baseConds(f)
	if search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR charges ILIKE $%d)", n, n, n))
	}
	return conds, args
}

func (s *PostgresStore) ListArrests(ctx context.Context, f model.Filter, search string, limit, offset int) ([]model.ArrestRecord, error) {
	conds, args := s.listConds(f, search)

	args = append(args, limit)
	lim := len(args)
	args = append(args, offset)
	off := len(args)

	query := fmt.Sprintf(`SELECT
		COALESCE(arrest_id, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		COALESCE(age, 0), COALESCE(sex, ''), COALESCE(race, ''),
		COALESCE(charges, ''), arrest_date, COALESCE(arrest_time, ''),
		COALESCE(city_town, ''), COALESCE(street_line, ''), COALESCE(zip_code, ''),
		COALESCE(processing_time, ''), COALESCE(source_file, '')
	FROM arrest_logs%s
	ORDER BY arrest_date DESC
	LIMIT $%d OFFSET $%d`, whereSQL(conds), lim, off)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query arrests page")
	}
	defer rows.Close()

	out := []model.ArrestRecord{}
	for rows.Next() {
		var r model.ArrestRecord
		var date time.Time
		if err := rows.Scan(
			&r.ArrestID, &r.FirstName, &r.LastName,
			&r.Age, &r.Sex, &r.Race,
			&r.Charges, &date, &r.ArrestTime,
			&r.CityTown, &r.StreetLine, &r.ZipCode,
			&r.ProcessingTime, &r.SourceFile,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan arrest record")
		}
		r.ArrestDate = model.DateOf(date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate arrests page")
	}
	return out, nil
}

func (s *PostgresStore) CountArrests(ctx context.Context, f model.Filter, search string) (int64, error) {
	conds, args := s.listConds(f, search)

	query := "SELECT COUNT(*) FROM arrest_logs" + whereSQL(conds)

	var total int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, eris.Wrap(err, "postgres: count arrests")
	}
	return total, nil
}
