package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/baystate-data/arrestlog/internal/arrests"
	"github.com/baystate-data/arrestlog/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local
// development against a file snapshot of the arrest logs. Dates are stored
// as YYYY-MM-DD text, which compares correctly lexicographically.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS arrest_logs (
	arrest_id       TEXT,
	first_name      TEXT,
	last_name       TEXT,
	age             INTEGER,
	sex             TEXT,
	race            TEXT,
	charges         TEXT,
	arrest_date     TEXT NOT NULL,
	arrest_time     TEXT,
	city_town       TEXT,
	street_line     TEXT,
	zip_code        TEXT,
	processing_time TEXT,
	source_file     TEXT
);

CREATE INDEX IF NOT EXISTS idx_arrest_logs_date ON arrest_logs(arrest_date);
CREATE INDEX IF NOT EXISTS idx_arrest_logs_city ON arrest_logs(city_town);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// baseConds mirrors the Postgres driver's condition rendering with ?
// placeholders and text dates.
func (s *SQLiteStore) baseConds(f model.Filter) ([]string, []any) {
	var conds []string
	var args []any

	if f.Town != "" {
		conds = append(conds, "UPPER(city_town) LIKE ?")
		args = append(args, arrests.NormalizeCity(f.Town)+"%")
	}
	if f.DateFrom != nil {
		conds = append(conds, "arrest_date >= ?")
		args = append(args, f.DateFrom.String())
	}
	if f.DateTo != nil {
		conds = append(conds, "arrest_date <= ?")
		args = append(args, f.DateTo.String())
	}
	return conds, args
}

func (s *SQLiteStore) Counts(ctx context.Context, f model.Filter, weekAgo, monthAgo model.Date) (StatCounts, error) {
	conds, baseArgs := s.baseConds(f)

	// SELECT-list placeholders bind before the WHERE arguments.
	args := append([]any{weekAgo.String(), monthAgo.String()}, baseArgs...)

	query := `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN arrest_date >= ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN arrest_date >= ? THEN 1 ELSE 0 END), 0)
	FROM arrest_logs` + whereSQL(conds)

	var c StatCounts
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&c.Total, &c.ThisWeek, &c.ThisMonth); err != nil {
		return StatCounts{}, eris.Wrap(err, "sqlite: query stat counts")
	}
	return c, nil
}

func (s *SQLiteStore) AverageAge(ctx context.Context, f model.Filter) (float64, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, ageQuality)

	query := "SELECT COALESCE(AVG(age), 0) FROM arrest_logs" + whereSQL(conds)

	var avg float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, eris.Wrap(err, "sqlite: query average age")
	}
	return avg, nil
}

func (s *SQLiteStore) CityCounts(ctx context.Context, f model.Filter) ([]model.CityCount, error) {
	conds, args := s.baseConds(f)

	query := `SELECT COALESCE(city_town, ''), COUNT(*)
	FROM arrest_logs` + whereSQL(conds) + `
	GROUP BY 1
	ORDER BY 2 DESC, 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query city counts")
	}
	defer rows.Close()

	out := []model.CityCount{}
	for rows.Next() {
		var cc model.CityCount
		if err := rows.Scan(&cc.City, &cc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city count")
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate city counts")
	}
	return out, nil
}

// sqliteBucketExpr renders the grouping key for a timeline granularity.
// The week expression lands on Monday: '-6 days' steps back, then
// 'weekday 1' advances to the Monday of the original date's week.
func sqliteBucketExpr(g arrests.Granularity) string {
	switch g {
	case arrests.GranularityMonth:
		return "date(arrest_date, 'start of month')"
	case arrests.GranularityWeek:
		return "date(arrest_date, '-6 days', 'weekday 1')"
	default:
		return "arrest_date"
	}
}

func (s *SQLiteStore) TimelineCounts(ctx context.Context, f model.Filter, g arrests.Granularity) ([]model.DateCount, error) {
	conds, args := s.baseConds(f)

	query := "SELECT " + sqliteBucketExpr(g) + ` AS bucket, COUNT(*)
	FROM arrest_logs` + whereSQL(conds) + `
	GROUP BY 1
	ORDER BY 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query timeline")
	}
	defer rows.Close()

	out := []model.DateCount{}
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan timeline bucket")
		}
		d, err := model.ParseDate(bucket)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse timeline bucket %q", bucket)
		}
		out = append(out, model.DateCount{Date: d, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate timeline")
	}
	return out, nil
}

func (s *SQLiteStore) DayOfWeekCounts(ctx context.Context, f model.Filter) ([]DowCount, error) {
	conds, args := s.baseConds(f)

	query := `SELECT CAST(strftime('%w', arrest_date) AS INTEGER) AS dow, COUNT(*)
	FROM arrest_logs` + whereSQL(conds) + `
	GROUP BY 1
	ORDER BY 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query day of week")
	}
	defer rows.Close()

	out := []DowCount{}
	for rows.Next() {
		var dc DowCount
		if err := rows.Scan(&dc.Dow, &dc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan day of week")
		}
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate day of week")
	}
	return out, nil
}

func (s *SQLiteStore) AgeRangeCounts(ctx context.Context, f model.Filter) ([]KeyCount, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, ageQuality)

	query := "SELECT " + ageRangeCase + ` AS age_range, COUNT(*)
	FROM arrest_logs` + whereSQL(conds) + `
	GROUP BY 1`

	return s.keyCounts(ctx, query, args, "age range")
}

func (s *SQLiteStore) SexCounts(ctx context.Context, f model.Filter) ([]KeyCount, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, sexQuality)

	query := `SELECT sex, COUNT(*)
	FROM arrest_logs` + whereSQL(conds) + `
	GROUP BY 1
	ORDER BY 2 DESC, 1`

	return s.keyCounts(ctx, query, args, "sex")
}

func (s *SQLiteStore) RaceCounts(ctx context.Context, f model.Filter) ([]KeyCount, error) {
	conds, args := s.baseConds(f)
	conds = append(conds, raceQuality)

	query := `SELECT race, COUNT(*)
	FROM arrest_logs` + whereSQL(conds) + `
	GROUP BY 1
	ORDER BY 2 DESC, 1`

	return s.keyCounts(ctx, query, args, "race")
}

func (s *SQLiteStore) keyCounts(ctx context.Context, query string, args []any, what string) ([]KeyCount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s counts", what)
	}
	defer rows.Close()

	out := []KeyCount{}
	for rows.Next() {
		var kc KeyCount
		if err := rows.Scan(&kc.Key, &kc.Count); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s count", what)
		}
		out = append(out, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate %s counts", what)
	}
	return out, nil
}

func (s *SQLiteStore) ChargeRows(ctx context.Context, f model.Filter) ([]ChargeRow, error) {
	conds, args := s.baseConds(f)

	query := `SELECT COALESCE(charges, ''), arrest_date,
		COALESCE(age, 0), COALESCE(sex, ''), COALESCE(race, '')
	FROM arrest_logs` + whereSQL(conds)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query charge rows")
	}
	defer rows.Close()

	out := []ChargeRow{}
	for rows.Next() {
		var cr ChargeRow
		var date string
		if err := rows.Scan(&cr.Charges, &date, &cr.Age, &cr.Sex, &cr.Race); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan charge row")
		}
		d, err := model.ParseDate(date)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse arrest date %q", date)
		}
		cr.Date = d
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate charge rows")
	}
	return out, nil
}

func (s *SQLiteStore) listConds(f model.Filter, search string) ([]string, []any) {
	conds, args := s.baseConds(f)
	if search != "" {
		// SQLite LIKE is case-insensitive for ASCII.
		conds = append(conds, "(first_name LIKE ? OR last_name LIKE ? OR charges LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	return conds, args
}

func (s *SQLiteStore) ListArrests(ctx context.Context, f model.Filter, search string, limit, offset int) ([]model.ArrestRecord, error) {
	conds, args := s.listConds(f, search)
	args = append(args, limit, offset)

	query := `SELECT
		COALESCE(arrest_id, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		COALESCE(age, 0), COALESCE(sex, ''), COALESCE(race, ''),
		COALESCE(charges, ''), arrest_date, COALESCE(arrest_time, ''),
		COALESCE(city_town, ''), COALESCE(street_line, ''), COALESCE(zip_code, ''),
		COALESCE(processing_time, ''), COALESCE(source_file, '')
	FROM arrest_logs` + whereSQL(conds) + `
	ORDER BY arrest_date DESC
	LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query arrests page")
	}
	defer rows.Close()

	out := []model.ArrestRecord{}
	for rows.Next() {
		var r model.ArrestRecord
		var date string
		if err := rows.Scan(
			&r.ArrestID, &r.FirstName, &r.LastName,
			&r.Age, &r.Sex, &r.Race,
			&r.Charges, &date, &r.ArrestTime,
			&r.CityTown, &r.StreetLine, &r.ZipCode,
			&r.ProcessingTime, &r.SourceFile,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan arrest record")
		}
		d, err := model.ParseDate(date)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse arrest date %q", date)
		}
		r.ArrestDate = d
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate arrests page")
	}
	return out, nil
}

func (s *SQLiteStore) CountArrests(ctx context.Context, f model.Filter, search string) (int64, error) {
	conds, args := s.listConds(f, search)

	query := "SELECT COUNT(*) FROM arrest_logs" + whereSQL(conds)

	var total int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, eris.Wrap(err, "sqlite: count arrests")
	}
	return total, nil
}
