package period

import (
	"errors"
	"fmt"
)

// Dialect selects which SQL date functions the predicate translator emits.
// The original queries assumed MySQL date functions everywhere; the
// translator keeps the engine-specific pieces in one place and emits bound
// parameters only.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var ErrUnsupportedDialect = errors.New("unsupported_dialect")

// DialectFromName maps a gorm dialector name to a Dialect.
func DialectFromName(name string) (Dialect, error) {
	switch name {
	case "mysql":
		return DialectMySQL, nil
	case "postgres":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", ErrUnsupportedDialect
	}
}

const dateLayout = "2006-01-02"

// Predicate translates a period into an inclusive date condition on the
// given timestamp column, returning the SQL fragment and its bound args.
func (p Period) Predicate(d Dialect, column string) (string, []any, error) {
	args := []any{p.Start.Format(dateLayout), p.End.Format(dateLayout)}
	switch d {
	case DialectMySQL:
		return fmt.Sprintf("DATE(%s) BETWEEN ? AND ?", column), args, nil
	case DialectPostgres:
		return fmt.Sprintf("%s::date BETWEEN ?::date AND ?::date", column), args, nil
	case DialectSQLite:
		return fmt.Sprintf("date(%s) BETWEEN ? AND ?", column), args, nil
	default:
		return "", nil, ErrUnsupportedDialect
	}
}

// YearPredicate matches rows whose column falls in the given calendar year.
func YearPredicate(d Dialect, column string, year int) (string, []any, error) {
	switch d {
	case DialectMySQL:
		return fmt.Sprintf("YEAR(%s) = ?", column), []any{year}, nil
	case DialectPostgres:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s) = ?", column), []any{year}, nil
	case DialectSQLite:
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER) = ?", column), []any{year}, nil
	default:
		return "", nil, ErrUnsupportedDialect
	}
}

// Bucket identifies the grouping expression used by trend queries.
type Bucket string

const (
	BucketHour  Bucket = "hour"  // 0..23
	BucketDay   Bucket = "day"   // yyyy-mm-dd
	BucketMonth Bucket = "month" // 1..12
)

// BucketExpr returns the SELECT/GROUP BY expression extracting a trend
// bucket from the column. Hour and month buckets scan as integers, day
// buckets as yyyy-mm-dd strings.
func BucketExpr(d Dialect, column string, b Bucket) (string, error) {
	switch d {
	case DialectMySQL:
		switch b {
		case BucketHour:
			return fmt.Sprintf("HOUR(%s)", column), nil
		case BucketDay:
			return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d')", column), nil
		case BucketMonth:
			return fmt.Sprintf("MONTH(%s)", column), nil
		}
	case DialectPostgres:
		switch b {
		case BucketHour:
			return fmt.Sprintf("EXTRACT(HOUR FROM %s)::int", column), nil
		case BucketDay:
			return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", column), nil
		case BucketMonth:
			return fmt.Sprintf("EXTRACT(MONTH FROM %s)::int", column), nil
		}
	case DialectSQLite:
		switch b {
		case BucketHour:
			return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", column), nil
		case BucketDay:
			return fmt.Sprintf("date(%s)", column), nil
		case BucketMonth:
			return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column), nil
		}
	default:
		return "", ErrUnsupportedDialect
	}
	return "", fmt.Errorf("unsupported bucket %q", b)
}
