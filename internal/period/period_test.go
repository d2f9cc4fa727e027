package period

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCustomValidates(t *testing.T) {
	p, err := Custom(date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Tag != TagCustom {
		t.Fatalf("expected custom tag, got %s", p.Tag)
	}
	if p.Days() != 31 {
		t.Fatalf("expected 31 days, got %d", p.Days())
	}
}

func TestCustomRejectsReversedRange(t *testing.T) {
	_, err := Custom(date(2024, time.March, 31), date(2024, time.March, 1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestCustomRejectsTooWideRange(t *testing.T) {
	_, err := Custom(date(2023, time.January, 1), date(2024, time.June, 1))
	if !errors.Is(err, ErrRangeTooWide) {
		t.Fatalf("expected ErrRangeTooWide, got %v", err)
	}
}

func TestCustomSingleDayIsValid(t *testing.T) {
	p, err := Custom(date(2024, time.March, 15), date(2024, time.March, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Days() != 1 {
		t.Fatalf("expected 1 day, got %d", p.Days())
	}
}

func TestDailyNormalizesTime(t *testing.T) {
	p := Daily(time.Date(2024, time.March, 15, 17, 45, 3, 0, time.UTC))
	if !p.Start.Equal(date(2024, time.March, 15)) || !p.End.Equal(date(2024, time.March, 15)) {
		t.Fatalf("expected day-normalized bounds, got %v..%v", p.Start, p.End)
	}
}

func TestWeeklyCoversSevenDays(t *testing.T) {
	p := Weekly(date(2024, time.March, 15))
	if !p.Start.Equal(date(2024, time.March, 9)) {
		t.Fatalf("expected start 2024-03-09, got %v", p.Start)
	}
	if p.Days() != 7 {
		t.Fatalf("expected 7 days, got %d", p.Days())
	}
}

func TestMonthlyHandlesLeapFebruary(t *testing.T) {
	p := Monthly(2024, time.February)
	if !p.End.Equal(date(2024, time.February, 29)) {
		t.Fatalf("expected leap-year end 2024-02-29, got %v", p.End)
	}
}

func TestYearly(t *testing.T) {
	p := Yearly(2024)
	if p.Year() != 2024 {
		t.Fatalf("expected year 2024, got %d", p.Year())
	}
	if !p.End.Equal(date(2024, time.December, 31)) {
		t.Fatalf("expected end 2024-12-31, got %v", p.End)
	}
}

func TestPrevYearKeepsTag(t *testing.T) {
	p := Yearly(2024).PrevYear()
	if p.Year() != 2023 || p.Tag != TagYearly {
		t.Fatalf("expected yearly 2023, got %s %d", p.Tag, p.Year())
	}
}

func TestParseTag(t *testing.T) {
	for _, raw := range []string{"daily", "weekly", "monthly", "yearly", "custom"} {
		if _, err := ParseTag(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseTag("quarterly"); !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("expected ErrInvalidTag, got %v", err)
	}
}

func TestPredicatePerDialect(t *testing.T) {
	p := Period{Start: date(2024, time.March, 1), End: date(2024, time.March, 31), Tag: TagMonthly}

	tests := []struct {
		dialect Dialect
		want    string
	}{
		{DialectMySQL, "DATE(registration_date) BETWEEN ? AND ?"},
		{DialectPostgres, "registration_date::date BETWEEN ?::date AND ?::date"},
		{DialectSQLite, "date(registration_date) BETWEEN ? AND ?"},
	}
	for _, tc := range tests {
		sql, args, err := p.Predicate(tc.dialect, "registration_date")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.dialect, err)
		}
		if sql != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.dialect, tc.want, sql)
		}
		if len(args) != 2 || args[0] != "2024-03-01" || args[1] != "2024-03-31" {
			t.Fatalf("%s: unexpected args %v", tc.dialect, args)
		}
	}

	if _, _, err := p.Predicate("oracle", "registration_date"); !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
}

func TestYearPredicatePerDialect(t *testing.T) {
	sql, args, err := YearPredicate(DialectSQLite, "transaction_date", 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != "CAST(strftime('%Y', transaction_date) AS INTEGER) = ?" {
		t.Fatalf("unexpected sql %q", sql)
	}
	if len(args) != 1 || args[0] != 2024 {
		t.Fatalf("unexpected args %v", args)
	}

	sql, _, err = YearPredicate(DialectMySQL, "transaction_date", 2024)
	if err != nil || sql != "YEAR(transaction_date) = ?" {
		t.Fatalf("unexpected mysql year predicate %q %v", sql, err)
	}
}

func TestBucketExpr(t *testing.T) {
	expr, err := BucketExpr(DialectSQLite, "transaction_date", BucketMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != "CAST(strftime('%m', transaction_date) AS INTEGER)" {
		t.Fatalf("unexpected expr %q", expr)
	}

	if _, err := BucketExpr(DialectMySQL, "transaction_date", Bucket("week")); err == nil {
		t.Fatal("expected error for unknown bucket")
	}
}

func TestDialectFromName(t *testing.T) {
	for name, want := range map[string]Dialect{
		"mysql":    DialectMySQL,
		"postgres": DialectPostgres,
		"sqlite":   DialectSQLite,
		"sqlite3":  DialectSQLite,
	} {
		got, err := DialectFromName(name)
		if err != nil || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", name, want, got, err)
		}
	}
	if _, err := DialectFromName("mssql"); !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
}
