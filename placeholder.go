package xrel

import (
	"strconv"
	"strings"
)

// Placeholder selects the positional parameter style for a target database.
//
// Common choices:
//   - PlaceholderQuestion   → "?"           (MySQL, SQLite, DuckDB, ClickHouse)
//   - PlaceholderDollar     → "$1, $2, …"  (PostgreSQL)
//   - PlaceholderAtP        → "@p1, @p2…"  (SQL Server)
//   - PlaceholderColonNum   → ":1, :2, …"  (Oracle)
type Placeholder int

const (
	PlaceholderQuestion Placeholder = iota
	PlaceholderDollar
	PlaceholderAtP
	PlaceholderColonNum
)

// PlaceholderFor picks a Placeholder based on a driver name string.
//
// Examples:
//
//	ph := xrel.PlaceholderFor("pgx")       // => PlaceholderDollar
//	ph := xrel.PlaceholderFor("sqlserver") // => PlaceholderAtP
//	ph := xrel.PlaceholderFor("sqlite3")   // => PlaceholderQuestion
func PlaceholderFor(driverName string) Placeholder {
	switch strings.ToLower(driverName) {
	case "pgx", "postgres", "postgresql", "lib/pq", "pg":
		return PlaceholderDollar
	case "sqlserver", "mssql":
		return PlaceholderAtP
	case "godror", "oracle", "goracle":
		return PlaceholderColonNum
	default:
		return PlaceholderQuestion
	}
}

func (ph Placeholder) valid() bool {
	return ph >= PlaceholderQuestion && ph <= PlaceholderColonNum
}

// appendPlaceholder writes the marker for the 1-based parameter arg.
func appendPlaceholder(out []byte, ph Placeholder, arg int) []byte {
	switch ph {
	case PlaceholderDollar:
		out = append(out, '$')
		return strconv.AppendInt(out, int64(arg), 10)
	case PlaceholderAtP:
		out = append(out, '@', 'p')
		return strconv.AppendInt(out, int64(arg), 10)
	case PlaceholderColonNum:
		out = append(out, ':')
		return strconv.AppendInt(out, int64(arg), 10)
	default:
		return append(out, '?')
	}
}

// placeholderTuple renders "(?, ?, ?)" for n parameters.
func placeholderTuple(ph Placeholder, n int) string {
	out := make([]byte, 0, 2+n*4)
	out = append(out, '(')
	for i := 1; i <= n; i++ {
		if i > 1 {
			out = append(out, ',', ' ')
		}
		out = appendPlaceholder(out, ph, i)
	}
	out = append(out, ')')
	return string(out)
}
