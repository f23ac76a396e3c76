package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect names a supported database engine.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectDuckDB   Dialect = "duckdb"
)

func ParseDialect(raw string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(raw))); d {
	case DialectMySQL, DialectPostgres, DialectSQLite, DialectDuckDB:
		return d, nil
	case "":
		return DialectMySQL, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", raw)
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectSQLite:
		return "sqlite3"
	default:
		return string(d)
	}
}

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// DefaultCatalog is the schema introspected when none is configured.
func (d Dialect) DefaultCatalog(databaseName string) string {
	switch d {
	case DialectMySQL:
		return databaseName
	case DialectPostgres:
		return "public"
	default:
		return "main"
	}
}
