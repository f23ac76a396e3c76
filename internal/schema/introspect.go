package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chatdb/chatdb/internal/database"
	"github.com/chatdb/chatdb/internal/observability"
)

// IntrospectionError reports that the catalog could not be described.
type IntrospectionError struct {
	Op  string
	Err error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("schema introspection: %s: %v", e.Op, e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

// queryer is satisfied by *sql.Conn and *sql.DB.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type catalogQueries interface {
	tables(ctx context.Context, q queryer, catalog string) ([]string, error)
	columns(ctx context.Context, q queryer, catalog, table string) ([]Column, error)
}

// Introspector describes the tables of a single catalog.
type Introspector struct {
	db      *sql.DB
	catalog string
	queries catalogQueries
}

func NewIntrospector(db *sql.DB, dialect database.Dialect, catalog string) (*Introspector, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	var queries catalogQueries
	switch dialect {
	case database.DialectMySQL:
		queries = mysqlCatalog{}
	case database.DialectPostgres, database.DialectDuckDB:
		queries = informationSchemaCatalog{dialect: dialect}
	case database.DialectSQLite:
		queries = sqliteCatalog{}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	catalog = strings.TrimSpace(catalog)
	if catalog == "" {
		return nil, fmt.Errorf("catalog name is required")
	}
	return &Introspector{db: db, catalog: catalog, queries: queries}, nil
}

func (i *Introspector) Catalog() string {
	return i.catalog
}

// Describe walks the catalog on a single pooled connection.
func (i *Introspector) Describe(ctx context.Context) (desc Description, err error) {
	start := time.Now()
	defer func() { observability.ObserveIntrospection(time.Since(start), err) }()

	conn, err := i.db.Conn(ctx)
	if err != nil {
		return Description{}, &IntrospectionError{Op: "acquire connection", Err: err}
	}
	defer func() { _ = conn.Close() }()

	names, err := i.queries.tables(ctx, conn, i.catalog)
	if err != nil {
		return Description{}, &IntrospectionError{Op: "list tables", Err: err}
	}

	desc.Tables = make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := i.queries.columns(ctx, conn, i.catalog, name)
		if err != nil {
			return Description{}, &IntrospectionError{Op: fmt.Sprintf("list columns of %s", name), Err: err}
		}
		desc.Tables = append(desc.Tables, Table{Name: name, Columns: columns})
	}
	return desc, nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
