package schema

import (
	"context"
	"fmt"

	"github.com/chatdb/chatdb/internal/database"
)

// mysqlCatalog lists every table of the schema, views included.
type mysqlCatalog struct{}

func (mysqlCatalog) tables(ctx context.Context, q queryer, catalog string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
SELECT TABLE_NAME
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME`, catalog)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (mysqlCatalog) columns(ctx context.Context, q queryer, catalog, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, `
SELECT
	c.COLUMN_NAME,
	c.DATA_TYPE,
	c.IS_NULLABLE,
	c.COLUMN_KEY,
	EXISTS (
		SELECT 1 FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
		WHERE k.TABLE_SCHEMA = c.TABLE_SCHEMA
			AND k.TABLE_NAME = c.TABLE_NAME
			AND k.COLUMN_NAME = c.COLUMN_NAME
			AND k.REFERENCED_TABLE_NAME IS NOT NULL
	) AS IS_FOREIGN
FROM INFORMATION_SCHEMA.COLUMNS c
WHERE c.TABLE_SCHEMA = ? AND c.TABLE_NAME = ?
ORDER BY c.ORDINAL_POSITION`, catalog, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var (
			col       Column
			nullable  string
			columnKey string
			isForeign bool
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &columnKey, &isForeign); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		col.Key = parseKeyRole(columnKey)
		if col.Key == KeyNone && isForeign {
			col.Key = KeyForeign
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// informationSchemaCatalog serves engines with a standard information_schema
// (postgres, duckdb). Views are listed alongside base tables. Key role
// priority is primary, then unique, then foreign.
type informationSchemaCatalog struct {
	dialect database.Dialect
}

func (c informationSchemaCatalog) tables(ctx context.Context, q queryer, catalog string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
SELECT table_name
FROM information_schema.tables
WHERE table_schema = %s AND table_type IN ('BASE TABLE', 'VIEW')
ORDER BY table_name`, c.dialect.Placeholder(1)), catalog)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (c informationSchemaCatalog) columns(ctx context.Context, q queryer, catalog, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
SELECT
	c.column_name,
	c.data_type,
	c.is_nullable,
	COALESCE((
		SELECT CASE MIN(CASE tc.constraint_type
				WHEN 'PRIMARY KEY' THEN 1
				WHEN 'UNIQUE' THEN 2
				WHEN 'FOREIGN KEY' THEN 3
			END)
			WHEN 1 THEN 'primary'
			WHEN 2 THEN 'unique'
			WHEN 3 THEN 'foreign'
		END
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.table_constraints tc
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE kcu.table_schema = c.table_schema
			AND kcu.table_name = c.table_name
			AND kcu.column_name = c.column_name
	), 'none') AS key_role
FROM information_schema.columns c
WHERE c.table_schema = %s AND c.table_name = %s
ORDER BY c.ordinal_position`, c.dialect.Placeholder(1), c.dialect.Placeholder(2)), catalog, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var (
			col      Column
			nullable string
			keyRole  string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &keyRole); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		col.Key = parseKeyRole(keyRole)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

type sqliteCatalog struct{}

func (sqliteCatalog) tables(ctx context.Context, q queryer, catalog string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
SELECT name
FROM pragma_table_list
WHERE schema = ? AND type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
ORDER BY name`, catalog)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (sqliteCatalog) columns(ctx context.Context, q queryer, catalog, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, `
SELECT name, type, "notnull", pk
FROM pragma_table_info(?, ?)
ORDER BY cid`, table, catalog)
	if err != nil {
		return nil, err
	}
	var columns []Column
	for rows.Next() {
		var (
			col     Column
			notNull int
			pk      int
		)
		if err := rows.Scan(&col.Name, &col.DataType, &notNull, &pk); err != nil {
			_ = rows.Close()
			return nil, err
		}
		col.Nullable = notNull == 0
		if pk > 0 {
			col.Key = KeyPrimary
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	unique, err := sqliteColumnSet(ctx, q, `
SELECT ii.name
FROM pragma_index_list(?, ?) AS il, pragma_index_info(il.name, ?) AS ii
WHERE il."unique" = 1 AND il.origin <> 'pk'`, table, catalog, catalog)
	if err != nil {
		return nil, err
	}
	foreign, err := sqliteColumnSet(ctx, q, `SELECT "from" FROM pragma_foreign_key_list(?, ?)`, table, catalog)
	if err != nil {
		return nil, err
	}

	for i := range columns {
		if columns[i].Key != KeyNone {
			continue
		}
		switch {
		case unique[columns[i].Name]:
			columns[i].Key = KeyUnique
		case foreign[columns[i].Name]:
			columns[i].Key = KeyForeign
		}
	}
	return columns, nil
}

func sqliteColumnSet(ctx context.Context, q queryer, query string, args ...any) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	names, err := scanNames(rows)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set, nil
}
