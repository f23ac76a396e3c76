package migrations

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/chatdb/chatdb/internal/database"
)

func TestLoadMigrationsSortsAndPairsUpDown(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/sqlite/000002_two.up.sql":   {Data: []byte("SELECT 2;")},
		"sql/sqlite/000002_two.down.sql": {Data: []byte("SELECT -2;")},
		"sql/sqlite/000001_one.up.sql":   {Data: []byte("SELECT 1;")},
		"sql/sqlite/000001_one.down.sql": {Data: []byte("SELECT -1;")},
		"sql/sqlite/README.md":           {Data: []byte("ignored")},
	}

	items, err := loadMigrations(fsys, "sql/sqlite")
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d", len(items))
	}
	if items[0].Version != 1 || items[1].Version != 2 {
		t.Fatalf("unexpected migration order: %+v", items)
	}
}

func TestLoadMigrationsErrorsWhenDownMissing(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/mysql/000001_one.up.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := loadMigrations(fsys, "sql/mysql")
	if err == nil {
		t.Fatal("expected error for missing down migration")
	}
	if !strings.Contains(err.Error(), "missing down SQL") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmbeddedMigrationsExistForEveryDialect(t *testing.T) {
	for _, dialect := range []database.Dialect{database.DialectMySQL, database.DialectPostgres, database.DialectSQLite, database.DialectDuckDB} {
		runner := NewRunner(dialect)
		items, err := loadMigrations(runner.fsys, runner.dir)
		if err != nil {
			t.Fatalf("%s: loadMigrations() error = %v", dialect, err)
		}
		if len(items) != 2 {
			t.Fatalf("%s: len(items) = %d", dialect, len(items))
		}
		for _, table := range []string{"students", "users", "courses", "enrollments"} {
			if !strings.Contains(items[0].UpSQL, "CREATE TABLE "+table) {
				t.Fatalf("%s: schema migration missing table %s", dialect, table)
			}
		}
	}
}

func TestRunnerWithUnsupportedDialectFailsBeforeTouchingDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	runner := NewRunner("oracle")
	if _, err := runner.Up(context.Background(), db, 0); err == nil || !strings.Contains(err.Error(), "read migration dir") {
		t.Fatalf("Up() error = %v", err)
	}
	if _, err := runner.Down(context.Background(), db, 1); err == nil {
		t.Fatal("expected Down() error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected sql: %v", err)
	}
}

func TestUpUsesDialectPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	runner := &Runner{
		fsys: fstest.MapFS{
			"sql/postgres/000001_one.up.sql":   {Data: []byte("CREATE TABLE one (id INTEGER)")},
			"sql/postgres/000001_one.down.sql": {Data: []byte("DROP TABLE one")},
		},
		dir:     "sql/postgres",
		dialect: database.DialectPostgres,
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS chatdb_schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM chatdb_schema_migrations ORDER BY version ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE one (id INTEGER)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chatdb_schema_migrations (version) VALUES ($1)")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := runner.Up(context.Background(), db, 0)
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestRunnerAppliesAndRollsBackSQLite(t *testing.T) {
	db := openDatabase(t, database.Config{Dialect: database.DialectSQLite, Path: ":memory:"})
	exerciseRunner(t, db, database.DialectSQLite, func(table string) string {
		return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = '` + table + `'`
	})
}

func TestRunnerAppliesAndRollsBackDuckDB(t *testing.T) {
	db := openDatabase(t, database.Config{Dialect: database.DialectDuckDB})
	exerciseRunner(t, db, database.DialectDuckDB, func(table string) string {
		return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'main' AND table_name = '` + table + `'`
	})
}

func exerciseRunner(t *testing.T, db *sql.DB, dialect database.Dialect, tableQuery func(string) string) {
	t.Helper()
	ctx := context.Background()
	runner := NewRunner(dialect)

	applied, err := runner.Up(ctx, db, 0)
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if applied != 2 {
		t.Fatalf("Up() applied %d migrations, want 2", applied)
	}
	again, err := runner.Up(ctx, db, 0)
	if err != nil || again != 0 {
		t.Fatalf("second Up() = %d, %v", again, err)
	}

	var students int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&students); err != nil {
		t.Fatalf("count students: %v", err)
	}
	if students != 5 {
		t.Fatalf("students = %d, want 5", students)
	}

	rolledBack, err := runner.Down(ctx, db, 2)
	if err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if rolledBack != 2 {
		t.Fatalf("Down() rolled back %d migrations, want 2", rolledBack)
	}

	for _, table := range []string{"students", "users", "courses", "enrollments"} {
		var count int
		if err := db.QueryRowContext(ctx, tableQuery(table)).Scan(&count); err != nil {
			t.Fatalf("table lookup %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("table %s still exists after rollback", table)
		}
	}
}

func openDatabase(t *testing.T, cfg database.Config) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
