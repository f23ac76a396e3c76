package schema

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/chatdb/chatdb/internal/database"
)

func TestNewIntrospectorValidatesInput(t *testing.T) {
	db, _ := newSQLMock(t)
	if _, err := NewIntrospector(nil, database.DialectMySQL, "school"); err == nil {
		t.Fatal("expected error for nil database")
	}
	if _, err := NewIntrospector(db, database.DialectMySQL, "  "); err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if _, err := NewIntrospector(db, "oracle", "school"); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}

func TestDescribeMySQL(t *testing.T) {
	db, mock := newSQLMock(t)
	introspector, err := NewIntrospector(db, database.DialectMySQL, "school")
	if err != nil {
		t.Fatalf("NewIntrospector() error = %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES")).
		WithArgs("school").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("enrollments").AddRow("students"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.COLUMNS c")).
		WithArgs("school", "enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "COLUMN_KEY", "IS_FOREIGN"}).
			AddRow("id", "int", "NO", "PRI", int64(0)).
			AddRow("student_id", "int", "NO", "MUL", int64(1)).
			AddRow("grade", "decimal", "YES", "", int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.COLUMNS c")).
		WithArgs("school", "students").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "COLUMN_KEY", "IS_FOREIGN"}).
			AddRow("id", "int", "NO", "PRI", int64(0)).
			AddRow("email", "varchar", "NO", "UNI", int64(0)))

	desc, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := Description{Tables: []Table{
		{Name: "enrollments", Columns: []Column{
			{Name: "id", DataType: "int", Key: KeyPrimary},
			{Name: "student_id", DataType: "int", Key: KeyForeign},
			{Name: "grade", DataType: "decimal", Nullable: true},
		}},
		{Name: "students", Columns: []Column{
			{Name: "id", DataType: "int", Key: KeyPrimary},
			{Name: "email", DataType: "varchar", Key: KeyUnique},
		}},
	}}
	if !reflect.DeepEqual(desc, want) {
		t.Fatalf("Describe() = %#v, want %#v", desc, want)
	}
	assertSQLMock(t, mock)
}

func TestDescribePostgresUsesNumberedPlaceholders(t *testing.T) {
	db, mock := newSQLMock(t)
	introspector, err := NewIntrospector(db, database.DialectPostgres, "public")
	if err != nil {
		t.Fatalf("NewIntrospector() error = %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')")).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("courses"))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.table_schema = $1 AND c.table_name = $2")).
		WithArgs("public", "courses").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "key_role"}).
			AddRow("id", "integer", "NO", "primary").
			AddRow("title", "text", "YES", "none"))

	desc, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(desc.Tables) != 1 || len(desc.Tables[0].Columns) != 2 {
		t.Fatalf("unexpected description %#v", desc)
	}
	if desc.Tables[0].Columns[0].Key != KeyPrimary || !desc.Tables[0].Columns[1].Nullable {
		t.Fatalf("unexpected columns %#v", desc.Tables[0].Columns)
	}
	assertSQLMock(t, mock)
}

func TestDescribeEmptyCatalog(t *testing.T) {
	db, mock := newSQLMock(t)
	introspector, err := NewIntrospector(db, database.DialectMySQL, "empty")
	if err != nil {
		t.Fatalf("NewIntrospector() error = %v", err)
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES")).
		WithArgs("empty").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}))

	desc, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(desc.Tables) != 0 {
		t.Fatalf("tables = %#v, want none", desc.Tables)
	}
	if got := Render(desc); got != "" {
		t.Fatalf("Render() = %q, want empty", got)
	}
	assertSQLMock(t, mock)
}

func TestDescribeWrapsCatalogErrors(t *testing.T) {
	db, mock := newSQLMock(t)
	introspector, err := NewIntrospector(db, database.DialectMySQL, "school")
	if err != nil {
		t.Fatalf("NewIntrospector() error = %v", err)
	}
	boom := errors.New("access denied")
	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES")).
		WithArgs("school").
		WillReturnError(boom)

	_, err = introspector.Describe(context.Background())
	var introspectionErr *IntrospectionError
	if !errors.As(err, &introspectionErr) {
		t.Fatalf("error = %v, want IntrospectionError", err)
	}
	if introspectionErr.Op != "list tables" || !errors.Is(err, boom) {
		t.Fatalf("unexpected error %v", err)
	}
	assertSQLMock(t, mock)
}

func TestDescribeSQLiteCatalog(t *testing.T) {
	db, err := database.Open(context.Background(), database.Config{Dialect: database.DialectSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE courses (id INTEGER PRIMARY KEY, code TEXT NOT NULL UNIQUE, title TEXT)`,
		`CREATE TABLE enrollments (id INTEGER PRIMARY KEY, course_id INTEGER NOT NULL REFERENCES courses(id), grade REAL)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}

	introspector, err := NewIntrospector(db, database.DialectSQLite, "main")
	if err != nil {
		t.Fatalf("NewIntrospector() error = %v", err)
	}
	first, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(first.Tables) != 2 || first.Tables[0].Name != "courses" || first.Tables[1].Name != "enrollments" {
		t.Fatalf("unexpected tables %#v", first.Tables)
	}

	courses := first.Tables[0].Columns
	if courses[0].Key != KeyPrimary {
		t.Fatalf("courses.id key = %s", courses[0].Key)
	}
	if courses[1].Key != KeyUnique || courses[1].Nullable {
		t.Fatalf("courses.code = %#v", courses[1])
	}
	if courses[2].Key != KeyNone || !courses[2].Nullable {
		t.Fatalf("courses.title = %#v", courses[2])
	}
	if fk := first.Tables[1].Columns[1]; fk.Name != "course_id" || fk.Key != KeyForeign || fk.Nullable {
		t.Fatalf("enrollments.course_id = %#v", fk)
	}

	second, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("second Describe() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Describe() not stable: %#v vs %#v", first, second)
	}
}

func TestDescribeSQLiteListsViews(t *testing.T) {
	db, err := database.Open(context.Background(), database.Config{Dialect: database.DialectSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE students (id INTEGER PRIMARY KEY, name TEXT NOT NULL, active INTEGER)`,
		`CREATE VIEW active_students AS SELECT id, name FROM students WHERE active = 1`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}

	introspector, err := NewIntrospector(db, database.DialectSQLite, "main")
	if err != nil {
		t.Fatalf("NewIntrospector() error = %v", err)
	}
	desc, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(desc.Tables) != 2 || desc.Tables[0].Name != "active_students" || desc.Tables[1].Name != "students" {
		t.Fatalf("unexpected tables %#v", desc.Tables)
	}
	view := desc.Tables[0].Columns
	if len(view) != 2 || view[0].Name != "id" || view[1].Name != "name" {
		t.Fatalf("view columns = %#v", view)
	}
}

func TestRender(t *testing.T) {
	desc := Description{Tables: []Table{
		{Name: "courses", Columns: []Column{
			{Name: "id", DataType: "int", Key: KeyPrimary},
			{Name: "title", DataType: "varchar", Nullable: true},
		}},
		{Name: "enrollments", Columns: []Column{
			{Name: "course_id", DataType: "int", Key: KeyForeign},
			{Name: "code", DataType: "varchar", Nullable: true, Key: KeyUnique},
		}},
	}}
	want := "Table: courses\nColumns:\n  - id: int NOT NULL (PRI)\n  - title: varchar\n" +
		"\nTable: enrollments\nColumns:\n  - course_id: int NOT NULL (FK)\n  - code: varchar (UNI)\n"
	if got := Render(desc); got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
