package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chatdb/chatdb/internal/config"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

const memoryDSN = ":memory:"

type Config struct {
	Dialect         Dialect
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	MultiStatements bool
}

// FromConfig maps the service configuration onto a pool configuration.
func FromConfig(cfg config.DatabaseConfig) (Config, error) {
	dialect, err := ParseDialect(cfg.Dialect)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Dialect:         dialect,
		DSN:             cfg.DSN,
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Name:            cfg.Name,
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectTimeout:  cfg.ConnectTimeout,
	}, nil
}

// BuildDSN returns cfg.DSN when set and otherwise assembles a driver specific
// connection string from the individual fields.
func (cfg Config) BuildDSN() (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		if cfg.Dialect == DialectMySQL && cfg.MultiStatements {
			mc, err := mysql.ParseDSN(dsn)
			if err != nil {
				return "", fmt.Errorf("parse mysql dsn: %w", err)
			}
			mc.MultiStatements = true
			return mc.FormatDSN(), nil
		}
		return dsn, nil
	}
	switch cfg.Dialect {
	case DialectMySQL:
		if cfg.Name == "" {
			return "", fmt.Errorf("database name is required")
		}
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(hostOr(cfg.Host), strconv.Itoa(portOr(cfg.Port, 3306)))
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Timeout = cfg.ConnectTimeout
		mc.MultiStatements = cfg.MultiStatements
		return mc.FormatDSN(), nil
	case DialectPostgres:
		if cfg.Name == "" {
			return "", fmt.Errorf("database name is required")
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(hostOr(cfg.Host), strconv.Itoa(portOr(cfg.Port, 5432))),
			Path:   "/" + cfg.Name,
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		if cfg.ConnectTimeout > 0 {
			u.RawQuery = url.Values{"connect_timeout": {strconv.Itoa(int(cfg.ConnectTimeout.Seconds()))}}.Encode()
		}
		return u.String(), nil
	case DialectSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("database path is required for sqlite")
		}
		return cfg.Path, nil
	case DialectDuckDB:
		return cfg.Path, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}
}

// Catalog is the schema to introspect: the configured override, else the
// dialect default. For mysql the database name may come from the DSN.
func (cfg Config) Catalog(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	name := cfg.Name
	if name == "" && cfg.Dialect == DialectMySQL && cfg.DSN != "" {
		if mc, err := mysql.ParseDSN(strings.TrimSpace(cfg.DSN)); err == nil {
			name = mc.DBName
		}
	}
	return cfg.Dialect.DefaultCatalog(name)
}

// Open creates the bounded connection pool and verifies it with a ping.
// Callers beyond MaxOpenConns wait for a free connection instead of failing.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.Dialect == DialectPostgres {
		connConfig, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		db = stdlib.OpenDB(*connConfig)
	} else {
		db, err = sql.Open(cfg.Dialect.DriverName(), dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s db: %w", cfg.Dialect, err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	// every sqlite connection to :memory: is a separate database
	if cfg.Dialect == DialectSQLite && dsn == memoryDSN {
		db.SetMaxOpenConns(1)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", cfg.Dialect, err)
	}

	return db, nil
}

// Ping adapts a pool to the readiness check signature.
func Ping(db *sql.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if db == nil {
			return fmt.Errorf("database not connected")
		}
		return db.PingContext(ctx)
	}
}

func hostOr(host string) string {
	if strings.TrimSpace(host) == "" {
		return "localhost"
	}
	return host
}

func portOr(port, fallback int) int {
	if port <= 0 {
		return fallback
	}
	return port
}
