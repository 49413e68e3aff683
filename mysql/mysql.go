// Package mysql provides a sqlqueue.Backend for MySQL-family servers (MySQL, MariaDB, Percona)
//
// statements are sent as a single multi-statement text query over one pinned database/sql connection
// (the go-sql-driver/mysql driver with multiStatements enabled)
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"github.com/go-andiamo/sqlqueue"
	gomysql "github.com/go-sql-driver/mysql"
	"strconv"
	"strings"
)

const driverName = "mysql"

// Config is the connection configuration
type Config struct {
	Host     string
	Port     int
	Socket   string
	Username string
	Password string
	Database string
	// Charset defaults to "utf8mb4"
	Charset string
	// Params are any additional DSN parameters
	Params map[string]string
}

// DSN builds the go-sql-driver/mysql data source name for the config
//
// multi statements are always enabled
func (c Config) DSN() string {
	cfg := gomysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	if c.Socket != "" {
		cfg.Net = "unix"
		cfg.Addr = c.Socket
	} else {
		host := c.Host
		if host == "" {
			host = "localhost"
		}
		port := c.Port
		if port == 0 {
			port = 3306
		}
		cfg.Net = "tcp"
		cfg.Addr = host + ":" + strconv.Itoa(port)
	}
	cfg.MultiStatements = true
	cfg.Params = map[string]string{}
	for k, v := range c.Params {
		cfg.Params[k] = v
	}
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	cfg.Params["charset"] = charset
	return cfg.FormatDSN()
}

// Open creates a sqlqueue.Driver for the config - the connection is not made until first needed
//
// options are passed to sqlqueue.New
func Open(cfg Config, options ...any) (*sqlqueue.Driver, error) {
	return sqlqueue.New(NewBackend(cfg), options...)
}

// NewBackend creates a new (unconnected) backend for the config
func NewBackend(cfg Config) sqlqueue.Backend {
	return &backend{
		open: func() (*sql.DB, error) {
			return sql.Open(driverName, cfg.DSN())
		},
	}
}

// NewBackendWithDB creates a backend that takes its connection from an existing *sql.DB
//
// the *sql.DB must have been opened with multi statements enabled, and is closed when the backend is closed
func NewBackendWithDB(db *sql.DB) sqlqueue.Backend {
	return &backend{
		open: func() (*sql.DB, error) {
			return db, nil
		},
	}
}

type backend struct {
	open               func() (*sql.DB, error)
	db                 *sql.DB
	conn               *sql.Conn
	noBackslashEscapes bool
}

var _ sqlqueue.Backend = (*backend)(nil)

func (b *backend) Name() string {
	return driverName
}

func (b *backend) Connect(ctx context.Context) (err error) {
	if b.db, err = b.open(); err == nil {
		b.db.SetMaxOpenConns(1)
		if b.conn, err = b.db.Conn(ctx); err == nil {
			if err = b.readSQLMode(ctx); err == nil {
				return nil
			}
			_ = b.conn.Close()
			b.conn = nil
		}
		_ = b.db.Close()
		b.db = nil
	}
	return err
}

// readSQLMode also serves as the connection check
func (b *backend) readSQLMode(ctx context.Context) error {
	var mode string
	if err := b.conn.QueryRowContext(ctx, "SELECT @@SESSION.sql_mode").Scan(&mode); err != nil {
		return err
	}
	b.noBackslashEscapes = false
	for _, m := range strings.Split(mode, ",") {
		if strings.EqualFold(strings.TrimSpace(m), "NO_BACKSLASH_ESCAPES") {
			b.noBackslashEscapes = true
		}
	}
	return nil
}

func (b *backend) BeginStatement(modes string) string {
	if modes != "" {
		return "SET TRANSACTION " + modes + "; START TRANSACTION"
	}
	return "START TRANSACTION"
}

func (b *backend) Execute(ctx context.Context, batch string, wantResult bool) (*sqlqueue.RawResult, error) {
	if !wantResult {
		res, err := b.conn.ExecContext(ctx, batch)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		return &sqlqueue.RawResult{AffectedRows: affected}, nil
	}
	result, err := b.query(ctx, batch)
	if err != nil {
		return nil, err
	}
	// the driver skips column-less result sets, so the last one read may not belong to the final statement -
	// ROW_COUNT() is -1 only when the final statement returned rows
	var count int64
	if err = b.conn.QueryRowContext(ctx, "SELECT ROW_COUNT()").Scan(&count); err != nil {
		return nil, err
	}
	if count >= 0 {
		return &sqlqueue.RawResult{AffectedRows: count}, nil
	}
	return result, nil
}

// query drains every result set of the batch and returns the last one
func (b *backend) query(ctx context.Context, batch string) (result *sqlqueue.RawResult, err error) {
	rows, err := b.conn.QueryContext(ctx, batch)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	for {
		if result, err = readResultSet(rows); err != nil {
			return nil, err
		}
		if !rows.NextResultSet() {
			break
		}
	}
	return result, rows.Err()
}

func readResultSet(rows *sql.Rows) (*sqlqueue.RawResult, error) {
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	result := &sqlqueue.RawResult{
		Columns: make([]sqlqueue.Column, len(cts)),
	}
	for i, ct := range cts {
		result.Columns[i] = sqlqueue.Column{
			Name:         ct.Name(),
			DatabaseType: strings.ToUpper(ct.DatabaseTypeName()),
		}
	}
	for rows.Next() {
		values := make([]any, len(cts))
		scanArgs := make([]any, len(cts))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err = rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, values)
	}
	result.AffectedRows = int64(len(result.Rows))
	return result, rows.Err()
}

func (b *backend) Escape(s string) string {
	if b.noBackslashEscapes {
		return "'" + escapeStringQuotes(s) + "'"
	}
	return "'" + escapeString(s) + "'"
}

func (b *backend) LastInsertId(ctx context.Context) (id int64, err error) {
	err = b.conn.QueryRowContext(ctx, "SELECT LAST_INSERT_ID()").Scan(&id)
	return id, err
}

func (b *backend) Close(ctx context.Context) error {
	var err error
	if b.conn != nil {
		err = b.conn.Close()
		b.conn = nil
	}
	if b.db != nil {
		err = errors.Join(err, b.db.Close())
		b.db = nil
	}
	return err
}

// Translate extracts the SQL-state and message from *mysql.MySQLError
func (b *backend) Translate(err error) (string, string) {
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		state := string(myErr.SQLState[:])
		if myErr.SQLState == [5]byte{} {
			state = sqlqueue.DefaultSQLState
		}
		return state, myErr.Message
	}
	if errors.Is(err, gomysql.ErrInvalidConn) {
		return "08S01", err.Error()
	}
	return sqlqueue.DefaultSQLState, err.Error()
}

// escapeString escapes s in the same way as mysql_real_escape_string (with backslash escapes enabled)
func escapeString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + len(s)/8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			sb.WriteString(`\0`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '"':
			sb.WriteString(`\"`)
		case '\032':
			sb.WriteString(`\Z`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// escapeStringQuotes escapes s for sessions with NO_BACKSLASH_ESCAPES in sql_mode - only single quotes are escaped (doubled)
func escapeStringQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
