// Package pgsql provides a sqlqueue.Backend for PostgreSQL-family servers
//
// statements are sent as a single simple-protocol query (pgconn), so every cell arrives in text format
// and is coerced by sqlqueue according to the column type
package pgsql

import (
	"context"
	"errors"
	"github.com/go-andiamo/sqlqueue"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
	"strings"
)

const driverName = "pgsql"

// Config is the connection configuration
type Config struct {
	// Connection is a connection string - either URL ("postgres://...") or keyword/value ("host=... dbname=...")
	Connection string
	// Encoding is the client encoding (defaults to "UTF8")
	Encoding string
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
		cfg:   cfg,
		types: pgtype.NewMap(),
	}
}

type backend struct {
	cfg   Config
	types *pgtype.Map
	conn  *pgconn.PgConn
}

var _ sqlqueue.Backend = (*backend)(nil)

func (b *backend) Name() string {
	return driverName
}

func (b *backend) Connect(ctx context.Context) error {
	pcfg, err := pgconn.ParseConfig(b.cfg.Connection)
	if err != nil {
		return err
	}
	encoding := b.cfg.Encoding
	if encoding == "" {
		encoding = "UTF8"
	}
	pcfg.RuntimeParams["client_encoding"] = encoding
	b.conn, err = pgconn.ConnectConfig(ctx, pcfg)
	return err
}

func (b *backend) BeginStatement(modes string) string {
	if modes != "" {
		return "BEGIN " + modes
	}
	return "BEGIN"
}

func (b *backend) Execute(ctx context.Context, batch string, wantResult bool) (*sqlqueue.RawResult, error) {
	results, err := b.conn.Exec(ctx, batch).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &sqlqueue.RawResult{}, nil
	}
	last := results[len(results)-1]
	if last.Err != nil {
		return nil, last.Err
	}
	if !wantResult {
		return &sqlqueue.RawResult{AffectedRows: last.CommandTag.RowsAffected()}, nil
	}
	return b.convert(last), nil
}

func (b *backend) convert(res *pgconn.Result) *sqlqueue.RawResult {
	result := &sqlqueue.RawResult{
		Columns:      make([]sqlqueue.Column, len(res.FieldDescriptions)),
		Rows:         make([][]any, len(res.Rows)),
		AffectedRows: res.CommandTag.RowsAffected(),
	}
	for i, fd := range res.FieldDescriptions {
		result.Columns[i] = sqlqueue.Column{
			Name:         fd.Name,
			DatabaseType: b.typeName(fd.DataTypeOID),
		}
	}
	for r, cells := range res.Rows {
		row := make([]any, len(cells))
		for i, cell := range cells {
			if cell != nil {
				row[i] = string(cell)
			}
		}
		result.Rows[r] = row
	}
	return result
}

func (b *backend) typeName(oid uint32) string {
	if t, ok := b.types.TypeForOID(oid); ok {
		return strings.ToUpper(t.Name)
	}
	return ""
}

func (b *backend) Escape(s string) string {
	return pq.QuoteLiteral(s)
}

func (b *backend) LastInsertId(ctx context.Context) (int64, error) {
	return 0, sqlqueue.ErrNoLastInsertId
}

func (b *backend) Close(ctx context.Context) error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close(ctx)
	b.conn = nil
	return err
}

// Translate extracts the SQL-state and message from *pgconn.PgError
func (b *backend) Translate(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		state := pgErr.Code
		if state == "" {
			state = sqlqueue.DefaultSQLState
		}
		return state, pgErr.Message
	}
	return sqlqueue.DefaultSQLState, err.Error()
}
