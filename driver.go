package sqlqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Driver queues statements and executes them against a Backend in batches - one round trip per batch
//
// Driver tracks whether a transaction is open (as of the last executed batch) and connects lazily,
// on the first operation that needs the server
//
// a Driver is not safe for concurrent use
type Driver struct {
	resultOptions
	backend       Backend
	queue         []statement
	inTransaction bool
	connected     bool
	connectErr    error
	closed        bool
	limiter       Limiter
	profiler      Profiler
	metrics       *Metrics
	logger        *slog.Logger
}

// New creates a new Driver for the supplied Backend
//
// options can be any of: Limiter (e.g. QueueLimit), Profiler, *Metrics, *slog.Logger, UseDecimals, Mappings,
// ColumnExclusion or RowPostProcessor
func New(backend Backend, options ...any) (*Driver, error) {
	if backend == nil {
		return nil, errors.New("backend must not be nil")
	}
	d := &Driver{
		resultOptions: resultOptions{
			useDecimals: true,
			mappings:    Mappings{},
		},
		backend: backend,
		limiter: QueueLimit(DefaultQueueLimit),
		metrics: NewMetrics(),
		logger:  slog.Default(),
	}
	if err := d.addOptions(options...); err != nil {
		return nil, err
	}
	return d, nil
}

// MustNew is the same as New, except it panics on error
func MustNew(backend Backend, options ...any) *Driver {
	d, err := New(backend, options...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Driver) addOptions(options ...any) error {
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Profiler:
				d.profiler = option
			case func(time.Duration, []string):
				d.profiler = option
			case *Metrics:
				d.metrics = option
			case *slog.Logger:
				d.logger = option
			case UseDecimals:
				d.useDecimals = bool(option)
			case Mappings:
				for k, v := range option {
					d.mappings[k] = v
				}
			case Limiter:
				d.limiter = option
			case ColumnExclusion:
				d.exclusions = append(d.exclusions, option)
			case RowPostProcessor:
				d.postProcessors = append(d.postProcessors, option)
			default:
				return fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return nil
}

// Queue adds statements to the queue
//
// the queue is flushed (executed) only if the Limiter says it is full
func (d *Driver) Queue(ctx context.Context, statements ...string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.push(regularStatement, statements...)
	if d.limiter.LimitReached(len(d.queue)) {
		_, err := d.execute(ctx, false)
		return err
	}
	return nil
}

// Query adds statements to the queue, executes the queue and returns the result of the final statement
//
// if there was nothing to execute, an empty Result is returned
func (d *Driver) Query(ctx context.Context, statements ...string) (*Result, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	d.push(regularStatement, statements...)
	return d.execute(ctx, true)
}

// Flush executes all queued statements
func (d *Driver) Flush(ctx context.Context) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	_, err := d.execute(ctx, false)
	return err
}

// Begin starts a transaction
//
// anything already queued is executed first, and a transaction left open by a previous batch is rolled back -
// the BEGIN statement itself is only queued
func (d *Driver) Begin(ctx context.Context, modes ...Isolation) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if _, err := d.execute(ctx, false); err != nil {
		return err
	}
	if d.inTransaction {
		if err := d.Rollback(ctx); err != nil {
			return err
		}
	}
	ms := make([]string, 0, len(modes))
	for _, m := range modes {
		if m != "" {
			ms = append(ms, string(m))
		}
	}
	d.queue = append(d.queue, statement{kind: beginStatement, text: d.backend.BeginStatement(strings.Join(ms, ", "))})
	return nil
}

// Commit commits the transaction and executes the queue
//
// if nothing was queued since Begin, the BEGIN is dropped and nothing is sent to the server
func (d *Driver) Commit(ctx context.Context) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if n := len(d.queue); n > 0 && d.queue[n-1].kind == beginStatement {
		d.queue = d.queue[:n-1]
	} else {
		d.queue = append(d.queue, statement{kind: commitStatement, text: "COMMIT"})
	}
	_, err := d.execute(ctx, false)
	return err
}

// Rollback rolls back the transaction and executes the queue
//
// unlike Commit, a rollback is always sent to the server
func (d *Driver) Rollback(ctx context.Context) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.queue = append(d.queue, statement{kind: rollbackStatement, text: "ROLLBACK"})
	_, err := d.execute(ctx, false)
	return err
}

// RollbackTo rolls back to the named savepoint and executes the queue
//
// the transaction stays open
func (d *Driver) RollbackTo(ctx context.Context, savepoint string) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.push(regularStatement, "ROLLBACK TO "+savepoint)
	_, err := d.execute(ctx, false)
	return err
}

// Savepoint queues a SAVEPOINT statement
func (d *Driver) Savepoint(ctx context.Context, name string) error {
	return d.Queue(ctx, "SAVEPOINT "+name)
}

// LastInsertId returns the id generated by the most recent insert
//
// returns ErrNoLastInsertId if the backend cannot supply it
func (d *Driver) LastInsertId(ctx context.Context) (int64, error) {
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	if err := d.ensureConnected(ctx); err != nil {
		return 0, err
	}
	id, err := d.backend.LastInsertId(ctx)
	if errors.Is(err, ErrNoLastInsertId) {
		return 0, err
	}
	return id, translateError(err, StatementError, d.backend.Name(), d.backend)
}

// Close rolls back an open transaction (ignoring any error), discards anything still queued and closes the connection
//
// any further use of the Driver returns ErrClosed
func (d *Driver) Close(ctx context.Context) error {
	if d.closed {
		return nil
	}
	if d.inTransaction {
		if err := d.Rollback(ctx); err != nil {
			d.logger.Warn("rollback on close failed", "driver", d.backend.Name(), "error", err)
		}
	} else if n := len(d.queue); n > 0 {
		d.logger.Warn("discarding queued statements on close", "driver", d.backend.Name(), "statements", n)
	}
	d.queue = nil
	d.closed = true
	if d.connected {
		return translateError(d.backend.Close(ctx), ConnectionError, d.backend.Name(), d.backend)
	}
	return nil
}

// InTransaction reports whether a transaction was left open by the last executed batch
func (d *Driver) InTransaction() bool {
	return d.inTransaction
}

// Pending returns the number of queued (not yet executed) statements
func (d *Driver) Pending() int {
	return len(d.queue)
}

// Timer returns the total time spent executing batches
func (d *Driver) Timer() time.Duration {
	return d.metrics.Elapsed()
}

// Counter returns the number of executed batches
func (d *Driver) Counter() int {
	return d.metrics.Batches()
}

// Metrics returns the metrics the driver records into
func (d *Driver) Metrics() *Metrics {
	return d.metrics
}

func (d *Driver) push(kind statementKind, statements ...string) {
	for _, s := range statements {
		d.queue = append(d.queue, statement{kind: kind, text: s})
	}
}

func (d *Driver) checkOpen() error {
	if d.closed {
		return ErrClosed
	}
	return nil
}

func (d *Driver) ensureConnected(ctx context.Context) error {
	if d.connected {
		return nil
	}
	if d.connectErr != nil {
		return d.connectErr
	}
	if err := d.backend.Connect(ctx); err != nil {
		d.connectErr = translateError(err, ConnectionError, d.backend.Name(), d.backend)
		if e, ok := d.connectErr.(*Error); ok {
			e.Kind = ConnectionError
		}
		return d.connectErr
	}
	d.connected = true
	return nil
}

// execute sends the whole queue to the backend as a single batch
func (d *Driver) execute(ctx context.Context, wantResult bool) (result *Result, err error) {
	if len(d.queue) == 0 {
		if wantResult {
			return newResult(d.backend.Name(), nil, d.resultOptions), nil
		}
		return nil, nil
	}
	if err = d.ensureConnected(ctx); err != nil {
		return nil, err
	}
	inTransaction, sawBegin := d.inTransaction, false
	texts := make([]string, len(d.queue))
	for i, s := range d.queue {
		switch s.kind {
		case beginStatement:
			inTransaction, sawBegin = true, true
		case commitStatement, rollbackStatement:
			inTransaction = false
		}
		texts[i] = s.text
	}
	// cleared before dispatch - a failed batch is never replayed
	d.queue = nil
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		d.metrics.record(elapsed)
		if d.profiler != nil {
			d.profiler(elapsed, texts)
		}
		d.logger.Debug("batch executed", "driver", d.backend.Name(), "statements", len(texts), "elapsed", elapsed, "error", err)
	}()
	raw, xerr := d.backend.Execute(ctx, strings.Join(texts, StatementSeparator), wantResult)
	if xerr != nil {
		d.inTransaction = d.inTransaction || sawBegin
		return nil, translateError(xerr, StatementError, d.backend.Name(), d.backend)
	}
	d.inTransaction = inTransaction
	if wantResult {
		result = newResult(d.backend.Name(), raw, d.resultOptions)
	}
	return result, nil
}
