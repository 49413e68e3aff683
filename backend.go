package sqlqueue

import "context"

// Backend is the capability a Driver needs from a concrete database client
//
// a Backend owns exactly one connection - it is created lazily by Connect and released by Close
type Backend interface {
	ErrorTranslator
	// Name is the driver name used in error messages (e.g. "mysql")
	Name() string
	// Connect establishes the connection
	//
	// called at most once per Backend by the Driver
	Connect(ctx context.Context) error
	// BeginStatement returns the statement text that opens a transaction
	//
	// modes is the comma separated transaction modes (e.g. "ISOLATION LEVEL SERIALIZABLE"), or empty
	BeginStatement(modes string) string
	// Execute runs the statements of batch (joined by "; ") in one round trip
	//
	// when wantResult is true, the returned RawResult describes the final statement of the batch
	Execute(ctx context.Context, batch string, wantResult bool) (*RawResult, error)
	// Escape returns s as a quoted string literal, safe for interpolation into SQL text
	Escape(s string) string
	// LastInsertId returns the id generated by the most recent insert on the connection
	//
	// backends that cannot supply this return ErrNoLastInsertId
	LastInsertId(ctx context.Context) (int64, error)
	// Close releases the connection
	Close(ctx context.Context) error
}

// Column describes a result column as reported by the backend
type Column struct {
	// Name is the column name (or alias)
	Name string
	// DatabaseType is the backend type name, upper-cased (e.g. "BIGINT", "JSONB", "UNSIGNED INT")
	DatabaseType string
}

// RawResult is the backend-native outcome of a batch, before any type coercion
type RawResult struct {
	Columns []Column
	// Rows holds raw cells - typically []byte or string, sometimes native scalars, nil for NULL
	Rows         [][]any
	AffectedRows int64
}
