package sqlqueue

// StatementSeparator joins the statements of a batch
const StatementSeparator = "; "

type statementKind int

const (
	regularStatement statementKind = iota
	beginStatement
	commitStatement
	rollbackStatement
)

// statement is a queued statement
//
// kind is metadata only - text already holds the SQL for begin/commit/rollback
type statement struct {
	kind statementKind
	text string
}

// Isolation is a transaction mode that can be passed to Driver.Begin
//
// modes are placed verbatim after BEGIN (Postgres) or SET TRANSACTION (MySQL)
type Isolation string

const (
	ReadUncommitted Isolation = "ISOLATION LEVEL READ UNCOMMITTED"
	ReadCommitted   Isolation = "ISOLATION LEVEL READ COMMITTED"
	RepeatableRead  Isolation = "ISOLATION LEVEL REPEATABLE READ"
	Serializable    Isolation = "ISOLATION LEVEL SERIALIZABLE"
	ReadOnly        Isolation = "READ ONLY"
	ReadWrite       Isolation = "READ WRITE"
)
