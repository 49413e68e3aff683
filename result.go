package sqlqueue

import (
	"encoding/json"
	"io"
)

// FetchMode selects the shape of rows returned by Result.FetchAll
type FetchMode int

const (
	// Associative rows are map[string]any keyed by column name
	Associative FetchMode = iota
	// Numeric rows are []any in column order
	Numeric
	// Object rows are *Record
	Object
)

// Result is the materialized outcome of the final statement of an executed batch
//
// all rows are buffered, so NumRows is known up front and Seek is always supported
type Result struct {
	resultOptions
	driverName  string
	rawColumns  []Column
	jsonColumns []string
	columns     *columnsInfo
	hidden      []bool
	anyHidden   bool
	rows        [][]any
	affected    int64
	cursor      int
}

// resultOptions are the Driver options that carry through to every Result
type resultOptions struct {
	useDecimals    bool
	mappings       Mappings
	exclusions     ColumnExclusions
	postProcessors []RowPostProcessor
}

func newResult(driverName string, raw *RawResult, opts resultOptions) *Result {
	if raw == nil {
		raw = &RawResult{}
	}
	r := &Result{
		resultOptions: opts,
		driverName:    driverName,
		rawColumns:    raw.Columns,
		rows:          raw.Rows,
		affected:      raw.AffectedRows,
	}
	r.refresh()
	return r
}

func (r *Result) refresh() {
	r.columns = newColumnsInfo(r.rawColumns, r.useDecimals, r.mappings)
	r.columns.markJSON(r.jsonColumns...)
	r.hidden = make([]bool, r.columns.count)
	r.anyHidden = false
	for i, name := range r.columns.names {
		if r.exclusions.Exclude(name) {
			r.hidden[i] = true
			r.anyHidden = true
		}
	}
}

// Map applies additional column mappings (overriding any existing mapping for the same column)
func (r *Result) Map(mappings Mappings) *Result {
	merged := make(Mappings, len(r.mappings)+len(mappings))
	for k, v := range r.mappings {
		merged[k] = v
	}
	for k, v := range mappings {
		merged[k] = v
	}
	r.mappings = merged
	r.refresh()
	return r
}

// JSON marks the named columns as JSON, so that their values are decoded on fetch
//
// a column with a Mapping Scanner keeps that Scanner
func (r *Result) JSON(columns ...string) *Result {
	r.jsonColumns = append(r.jsonColumns, columns...)
	r.columns.markJSON(columns...)
	return r
}

// Exclude omits columns from associative and object rows
func (r *Result) Exclude(exclusions ...ColumnExclusion) *Result {
	r.exclusions = append(append(ColumnExclusions{}, r.exclusions...), exclusions...)
	r.refresh()
	return r
}

// PostProcess adds post processors that are called with every associative row
func (r *Result) PostProcess(processors ...RowPostProcessor) *Result {
	r.postProcessors = append(append([]RowPostProcessor{}, r.postProcessors...), processors...)
	return r
}

// Columns returns the column names
func (r *Result) Columns() []string {
	return append([]string{}, r.columns.names...)
}

// ColumnTypes returns the coercion tag of each column
func (r *Result) ColumnTypes() []ColumnType {
	return append([]ColumnType{}, r.columns.types...)
}

// NumRows returns the number of rows in the result set (regardless of how many have been fetched)
func (r *Result) NumRows() int {
	return len(r.rows)
}

// AffectedRows returns the server reported number of rows affected by the final statement
func (r *Result) AffectedRows() int64 {
	return r.affected
}

// Seek moves the cursor so that the next fetch returns the row at position (zero based)
func (r *Result) Seek(position int) error {
	if position < 0 || (position >= len(r.rows) && position != 0) {
		return newError(MisuseError, r.driverName, nil, "seek position %d out of range (%d rows)", position, len(r.rows))
	}
	r.cursor = position
	return nil
}

// FetchRow fetches the next row as values in column order
//
// returns ErrNoMoreRows when there are no more rows
func (r *Result) FetchRow() ([]any, error) {
	if r.cursor >= len(r.rows) {
		return nil, ErrNoMoreRows
	}
	row, err := r.columns.convert(r.rows[r.cursor])
	if err != nil {
		return nil, r.withDriver(err)
	}
	r.cursor++
	return row, nil
}

// FetchAssoc fetches the next row keyed by column name (or mapped property name)
//
// returns ErrNoMoreRows when there are no more rows
func (r *Result) FetchAssoc() (map[string]any, error) {
	row, err := r.FetchRow()
	if err != nil {
		return nil, err
	}
	return r.assoc(row)
}

// FetchObject fetches the next row as a Record
//
// returns ErrNoMoreRows when there are no more rows
func (r *Result) FetchObject() (*Record, error) {
	row, err := r.FetchRow()
	if err != nil {
		return nil, err
	}
	return r.record(row), nil
}

// FetchColumn fetches a single column of the next row
//
// returns ErrNoMoreRows when there are no more rows
func (r *Result) FetchColumn(index int) (any, error) {
	if err := r.checkColumnIndex(index); err != nil {
		return nil, err
	}
	row, err := r.FetchRow()
	if err != nil {
		return nil, err
	}
	return row[index], nil
}

// FetchAllColumns fetches a single column of every remaining row
func (r *Result) FetchAllColumns(index int) ([]any, error) {
	if err := r.checkColumnIndex(index); err != nil {
		return nil, err
	}
	result := make([]any, 0, r.remaining())
	for {
		v, err := r.FetchColumn(index)
		if err == ErrNoMoreRows {
			return result, nil
		} else if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
}

// FetchAll fetches every remaining row in the given shape (Associative if no mode is given)
//
// each element of the result is a []any (Numeric), map[string]any (Associative) or *Record (Object)
func (r *Result) FetchAll(mode ...FetchMode) ([]any, error) {
	useMode := Associative
	if len(mode) > 0 {
		useMode = mode[0]
	}
	result := make([]any, 0, r.remaining())
	err := r.each(func(row []any) (bool, error) {
		item, err := r.shape(row, useMode)
		if err != nil {
			return false, err
		}
		result = append(result, item)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchAllAssoc fetches every remaining row keyed by column name
func (r *Result) FetchAllAssoc() ([]map[string]any, error) {
	result := make([]map[string]any, 0, r.remaining())
	err := r.each(func(row []any) (bool, error) {
		item, err := r.assoc(row)
		if err != nil {
			return false, err
		}
		result = append(result, item)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchAllRows fetches every remaining row as values in column order
func (r *Result) FetchAllRows() ([][]any, error) {
	result := make([][]any, 0, r.remaining())
	err := r.each(func(row []any) (bool, error) {
		result = append(result, row)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Iterate calls the supplied handler with each remaining row (keyed by column name)
//
// iteration stops at the end of rows - or an error is encountered - or the supplied handler returns false for `cont` (continue)
func (r *Result) Iterate(handler func(row map[string]any) (cont bool, err error)) error {
	return r.each(func(row []any) (bool, error) {
		item, err := r.assoc(row)
		if err != nil {
			return false, err
		}
		return handler(item)
	})
}

// WriteJSON writes every remaining row (keyed by column name) as a JSON array to the supplied writer
func (r *Result) WriteJSON(writer io.Writer) (err error) {
	if _, err = writer.Write([]byte("[")); err == nil {
		jw := json.NewEncoder(writer)
		first := true
		err = r.each(func(row []any) (bool, error) {
			if !first {
				if _, err := writer.Write([]byte(",")); err != nil {
					return false, err
				}
			}
			first = false
			item, err := r.assoc(row)
			if err != nil {
				return false, err
			}
			return true, jw.Encode(item)
		})
		if err == nil {
			_, err = writer.Write([]byte("]"))
		}
	}
	return err
}

func (r *Result) each(fn func(row []any) (bool, error)) error {
	for {
		row, err := r.FetchRow()
		if err == ErrNoMoreRows {
			return nil
		} else if err != nil {
			return err
		}
		if cont, err := fn(row); err != nil || !cont {
			return err
		}
	}
}

// shape converts a coerced row into the output shape selected by mode
func (r *Result) shape(row []any, mode FetchMode) (any, error) {
	switch mode {
	case Numeric:
		return row, nil
	case Object:
		return r.record(row), nil
	}
	return r.assoc(row)
}

func (r *Result) assoc(row []any) (map[string]any, error) {
	m := make(map[string]any, len(row))
	for i, v := range row {
		if !r.hidden[i] {
			m[r.columns.keys[i]] = v
		}
	}
	for _, pp := range r.postProcessors {
		if err := pp.PostProcess(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *Result) record(row []any) *Record {
	if !r.anyHidden {
		return &Record{names: r.columns.keys, values: row}
	}
	rec := &Record{}
	for i, v := range row {
		if !r.hidden[i] {
			rec.names = append(rec.names, r.columns.keys[i])
			rec.values = append(rec.values, v)
		}
	}
	return rec
}

func (r *Result) remaining() int {
	if n := len(r.rows) - r.cursor; n > 0 {
		return n
	}
	return 0
}

func (r *Result) checkColumnIndex(index int) error {
	if index < 0 || index >= r.columns.count {
		return newError(MisuseError, r.driverName, nil, "column index %d out of range (%d columns)", index, r.columns.count)
	}
	return nil
}

func (r *Result) withDriver(err error) error {
	if e, ok := err.(*Error); ok && e.Driver == "" {
		e.Driver = r.driverName
	}
	return err
}
