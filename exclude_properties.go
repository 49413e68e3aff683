package sqlqueue

// ColumnExclusion can be passed as an option to New, or to Result.Exclude
//
// excluded columns are omitted from associative and object rows (and from WriteJSON) - numeric rows always
// carry every column
type ColumnExclusion interface {
	// Exclude should return true if the column is to be excluded
	Exclude(column string) bool
}

type ColumnExclusions []ColumnExclusion

func (xs ColumnExclusions) Exclude(column string) bool {
	for _, x := range xs {
		if x.Exclude(column) {
			return true
		}
	}
	return false
}

// ExcludeColumns is a ColumnExclusion that excludes the listed columns
type ExcludeColumns []string

func (xc ExcludeColumns) Exclude(column string) bool {
	for _, c := range xc {
		if c == column {
			return true
		}
	}
	return false
}

// AllowedColumns is a ColumnExclusion that excludes every column not listed
type AllowedColumns []string

func (ac AllowedColumns) Exclude(column string) bool {
	return !ExcludeColumns(ac).Exclude(column)
}

// ExcludeColumnFunc adapts a func to a ColumnExclusion
type ExcludeColumnFunc func(column string) bool

func (f ExcludeColumnFunc) Exclude(column string) bool {
	return f(column)
}

var (
	_ ColumnExclusion = ColumnExclusions{}
	_ ColumnExclusion = ExcludeColumns{}
	_ ColumnExclusion = AllowedColumns{}
	_ ColumnExclusion = ExcludeColumnFunc(nil)
)
