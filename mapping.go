package sqlqueue

// Mapping customises how a single column is fetched
type Mapping struct {
	// PropertyName is the key to use in associative and object rows (if not an empty string) - overrides the column name
	PropertyName string
	// Scanner is an optional ColumnScanner that replaces the coercion derived from the column type
	Scanner ColumnScanner
}

// Mappings is a map of Mapping by column name
//
// can be passed as an option to New (applies to every Result) or to Result.Map
type Mappings map[string]Mapping
