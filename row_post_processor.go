package sqlqueue

// RowPostProcessor is an interface that can be passed as an option to New, or to Result.PostProcess
//
// post processors are called, in order, with every associative row after it has been fetched (and after
// any column exclusions) - they may add, alter or remove keys
type RowPostProcessor interface {
	PostProcess(row map[string]any) error
}
