package sqlqueue

// RowPostProcessorFunc adapts a func to a RowPostProcessor
type RowPostProcessorFunc func(row map[string]any) error

var _ RowPostProcessor = RowPostProcessorFunc(nil)

func (f RowPostProcessorFunc) PostProcess(row map[string]any) error {
	return f(row)
}
