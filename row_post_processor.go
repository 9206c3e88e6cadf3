package persistence

// RowPostProcessor is an interface that can be passed as an option to NewStructMapper
//
// Any RowPostProcessor(s) passed to NewStructMapper are executed, in order, after the row is mapped
type RowPostProcessor[T any] interface {
	PostProcess(row Row, value *T) error
}

// RowPostProcessorFunc is a func that implements RowPostProcessor
type RowPostProcessorFunc[T any] func(row Row, value *T) error

func (f RowPostProcessorFunc[T]) PostProcess(row Row, value *T) error {
	return f(row, value)
}
