// Package inference abstracts model execution behind a small capability
// interface so the detection, recognition, layout, and table logic stays
// runtime-agnostic. The shipped adapter runs ONNX Runtime; tests use the
// scriptable backend in the mock subpackage.
package inference

// Backend executes a loaded model: named input tensors in, named output
// tensors out. A single Run call is synchronous and blocking.
//
// Implementations must either be internally synchronized (the ONNX Runtime
// adapter guards its session with a mutex) or be documented as requiring
// external serialization of concurrent Run calls.
type Backend interface {
	Run(inputs []NamedTensor) ([]NamedTensor, error)

	// InputNames returns the input names expected by the model, in order.
	InputNames() []string

	// OutputNames returns the output names produced by the model, in order.
	OutputNames() []string
}

// Closer is implemented by backends holding native resources.
type Closer interface {
	Close() error
}
