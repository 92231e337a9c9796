// Package mock provides a scriptable inference backend plus helpers for
// building the synthetic model outputs the pipeline tests run against:
// detection probability maps, recognition logits, layout detection rows, and
// table structure token streams.
package mock

import (
	"fmt"
	"sync"

	"github.com/fakturo/glyph/internal/inference"
)

// RunFunc computes a scripted response for one Run call.
type RunFunc func(inputs []inference.NamedTensor) ([]inference.NamedTensor, error)

// Backend is an in-memory inference.Backend. Responses are either a fixed
// output set, a queue consumed call by call, or a RunFunc.
type Backend struct {
	Inputs  []string
	Outputs []string

	fixed []inference.NamedTensor
	queue [][]inference.NamedTensor
	fn    RunFunc
	err   error

	mu    sync.Mutex
	calls []([]inference.NamedTensor)
}

// New creates a backend with the given model input/output names.
func New(inputs, outputs []string) *Backend {
	return &Backend{Inputs: inputs, Outputs: outputs}
}

// Returning sets a fixed response for every Run call.
func (b *Backend) Returning(outputs ...inference.NamedTensor) *Backend {
	b.fixed = outputs
	return b
}

// Enqueue appends a response consumed by the next unanswered Run call.
func (b *Backend) Enqueue(outputs ...inference.NamedTensor) *Backend {
	b.queue = append(b.queue, outputs)
	return b
}

// Failing makes every Run call return err.
func (b *Backend) Failing(err error) *Backend {
	b.err = err
	return b
}

// OnRun installs a response function, overriding fixed/queued outputs.
func (b *Backend) OnRun(fn RunFunc) *Backend {
	b.fn = fn
	return b
}

// CallCount returns how many times Run was invoked.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// LastInputs returns the inputs of the most recent Run call, or nil.
func (b *Backend) LastInputs() []inference.NamedTensor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		return nil
	}
	return b.calls[len(b.calls)-1]
}

// InputNames implements inference.Backend.
func (b *Backend) InputNames() []string { return b.Inputs }

// OutputNames implements inference.Backend.
func (b *Backend) OutputNames() []string { return b.Outputs }

// Run implements inference.Backend.
func (b *Backend) Run(inputs []inference.NamedTensor) ([]inference.NamedTensor, error) {
	b.mu.Lock()
	b.calls = append(b.calls, inputs)
	n := len(b.calls)
	b.mu.Unlock()

	if b.err != nil {
		return nil, b.err
	}
	if b.fn != nil {
		return b.fn(inputs)
	}
	if len(b.queue) > 0 {
		if n > len(b.queue) {
			return nil, fmt.Errorf("mock backend exhausted after %d scripted responses", len(b.queue))
		}
		return b.queue[n-1], nil
	}
	if b.fixed != nil {
		return b.fixed, nil
	}
	return nil, fmt.Errorf("mock backend has no scripted response")
}
