package inference

import (
	"errors"
	"fmt"
)

// DType identifies the element type of a tensor. The set is closed: every
// consumer switches over it and rejects kinds it cannot handle.
type DType int

const (
	Float32 DType = iota
	Float64
	Int32
	Int64
	Uint8
)

// String returns the dtype name.
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// Tensor is a multi-dimensional numeric array tagged by exactly one element
// type. Data layout is row-major; image tensors use NCHW. The shape is exact
// and never reinterpreted after construction.
type Tensor struct {
	dtype DType
	shape []int64

	f32 []float32
	f64 []float64
	i32 []int32
	i64 []int64
	u8  []uint8
}

// NamedTensor pairs a tensor with the model input/output name it binds to.
type NamedTensor struct {
	Name   string
	Tensor Tensor
}

// ElemCount returns the number of elements implied by a shape.
func ElemCount(shape []int64) int {
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

func validate(shape []int64, length int) error {
	if len(shape) == 0 {
		return errors.New("empty tensor shape")
	}
	// Zero-sized dimensions are allowed: detection models emit [0,6]
	// outputs for empty pages.
	for i, d := range shape {
		if d < 0 {
			return fmt.Errorf("dimension %d must be >= 0, got %d", i, d)
		}
	}
	if n := ElemCount(shape); n != length {
		return fmt.Errorf("data length %d does not match shape %v (%d elements)", length, shape, n)
	}
	return nil
}

func cloneShape(shape []int64) []int64 {
	out := make([]int64, len(shape))
	copy(out, shape)
	return out
}

// NewFloat32 constructs a float32 tensor, validating data length against shape.
func NewFloat32(data []float32, shape ...int64) (Tensor, error) {
	if err := validate(shape, len(data)); err != nil {
		return Tensor{}, err
	}
	return Tensor{dtype: Float32, shape: cloneShape(shape), f32: data}, nil
}

// NewFloat64 constructs a float64 tensor.
func NewFloat64(data []float64, shape ...int64) (Tensor, error) {
	if err := validate(shape, len(data)); err != nil {
		return Tensor{}, err
	}
	return Tensor{dtype: Float64, shape: cloneShape(shape), f64: data}, nil
}

// NewInt32 constructs an int32 tensor.
func NewInt32(data []int32, shape ...int64) (Tensor, error) {
	if err := validate(shape, len(data)); err != nil {
		return Tensor{}, err
	}
	return Tensor{dtype: Int32, shape: cloneShape(shape), i32: data}, nil
}

// NewInt64 constructs an int64 tensor.
func NewInt64(data []int64, shape ...int64) (Tensor, error) {
	if err := validate(shape, len(data)); err != nil {
		return Tensor{}, err
	}
	return Tensor{dtype: Int64, shape: cloneShape(shape), i64: data}, nil
}

// NewUint8 constructs a uint8 tensor.
func NewUint8(data []uint8, shape ...int64) (Tensor, error) {
	if err := validate(shape, len(data)); err != nil {
		return Tensor{}, err
	}
	return Tensor{dtype: Uint8, shape: cloneShape(shape), u8: data}, nil
}

// DType returns the element type tag.
func (t Tensor) DType() DType { return t.dtype }

// Shape returns the tensor shape. The returned slice must not be mutated.
func (t Tensor) Shape() []int64 { return t.shape }

// Len returns the total number of elements.
func (t Tensor) Len() int { return ElemCount(t.shape) }

// Float32s returns the float32 payload or an error on a kind mismatch.
func (t Tensor) Float32s() ([]float32, error) {
	if t.dtype != Float32 {
		return nil, fmt.Errorf("tensor is %s, not float32", t.dtype)
	}
	return t.f32, nil
}

// Float64s returns the float64 payload or an error on a kind mismatch.
func (t Tensor) Float64s() ([]float64, error) {
	if t.dtype != Float64 {
		return nil, fmt.Errorf("tensor is %s, not float64", t.dtype)
	}
	return t.f64, nil
}

// Int32s returns the int32 payload or an error on a kind mismatch.
func (t Tensor) Int32s() ([]int32, error) {
	if t.dtype != Int32 {
		return nil, fmt.Errorf("tensor is %s, not int32", t.dtype)
	}
	return t.i32, nil
}

// Int64s returns the int64 payload or an error on a kind mismatch.
func (t Tensor) Int64s() ([]int64, error) {
	if t.dtype != Int64 {
		return nil, fmt.Errorf("tensor is %s, not int64", t.dtype)
	}
	return t.i64, nil
}

// Uint8s returns the uint8 payload or an error on a kind mismatch.
func (t Tensor) Uint8s() ([]uint8, error) {
	if t.dtype != Uint8 {
		return nil, fmt.Errorf("tensor is %s, not uint8", t.dtype)
	}
	return t.u8, nil
}
