package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFloat32ValidatesShape(t *testing.T) {
	_, err := NewFloat32(make([]float32, 5), 2, 3)
	require.Error(t, err)

	tensor, err := NewFloat32(make([]float32, 6), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, tensor.Shape())
	assert.Equal(t, 6, tensor.Len())
	assert.Equal(t, Float32, tensor.DType())
}

func TestZeroDimensionAccepted(t *testing.T) {
	// Detection-style models emit [0,6] outputs for empty pages.
	tensor, err := NewFloat32(nil, 0, 6)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 6}, tensor.Shape())
	assert.Equal(t, 0, tensor.Len())

	_, err = NewInt64(nil, 0)
	require.NoError(t, err)
}

func TestNegativeDimensionRejected(t *testing.T) {
	_, err := NewUint8(make([]uint8, 4), 2, -2)
	require.Error(t, err)
}

func TestAccessorsRejectWrongKind(t *testing.T) {
	tensor, err := NewInt64([]int64{1, 2, 3}, 3)
	require.NoError(t, err)

	got, err := tensor.Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)

	_, err = tensor.Float32s()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "int64")
}

func TestEveryKindRoundTrips(t *testing.T) {
	f32, err := NewFloat32([]float32{1}, 1)
	require.NoError(t, err)
	f64, err := NewFloat64([]float64{1}, 1)
	require.NoError(t, err)
	i32, err := NewInt32([]int32{1}, 1)
	require.NoError(t, err)
	i64, err := NewInt64([]int64{1}, 1)
	require.NoError(t, err)
	u8, err := NewUint8([]uint8{1}, 1)
	require.NoError(t, err)

	assert.Equal(t, "float32", f32.DType().String())
	assert.Equal(t, "float64", f64.DType().String())
	assert.Equal(t, "int32", i32.DType().String())
	assert.Equal(t, "int64", i64.DType().String())
	assert.Equal(t, "uint8", u8.DType().String())
}

func TestShapeIsCopied(t *testing.T) {
	shape := []int64{1, 4}
	tensor, err := NewFloat32(make([]float32, 4), shape...)
	require.NoError(t, err)
	shape[1] = 99
	assert.Equal(t, []int64{1, 4}, tensor.Shape())
}
