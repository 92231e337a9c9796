package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsRequestedLength(t *testing.T) {
	buf := Get(100)
	assert.Len(t, buf, 100)
	assert.GreaterOrEqual(t, cap(buf), 1024)
	Put(buf)
}

func TestRoundTripReusesBuffer(t *testing.T) {
	a := Get(2048)
	Put(a)
	b := Get(2000)
	assert.Len(t, b, 2000)
	Put(b)
}

func TestSizeClassRounding(t *testing.T) {
	assert.Equal(t, 1024, sizeClass(1))
	assert.Equal(t, 1024, sizeClass(1024))
	assert.Equal(t, 2048, sizeClass(1025))
	assert.Equal(t, 3072, sizeClass(2049))
}

func TestPutNilIsSafe(t *testing.T) {
	assert.NotPanics(t, func() { Put(nil) })
}
