// Package mempool provides a sized pool for float32 tensor staging buffers.
// Preprocessing allocates one NCHW buffer per inference call; pooling keeps
// that off the garbage collector on batch workloads.
package mempool

import "sync"

const step = 1024

var pools sync.Map // size class (int) -> *sync.Pool

// sizeClass rounds n up to the next multiple of 1024 so buffers are reusable
// across slightly different image sizes.
func sizeClass(n int) int {
	if n <= step {
		return step
	}
	return ((n + step - 1) / step) * step
}

// Get returns a []float32 of length n (capacity may be larger). Contents are
// unspecified; callers overwrite every element. Return it via Put.
func Get(n int) []float32 {
	cls := sizeClass(n)
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{
		New: func() any { return make([]float32, cls) },
	})
	p := pAny.(*sync.Pool)
	buf, ok := p.Get().([]float32)
	if !ok || cap(buf) < cls {
		buf = make([]float32, cls)
	}
	return buf[:n]
}

// Put returns a buffer to its pool. Nil slices are ignored.
func Put(buf []float32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cap(buf) < cls {
		// Undersized for its class (externally allocated); drop it.
		return
	}
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{
		New: func() any { return make([]float32, cls) },
	})
	pAny.(*sync.Pool).Put(buf[:cap(buf)]) //nolint:staticcheck // slice, not pointer, is intentional here
}
