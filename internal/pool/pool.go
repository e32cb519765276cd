// Package pool provides scratch buffer pooling for token normalization and
// request logging. Pooled objects never outlive the call that borrowed them.
package pool

import "sync"

// Pool is a typed wrapper around sync.Pool with an optional reset hook
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T)
}

// NewPool creates a pool with the given factory function
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool whose objects are reset before reuse
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put returns an object to the pool. Nil is ignored.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.pool.Put(obj)
}

// BufferPool hands out byte slices from capacity buckets
type BufferPool struct {
	buckets []int
	pools   []*Pool[[]byte]
}

// NewBufferPool creates a buffer pool with the given ascending bucket capacities
func NewBufferPool(buckets ...int) *BufferPool {
	if len(buckets) == 0 {
		buckets = []int{64, 256, 1024, 4096}
	}
	bp := &BufferPool{buckets: buckets, pools: make([]*Pool[[]byte], len(buckets))}
	for i, capacity := range buckets {
		capacity := capacity
		bp.pools[i] = NewPoolWithReset(
			func() *[]byte {
				buf := make([]byte, 0, capacity)
				return &buf
			},
			func(buf *[]byte) {
				*buf = (*buf)[:0] // keep capacity
			},
		)
	}
	return bp
}

// Get returns an empty buffer with at least minCap capacity
func (bp *BufferPool) Get(minCap int) *[]byte {
	i := bp.bucket(minCap)
	if i < 0 {
		buf := make([]byte, 0, minCap)
		return &buf
	}
	return bp.pools[i].Get()
}

// Put returns a buffer to its bucket. Buffers that grew past the largest
// bucket are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	c := cap(*buf)
	if c < bp.buckets[0] || c > bp.buckets[len(bp.buckets)-1] {
		return
	}
	// largest bucket the buffer can satisfy
	for i := len(bp.buckets) - 1; i >= 0; i-- {
		if bp.buckets[i] <= c {
			bp.pools[i].Put(buf)
			return
		}
	}
}

func (bp *BufferPool) bucket(minCap int) int {
	for i, b := range bp.buckets {
		if b >= minCap {
			return i
		}
	}
	return -1
}

var global = NewBufferPool()

// GetBuffer retrieves a scratch buffer from the shared pool
func GetBuffer(minCap int) *[]byte {
	return global.Get(minCap)
}

// PutBuffer returns a scratch buffer to the shared pool
func PutBuffer(buf *[]byte) {
	global.Put(buf)
}
