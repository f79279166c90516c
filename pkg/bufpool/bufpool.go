// Package bufpool pools the buffers used to stream asset content.
//
// Two pools are kept: small buffers for local file copies and large buffers
// for network backends, where fewer, larger writes pay off.
//
// Usage:
//
//	n, err := bufpool.Copy(dst, src)
//
//	buf := bufpool.Large.Get()
//	defer bufpool.Large.Put(buf)
package bufpool

import (
	"io"
	"sync"
)

const (
	// SmallSize is the buffer size for local copies (32KB)
	SmallSize = 32 << 10

	// LargeSize is the buffer size for network copies (1MB)
	LargeSize = 1 << 20
)

// Pool hands out buffers of a fixed size. Safe for concurrent use.
type Pool struct {
	pool sync.Pool
	size int
}

// NewPool creates a pool of size-byte buffers.
// A non-positive size falls back to SmallSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = SmallSize
	}

	p := &Pool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, p.size)
		return &buf
	}
	return p
}

// Size returns the buffer size of the pool.
func (p *Pool) Size() int {
	return p.size
}

// Get returns a buffer of Size bytes. Return it with Put.
func (p *Pool) Get() []byte {
	return *p.pool.Get().(*[]byte)
}

// Put returns buf to the pool. Buffers not obtained from this pool are dropped.
func (p *Pool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	buf = buf[:p.size]
	p.pool.Put(&buf)
}

// Copy copies src to dst through a pooled buffer.
func (p *Pool) Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := p.Get()
	defer p.Put(buf)
	return io.CopyBuffer(dst, src, buf)
}

var (
	// Small is the shared pool of SmallSize buffers.
	Small = NewPool(SmallSize)

	// Large is the shared pool of LargeSize buffers.
	Large = NewPool(LargeSize)
)

// Copy copies src to dst through a small pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	return Small.Copy(dst, src)
}

// CopyLarge copies src to dst through a large pooled buffer.
func CopyLarge(dst io.Writer, src io.Reader) (int64, error) {
	return Large.Copy(dst, src)
}
