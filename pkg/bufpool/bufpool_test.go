package bufpool

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestNewPool_Defaults(t *testing.T) {
	if got := NewPool(0).Size(); got != SmallSize {
		t.Errorf("NewPool(0).Size() = %d, want %d", got, SmallSize)
	}
	if got := NewPool(128).Size(); got != 128 {
		t.Errorf("NewPool(128).Size() = %d, want 128", got)
	}
}

func TestPool_GetPut(t *testing.T) {
	p := NewPool(64)

	buf := p.Get()
	if len(buf) != 64 {
		t.Fatalf("len(Get()) = %d, want 64", len(buf))
	}

	// Resliced buffers are restored to full length.
	p.Put(buf[:10])
	if got := len(p.Get()); got != 64 {
		t.Errorf("len(Get()) after Put = %d, want 64", got)
	}

	// Foreign buffers are ignored.
	p.Put(make([]byte, 32))
	p.Put(nil)
}

func TestCopy(t *testing.T) {
	payload := strings.Repeat("asset", 50_000)

	for name, copyFn := range map[string]func(*bytes.Buffer, *strings.Reader) (int64, error){
		"small": func(dst *bytes.Buffer, src *strings.Reader) (int64, error) { return Copy(onlyWriter{dst}, onlyReader{src}) },
		"large": func(dst *bytes.Buffer, src *strings.Reader) (int64, error) { return CopyLarge(onlyWriter{dst}, onlyReader{src}) },
	} {
		t.Run(name, func(t *testing.T) {
			var dst bytes.Buffer
			n, err := copyFn(&dst, strings.NewReader(payload))
			if err != nil {
				t.Fatalf("copy failed: %v", err)
			}
			if n != int64(len(payload)) || dst.String() != payload {
				t.Errorf("copied %d bytes, want %d", n, len(payload))
			}
		})
	}
}

func TestPool_Concurrency(t *testing.T) {
	p := NewPool(1024)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := p.Get()
				buf[0] = byte(i)
				p.Put(buf)
			}
		}(i)
	}
	wg.Wait()
}

// onlyReader and onlyWriter hide ReaderFrom/WriterTo so the pooled buffer is used.
type onlyReader struct{ r *strings.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

type onlyWriter struct{ w *bytes.Buffer }

func (o onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }
