package assetstore

import (
	"context"
	"errors"
	"io"
)

// Getter is the read half of a Backend.
type Getter interface {
	Get(ctx context.Context, key string, w io.Writer) error
}

// Putter is the write half of a Backend.
type Putter interface {
	Put(ctx context.Context, key string, content io.Reader) error
}

// StreamCopy copies src to dst by streaming the object through a pipe.
// Used by backends without a native server-side copy.
func StreamCopy(ctx context.Context, from Getter, to Putter, src, dst string) error {
	pr, pw := io.Pipe()

	readErr := make(chan error, 1)
	go func() {
		err := from.Get(ctx, src, pw)
		_ = pw.CloseWithError(err)
		readErr <- err
	}()

	putErr := to.Put(ctx, dst, pr)
	// Unblock the reader if Put returned early.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	getErr := <-readErr

	if getErr != nil && !errors.Is(getErr, io.ErrClosedPipe) {
		return getErr
	}
	return putErr
}
