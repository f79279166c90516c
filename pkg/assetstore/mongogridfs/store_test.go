package mongogridfs

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marmos91/assetd/pkg/assetstore"
)

// newLazyClient returns a client that never dials until an operation runs.
func newLazyClient(t *testing.T) *mongo.Client {
	t.Helper()

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestNew_Validation(t *testing.T) {
	client := newLazyClient(t)

	_, err := New(client, Config{Bucket: "assets"})
	assert.ErrorContains(t, err, "database")

	_, err = New(client, Config{Database: "assetd"})
	assert.ErrorContains(t, err, "bucket")
}

func TestNewStore(t *testing.T) {
	client := newLazyClient(t)

	s, err := NewStore(client, Config{Database: "assetd", Bucket: "assets"})
	require.NoError(t, err)

	assert.Equal(t, assetstore.KindMongoDB, s.Kind())
	assert.Same(t, client, s.Backend().(*Backend).Client())
	assert.Equal(t, "gridfs://assetd/assets/abc_1", s.SourceURL(assetstore.Ref{ID: "abc", Version: 1}))
}

func TestPut_CancelledContext(t *testing.T) {
	// Cancellation is detected before any chunk is flushed, so no server
	// round trip happens.
	b, err := New(newLazyClient(t), Config{Database: "assetd", Bucket: "assets"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = b.Put(ctx, "abc_1", strings.NewReader("data"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestGet_CancelledContext(t *testing.T) {
	b, err := New(newLazyClient(t), Config{Database: "assetd", Bucket: "assets"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err = b.Get(ctx, "abc_1", &buf)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPutGet_DeadlineBoundsServerSelection(t *testing.T) {
	// The client points at a closed port, so only the deadline ends the
	// server selection.
	b, err := New(newLazyClient(t), Config{Database: "assetd", Bucket: "assets"})
	require.NoError(t, err)

	tests := []struct {
		name string
		op   func(ctx context.Context) error
	}{
		{"put", func(ctx context.Context) error { return b.Put(ctx, "abc_1", strings.NewReader("data")) }},
		{"get", func(ctx context.Context) error { return b.Get(ctx, "abc_1", &bytes.Buffer{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()

			start := time.Now()
			err := tt.op(ctx)
			require.Error(t, err)
			assert.Less(t, time.Since(start), 10*time.Second)
		})
	}
}

func TestContextReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := contextReader{ctx: ctx, r: strings.NewReader("abc")}

	buf := make([]byte, 1)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cancel()
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, context.Canceled)
}
