package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	bytes.Buffer
	object      string
	contentType string
	closeErr    error
	closed      bool
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestPutObjectUploads(t *testing.T) {
	t.Parallel()

	var got *fakeWriter
	store, err := newWithWriter("events-archive", func(_ context.Context, object, contentType string) io.WriteCloser {
		got = &fakeWriter{object: object, contentType: contentType}
		return got
	})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "/pages/sydney-com/a.html", "text/html", strings.NewReader("<html/>"))
	require.NoError(t, err)
	require.Equal(t, "gs://events-archive/pages/sydney-com/a.html", uri)
	require.Equal(t, "pages/sydney-com/a.html", got.object)
	require.Equal(t, "text/html", got.contentType)
	require.Equal(t, "<html/>", got.String())
	require.True(t, got.closed)
}

func TestPutObjectCloseError(t *testing.T) {
	t.Parallel()

	store, err := newWithWriter("b", func(context.Context, string, string) io.WriteCloser {
		return &fakeWriter{closeErr: errors.New("quota exceeded")}
	})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "p.html", "", strings.NewReader("x"))
	require.ErrorContains(t, err, "quota exceeded")
}

func TestPutObjectValidation(t *testing.T) {
	t.Parallel()

	_, err := newWithWriter("", nil)
	require.Error(t, err)

	_, err = New(nil, Config{Bucket: "b"})
	require.Error(t, err)

	store, err := newWithWriter("b", nil)
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), "  ", "", strings.NewReader("x"))
	require.Error(t, err)
}
