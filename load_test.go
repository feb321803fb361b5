package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	const content = "just text"
	t.Run("normal msg", func(t *testing.T) {
		msg, err := loadMsg(t.Context(), content)
		require.NoError(t, err)
		require.Equal(t, content, msg)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "foo.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		msg, err := loadMsg(t.Context(), "file://"+path)
		require.NoError(t, err)
		require.Equal(t, content, msg)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadMsg(t.Context(), "file://"+filepath.Join(t.TempDir(), "nope.txt"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("http url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "MIT License")
		}))
		t.Cleanup(srv.Close)

		msg, err := loadMsg(t.Context(), srv.URL+"/LICENSE")
		require.NoError(t, err)
		require.Contains(t, msg, "MIT License")
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		_, err := loadMsg(t.Context(), srv.URL+"/LICENSE")
		require.ErrorContains(t, err, "404")
	})
}
