package torch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildStaticRoot builds a filesystem tree for the static serving tests:
//
//	root/
//	  hello.txt
//	  style.css
//	  data.bin
//	  docs/
//	    index.html
//	  media/
//	    clip.txt
func buildStaticRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "hello.txt"),
		[]byte("hello"),
		0o644,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "style.css"),
		[]byte("body{}"),
		0o644,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "data.bin"),
		[]byte{0x0, 0x1, 0x2},
		0o644,
	))
	require.NoError(t, os.Mkdir(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "docs", "index.html"),
		[]byte("<h1>docs</h1>"),
		0o644,
	))
	require.NoError(t, os.Mkdir(filepath.Join(root, "media"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "media", "clip.txt"),
		[]byte("clip"),
		0o644,
	))

	return root
}

func TestServeStaticFile(t *testing.T) {
	tor := New()
	tor.STATIC("/static", buildStaticRoot(t), false)

	res := tor.serveStatic("/static/hello.txt")
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, KindBlob, res.Kind)
	assert.Equal(t, "hello", string(res.Body))
	assert.Equal(t, "text/plain", res.Headers["Content-Type"])

	res = tor.serveStatic("/static/style.css")
	assert.Equal(t, "text/css", res.Headers["Content-Type"])

	res = tor.serveStatic("/static/data.bin")
	assert.Equal(
		t,
		"application/octet-stream",
		res.Headers["Content-Type"],
	)
}

func TestServeStaticTraversalRefused(t *testing.T) {
	tor := New()
	tor.STATIC("/static", buildStaticRoot(t), false)

	res := tor.serveStatic("/static/../etc/passwd")
	assert.Equal(t, 403, res.Status)
	assert.Equal(t, KindPlaintext, res.Kind)

	res = tor.serveStatic("/static/docs/../../etc/passwd")
	assert.Equal(t, 403, res.Status)
}

func TestServeStaticDirectoryIndex(t *testing.T) {
	tor := New()
	tor.STATIC("/static", buildStaticRoot(t), false)

	res := tor.serveStatic("/static/docs")
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, KindHTML, res.Kind)
	assert.Equal(t, "<h1>docs</h1>", string(res.Body))
}

func TestServeStaticDirectoryListing(t *testing.T) {
	root := buildStaticRoot(t)

	tor := New()
	tor.STATIC("/static", root, true)

	res := tor.serveStatic("/static/media")
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, KindHTML, res.Kind)
	assert.Contains(t, string(res.Body), `<a href="..">..</a>`)
	assert.Contains(t, string(res.Body), "clip.txt")

	res = tor.serveStatic("/static")
	assert.Equal(t, 200, res.Status)
	assert.Contains(t, string(res.Body), "docs/")
	assert.Contains(t, string(res.Body), "media/")
}

func TestServeStaticDirectoryListingRefused(t *testing.T) {
	tor := New()
	tor.STATIC("/static", buildStaticRoot(t), false)

	res := tor.serveStatic("/static/media")
	assert.Equal(t, 403, res.Status)
}

func TestServeStaticMiss(t *testing.T) {
	tor := New()
	tor.STATIC("/static", buildStaticRoot(t), false)

	res := tor.serveStatic("/static/nope.txt")
	assert.Equal(t, 404, res.Status)
	assert.Empty(t, res.Body)

	res = tor.serveStatic("/elsewhere")
	assert.Equal(t, 404, res.Status)
	assert.Empty(t, res.Body)
}

func TestServeStaticMountOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	require.NoError(t, os.WriteFile(
		filepath.Join(second, "only.txt"),
		[]byte("second"),
		0o644,
	))

	tor := New()
	tor.STATIC("/assets", first, false)
	tor.STATIC("/assets", second, false)

	res := tor.serveStatic("/assets/only.txt")
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "second", string(res.Body))
}

func TestServeStaticThroughCoffer(t *testing.T) {
	root := buildStaticRoot(t)

	tor := New()
	tor.CofferEnabled = true
	tor.STATIC("/static", root, false)

	res := tor.serveStatic("/static/hello.txt")
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "hello", string(res.Body))

	// A second hit is served from the cache.
	res = tor.serveStatic("/static/hello.txt")
	assert.Equal(t, "hello", string(res.Body))
}
