package torch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinifierHTML(t *testing.T) {
	m := newMinifier(New())

	b, err := m.minify(
		"text/html",
		[]byte("<html>\n  <body>\n    hi\n  </body>\n</html>"),
	)
	require.NoError(t, err)
	assert.Less(t, len(b), len("<html>\n  <body>\n    hi\n  </body>\n</html>"))
	assert.Contains(t, string(b), "hi")
}

func TestMinifierJSON(t *testing.T) {
	m := newMinifier(New())

	b, err := m.minify("application/json", []byte(`{ "a" : 1 }`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))
}

func TestMinifierCSS(t *testing.T) {
	m := newMinifier(New())

	b, err := m.minify(
		"text/css",
		[]byte("body {\n  color: #ffffff;\n}"),
	)
	require.NoError(t, err)
	assert.Less(t, len(b), len("body {\n  color: #ffffff;\n}"))
}

func TestMinifierUnsupportedMIMEType(t *testing.T) {
	m := newMinifier(New())

	_, err := m.minify("image/jpeg", []byte{0xff, 0xd8})
	assert.Error(t, err)
}
