package torch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMIMETypeByExtension(t *testing.T) {
	assert.Equal(t, "text/html", mimeTypeByExtension(".html"))
	assert.Equal(t, "text/css", mimeTypeByExtension(".css"))
	assert.Equal(
		t,
		"application/javascript",
		mimeTypeByExtension(".js"),
	)
	assert.Equal(t, "image/png", mimeTypeByExtension(".png"))
	assert.Equal(
		t,
		"application/octet-stream",
		mimeTypeByExtension(".xyz"),
	)
	assert.Equal(
		t,
		"application/octet-stream",
		mimeTypeByExtension(""),
	)
}
