package torch

import (
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
)

// minifier is used to minify response bodies by their MIME types.
type minifier struct {
	torch *Torch
	once  *sync.Once
	m     *minify.M
}

// newMinifier returns a new instance of the `minifier` with the t.
func newMinifier(t *Torch) *minifier {
	return &minifier{
		torch: t,
		once:  &sync.Once{},
	}
}

// minify minifies the b by the mimeType.
func (m *minifier) minify(mimeType string, b []byte) ([]byte, error) {
	m.once.Do(func() {
		m.m = minify.New()
		m.m.Add("text/html", &html.Minifier{})
		m.m.Add("text/css", &css.Minifier{})
		m.m.Add("application/javascript", &js.Minifier{})
		m.m.Add("application/json", &json.Minifier{})
		m.m.Add("application/xml", &xml.Minifier{})
		m.m.Add("image/svg+xml", &svg.Minifier{})
	})

	return m.m.Bytes(mimeType, b)
}
