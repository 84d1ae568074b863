package torch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// staticMount maps a URL prefix to a filesystem root for serving static
// files.
type staticMount struct {
	prefix string
	root   string
	browse bool
}

// serveStatic serves the request path p from the static mounts of the t.
//
// Mounts are consulted in registration order; the first mount whose prefix
// matches and whose root holds the path claims it. A path that escapes a
// mount's root after normalization is refused.
func (t *Torch) serveStatic(p string) *Response {
	for _, m := range t.mounts {
		if !strings.HasPrefix(p, m.prefix) {
			continue
		}

		relative := strings.TrimPrefix(p[len(m.prefix):], "/")

		full := filepath.Join(m.root, filepath.FromSlash(relative))

		normalized, err := filepath.Abs(full)
		if err != nil {
			return staticError(500)
		}

		normalizedRoot, err := filepath.Abs(m.root)
		if err != nil {
			return staticError(500)
		}

		if normalized != normalizedRoot && !strings.HasPrefix(
			normalized,
			normalizedRoot+string(filepath.Separator),
		) {
			return staticError(403)
		}

		fi, err := os.Stat(normalized)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			t.logger.Errorf(
				"torch: failed to stat static path: %v",
				err,
			)
			return staticError(500)
		}

		if fi.IsDir() {
			return t.serveDirectory(m, p, normalized)
		}

		return t.serveFile(normalized)
	}

	return &Response{
		Kind:   KindPlaintext,
		Status: 404,
	}
}

// serveDirectory serves the directory at the dir for the request path p: its
// "index.html" if present, a generated index of its entries if the m allows
// browsing, and a refusal otherwise.
func (t *Torch) serveDirectory(m *staticMount, p, dir string) *Response {
	index := filepath.Join(dir, "index.html")
	if fi, err := os.Stat(index); err == nil && !fi.IsDir() {
		b, err := t.readFile(index)
		if err != nil {
			t.logger.Errorf(
				"torch: failed to read index file: %v",
				err,
			)
			return staticError(500)
		}

		return &Response{
			Kind:   KindHTML,
			Status: 200,
			Body:   b,
		}
	}

	if !m.browse {
		return staticError(403)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.logger.Errorf("torch: failed to read directory: %v", err)
		return staticError(500)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	buf := bytes.Buffer{}
	fmt.Fprintf(&buf, "<html><head><title>Index of %s</title></head>", p)
	buf.WriteString("<body><pre>\n")
	buf.WriteString("<a href=\"..\">..</a>\n")

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}

		fmt.Fprintf(&buf, "<a href=%q>%s</a>\n", name, name)
	}

	buf.WriteString("</pre></body></html>")

	return &Response{
		Kind:   KindHTML,
		Status: 200,
		Body:   buf.Bytes(),
	}
}

// serveFile serves the regular file at the name with its Content-Type keyed
// on the lowercased extension.
func (t *Torch) serveFile(name string) *Response {
	b, err := t.readFile(name)
	if err != nil {
		t.logger.Errorf("torch: failed to read static file: %v", err)
		return staticError(500)
	}

	ext := strings.ToLower(filepath.Ext(name))

	return &Response{
		Kind:   KindBlob,
		Status: 200,
		Headers: map[string]string{
			"Content-Type": mimeTypeByExtension(ext),
		},
		Body: b,
	}
}

// readFile reads the file at the name, through the coffer when it is
// enabled.
func (t *Torch) readFile(name string) ([]byte, error) {
	if t.CofferEnabled {
		if a, err := t.coffer.asset(name); err != nil {
			return nil, err
		} else if a != nil {
			if b := a.content(); b != nil {
				return b, nil
			}
		}
	}

	return os.ReadFile(name)
}

// staticError returns a plain text `Response` for the code with the code's
// message as the body.
func staticError(code int) *Response {
	return &Response{
		Kind:   KindPlaintext,
		Status: code,
		Body: []byte(fmt.Sprintf(
			"%d %s",
			code,
			statusMessage(code),
		)),
	}
}
