package torch

import (
	"bytes"
	"io"
	"strconv"
)

// Kind is the kind of a `Response`, determining its default Content-Type and
// how the writer serializes it.
type Kind uint8

// response kinds
const (
	KindHTML Kind = iota
	KindJSON
	KindPlaintext
	KindBlob
	KindRedirect
)

// contentType returns the default Content-Type of the k.
func (k Kind) contentType() string {
	switch k {
	case KindHTML:
		return "text/html"
	case KindJSON:
		return "application/json"
	case KindPlaintext:
		return "text/plain"
	}

	return "application/octet-stream"
}

// Response is what a `Handler` produces for one request.
type Response struct {
	// Kind is the kind of the response.
	Kind Kind

	// Status is the HTTP status code of the response.
	Status int

	// Headers is the additional headers of the response. A Content-Type
	// entry overrides the kind's default.
	Headers map[string]string

	// Body is the payload of the response.
	Body []byte
}

// statusMessages is the table of the known status messages. Codes outside of
// it are emitted with the message "Unknown".
var statusMessages = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	306: "Switch Proxy",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

// statusMessage returns the status message of the code.
func statusMessage(code int) string {
	if m, ok := statusMessages[code]; ok {
		return m
	}

	return "Unknown"
}

// HTML returns a new 200 `Response` carrying the s as HTML.
func HTML(s string) *Response {
	return &Response{
		Kind:   KindHTML,
		Status: 200,
		Body:   []byte(s),
	}
}

// JSON returns a new 200 `Response` carrying the s as JSON.
func JSON(s string) *Response {
	return &Response{
		Kind:   KindJSON,
		Status: 200,
		Body:   []byte(s),
	}
}

// Text returns a new 200 `Response` carrying the s as plain text.
func Text(s string) *Response {
	return &Response{
		Kind:   KindPlaintext,
		Status: 200,
		Body:   []byte(s),
	}
}

// Blob returns a new 200 `Response` carrying the b as binary content.
func Blob(b []byte) *Response {
	return &Response{
		Kind:   KindBlob,
		Status: 200,
		Body:   b,
	}
}

// Redirect returns a new `Response` redirecting to the location. The status
// defaults to 302.
func Redirect(location string, status ...int) *Response {
	code := 302
	if len(status) > 0 {
		code = status[0]
	}

	return &Response{
		Kind:   KindRedirect,
		Status: code,
		Headers: map[string]string{
			"Location": location,
		},
	}
}

// PermanentRedirect returns a new 301 `Response` redirecting to the
// location.
func PermanentRedirect(location string) *Response {
	return Redirect(location, 301)
}

// TemporaryRedirect returns a new 302 `Response` redirecting to the
// location.
func TemporaryRedirect(location string) *Response {
	return Redirect(location, 302)
}

// SeeOther returns a new 303 `Response` redirecting to the location.
func SeeOther(location string) *Response {
	return Redirect(location, 303)
}

// writeResponse serializes the res to the w as one HTTP/1.1 response.
//
// The keepAlive is what the Connection header announces; the caller has
// already gated it on the request's opt-in and the res's status.
func (t *Torch) writeResponse(w io.Writer, res *Response, keepAlive bool) error {
	buf := bytes.Buffer{}

	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(res.Status))
	buf.WriteByte(' ')
	buf.WriteString(statusMessage(res.Status))
	buf.WriteString("\r\n")

	connection := "close"
	if keepAlive {
		connection = "keep-alive"
	}

	if res.Kind == KindRedirect {
		buf.WriteString("Location: ")
		buf.WriteString(res.Headers["Location"])
		buf.WriteString("\r\nContent-Length: 0\r\n")

		for n, v := range res.Headers {
			if n == "Location" || n == "Content-Type" {
				continue
			}

			buf.WriteString(n)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteString("\r\n")
		}

		buf.WriteString("Connection: ")
		buf.WriteString(connection)
		buf.WriteString("\r\n\r\n")

		_, err := w.Write(buf.Bytes())
		return err
	}

	ct := res.Headers["Content-Type"]
	if ct == "" {
		ct = res.Kind.contentType()
	}

	body := res.Body
	if t.MinifierEnabled &&
		stringSliceContains(t.MinifierMIMETypes, ct) {
		if b, err := t.minifier.minify(ct, body); err == nil {
			body = b
		}
	}

	buf.WriteString("Content-Type: ")
	buf.WriteString(ct)
	buf.WriteString("\r\nContent-Length: ")
	buf.WriteString(strconv.Itoa(len(body)))
	buf.WriteString("\r\n")

	for n, v := range res.Headers {
		if n == "Content-Type" || n == "Content-Length" {
			continue
		}

		buf.WriteString(n)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}

	buf.WriteString("Connection: ")
	buf.WriteString(connection)
	buf.WriteString("\r\n\r\n")

	buf.Write(body)

	_, err := w.Write(buf.Bytes())
	return err
}

// stringSliceContains reports whether the ss contains the s.
func stringSliceContains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}

	return false
}
