package torch

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// crlfcrlf is the four-byte header terminator.
var crlfcrlf = []byte("\r\n\r\n")

// requestBufferBytes is the size of the per-connection buffer a request's
// header block must fit in.
const requestBufferBytes = 8 << 10

// maxRequestBodyBytes bounds how much of a declared Content-Length the
// parser is willing to read.
const maxRequestBodyBytes = 8 << 20

// errRequestTooLarge is returned when a request's header block does not fit
// in the connection buffer or its declared body exceeds the body bound.
var errRequestTooLarge = errors.New("torch: request too large")

// RequestContext carries everything parsed off the wire for a single
// request.
//
// A `RequestContext` is scoped to one request and is never shared: the
// parser fills everything but the `Params`, which the router fills on a
// route match.
type RequestContext struct {
	// Method is the uppercased HTTP method token.
	Method string

	// Path is the request path with the query string stripped.
	Path string

	// Params holds the values captured for the matched route's ":name"
	// params.
	Params map[string]string

	// Query holds the query string pairs. Values are kept raw: they are
	// not percent-decoded.
	Query map[string]string

	// Headers holds the request headers with lowercased names.
	Headers map[string]string

	// Body is the raw request body.
	Body string

	keepAlive bool
	upgrade   bool
}

// readRequest reads one HTTP/1.1 request off the conn into a new
// `RequestContext`.
//
// The buf is the connection's fixed header buffer: reads accumulate into it
// until the CRLFCRLF header terminator is found, then the body is completed
// per the Content-Length header. An end-of-stream before the headers
// complete, or a header block that outgrows the buf, is reported as an
// error and the caller closes the connection silently.
func (t *Torch) readRequest(conn net.Conn, buf []byte) (*RequestContext, error) {
	total := 0
	headerEnd := -1

	for headerEnd < 0 {
		if total == len(buf) {
			return nil, errRequestTooLarge
		}

		if t.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(t.ReadTimeout))
		}

		n, err := conn.Read(buf[total:])
		if n <= 0 {
			if err == nil {
				err = io.EOF
			}

			return nil, err
		}

		total += n

		if i := bytes.Index(buf[:total], crlfcrlf); i >= 0 {
			headerEnd = i + 4
		}
	}

	head := string(buf[:headerEnd-4])

	lines := strings.Split(head, "\r\n")

	method, target, ok := parseRequestLine(lines[0])
	if !ok {
		return nil, errors.New("torch: malformed request line")
	}

	ctx := &RequestContext{
		Method:  strings.ToUpper(method),
		Params:  map[string]string{},
		Query:   map[string]string{},
		Headers: map[string]string{},
	}

	ctx.Path = target
	if i := strings.IndexByte(target, '?'); i >= 0 {
		ctx.Path = target[:i]
		parseQuery(target[i+1:], ctx.Query)
	}

	for _, line := range lines[1:] {
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(line[:i]))
		ctx.Headers[name] = strings.TrimSpace(line[i+1:])
	}

	if c, ok := ctx.Headers["connection"]; ok {
		ctx.keepAlive = strings.Contains(
			strings.ToLower(c),
			"keep-alive",
		)
	}

	if u, ok := ctx.Headers["upgrade"]; ok {
		ctx.upgrade = strings.EqualFold(u, "websocket")
	}

	body := append([]byte(nil), buf[headerEnd:total]...)
	if cl, err := strconv.Atoi(ctx.Headers["content-length"]); err == nil {
		if cl > maxRequestBodyBytes {
			return nil, errRequestTooLarge
		}

		for len(body) < cl {
			if t.ReadTimeout > 0 {
				conn.SetReadDeadline(
					time.Now().Add(t.ReadTimeout),
				)
			}

			rest := make([]byte, cl-len(body))
			n, err := conn.Read(rest)
			if n <= 0 {
				if err == nil {
					err = io.EOF
				}

				return nil, err
			}

			body = append(body, rest[:n]...)
		}

		body = body[:cl]
	}

	ctx.Body = string(body)

	return ctx, nil
}

// parseRequestLine splits the l into its method and request target.
func parseRequestLine(l string) (method, target string, ok bool) {
	i := strings.IndexByte(l, ' ')
	if i < 0 {
		return "", "", false
	}

	j := strings.IndexByte(l[i+1:], ' ')
	if j < 0 {
		return "", "", false
	}

	return l[:i], l[i+1 : i+1+j], true
}

// parseQuery splits the raw query string on "&" and the first "=" of each
// token into the q. A token without a "=" yields an empty value. Values are
// kept raw.
func parseQuery(raw string, q map[string]string) {
	for _, token := range strings.Split(raw, "&") {
		if token == "" {
			continue
		}

		if i := strings.IndexByte(token, '='); i >= 0 {
			q[token[:i]] = token[i+1:]
		} else {
			q[token] = ""
		}
	}
}
