package torch

import (
	"fmt"
	"regexp"
	"strings"
)

type (
	// router is the registry of all registered routes for a `Torch`
	// instance for the HTTP request matching and the HTTP URL path params
	// parsing.
	router struct {
		torch *Torch

		routes          []*route
		webSocketRoutes []*webSocketRoute
	}

	// route contains a handler and a compiled pattern for matching
	// against the HTTP requests.
	route struct {
		method     string
		path       string
		paramNames []string
		matcher    *regexp.Regexp
		handler    Handler
	}

	// webSocketRoute contains the WebSocket callbacks and a compiled
	// pattern for matching against the upgrade requests.
	webSocketRoute struct {
		path       string
		paramNames []string
		matcher    *regexp.Regexp
		handlers   WebSocketHandlers
	}
)

// paramNamePattern matches a ":name" param inside a route path.
var paramNamePattern = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)

// newRouter returns a new instance of the `router` with the t.
func newRouter(t *Torch) *router {
	return &router{
		torch: t,
	}
}

// register registers a new route for the method and the path with the
// matching h.
func (r *router) register(method, path string, h Handler) {
	if h == nil {
		panic("torch: the route handler cannot be nil")
	}

	paramNames, matcher := compilePattern(path)

	r.routes = append(r.routes, &route{
		method:     method,
		path:       path,
		paramNames: paramNames,
		matcher:    matcher,
		handler:    h,
	})
}

// registerWebSocket registers a new WebSocket route for the path with the hs.
func (r *router) registerWebSocket(path string, hs WebSocketHandlers) {
	paramNames, matcher := compilePattern(path)

	r.webSocketRoutes = append(r.webSocketRoutes, &webSocketRoute{
		path:       path,
		paramNames: paramNames,
		matcher:    matcher,
		handlers:   hs,
	})
}

// compilePattern compiles the path into its ordered param names and an
// anchored matcher with one capturing group per param.
func compilePattern(path string) ([]string, *regexp.Regexp) {
	if path == "" {
		panic("torch: the path cannot be empty")
	} else if path[0] != '/' {
		panic("torch: the path must start with the /")
	}

	var paramNames []string

	b := strings.Builder{}
	b.WriteByte('^')

	last := 0
	for _, loc := range paramNamePattern.FindAllStringIndex(path, -1) {
		name := path[loc[0]+1 : loc[1]]
		for _, pn := range paramNames {
			if pn == name {
				panic(fmt.Sprintf(
					"torch: the path cannot have "+
						"duplicate param names: %s",
					name,
				))
			}
		}

		paramNames = append(paramNames, name)

		b.WriteString(regexp.QuoteMeta(path[last:loc[0]]))
		b.WriteString("([^/]+)")
		last = loc[1]
	}

	b.WriteString(regexp.QuoteMeta(path[last:]))
	b.WriteByte('$')

	return paramNames, regexp.MustCompile(b.String())
}

// match returns the first route registered for the method whose pattern
// matches the path, along with the values captured for its params. It
// returns nil when no route matches.
func (r *router) match(method, path string) (*route, []string) {
	for _, rt := range r.routes {
		if rt.method != method {
			continue
		}

		if m := rt.matcher.FindStringSubmatch(path); m != nil {
			return rt, m[1:]
		}
	}

	return nil, nil
}

// matchWebSocket returns the first WebSocket route whose pattern matches the
// path, along with the values captured for its params. It returns nil when
// no WebSocket route matches.
func (r *router) matchWebSocket(path string) (*webSocketRoute, []string) {
	for _, rt := range r.webSocketRoutes {
		if m := rt.matcher.FindStringSubmatch(path); m != nil {
			return rt, m[1:]
		}
	}

	return nil, nil
}
