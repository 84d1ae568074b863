package torch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern(t *testing.T) {
	paramNames, matcher := compilePattern("/users/:id/posts/:postID")

	assert.Equal(t, []string{"id", "postID"}, paramNames)
	assert.Equal(
		t,
		"^/users/([^/]+)/posts/([^/]+)$",
		matcher.String(),
	)
	assert.Equal(t, len(paramNames), matcher.NumSubexp())

	m := matcher.FindStringSubmatch("/users/42/posts/7")
	require.NotNil(t, m)
	assert.Equal(t, []string{"42", "7"}, m[1:])

	assert.Nil(t, matcher.FindStringSubmatch("/users/42/posts/7/x"))
	assert.Nil(t, matcher.FindStringSubmatch("/users//posts/7"))
	assert.Nil(t, matcher.FindStringSubmatch("/users/4/2/posts/7"))
}

func TestCompilePatternLiteral(t *testing.T) {
	paramNames, matcher := compilePattern("/health")

	assert.Empty(t, paramNames)
	assert.NotNil(t, matcher.FindStringSubmatch("/health"))
	assert.Nil(t, matcher.FindStringSubmatch("/health/x"))
}

func TestCompilePatternQuotesMetaChars(t *testing.T) {
	_, matcher := compilePattern("/v1.0/:name")

	assert.NotNil(t, matcher.FindStringSubmatch("/v1.0/x"))
	assert.Nil(t, matcher.FindStringSubmatch("/v1x0/x"))
}

func TestCompilePatternRejectsDuplicateParams(t *testing.T) {
	assert.Panics(t, func() {
		compilePattern("/users/:id/posts/:id")
	})
}

func TestCompilePatternRejectsBadPaths(t *testing.T) {
	assert.Panics(t, func() {
		compilePattern("")
	})
	assert.Panics(t, func() {
		compilePattern("users/:id")
	})
}

func TestRouterMatch(t *testing.T) {
	r := newRouter(New())

	h := func(ctx *RequestContext) *Response {
		return Text("ok")
	}

	r.register("GET", "/users/:id", h)
	r.register("POST", "/users/:id", h)

	rt, values := r.match("GET", "/users/42")
	require.NotNil(t, rt)
	assert.Equal(t, "GET", rt.method)
	assert.Equal(t, []string{"42"}, values)
	assert.Len(t, values, len(rt.paramNames))

	rt, _ = r.match("POST", "/users/42")
	require.NotNil(t, rt)
	assert.Equal(t, "POST", rt.method)

	rt, _ = r.match("DELETE", "/users/42")
	assert.Nil(t, rt)

	rt, _ = r.match("GET", "/users/42/x")
	assert.Nil(t, rt)
}

func TestRouterMatchRegistrationOrder(t *testing.T) {
	r := newRouter(New())

	first := func(ctx *RequestContext) *Response {
		return Text("first")
	}
	second := func(ctx *RequestContext) *Response {
		return Text("second")
	}

	r.register("GET", "/users/:id", first)
	r.register("GET", "/users/me", second)

	rt, _ := r.match("GET", "/users/me")
	require.NotNil(t, rt)
	assert.Equal(t, "/users/:id", rt.path)
	assert.Equal(t, "first", string(rt.handler(nil).Body))
}

func TestRouterRejectsNilHandler(t *testing.T) {
	r := newRouter(New())

	assert.Panics(t, func() {
		r.register("GET", "/", nil)
	})
}

func TestRouterMatchWebSocket(t *testing.T) {
	r := newRouter(New())

	r.registerWebSocket("/ws/:room", WebSocketHandlers{})

	rt, values := r.matchWebSocket("/ws/lobby")
	require.NotNil(t, rt)
	assert.Equal(t, []string{"room"}, rt.paramNames)
	assert.Equal(t, []string{"lobby"}, values)

	rt, _ = r.matchWebSocket("/nope")
	assert.Nil(t, rt)
}
