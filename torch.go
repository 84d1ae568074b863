/*
Package torch implements a small, self-contained HTTP/1.1 application server
with integrated WebSocket support.

Routes

Registering a route requires a method, a path pattern and a `Handler`:

	torch.Default.GET("/users/:id", func(ctx *torch.RequestContext) *torch.Response {
		return torch.JSON(fmt.Sprintf("{\"id\":%q}", ctx.Params["id"]))
	})

A pattern is a literal path where each segment may be a name prefixed by ":",
such as "/users/:id/posts/:postID". Every ":name" matches exactly one path
segment and is parsed into the `RequestContext.Params` under its name with the
leading ":" discarded. Overlapping patterns are resolved in registration
order: the first registered route wins.

WebSockets

A WebSocket route is registered with the same pattern syntax and a set of
optional callbacks:

	torch.Default.WEBSOCKET("/ws/:room", torch.WebSocketHandlers{
		OnMessage: func(ws *torch.WebSocketConn, text string) {
			ws.SendText(text)
		},
	})

Any request whose headers ask for a WebSocket upgrade is matched against the
WebSocket routes; on a match, and when the request carries a
Sec-WebSocket-Key header, the server performs the RFC 6455 handshake and the
connection permanently leaves the request/response regime.

Static files

A mount maps a URL prefix to a filesystem root:

	torch.Default.STATIC("/static", "./public", false)

Mounts are consulted, in registration order, for every GET request that no
route claims.
*/
package torch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

// Torch is the top-level struct of this framework.
//
// It is highly recommended not to modify the value of any field of the
// `Torch` after calling the `Torch.Serve`, which will cause unpredictable
// problems.
//
// The new instances of the `Torch` should only be created by calling the
// `New`. If you only need one instance of the `Torch`, it is recommended to
// use the `Default`, which will help you simplify the scope management.
type Torch struct {
	// AppName is the name of the web application.
	//
	// It is recommended to set the `AppName` and try to ensure that it is
	// unique (used to distinguish between different web applications).
	//
	// Default value: "torch"
	AppName string `mapstructure:"app_name"`

	// DebugMode indicates whether the web application is in debug mode.
	//
	// Default value: false
	DebugMode bool `mapstructure:"debug_mode"`

	// Address is the TCP address that the server listens on.
	//
	// If the port of the `Address` is "0", a random port is automatically
	// chosen. The `Addresses` can be used to discover the chosen port.
	//
	// Default value: "localhost:8080"
	Address string `mapstructure:"address"`

	// WorkerCount is the number of workers consuming accepted connections
	// from the task queue.
	//
	// Default value: 8
	WorkerCount int `mapstructure:"worker_count"`

	// ReadTimeout is the maximum duration allowed for the server to wait
	// for bytes of a request on an idle connection. It bounds how long a
	// keep-alive connection may be held open between requests.
	//
	// Default value: 5000000000
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// SocketReceiveBufferBytes is the size of the kernel receive buffer
	// set on the listener socket.
	//
	// Default value: 262144
	SocketReceiveBufferBytes int `mapstructure:"socket_receive_buffer_bytes"`

	// SocketSendBufferBytes is the size of the kernel send buffer set on
	// the listener socket.
	//
	// Default value: 262144
	SocketSendBufferBytes int `mapstructure:"socket_send_buffer_bytes"`

	// LoggerEnabled indicates whether the logger is enabled.
	//
	// Default value: false
	LoggerEnabled bool `mapstructure:"logger_enabled"`

	// LoggerFormat is the format of the logger's line header, parsed as a
	// `text/template` over the fields "app_name", "time_rfc3339", "level",
	// "short_file", "long_file" and "line".
	//
	// Default value: `{"app_name":"{{.app_name}}","time":"{{.time_rfc3339}}","level":"{{.level}}","file":"{{.short_file}}","line":"{{.line}}"}`
	LoggerFormat string `mapstructure:"logger_format"`

	// LogFile is the path of the file the logger writes to. When it is
	// set, log output is rotated in place instead of going to stdout.
	//
	// Default value: ""
	LogFile string `mapstructure:"log_file"`

	// LogFileMaxMegabytes is the maximum size in megabytes the `LogFile`
	// may reach before it is rotated.
	//
	// Default value: 100
	LogFileMaxMegabytes int `mapstructure:"log_file_max_megabytes"`

	// LogFileMaxBackups is the maximum number of rotated log files to
	// retain.
	//
	// Default value: 4
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`

	// MinifierEnabled indicates whether the minifier is enabled.
	//
	// The `MinifierEnabled` gives the response writer the ability to
	// minify the matching response bodies on the fly based on the
	// Content-Type header.
	//
	// Default value: false
	MinifierEnabled bool `mapstructure:"minifier_enabled"`

	// MinifierMIMETypes is the list of MIME types that will trigger the
	// minimization.
	//
	// Supported MIME types:
	//   * text/html
	//   * text/css
	//   * application/javascript
	//   * application/json
	//   * application/xml
	//   * image/svg+xml
	//
	// Unsupported MIME types will be silently ignored.
	//
	// Default value: ["text/html", "text/css", "application/javascript",
	// "application/json", "application/xml", "image/svg+xml"]
	MinifierMIMETypes []string `mapstructure:"minifier_mime_types"`

	// CofferEnabled indicates whether the coffer is enabled.
	//
	// The `CofferEnabled` gives the static mounts the ability to use the
	// runtime memory to reduce the disk I/O pressure.
	//
	// Default value: false
	CofferEnabled bool `mapstructure:"coffer_enabled"`

	// CofferMaxMemoryBytes is the maximum number of bytes of the runtime
	// memory allowed for the coffer to use.
	//
	// Default value: 33554432
	CofferMaxMemoryBytes int `mapstructure:"coffer_max_memory_bytes"`

	// ConfigFile is the path to the configuration file that will be
	// parsed into the matching fields before starting the server.
	//
	// The ".json" extension means the configuration file is JSON-based.
	//
	// The ".toml" extension means the configuration file is TOML-based.
	//
	// The ".yaml" and ".yml" extensions means the configuration file is
	// YAML-based.
	//
	// Default value: ""
	ConfigFile string `mapstructure:"-"`

	logger   *Logger
	router   *router
	minifier *minifier
	coffer   *coffer
	pool     *workerPool
	listener *listener

	mounts []*staticMount

	addressMutex sync.Mutex
	addresses    []string
}

// Default is the default instance of the `Torch`.
//
// If you only need one instance of the `Torch`, you should use the `Default`.
// Unless you think you can efficiently pass your instance in different
// scopes.
var Default = New()

// New returns a new instance of the `Torch` with default field values.
//
// The `New` is the only function that creates new instances of the `Torch`
// and keeps everything working.
func New() *Torch {
	t := &Torch{
		AppName:                  "torch",
		Address:                  "localhost:8080",
		WorkerCount:              8,
		ReadTimeout:              5 * time.Second,
		SocketReceiveBufferBytes: 1 << 18,
		SocketSendBufferBytes:    1 << 18,
		LoggerFormat: `{"app_name":"{{.app_name}}",` +
			`"time":"{{.time_rfc3339}}","level":"{{.level}}",` +
			`"file":"{{.short_file}}","line":"{{.line}}"}`,
		LogFileMaxMegabytes: 100,
		LogFileMaxBackups:   4,
		MinifierMIMETypes: []string{
			"text/html",
			"text/css",
			"application/javascript",
			"application/json",
			"application/xml",
			"image/svg+xml",
		},
		CofferMaxMemoryBytes: 32 << 20,
	}

	t.logger = newLogger(t)
	t.router = newRouter(t)
	t.minifier = newMinifier(t)
	t.coffer = newCoffer(t)

	return t
}

// GET registers a new GET route for the path with the matching h in the
// router of the t.
//
// The path may contain ":name" params.
func (t *Torch) GET(path string, h Handler) {
	t.router.register("GET", path, h)
}

// POST registers a new POST route for the path with the matching h in the
// router of the t.
//
// The path may contain ":name" params.
func (t *Torch) POST(path string, h Handler) {
	t.router.register("POST", path, h)
}

// PUT registers a new PUT route for the path with the matching h in the
// router of the t.
//
// The path may contain ":name" params.
func (t *Torch) PUT(path string, h Handler) {
	t.router.register("PUT", path, h)
}

// PATCH registers a new PATCH route for the path with the matching h in the
// router of the t.
//
// The path may contain ":name" params.
func (t *Torch) PATCH(path string, h Handler) {
	t.router.register("PATCH", path, h)
}

// DELETE registers a new DELETE route for the path with the matching h in the
// router of the t.
//
// The path may contain ":name" params.
func (t *Torch) DELETE(path string, h Handler) {
	t.router.register("DELETE", path, h)
}

// WEBSOCKET registers a new WebSocket route for the path with the hs in the
// router of the t.
//
// The path may contain ":name" params. Requests that carry a WebSocket
// upgrade header and a Sec-WebSocket-Key header and match the path are
// handed the RFC 6455 handshake; all other requests keep flowing through the
// plain HTTP routes.
func (t *Torch) WEBSOCKET(path string, hs WebSocketHandlers) {
	t.router.registerWebSocket(path, hs)
}

// STATIC registers a new static mount that serves the files inside the root
// for every GET request whose path starts with the prefix and that no route
// claims.
//
// The browse indicates whether a generated index of a directory's entries is
// served when the directory has no "index.html".
func (t *Torch) STATIC(prefix, root string, browse bool) {
	if prefix == "" || prefix[0] != '/' {
		panic("torch: the static mount prefix must start with the /")
	}

	if prefix != "/" {
		prefix = strings.TrimRight(prefix, "/")
	}

	if root == "" {
		root = "."
	}

	t.mounts = append(t.mounts, &staticMount{
		prefix: prefix,
		root:   root,
		browse: browse,
	})
}

// Handler defines a function to serve requests.
type Handler func(*RequestContext) *Response

// Serve starts the server of the t.
//
// It parses the `ConfigFile` (if set), binds the listener, starts the worker
// pool and runs the accept loop until the `Close` is called.
func (t *Torch) Serve() error {
	if t.ConfigFile != "" {
		b, err := os.ReadFile(t.ConfigFile)
		if err != nil {
			return err
		}

		m := map[string]interface{}{}
		switch e := strings.ToLower(filepath.Ext(t.ConfigFile)); e {
		case ".json":
			err = json.Unmarshal(b, &m)
		case ".toml":
			err = toml.Unmarshal(b, &m)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &m)
		default:
			err = fmt.Errorf(
				"torch: unsupported configuration file "+
					"extension: %s",
				e,
			)
		}

		if err != nil {
			return err
		} else if err := mapstructure.Decode(m, t); err != nil {
			return err
		}
	}

	if t.LogFile != "" {
		t.logger.Output = &lumberjack.Logger{
			Filename:   t.LogFile,
			MaxSize:    t.LogFileMaxMegabytes,
			MaxBackups: t.LogFileMaxBackups,
		}
	}

	l := newListener(t)
	if err := l.listen(t.Address); err != nil {
		return err
	}
	defer l.Close()

	t.listener = l

	t.addressMutex.Lock()
	t.addresses = append(t.addresses, l.Addr().String())
	t.addressMutex.Unlock()

	defer func() {
		t.addressMutex.Lock()
		t.addresses = nil
		t.addressMutex.Unlock()
	}()

	t.pool = newWorkerPool(t.WorkerCount, t.handleConnection)
	defer t.pool.close()

	if t.DebugMode {
		fmt.Printf("torch: serving on %v in debug mode\n", t.Addresses())
	}

	for {
		conn, err := l.accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return err
		}

		t.pool.enqueue(conn)
	}
}

// Close closes the server of the t immediately.
//
// Connections already handed to WebSocket workers are not interrupted.
func (t *Torch) Close() error {
	if t.pool != nil {
		t.pool.close()
	}

	if t.listener != nil {
		return t.listener.Close()
	}

	return nil
}

// Addresses returns all TCP addresses that the server of the t actually
// listens on.
func (t *Torch) Addresses() []string {
	t.addressMutex.Lock()
	defer t.addressMutex.Unlock()
	return append([]string(nil), t.addresses...)
}
