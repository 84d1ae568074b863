package torch

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v4"
	"gopkg.in/yaml.v3"
)

// errNoRequestBody is returned by the `RequestContext.Bind` when the request
// has no body to decode.
var errNoRequestBody = errors.New("torch: request body is empty")

// Bind decodes the body of the ctx into the v based on the Content-Type
// header.
//
// Supported media types: application/json, application/xml, text/xml,
// application/yaml, text/yaml, application/toml and application/msgpack.
func (ctx *RequestContext) Bind(v interface{}) error {
	if ctx.Body == "" {
		return errNoRequestBody
	}

	mt := ctx.Headers["content-type"]
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}

	mt = strings.TrimSpace(strings.ToLower(mt))

	b := []byte(ctx.Body)

	switch mt {
	case "application/json":
		return json.Unmarshal(b, v)
	case "application/xml", "text/xml":
		return xml.Unmarshal(b, v)
	case "application/yaml", "application/x-yaml", "text/yaml":
		return yaml.Unmarshal(b, v)
	case "application/toml":
		return toml.Unmarshal(b, v)
	case "application/msgpack", "application/x-msgpack":
		return msgpack.Unmarshal(b, v)
	}

	return fmt.Errorf("torch: unsupported media type: %s", mt)
}
