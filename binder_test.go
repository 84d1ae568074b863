package torch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v4"
)

type bindTarget struct {
	Name string `json:"name" yaml:"name" toml:"name" xml:"name" msgpack:"name"`
	Age  int    `json:"age" yaml:"age" toml:"age" xml:"age" msgpack:"age"`
}

// bindContext builds a `RequestContext` carrying the body under the
// mediaType.
func bindContext(mediaType, body string) *RequestContext {
	return &RequestContext{
		Headers: map[string]string{
			"content-type": mediaType,
		},
		Body: body,
	}
}

func TestBindJSON(t *testing.T) {
	v := bindTarget{}
	err := bindContext(
		"application/json; charset=utf-8",
		`{"name":"Ana","age":30}`,
	).Bind(&v)
	require.NoError(t, err)

	assert.Equal(t, "Ana", v.Name)
	assert.Equal(t, 30, v.Age)
}

func TestBindXML(t *testing.T) {
	v := struct {
		Name string `xml:"name"`
	}{}
	err := bindContext(
		"application/xml",
		"<doc><name>Ana</name></doc>",
	).Bind(&v)
	require.NoError(t, err)

	assert.Equal(t, "Ana", v.Name)
}

func TestBindYAML(t *testing.T) {
	v := bindTarget{}
	err := bindContext(
		"application/yaml",
		"name: Ana\nage: 30\n",
	).Bind(&v)
	require.NoError(t, err)

	assert.Equal(t, "Ana", v.Name)
	assert.Equal(t, 30, v.Age)
}

func TestBindTOML(t *testing.T) {
	v := bindTarget{}
	err := bindContext(
		"application/toml",
		"name = \"Ana\"\nage = 30\n",
	).Bind(&v)
	require.NoError(t, err)

	assert.Equal(t, "Ana", v.Name)
	assert.Equal(t, 30, v.Age)
}

func TestBindMsgpack(t *testing.T) {
	b, err := msgpack.Marshal(&bindTarget{
		Name: "Ana",
		Age:  30,
	})
	require.NoError(t, err)

	v := bindTarget{}
	err = bindContext("application/msgpack", string(b)).Bind(&v)
	require.NoError(t, err)

	assert.Equal(t, "Ana", v.Name)
	assert.Equal(t, 30, v.Age)
}

func TestBindEmptyBody(t *testing.T) {
	v := bindTarget{}
	err := bindContext("application/json", "").Bind(&v)
	assert.ErrorIs(t, err, errNoRequestBody)
}

func TestBindUnsupportedMediaType(t *testing.T) {
	v := bindTarget{}
	err := bindContext("text/csv", "a,b").Bind(&v)
	assert.Error(t, err)
}
