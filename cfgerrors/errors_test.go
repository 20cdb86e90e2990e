package cfgerrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

func TestError(t *testing.T) {
	err := NewError("code", errors.New("error"))

	assert.Equal(t, "error", err.Error())
	assert.Equal(t, err.Extensions["code"], "code")

	l := ErrorList{err, err}

	assert.Equal(t, "error. error", l.Error())
}

func TestExtendError(t *testing.T) {
	expected := ErrorList{NewError(UndefinedError, errors.New("test")), NewError(UndefinedError, errors.New("error"))}
	for _, e := range []error{
		NewError(UndefinedError, errors.New("error")),
		ErrorList{NewError(UndefinedError, errors.New("error"))},
		errors.New("error"),
	} {
		err := ErrorList{NewError(UndefinedError, errors.New("test"))}
		actual := ExtendErrorList(err, e)
		bExpected, _ := json.Marshal(expected)
		bActual, _ := json.Marshal(actual)
		assert.JSONEq(t, string(bExpected), string(bActual))
	}
}

func TestFormatErrorNilValue(t *testing.T) {
	actual := FormatError(nil)
	assert.Nil(t, actual)
	assert.Equal(t, "", Code(nil))
}

func TestFormatIOError(t *testing.T) {
	err := fmt.Errorf("load config: %w", &IOError{
		Kind: NotFound,
		Ref:  "schema.graphql",
		Err:  errors.New("file does not exist"),
	})

	actual := FormatError(err)

	bActual, _ := json.Marshal(actual)
	assert.JSONEq(t, `[{
		"message": "load config: unable to read schema.graphql (NOT_FOUND): file does not exist",
		"extensions": {"code": "NOT_FOUND", "reference": "schema.graphql"}
	}]`, string(bActual))
	assert.Equal(t, string(NotFound), Code(err))
}

func TestFormatSyntaxError(t *testing.T) {
	err := NewSyntaxError("schema.graphql", &gqlerror.Error{
		Message:   "Unexpected Name \"foo\"",
		Locations: []gqlerror.Location{{Line: 3, Column: 7}},
	})

	assert.Equal(t, `schema.graphql:3:7: Unexpected Name "foo"`, err.Error())

	actual := FormatError(fmt.Errorf("parse: %w", err))

	bActual, _ := json.Marshal(actual)
	assert.JSONEq(t, `[{
		"message": "parse: schema.graphql:3:7: Unexpected Name \"foo\"",
		"extensions": {"code": "SYNTAX_ERROR", "reference": "schema.graphql"},
		"locations": [{"line": 3, "column": 7}]
	}]`, string(bActual))
}

func TestNewSyntaxErrorKeepsExisting(t *testing.T) {
	orig := &SyntaxError{File: "a.yml", Message: "bad", Locations: []Location{{Line: 1}}}

	assert.Same(t, orig, NewSyntaxError("b.yml", fmt.Errorf("wrapped: %w", orig)))

	plain := NewSyntaxError("c.json", errors.New("unexpected end"))
	assert.Equal(t, "c.json: unexpected end", plain.Error())
	assert.Empty(t, plain.Locations)
}

func TestFormatDescriptorParseError(t *testing.T) {
	err := fmt.Errorf("resolve descriptor news.proto: %w", &DescriptorParseError{
		Path:    "news.proto",
		Message: "syntax error: unexpected '}'",
	})

	assert.Equal(t, DescriptorParseCode, Code(err))

	list := FormatError(err)
	assert.Len(t, list, 1)
	assert.Equal(t, "news.proto", list[0].Extensions["reference"])
}

func TestFormatUnsupportedFormat(t *testing.T) {
	err := &UnsupportedFormatError{Ref: "schema.toml"}

	assert.Equal(t, UnsupportedFormatCode, Code(err))
	assert.Contains(t, err.Error(), "schema.toml")
}

func TestFormatGQLErrorList(t *testing.T) {
	list := gqlerror.List{
		&gqlerror.Error{Message: "first"},
		&gqlerror.Error{Message: "second", Locations: []gqlerror.Location{{Line: 1, Column: 1}}},
	}

	actual := FormatError(list)

	assert.Len(t, actual, 2)
	assert.Equal(t, "first", actual[0].Message)
	assert.Equal(t, []Location{{Line: 1, Column: 1}}, actual[1].Locations)
	assert.Equal(t, SyntaxCode, actual[1].Extensions["code"])
}

func TestErrorUnmarshall(t *testing.T) {
	errMsg := `[{"message":"unable to read a.graphql","extensions":{"code":"NOT_FOUND"}}]`

	var err ErrorList

	errJson := json.Unmarshal([]byte(errMsg), &err)

	assert.NoError(t, errJson)

	assert.Equal(t, "unable to read a.graphql", err[0].Message)
	assert.Equal(t, "NOT_FOUND", err[0].Extensions["code"])
}
