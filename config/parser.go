package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/buildbuildio/cobble/cfgerrors"
	"gopkg.in/yaml.v3"
)

// Parser turns the text of a document into a Config. file is only used to
// annotate errors.
type Parser interface {
	Parse(format Format, file, text string) (*Config, error)
}

// FormatParser dispatches on the detected format. Unknown keys are rejected.
type FormatParser struct{}

var _ Parser = FormatParser{}

func (FormatParser) Parse(format Format, file, text string) (*Config, error) {
	var (
		cfg *Config
		err error
	)

	switch format {
	case GraphQL:
		cfg, err = parseSDL(file, text)
	case YAML:
		cfg, err = parseYAML(file, text)
	case JSON:
		cfg, err = parseJSON(file, text)
	default:
		return nil, &cfgerrors.UnsupportedFormatError{Ref: file}
	}

	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, &cfgerrors.SyntaxError{File: file, Message: err.Error()}
	}

	return cfg, nil
}

var yamlLine = regexp.MustCompile(`line (\d+)(?:, column (\d+))?`)

func parseYAML(file, text string) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, yamlSyntaxError(file, err)
	}

	var next yaml.Node
	switch err := dec.Decode(&next); {
	case errors.Is(err, io.EOF):
		return cfg, nil
	case err != nil:
		return nil, yamlSyntaxError(file, err)
	}

	res := &cfgerrors.SyntaxError{File: file, Message: "multiple YAML documents are not supported"}
	if next.Line > 0 {
		res.Locations = []cfgerrors.Location{{Line: next.Line, Column: next.Column}}
	}
	return nil, res
}

func yamlSyntaxError(file string, err error) *cfgerrors.SyntaxError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	res := &cfgerrors.SyntaxError{File: file, Message: msg}

	match := yamlLine.FindStringSubmatch(msg)
	if match == nil {
		return res
	}

	line, _ := strconv.Atoi(match[1])
	loc := cfgerrors.Location{Line: line}
	if match[2] != "" {
		loc.Column, _ = strconv.Atoi(match[2])
	}
	res.Locations = []cfgerrors.Location{loc}

	return res
}

func parseJSON(file, text string) (*Config, error) {
	cfg := &Config{}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		return nil, jsonSyntaxError(file, text, err)
	}

	offset := dec.InputOffset()
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		offset += int64(len(text[offset:]) - len(strings.TrimLeft(text[offset:], " \t\r\n")))
		return nil, &cfgerrors.SyntaxError{
			File:      file,
			Message:   "invalid character after top-level value",
			Locations: []cfgerrors.Location{offsetLocation(text, offset)},
		}
	}

	return cfg, nil
}

func jsonSyntaxError(file, text string, err error) *cfgerrors.SyntaxError {
	res := &cfgerrors.SyntaxError{File: file, Message: err.Error()}

	var (
		offset  int64 = -1
		synErr  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &synErr):
		offset = synErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		res.Message = "unexpected end of JSON input"
		offset = int64(len(text))
	}

	if offset >= 0 {
		res.Locations = []cfgerrors.Location{offsetLocation(text, offset)}
	}

	return res
}

// offsetLocation converts a byte offset to a 1-based line and column
func offsetLocation(text string, offset int64) cfgerrors.Location {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}

	head := []byte(text[:offset])
	line := bytes.Count(head, []byte("\n")) + 1
	col := len(head) - bytes.LastIndexByte(head, '\n')

	return cfgerrors.Location{Line: line, Column: col}
}

func (c *Config) validate() error {
	if c.Server.Script != nil {
		if err := c.Server.Script.validate(); err != nil {
			return err
		}
	}

	for typeName, typ := range c.Types {
		if typ == nil {
			return fmt.Errorf("type %s has no definition", typeName)
		}

		for fieldName, fld := range typ.Fields {
			if fld == nil {
				return fmt.Errorf("field %s.%s has no definition", typeName, fieldName)
			}

			if fld.GRPC != nil && fld.GRPC.ProtoPath == "" {
				return fmt.Errorf("field %s.%s: grpc requires protoPath", typeName, fieldName)
			}

			if fld.Expr != nil {
				for _, call := range fld.Expr.Body.grpcCalls() {
					if call.ProtoPath == "" {
						return fmt.Errorf("field %s.%s: grpc requires protoPath", typeName, fieldName)
					}
				}
			}
		}
	}

	return nil
}
