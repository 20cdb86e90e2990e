package cfgerrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// IOKind classifies a failed read of a reference
type IOKind string

const (
	NotFound         IOKind = "NOT_FOUND"
	NetworkError     IOKind = "NETWORK_ERROR"
	PermissionDenied IOKind = "PERMISSION_DENIED"
	Timeout          IOKind = "TIMEOUT"
	InvalidEncoding  IOKind = "INVALID_ENCODING"
	UndefinedIO      IOKind = "UNDEFINED_ERROR"
)

const (
	SyntaxCode            = "SYNTAX_ERROR"
	DescriptorParseCode   = "DESCRIPTOR_PARSE_ERROR"
	UnsupportedFormatCode = "UNSUPPORTED_FORMAT"
	UndefinedError        = "UNDEFINED_ERROR"
)

type Location struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// IOError is returned when the content of a reference could not be fetched
type IOError struct {
	Kind IOKind
	Ref  string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("unable to read %s (%s): %v", e.Ref, e.Kind, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// SyntaxError is returned when a document could not be parsed in its detected format
type SyntaxError struct {
	File      string
	Locations []Location
	Message   string
}

func (e *SyntaxError) Error() string {
	if len(e.Locations) > 0 {
		loc := e.Locations[0]
		return fmt.Sprintf("%s:%d:%d: %s", e.File, loc.Line, loc.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// NewSyntaxError converts a parser error into a SyntaxError keeping
// positions reported by gqlparser
func NewSyntaxError(file string, err error) *SyntaxError {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se
	}

	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return &SyntaxError{
			File:      file,
			Message:   gqlErr.Message,
			Locations: lo.Map(gqlErr.Locations, func(l gqlerror.Location, _ int) Location { return Location(l) }),
		}
	}

	return &SyntaxError{File: file, Message: err.Error()}
}

// DescriptorParseError is returned when a protobuf file is not valid
type DescriptorParseError struct {
	Path    string
	Message string
}

func (e *DescriptorParseError) Error() string {
	return fmt.Sprintf("unable to parse descriptor %s: %s", e.Path, e.Message)
}

// UnsupportedFormatError is returned when the format of a reference can't be detected
type UnsupportedFormatError struct {
	Ref string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported config format for %s: expected one of .graphql, .gql, .yml, .yaml, .json", e.Ref)
}

// Error is the reportable form of any resolution failure
type Error struct {
	Extensions map[string]interface{} `json:"extensions"`
	Message    string                 `json:"message"`
	Locations  []Location             `json:"locations,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError returns an error with the given code and message
func NewError(code string, err error) *Error {
	return &Error{
		Message: err.Error(),
		Extensions: map[string]interface{}{
			"code": code,
		},
	}
}

// ErrorList represents a list of errors
type ErrorList []*Error

// ExtendErrorList adds provided err as *Error
func ExtendErrorList(errs ErrorList, err error) ErrorList {
	return append(errs, FormatError(err)...)
}

// Error returns a string representation of each error
func (list ErrorList) Error() string {
	acc := make([]string, len(list))

	for i, err := range list {
		acc[i] = err.Error()
	}

	return strings.Join(acc, ". ")
}

// FormatError flattens err into coded entries. Wrapped typed errors are
// found through the chain, the message keeps the whole chain.
func FormatError(err error) ErrorList {
	if err == nil {
		return nil
	}

	var (
		list    ErrorList
		e       *Error
		ioErr   *IOError
		synErr  *SyntaxError
		descErr *DescriptorParseError
		fmtErr  *UnsupportedFormatError
		gqlErr  *gqlerror.Error
		gqlList gqlerror.List
	)

	switch {
	case errors.As(err, &list):
		var res ErrorList
		for _, innerErr := range list {
			res = append(res, FormatError(innerErr)...)
		}
		return res
	case errors.As(err, &e):
		return ErrorList{e}
	case errors.As(err, &ioErr):
		return ErrorList{withReference(string(ioErr.Kind), ioErr.Ref, err)}
	case errors.As(err, &synErr):
		res := withReference(SyntaxCode, synErr.File, err)
		res.Locations = synErr.Locations
		return ErrorList{res}
	case errors.As(err, &descErr):
		return ErrorList{withReference(DescriptorParseCode, descErr.Path, err)}
	case errors.As(err, &fmtErr):
		return ErrorList{withReference(UnsupportedFormatCode, fmtErr.Ref, err)}
	case errors.As(err, &gqlList):
		var res ErrorList
		for _, innerErr := range gqlList {
			res = append(res, FormatError(innerErr)...)
		}
		return res
	case errors.As(err, &gqlErr):
		res := NewSyntaxError("", gqlErr)
		return ErrorList{&Error{
			Extensions: map[string]interface{}{"code": SyntaxCode},
			Message:    gqlErr.Message,
			Locations:  res.Locations,
		}}
	default:
		return ErrorList{
			NewError(UndefinedError, err),
		}
	}
}

// Code returns the code of the first typed error found in the chain
func Code(err error) string {
	list := FormatError(err)
	if len(list) == 0 {
		return ""
	}

	code, _ := list[0].Extensions["code"].(string)
	return code
}

func withReference(code, ref string, err error) *Error {
	res := NewError(code, err)
	if ref != "" {
		res.Extensions["reference"] = ref
	}
	return res
}
