package config

import (
	"strings"

	"github.com/buildbuildio/cobble/cfgerrors"
	"github.com/buildbuildio/cobble/source"
)

type Format string

const (
	GraphQL Format = "graphql"
	YAML    Format = "yaml"
	JSON    Format = "json"
)

var extFormats = map[string]Format{
	".graphql": GraphQL,
	".gql":     GraphQL,
	".yml":     YAML,
	".yaml":    YAML,
	".json":    JSON,
}

// DetectFormat picks the format from the reference extension, remote
// references are judged by their URL path
func DetectFormat(ref source.Reference) (Format, error) {
	format, ok := extFormats[strings.ToLower(ref.Ext())]
	if !ok {
		return "", &cfgerrors.UnsupportedFormatError{Ref: ref.String()}
	}
	return format, nil
}
