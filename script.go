package cobble

import (
	"strings"

	"github.com/buildbuildio/cobble/cfgerrors"
	"github.com/buildbuildio/cobble/source"
	"github.com/evanw/esbuild/pkg/api"
)

// ScriptTransformer prepares the source of a worker script before it is inlined
type ScriptTransformer interface {
	Transform(ref source.Reference, code string) (string, error)
}

var typescriptExts = map[string]struct{}{
	".ts":  {},
	".mts": {},
	".cts": {},
}

// EsbuildTransformer strips TypeScript types, any other script is kept as is
type EsbuildTransformer struct{}

var _ ScriptTransformer = EsbuildTransformer{}

func (EsbuildTransformer) Transform(ref source.Reference, code string) (string, error) {
	if _, ok := typescriptExts[strings.ToLower(ref.Ext())]; !ok {
		return code, nil
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:     api.LoaderTS,
		Sourcefile: ref.String(),
		Target:     api.ES2020,
		LogLevel:   api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		msg := result.Errors[0]

		synErr := &cfgerrors.SyntaxError{File: ref.String(), Message: msg.Text}
		if msg.Location != nil {
			synErr.Locations = []cfgerrors.Location{{
				Line:   msg.Location.Line,
				Column: msg.Location.Column + 1,
			}}
		}

		return "", synErr
	}

	return string(result.Code), nil
}
