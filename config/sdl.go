package config

import (
	"fmt"

	"github.com/buildbuildio/cobble/cfgerrors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const (
	serverDirective   = "server"
	upstreamDirective = "upstream"
	httpDirective     = "http"
	grpcDirective     = "grpc"
	exprDirective     = "expr"
)

// parseSDL reads the configuration carried by a schema document. The
// document is only parsed, types are not validated against each other.
func parseSDL(file, text string) (*Config, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: file, Input: text})
	if err != nil {
		return nil, cfgerrors.NewSyntaxError(file, err)
	}

	cfg := &Config{}

	schemas := append(ast.SchemaDefinitionList{}, doc.Schema...)
	schemas = append(schemas, doc.SchemaExtension...)

	for _, schema := range schemas {
		for _, op := range schema.OperationTypes {
			name := lo.ToPtr(op.Type)
			switch op.Operation {
			case ast.Query:
				cfg.Schema.Query = name
			case ast.Mutation:
				cfg.Schema.Mutation = name
			case ast.Subscription:
				cfg.Schema.Subscription = name
			}
		}

		if d := schema.Directives.ForName(serverDirective); d != nil {
			if err := decodeDirective(file, d, &cfg.Server); err != nil {
				return nil, err
			}
		}

		if d := schema.Directives.ForName(upstreamDirective); d != nil {
			if err := decodeDirective(file, d, &cfg.Upstream); err != nil {
				return nil, err
			}
		}
	}

	definitions := append(ast.DefinitionList{}, doc.Definitions...)
	definitions = append(definitions, doc.Extensions...)

	for _, def := range definitions {
		if def.Kind != ast.Object && def.Kind != ast.Interface && def.Kind != ast.InputObject {
			continue
		}

		if cfg.Types == nil {
			cfg.Types = make(map[string]*Type)
		}

		typ, ok := cfg.Types[def.Name]
		if !ok {
			typ = &Type{}
			cfg.Types[def.Name] = typ
		}

		if def.Description != "" {
			typ.Doc = def.Description
		}
		if len(def.Interfaces) > 0 {
			typ.Implements = lo.Uniq(append(typ.Implements, def.Interfaces...))
		}

		for _, f := range def.Fields {
			fld, err := toField(file, f)
			if err != nil {
				return nil, err
			}

			if typ.Fields == nil {
				typ.Fields = make(map[string]*Field)
			}
			typ.Fields[f.Name] = fld
		}
	}

	return cfg, nil
}

func toField(file string, f *ast.FieldDefinition) (*Field, error) {
	fld := &Field{
		Type:     f.Type.Name(),
		List:     f.Type.Elem != nil,
		Required: f.Type.NonNull,
		Doc:      f.Description,
	}

	for _, arg := range f.Arguments {
		if fld.Args == nil {
			fld.Args = make(map[string]*Arg)
		}
		fld.Args[arg.Name] = &Arg{
			Type:     arg.Type.Name(),
			List:     arg.Type.Elem != nil,
			Required: arg.Type.NonNull,
		}
	}

	for _, d := range f.Directives {
		var err error

		switch d.Name {
		case httpDirective:
			fld.HTTP = &HTTP{}
			err = decodeDirective(file, d, fld.HTTP)
		case grpcDirective:
			fld.GRPC = &GRPC{}
			err = decodeDirective(file, d, fld.GRPC)
		case exprDirective:
			fld.Expr = &Expr{}
			err = decodeDirective(file, d, fld.Expr)
		}

		if err != nil {
			return nil, err
		}
	}

	return fld, nil
}

// decodeDirective evaluates the directive arguments and decodes them into
// target using the json field names
func decodeDirective(file string, d *ast.Directive, target interface{}) error {
	values := make(map[string]interface{}, len(d.Arguments))

	for _, arg := range d.Arguments {
		val, err := arg.Value.Value(nil)
		if err != nil {
			return syntaxErrorAt(file, arg.Position, err.Error())
		}
		values[arg.Name] = val
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      target,
		ErrorUnused: true,
		DecodeHook:  durationHook(),
	})
	if err != nil {
		return err
	}

	if err := dec.Decode(values); err != nil {
		return syntaxErrorAt(file, d.Position, fmt.Sprintf("@%s: %s", d.Name, err))
	}

	return nil
}

func syntaxErrorAt(file string, pos *ast.Position, msg string) *cfgerrors.SyntaxError {
	res := &cfgerrors.SyntaxError{File: file, Message: msg}
	if pos != nil {
		res.Locations = []cfgerrors.Location{{Line: pos.Line, Column: pos.Column}}
	}
	return res
}
