// Package config holds the per-file gateway configuration and the parsers
// turning GraphQL SDL, YAML and JSON documents into it.
//
// Scalar settings are pointers so that an explicitly set value can be told
// apart from an absent one when configurations are merged.
package config

import (
	"net"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

const (
	DefaultHostname = "0.0.0.0"
	DefaultPort     = 8000
)

// DefaultVary is used when a CORS block doesn't declare its own vary list
var DefaultVary = []string{
	"origin",
	"access-control-request-method",
	"access-control-request-headers",
}

type Config struct {
	Schema   RootSchema       `json:"schema" yaml:"schema,omitempty"`
	Server   Server           `json:"server" yaml:"server,omitempty"`
	Upstream Upstream         `json:"upstream" yaml:"upstream,omitempty"`
	Types    map[string]*Type `json:"types,omitempty" yaml:"types,omitempty"`
}

// RootSchema names the root operation types
type RootSchema struct {
	Query        *string `json:"query,omitempty" yaml:"query,omitempty"`
	Mutation     *string `json:"mutation,omitempty" yaml:"mutation,omitempty"`
	Subscription *string `json:"subscription,omitempty" yaml:"subscription,omitempty"`
}

type Server struct {
	Hostname                 *string           `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Port                     *int              `json:"port,omitempty" yaml:"port,omitempty"`
	Workers                  *int              `json:"workers,omitempty" yaml:"workers,omitempty"`
	EnableGraphiQL           *bool             `json:"graphiql,omitempty" yaml:"graphiql,omitempty"`
	EnableIntrospection      *bool             `json:"introspection,omitempty" yaml:"introspection,omitempty"`
	EnableCacheControlHeader *bool             `json:"cacheControlHeader,omitempty" yaml:"cacheControlHeader,omitempty"`
	GlobalResponseTimeout    *Duration         `json:"globalResponseTimeout,omitempty" yaml:"globalResponseTimeout,omitempty"`
	Script                   *Script           `json:"script,omitempty" yaml:"script,omitempty"`
	ResponseHeaders          map[string]string `json:"responseHeaders,omitempty" yaml:"responseHeaders,omitempty"`
	Vars                     map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
	Cors                     *Cors             `json:"cors,omitempty" yaml:"cors,omitempty"`
}

// Address returns hostname:port falling back to the gateway defaults
func (s Server) Address() string {
	host := lo.FromPtrOr(s.Hostname, DefaultHostname)
	port := lo.FromPtrOr(s.Port, DefaultPort)
	return net.JoinHostPort(host, strconv.Itoa(port))
}

type Cors struct {
	AllowCredentials    *bool    `json:"allowCredentials,omitempty" yaml:"allowCredentials,omitempty"`
	AllowPrivateNetwork *bool    `json:"allowPrivateNetwork,omitempty" yaml:"allowPrivateNetwork,omitempty"`
	MaxAge              *int     `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
	AllowHeaders        []string `json:"allowHeaders,omitempty" yaml:"allowHeaders,omitempty"`
	AllowMethods        []string `json:"allowMethods,omitempty" yaml:"allowMethods,omitempty"`
	AllowOrigins        []string `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`
	ExposeHeaders       []string `json:"exposeHeaders,omitempty" yaml:"exposeHeaders,omitempty"`
	Vary                []string `json:"vary,omitempty" yaml:"vary,omitempty"`
}

// EffectiveVary returns the declared vary list or the preflight request headers
func (c *Cors) EffectiveVary() []string {
	if c == nil || len(c.Vary) == 0 {
		return append([]string(nil), DefaultVary...)
	}
	return c.Vary
}

type Upstream struct {
	BaseURL        *string          `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Timeout        *Duration        `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ConnectTimeout *Duration        `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"`
	HTTP2Only      *bool            `json:"http2Only,omitempty" yaml:"http2Only,omitempty"`
	UserAgent      *string          `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	AllowedHeaders []string         `json:"allowedHeaders,omitempty" yaml:"allowedHeaders,omitempty"`
	Hosts          map[string]*Host `json:"hosts,omitempty" yaml:"hosts,omitempty"`
}

// Host is a named upstream, each one gets its own client downstream
type Host struct {
	BaseURL   string    `json:"baseURL" yaml:"baseURL"`
	Timeout   *Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	HTTP2Only *bool     `json:"http2Only,omitempty" yaml:"http2Only,omitempty"`
}

type Type struct {
	Doc        string            `json:"doc,omitempty" yaml:"doc,omitempty"`
	Implements []string          `json:"implements,omitempty" yaml:"implements,omitempty"`
	Fields     map[string]*Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type Field struct {
	Type     string          `json:"type" yaml:"type"`
	List     bool            `json:"list,omitempty" yaml:"list,omitempty"`
	Required bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Doc      string          `json:"doc,omitempty" yaml:"doc,omitempty"`
	Args     map[string]*Arg `json:"args,omitempty" yaml:"args,omitempty"`
	HTTP     *HTTP           `json:"http,omitempty" yaml:"http,omitempty"`
	GRPC     *GRPC           `json:"grpc,omitempty" yaml:"grpc,omitempty"`
	Expr     *Expr           `json:"expr,omitempty" yaml:"expr,omitempty"`
}

type Arg struct {
	Type     string `json:"type" yaml:"type"`
	List     bool   `json:"list,omitempty" yaml:"list,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

type HTTP struct {
	Path    string            `json:"path" yaml:"path"`
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`
	BaseURL *string           `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Query   map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    *string           `json:"body,omitempty" yaml:"body,omitempty"`
}

type GRPC struct {
	ProtoPath string   `json:"protoPath" yaml:"protoPath"`
	Service   string   `json:"service" yaml:"service"`
	Method    string   `json:"method" yaml:"method"`
	BaseURL   *string  `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Body      *string  `json:"body,omitempty" yaml:"body,omitempty"`
	GroupBy   []string `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`
}

type Expr struct {
	Body *ExprBody `json:"body" yaml:"body"`
}

// ExprBody is one step of an expression, exactly one member is expected to be set
type ExprBody struct {
	HTTP  *HTTP       `json:"http,omitempty" yaml:"http,omitempty"`
	GRPC  *GRPC       `json:"grpc,omitempty" yaml:"grpc,omitempty"`
	Const interface{} `json:"const,omitempty" yaml:"const,omitempty"`
	If    *ExprIf     `json:"if,omitempty" yaml:"if,omitempty"`
}

type ExprIf struct {
	Cond *ExprBody `json:"cond" yaml:"cond"`
	Then *ExprBody `json:"then" yaml:"then"`
	Else *ExprBody `json:"else,omitempty" yaml:"else,omitempty"`
}

// grpcCalls collects every grpc call of the body, including nested branches
func (b *ExprBody) grpcCalls() []*GRPC {
	if b == nil {
		return nil
	}

	var res []*GRPC
	if b.GRPC != nil {
		res = append(res, b.GRPC)
	}

	if b.If != nil {
		res = append(res, b.If.Cond.grpcCalls()...)
		res = append(res, b.If.Then.grpcCalls()...)
		res = append(res, b.If.Else.grpcCalls()...)
	}

	return res
}

// ProtoPaths returns the distinct protobuf paths referenced by type fields,
// either directly or inside expression bodies. The result is sorted.
func (c *Config) ProtoPaths() []string {
	paths := make(map[string]struct{})

	for _, typ := range c.Types {
		for _, fld := range typ.Fields {
			var calls []*GRPC
			if fld.GRPC != nil {
				calls = append(calls, fld.GRPC)
			}
			if fld.Expr != nil {
				calls = append(calls, fld.Expr.Body.grpcCalls()...)
			}

			for _, call := range calls {
				if call.ProtoPath != "" {
					paths[call.ProtoPath] = struct{}{}
				}
			}
		}
	}

	res := lo.Keys(paths)
	sort.Strings(res)
	return res
}
