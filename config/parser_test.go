package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/buildbuildio/cobble/cfgerrors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntaxError(t *testing.T, err error) *cfgerrors.SyntaxError {
	t.Helper()

	var synErr *cfgerrors.SyntaxError
	require.ErrorAs(t, err, &synErr)
	return synErr
}

func TestParseSDL(t *testing.T) {
	input := `
schema
  @server(port: 8080, hostname: "localhost", graphiql: true, vars: {env: "prod"}, script: {path: {src: "worker.js", timeout: 250}})
  @upstream(baseURL: "http://jsonplaceholder.typicode.com", timeout: "5s", allowedHeaders: ["authorization"]) {
  query: Query
  mutation: Mutation
}

"A news item"
type News implements Node {
  id: Int!
  title: String
}

type Query {
  news: [News!]! @grpc(protoPath: "protos/news.proto", service: "news.NewsService", method: "GetAllNews")
  post(id: Int!): Post @http(path: "/posts/{{args.id}}", query: {a: "b"})
  pick(flag: Boolean): Post @expr(body: {if: {cond: {const: true}, then: {grpc: {protoPath: "protos/a.proto", service: "A", method: "Get"}}, else: {const: null}}})
}

extend type Query {
  extra: String
}
`

	cfg, err := FormatParser{}.Parse(GraphQL, "schema.graphql", input)
	require.NoError(t, err)

	assert.Equal(t, "Query", *cfg.Schema.Query)
	assert.Equal(t, "Mutation", *cfg.Schema.Mutation)
	assert.Nil(t, cfg.Schema.Subscription)

	assert.Equal(t, 8080, *cfg.Server.Port)
	assert.Equal(t, "localhost", *cfg.Server.Hostname)
	assert.True(t, *cfg.Server.EnableGraphiQL)
	assert.Nil(t, cfg.Server.EnableIntrospection)
	assert.Equal(t, map[string]string{"env": "prod"}, cfg.Server.Vars)
	require.NotNil(t, cfg.Server.Script)
	assert.Equal(t, "worker.js", cfg.Server.Script.Path.Src)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.Script.Path.Timeout.Std())

	assert.Equal(t, "http://jsonplaceholder.typicode.com", *cfg.Upstream.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout.Std())
	assert.Equal(t, []string{"authorization"}, cfg.Upstream.AllowedHeaders)

	news := cfg.Types["News"]
	require.NotNil(t, news)
	assert.Equal(t, "A news item", news.Doc)
	assert.Equal(t, []string{"Node"}, news.Implements)
	assert.Equal(t, &Field{Type: "Int", Required: true}, news.Fields["id"])

	query := cfg.Types["Query"]
	require.NotNil(t, query)
	assert.Len(t, query.Fields, 4)

	newsField := query.Fields["news"]
	assert.True(t, newsField.List)
	assert.True(t, newsField.Required)
	assert.Equal(t, &GRPC{ProtoPath: "protos/news.proto", Service: "news.NewsService", Method: "GetAllNews"}, newsField.GRPC)

	post := query.Fields["post"]
	assert.Equal(t, &Arg{Type: "Int", Required: true}, post.Args["id"])
	assert.Equal(t, "/posts/{{args.id}}", post.HTTP.Path)
	assert.Equal(t, map[string]string{"a": "b"}, post.HTTP.Query)

	pick := query.Fields["pick"]
	require.NotNil(t, pick.Expr)
	assert.Equal(t, true, pick.Expr.Body.If.Cond.Const)
	assert.Equal(t, "protos/a.proto", pick.Expr.Body.If.Then.GRPC.ProtoPath)

	assert.Equal(t, []string{"protos/a.proto", "protos/news.proto"}, cfg.ProtoPaths())
}

func TestParseSDLSyntaxError(t *testing.T) {
	_, err := FormatParser{}.Parse(GraphQL, "broken.graphql", "type Query {\n  a: \n}")

	synErr := syntaxError(t, err)
	assert.Equal(t, "broken.graphql", synErr.File)
	require.NotEmpty(t, synErr.Locations)
	assert.Equal(t, 3, synErr.Locations[0].Line)
}

func TestParseSDLUnknownDirectiveArgument(t *testing.T) {
	input := `schema @server(prot: 8000) { query: Query }`

	_, err := FormatParser{}.Parse(GraphQL, "a.graphql", input)

	synErr := syntaxError(t, err)
	assert.Contains(t, synErr.Message, "@server")
	require.Len(t, synErr.Locations, 1)
	assert.Equal(t, 1, synErr.Locations[0].Line)
}

func TestParseSDLIgnoresUnknownDirectives(t *testing.T) {
	input := `type Query { a: String @deprecated(reason: "no") }`

	cfg, err := FormatParser{}.Parse(GraphQL, "a.graphql", input)

	require.NoError(t, err)
	assert.Equal(t, &Field{Type: "String"}, cfg.Types["Query"].Fields["a"])
}

func TestParseSDLSkipsNonObjectTypes(t *testing.T) {
	input := `
enum Color { RED }
scalar JSON
interface Node { id: ID! }
input Filter { q: String }
`

	cfg, err := FormatParser{}.Parse(GraphQL, "a.graphql", input)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Node", "Filter"}, lo.Keys(cfg.Types))
}

func TestParseYAML(t *testing.T) {
	input := `
schema:
  query: Query
server:
  port: 8000
  cors:
    allowOrigins: ["https://a.com"]
    vary: ["origin"]
  script:
    inline:
      src: "function onRequest() {}"
upstream:
  timeout: 1500
  hosts:
    news:
      baseURL: http://news:50051
types:
  Query:
    fields:
      news:
        type: News
        list: true
        grpc:
          protoPath: protos/news.proto
          service: news.NewsService
          method: GetAllNews
`

	cfg, err := FormatParser{}.Parse(YAML, "app.yml", input)
	require.NoError(t, err)

	assert.Equal(t, "Query", *cfg.Schema.Query)
	assert.Equal(t, 8000, *cfg.Server.Port)
	assert.Equal(t, []string{"https://a.com"}, cfg.Server.Cors.AllowOrigins)
	assert.True(t, cfg.Server.Script.IsInline())
	assert.Equal(t, 1500*time.Millisecond, cfg.Upstream.Timeout.Std())
	assert.Equal(t, "http://news:50051", cfg.Upstream.Hosts["news"].BaseURL)
	assert.Equal(t, []string{"protos/news.proto"}, cfg.ProtoPaths())
}

func TestParseYAMLEmpty(t *testing.T) {
	cfg, err := FormatParser{}.Parse(YAML, "empty.yml", "")

	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestParseYAMLSyntaxError(t *testing.T) {
	_, err := FormatParser{}.Parse(YAML, "app.yml", "server:\n  port: [1\n")

	synErr := syntaxError(t, err)
	assert.Equal(t, "app.yml", synErr.File)
	require.NotEmpty(t, synErr.Locations)
	assert.Positive(t, synErr.Locations[0].Line)
}

func TestParseYAMLUnknownField(t *testing.T) {
	_, err := FormatParser{}.Parse(YAML, "app.yml", "server:\n  prot: 8000\n")

	synErr := syntaxError(t, err)
	assert.Equal(t, []cfgerrors.Location{{Line: 2}}, synErr.Locations)
	assert.Contains(t, synErr.Message, "prot")
}

func TestParseYAMLRejectsMultipleDocuments(t *testing.T) {
	input := "server:\n  port: 1\n---\nserver:\n  port: 2\ntypes:\n  B:\n    fields:\n      b:\n        type: B\n"

	cfg, err := FormatParser{}.Parse(YAML, "app.yml", input)

	assert.Nil(t, cfg)
	synErr := syntaxError(t, err)
	assert.Equal(t, "multiple YAML documents are not supported", synErr.Message)
	require.Len(t, synErr.Locations, 1)
	assert.GreaterOrEqual(t, synErr.Locations[0].Line, 3)
}

func TestParseYAMLLeadingDocumentMarker(t *testing.T) {
	cfg, err := FormatParser{}.Parse(YAML, "app.yml", "---\nserver:\n  port: 1\n")

	require.NoError(t, err)
	assert.Equal(t, 1, *cfg.Server.Port)
}

func TestParseYAMLBrokenSecondDocument(t *testing.T) {
	_, err := FormatParser{}.Parse(YAML, "app.yml", "server:\n  port: 1\n---\nserver: [\n")

	synErr := syntaxError(t, err)
	assert.Equal(t, "app.yml", synErr.File)
}

func TestParseJSON(t *testing.T) {
	input := `{
  "server": {"hostname": "127.0.0.1", "responseHeaders": {"x-a": "1"}},
  "upstream": {"timeout": "2s", "http2Only": true}
}`

	cfg, err := FormatParser{}.Parse(JSON, "app.json", input)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", *cfg.Server.Hostname)
	assert.Equal(t, map[string]string{"x-a": "1"}, cfg.Server.ResponseHeaders)
	assert.Equal(t, 2*time.Second, cfg.Upstream.Timeout.Std())
	assert.True(t, *cfg.Upstream.HTTP2Only)
}

func TestParseJSONSyntaxError(t *testing.T) {
	_, err := FormatParser{}.Parse(JSON, "app.json", "{\n  \"server\": {\n    \"port\": ,\n  }\n}")

	synErr := syntaxError(t, err)
	require.Len(t, synErr.Locations, 1)
	assert.Equal(t, 3, synErr.Locations[0].Line)
}

func TestParseJSONTypeError(t *testing.T) {
	_, err := FormatParser{}.Parse(JSON, "app.json", `{"server": {"port": "eighty"}}`)

	synErr := syntaxError(t, err)
	require.Len(t, synErr.Locations, 1)
	assert.Equal(t, 1, synErr.Locations[0].Line)
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	inputs := []string{
		`{"server": {"port": 1}} {"server": {"port": 2}} garbage`,
		`{"server": {"port": 1}} garbage`,
		`{"server": {"port": 1}} {"server": {"port": 2}}`,
	}

	for _, input := range inputs {
		cfg, err := FormatParser{}.Parse(JSON, "app.json", input)

		assert.Nil(t, cfg, input)
		synErr := syntaxError(t, err)
		assert.Equal(t, []cfgerrors.Location{{Line: 1, Column: 25}}, synErr.Locations, input)
	}
}

func TestParseJSONTrailingWhitespace(t *testing.T) {
	cfg, err := FormatParser{}.Parse(JSON, "app.json", "{\"server\": {\"port\": 1}}\n\n  \t\n")

	require.NoError(t, err)
	assert.Equal(t, 1, *cfg.Server.Port)
}

func TestParseJSONEmpty(t *testing.T) {
	_, err := FormatParser{}.Parse(JSON, "app.json", "")

	synErr := syntaxError(t, err)
	assert.Equal(t, "unexpected end of JSON input", synErr.Message)
}

func TestParseRejectsAmbiguousScript(t *testing.T) {
	input := `{"server": {"script": {"path": {"src": "a.js"}, "inline": {"src": "x"}}}}`

	_, err := FormatParser{}.Parse(JSON, "app.json", input)

	synErr := syntaxError(t, err)
	assert.Equal(t, errScriptVariant.Error(), synErr.Message)
}

func TestParseRejectsGRPCWithoutProtoPath(t *testing.T) {
	input := `{"types": {"Query": {"fields": {"a": {"type": "A", "grpc": {"service": "S", "method": "M"}}}}}}`

	_, err := FormatParser{}.Parse(JSON, "app.json", input)

	synErr := syntaxError(t, err)
	assert.Contains(t, synErr.Message, "Query.a")
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := FormatParser{}.Parse(Format("toml"), "app.toml", "")

	var fmtErr *cfgerrors.UnsupportedFormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, "app.toml", fmtErr.Ref)
}

func TestConfigJSONRoundTrip(t *testing.T) {
	cfg := &Config{
		Server: Server{
			Port:   lo.ToPtr(9000),
			Script: InlineScript("code", lo.ToPtr(Duration(time.Second))),
		},
	}

	b, err := json.Marshal(cfg)
	require.NoError(t, err)

	res, err := FormatParser{}.Parse(JSON, "out.json", string(b))
	require.NoError(t, err)
	assert.Equal(t, cfg, res)
}
