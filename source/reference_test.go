package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		value string
		ext   string
	}{
		{"schema.graphql", Local, "schema.graphql", ".graphql"},
		{"./configs/app.yml", Local, "./configs/app.yml", ".yml"},
		{"/etc/cobble/app.json", Local, "/etc/cobble/app.json", ".json"},
		{"protos/news.proto", Local, "protos/news.proto", ".proto"},
		{"google/protobuf/empty.proto", Local, "google/protobuf/empty.proto", ".proto"},
		{"https://example.com/schema.graphql", Remote, "https://example.com/schema.graphql", ".graphql"},
		{"http://localhost:8080/conf.yaml?token=1#top", Remote, "http://localhost:8080/conf.yaml?token=1#top", ".yaml"},
		{"file:///srv/app.graphql", Local, "/srv/app.graphql", ".graphql"},
		{"c:/configs/app.graphql", Local, "c:/configs/app.graphql", ".graphql"},
		{"", Local, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref := Classify(tt.input)

			assert.Equal(t, tt.kind, ref.Kind())
			assert.Equal(t, tt.value, ref.String())
			assert.Equal(t, tt.ext, ref.Ext())
			assert.Equal(t, tt.kind == Remote, ref.IsRemote())
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for _, s := range []string{"a.graphql", "https://example.com/a.graphql"} {
		assert.Equal(t, Classify(s), Classify(s))
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "remote", Remote.String())
}
