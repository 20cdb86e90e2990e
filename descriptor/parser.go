package descriptor

import (
	"strings"

	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"
	"github.com/buildbuildio/cobble/cfgerrors"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Parser turns the source of a protobuf file into its descriptor
type Parser interface {
	Parse(path, content string) (*descriptorpb.FileDescriptorProto, error)
}

// ProtoParser parses and validates a single file without linking its imports
type ProtoParser struct{}

var _ Parser = ProtoParser{}

func (ProtoParser) Parse(path, content string) (*descriptorpb.FileDescriptorProto, error) {
	handler := reporter.NewHandler(nil)

	node, err := parser.Parse(path, strings.NewReader(content), handler)
	if err != nil {
		return nil, &cfgerrors.DescriptorParseError{Path: path, Message: err.Error()}
	}

	res, err := parser.ResultFromAST(node, true, handler)
	if err != nil {
		return nil, &cfgerrors.DescriptorParseError{Path: path, Message: err.Error()}
	}

	return res.FileDescriptorProto(), nil
}
