// Package descriptor resolves protobuf files together with the transitive
// closure of their imports.
package descriptor

import (
	"sort"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Record is a parsed protobuf file
type Record struct {
	Name    string                           `json:"name"`
	Imports []string                         `json:"imports,omitempty"`
	File    *descriptorpb.FileDescriptorProto `json:"-"`
}

// NewRecord keeps the imports declared by file under the given identifier
func NewRecord(name string, file *descriptorpb.FileDescriptorProto) *Record {
	return &Record{
		Name:    name,
		Imports: append([]string(nil), file.GetDependency()...),
		File:    file,
	}
}

// Set maps import identifiers, as declared, to their records
type Set map[string]*Record

// Union returns a new set holding the entries of both sets. Identifiers are
// expected to name the same file on both sides, other wins on collision.
func (s Set) Union(other Set) Set {
	res := make(Set, len(s)+len(other))
	for k, v := range s {
		res[k] = v
	}
	for k, v := range other {
		res[k] = v
	}
	return res
}

// Names returns the sorted identifiers of the set
func (s Set) Names() []string {
	res := lo.Keys(s)
	sort.Strings(res)
	return res
}

// FileDescriptorSet lists the files of the set with every file placed after
// the files it imports. Imports missing from the set are skipped.
func (s Set) FileDescriptorSet() *descriptorpb.FileDescriptorSet {
	res := &descriptorpb.FileDescriptorSet{}
	done := make(map[string]bool, len(s))

	var visit func(name string)
	visit = func(name string) {
		rec, ok := s[name]
		if !ok || done[name] {
			return
		}
		done[name] = true

		for _, imp := range rec.Imports {
			visit(imp)
		}
		res.File = append(res.File, rec.File)
	}

	for _, name := range s.Names() {
		visit(name)
	}

	return res
}
