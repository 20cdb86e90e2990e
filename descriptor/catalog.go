package descriptor

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"

	// register the bundled files in protoregistry.GlobalFiles
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/apipb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/fieldmaskpb"
	_ "google.golang.org/protobuf/types/known/sourcecontextpb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/typepb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
	_ "google.golang.org/protobuf/types/pluginpb"
)

// Catalog serves descriptors without any I/O
type Catalog interface {
	Lookup(name string) (*Record, bool)
}

type catalog map[string]*Record

func (c catalog) Lookup(name string) (*Record, bool) {
	rec, ok := c[name]
	return rec, ok
}

// NewCatalog builds an immutable catalog keyed by record name
func NewCatalog(records ...*Record) Catalog {
	res := make(catalog, len(records))
	for _, rec := range records {
		res[rec.Name] = rec
	}
	return res
}

// WellKnownFiles are the google/protobuf files served by WellKnown
var WellKnownFiles = []string{
	"google/protobuf/any.proto",
	"google/protobuf/compiler/plugin.proto",
	"google/protobuf/api.proto",
	"google/protobuf/descriptor.proto",
	"google/protobuf/duration.proto",
	"google/protobuf/empty.proto",
	"google/protobuf/field_mask.proto",
	"google/protobuf/source_context.proto",
	"google/protobuf/struct.proto",
	"google/protobuf/timestamp.proto",
	"google/protobuf/type.proto",
	"google/protobuf/wrappers.proto",
}

// WellKnown returns the catalog of the well-known protobuf files. It is
// built once per process from the descriptors compiled into the binary.
var WellKnown = sync.OnceValue(func() Catalog {
	records := make([]*Record, 0, len(WellKnownFiles))

	for _, name := range WellKnownFiles {
		fd, err := protoregistry.GlobalFiles.FindFileByPath(name)
		if err != nil {
			panic(fmt.Sprintf("well-known descriptor %s is not registered: %v", name, err))
		}
		records = append(records, NewRecord(name, protodesc.ToFileDescriptorProto(fd)))
	}

	return NewCatalog(records...)
})
