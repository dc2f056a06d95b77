package rpc

import (
	_ "embed"
	"fmt"

	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// SchemaPath is the import path of the embedded protocol definition.
const SchemaPath = "semigrafx/v1/display.proto"

//go:embed semigrafx/v1/display.proto
var displayProto string

var schema protoreflect.FileDescriptor

func init() {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{SchemaPath: displayProto}),
	}
	fds, err := parser.ParseFiles(SchemaPath)
	if err != nil {
		panic(fmt.Sprintf("rpc: failed to parse %s: %v", SchemaPath, err))
	}
	schema = fds[0].UnwrapFile()
}

// Schema returns the descriptor of the semigrafx.v1 protocol.
func Schema() protoreflect.FileDescriptor {
	return schema
}

// record is a dynamic message of the schema with typed field access.
// Zero values are left unset, as proto3 would.
type record struct {
	m *dynamicpb.Message
}

func newRecord(name protoreflect.Name) record {
	md := schema.Messages().ByName(name)
	if md == nil {
		panic(fmt.Sprintf("rpc: no message %s in %s", name, SchemaPath))
	}
	return record{m: dynamicpb.NewMessage(md)}
}

func (r record) field(name string) protoreflect.FieldDescriptor {
	fd := r.m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("rpc: %s has no field %s", r.m.Descriptor().FullName(), name))
	}
	return fd
}

func (r record) setString(name, v string) {
	fd := r.field(name)
	if v != "" {
		r.m.Set(fd, protoreflect.ValueOfString(v))
	}
}

func (r record) setBool(name string, v bool) {
	fd := r.field(name)
	if v {
		r.m.Set(fd, protoreflect.ValueOfBool(v))
	}
}

func (r record) setInt(name string, v int) {
	fd := r.field(name)
	if v != 0 {
		r.m.Set(fd, protoreflect.ValueOfInt32(int32(v)))
	}
}

func (r record) setUint64(name string, v uint64) {
	fd := r.field(name)
	if v != 0 {
		r.m.Set(fd, protoreflect.ValueOfUint64(v))
	}
}

func (r record) setBytes(name string, v []byte) {
	fd := r.field(name)
	if len(v) > 0 {
		r.m.Set(fd, protoreflect.ValueOfBytes(v))
	}
}

func (r record) setInt32s(name string, v []int32) {
	fd := r.field(name)
	if len(v) == 0 {
		return
	}
	list := r.m.Mutable(fd).List()
	for _, c := range v {
		list.Append(protoreflect.ValueOfInt32(c))
	}
}

func (r record) getString(name string) string { return r.m.Get(r.field(name)).String() }
func (r record) getBool(name string) bool     { return r.m.Get(r.field(name)).Bool() }
func (r record) getInt(name string) int       { return int(r.m.Get(r.field(name)).Int()) }
func (r record) getUint64(name string) uint64 { return r.m.Get(r.field(name)).Uint() }
func (r record) getBytes(name string) []byte  { return r.m.Get(r.field(name)).Bytes() }

func (r record) getInt32s(name string) []int32 {
	list := r.m.Get(r.field(name)).List()
	if list.Len() == 0 {
		return nil
	}
	out := make([]int32, list.Len())
	for i := range out {
		out[i] = int32(list.Get(i).Int())
	}
	return out
}
