package rpc

import "google.golang.org/protobuf/reflect/protoreflect"

// Procedures served by the display server.
const (
	DisplayService          = "semigrafx.v1.DisplayService"
	CreateSessionProcedure  = "/" + DisplayService + "/CreateSession"
	DestroySessionProcedure = "/" + DisplayService + "/DestroySession"
	PointerDownProcedure    = "/" + DisplayService + "/PointerDown"
	KeyDownProcedure        = "/" + DisplayService + "/KeyDown"
	FrameProcedure          = "/" + DisplayService + "/Frame"
	SnapshotProcedure       = "/" + DisplayService + "/Snapshot"
	RecompileProcedure      = "/" + DisplayService + "/Recompile"
)

// Procedures served by a compile endpoint.
const (
	CompileService   = "semigrafx.v1.CompileService"
	CompileProcedure = "/" + CompileService + "/Compile"
)

// Message is implemented by every request and response of the protocol.
// Each converts to and from its dynamic message in the embedded schema.
type Message interface {
	toProto() record
	fromProto(r record)
	messageName() protoreflect.Name
}

// CompileRequest carries program source to the compile endpoint.
type CompileRequest struct {
	Source string
}

func (*CompileRequest) messageName() protoreflect.Name { return "CompileRequest" }

func (m *CompileRequest) toProto() record {
	r := newRecord(m.messageName())
	r.setString("source", m.Source)
	return r
}

func (m *CompileRequest) fromProto(r record) {
	m.Source = r.getString("source")
}

// CompileResponse carries the compiled factory text.
type CompileResponse struct {
	Factory string
}

func (*CompileResponse) messageName() protoreflect.Name { return "CompileResponse" }

func (m *CompileResponse) toProto() record {
	r := newRecord(m.messageName())
	r.setString("factory", m.Factory)
	return r
}

func (m *CompileResponse) fromProto(r record) {
	m.Factory = r.getString("factory")
}

// CreateSessionRequest starts a program. Exactly one of Program, Source
// and Factory selects it: a catalog id, source to compile, or factory
// text.
type CreateSessionRequest struct {
	Name    string
	Program string
	Source  string
	Factory string
	Seed    uint64
}

func (*CreateSessionRequest) messageName() protoreflect.Name { return "CreateSessionRequest" }

func (m *CreateSessionRequest) toProto() record {
	r := newRecord(m.messageName())
	r.setString("name", m.Name)
	r.setString("program", m.Program)
	r.setString("source", m.Source)
	r.setString("factory", m.Factory)
	r.setUint64("seed", m.Seed)
	return r
}

func (m *CreateSessionRequest) fromProto(r record) {
	m.Name = r.getString("name")
	m.Program = r.getString("program")
	m.Source = r.getString("source")
	m.Factory = r.getString("factory")
	m.Seed = r.getUint64("seed")
}

// SessionRequest addresses an existing session.
type SessionRequest struct {
	SessionID string
}

func (*SessionRequest) messageName() protoreflect.Name { return "SessionRequest" }

func (m *SessionRequest) toProto() record {
	r := newRecord(m.messageName())
	r.setString("session_id", m.SessionID)
	return r
}

func (m *SessionRequest) fromProto(r record) {
	m.SessionID = r.getString("session_id")
}

// PointerRequest is a pointer-down on a slot of a session's grid.
type PointerRequest struct {
	SessionID string
	Row       int
	Col       int
	Shift     bool
	Alt       bool
}

func (*PointerRequest) messageName() protoreflect.Name { return "PointerRequest" }

func (m *PointerRequest) toProto() record {
	r := newRecord(m.messageName())
	r.setString("session_id", m.SessionID)
	r.setInt("row", m.Row)
	r.setInt("col", m.Col)
	r.setBool("shift", m.Shift)
	r.setBool("alt", m.Alt)
	return r
}

func (m *PointerRequest) fromProto(r record) {
	m.SessionID = r.getString("session_id")
	m.Row = r.getInt("row")
	m.Col = r.getInt("col")
	m.Shift = r.getBool("shift")
	m.Alt = r.getBool("alt")
}

// KeyRequest is a key-down for a session.
type KeyRequest struct {
	SessionID string
	KeyCode   int
	Shift     bool
	Alt       bool
	Meta      bool
	Ctrl      bool
}

func (*KeyRequest) messageName() protoreflect.Name { return "KeyRequest" }

func (m *KeyRequest) toProto() record {
	r := newRecord(m.messageName())
	r.setString("session_id", m.SessionID)
	r.setInt("key_code", m.KeyCode)
	r.setBool("shift", m.Shift)
	r.setBool("alt", m.Alt)
	r.setBool("meta", m.Meta)
	r.setBool("ctrl", m.Ctrl)
	return r
}

func (m *KeyRequest) fromProto(r record) {
	m.SessionID = r.getString("session_id")
	m.KeyCode = r.getInt("key_code")
	m.Shift = r.getBool("shift")
	m.Alt = r.getBool("alt")
	m.Meta = r.getBool("meta")
	m.Ctrl = r.getBool("ctrl")
}

// RecompileRequest replaces a session's program with freshly compiled
// source.
type RecompileRequest struct {
	SessionID string
	Source    string
}

func (*RecompileRequest) messageName() protoreflect.Name { return "RecompileRequest" }

func (m *RecompileRequest) toProto() record {
	r := newRecord(m.messageName())
	r.setString("session_id", m.SessionID)
	r.setString("source", m.Source)
	return r
}

func (m *RecompileRequest) fromProto(r record) {
	m.SessionID = r.getString("session_id")
	m.Source = r.getString("source")
}

// FrameResponse is the state of a session after a call. Codes holds the
// 1024 tile codes in slot order.
type FrameResponse struct {
	SessionID string
	State     string
	Codes     []int32
	Consumed  bool
	MouseDown bool
	KeyDown   bool
	Error     string
}

func (*FrameResponse) messageName() protoreflect.Name { return "FrameResponse" }

func (m *FrameResponse) toProto() record {
	r := newRecord(m.messageName())
	r.setString("session_id", m.SessionID)
	r.setString("state", m.State)
	r.setInt32s("codes", m.Codes)
	r.setBool("consumed", m.Consumed)
	r.setBool("mouse_down", m.MouseDown)
	r.setBool("key_down", m.KeyDown)
	r.setString("error", m.Error)
	return r
}

func (m *FrameResponse) fromProto(r record) {
	m.SessionID = r.getString("session_id")
	m.State = r.getString("state")
	m.Codes = r.getInt32s("codes")
	m.Consumed = r.getBool("consumed")
	m.MouseDown = r.getBool("mouse_down")
	m.KeyDown = r.getBool("key_down")
	m.Error = r.getString("error")
}

// SnapshotResponse carries a CBOR-encoded session snapshot.
type SnapshotResponse struct {
	SessionID string
	Data      []byte
}

func (*SnapshotResponse) messageName() protoreflect.Name { return "SnapshotResponse" }

func (m *SnapshotResponse) toProto() record {
	r := newRecord(m.messageName())
	r.setString("session_id", m.SessionID)
	r.setBytes("data", m.Data)
	return r
}

func (m *SnapshotResponse) fromProto(r record) {
	m.SessionID = r.getString("session_id")
	m.Data = r.getBytes("data")
}
