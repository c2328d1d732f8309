package dbus

import "github.com/dbuscore/dbus/codec"

// MessageType is the type of a D-Bus message.
type MessageType byte

const (
	TypeCall MessageType = iota + 1
	TypeReturn
	TypeError
	TypeSignal
)

// Message pairs an opaque, already-serialised header with its body
// Arguments. Header-field encoding (the fixed six bytes plus the
// array of (byte, variant) header fields) is a Non-goal here: a
// transport that needs to inspect or build headers does so on its own
// terms, the way spec.md scopes the codec itself to argument payloads
// only.
type Message struct {
	Header []byte
	Body   codec.Arguments
}
