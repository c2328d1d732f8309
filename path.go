package dbus

import (
	"github.com/dbuscore/dbus/codec"
)

// ObjectPath is a D-Bus object path. The zero value "" is not a valid
// path; the root path is "/".
type ObjectPath string

// Valid reports whether p matches the D-Bus object path grammar.
func (p ObjectPath) Valid() bool {
	return codec.ValidateObjectPath(append([]byte(p), 0))
}

// Write writes p to c as an object path argument.
func (p ObjectPath) Write(c *codec.WriteCursor) {
	c.WriteObjectPath(string(p))
}

// ReadObjectPath reads an object path argument from c. Callers should
// check c.State() (or c.Err()) after the call to detect failure.
func ReadObjectPath(c *codec.ReadCursor) ObjectPath {
	return ObjectPath(c.ReadObjectPath())
}
