// Package dbus provides the types that sit between the low-level
// argument codec (package codec) and a D-Bus transport: object paths,
// variants, an file-descriptor table for UnixFd arguments, and an
// opaque message envelope pairing a header with its body Arguments.
//
// This package deliberately has no convenience marshaling layer: it
// does not walk Go structs or reflect over arbitrary values to build
// or consume D-Bus arguments. Callers drive a codec.ReadCursor or
// codec.WriteCursor directly, the same way the transport and its
// callers do.
package dbus
