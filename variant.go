package dbus

// Variant holds a decoded D-Bus variant: the inline signature of its
// contained value, and that value parsed into whatever Go type the
// caller chose while driving the cursor. There is no reflection here;
// filling in Value is the caller's job, done by calling BeginVariant,
// reading exactly the fields the Signature calls for, and EndVariant.
type Variant struct {
	Signature []byte
	Value     any
}
