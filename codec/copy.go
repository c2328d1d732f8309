package codec

// Copy copies exactly one complete value from r into w, recursing
// into structs, arrays, dicts, and variants as needed. It relies on
// the fact that after any Read/Begin/End call a ReadCursor's State
// already names what comes next, so Copy never needs to know the
// signature ahead of time — it just follows the cursor.
//
// Copy moves a value between cursors without a reflection-based
// marshaler. dbus.Variant does not call it: filling a Variant's Value
// is left to its caller.
func Copy(w *WriteCursor, r *ReadCursor) {
	switch r.State() {
	case Byte:
		w.WriteByte(r.ReadByte())
	case Boolean:
		w.WriteBoolean(r.ReadBoolean())
	case Int16:
		w.WriteInt16(r.ReadInt16())
	case Uint16:
		w.WriteUint16(r.ReadUint16())
	case Int32:
		w.WriteInt32(r.ReadInt32())
	case Uint32:
		w.WriteUint32(r.ReadUint32())
	case Int64:
		w.WriteInt64(r.ReadInt64())
	case Uint64:
		w.WriteUint64(r.ReadUint64())
	case Double:
		w.WriteDouble(r.ReadDouble())
	case String:
		w.WriteString(r.ReadString())
	case ObjectPath:
		w.WriteObjectPath(r.ReadObjectPath())
	case Signature:
		w.WriteSignature(r.ReadSignature())
	case UnixFd:
		w.WriteUnixFd(r.ReadUnixFd())

	case BeginStruct:
		r.BeginStruct()
		w.BeginStruct()
		for r.State() != EndStruct && r.State() != InvalidData {
			Copy(w, r)
		}
		r.EndStruct()
		w.EndStruct()

	case BeginVariant:
		r.BeginVariant()
		w.BeginVariant()
		Copy(w, r)
		r.EndVariant()
		w.EndVariant()

	case BeginArray:
		var isEmpty bool
		r.BeginArray(&isEmpty)
		w.BeginArray(isEmpty)
		if isEmpty {
			// The Reader already walked the element type's grammar
			// internally (there is no data to step through); the
			// Writer's BeginArray/EndArray contract still requires the
			// shape to be driven once, so synthesize it here. The
			// NextArrayEntry loop below still runs (and returns false
			// immediately) to bring the Reader to its EndArray state.
			writeEmptyElementShape(w, emptyArrayElementSignature(r))
		}
		first := true
		for r.NextArrayEntry() {
			if !first {
				w.NextArrayEntry()
			}
			Copy(w, r)
			first = false
		}
		r.EndArray()
		w.EndArray()

	case BeginDict:
		var isEmpty bool
		r.BeginDict(&isEmpty)
		w.BeginDict(isEmpty)
		if isEmpty {
			keySig, valSig := emptyDictEntrySignature(r)
			writeEmptyElementShape(w, keySig)
			writeEmptyElementShape(w, valSig)
		}
		first := true
		for r.NextDictEntry() {
			if !first {
				w.NextDictEntry()
			}
			Copy(w, r) // key
			Copy(w, r) // value
			first = false
		}
		r.EndDict()
		w.EndDict()
	}
}

// emptyArrayElementSignature returns the element type signature of
// the array frame r just opened via BeginArray(isEmpty=true). Copy is
// in package codec, so it can read the ReadCursor's private nesting
// frame directly rather than needing a public accessor.
func emptyArrayElementSignature(r *ReadCursor) []byte {
	top := r.stack[len(r.stack)-1]
	start := top.containedTypeBegin + 1
	var n nesting
	rest, ok := parseSingleCompleteType(r.signature[start:], &n)
	if !ok {
		return nil
	}
	return r.signature[start : len(r.signature)-len(rest)]
}

// emptyDictEntrySignature returns the key and value type signatures
// of the dict frame r just opened via BeginDict(isEmpty=true).
func emptyDictEntrySignature(r *ReadCursor) (key, value []byte) {
	top := r.stack[len(r.stack)-1]
	inner := r.signature[top.containedTypeBegin+1:]
	var n nesting
	afterKey, ok := parseSingleCompleteType(inner, &n)
	if !ok {
		return nil, nil
	}
	key = inner[:len(inner)-len(afterKey)]
	afterValue, ok := parseSingleCompleteType(afterKey, &n)
	if !ok {
		return key, nil
	}
	value = afterKey[:len(afterKey)-len(afterValue)]
	return key, value
}

// writeEmptyElementShape drives w through one discarded instance of
// sig, the way a real element write would, without needing an actual
// value. w.BeginArray/BeginDict(true) puts w in the codec's
// shape-only mode, so every nested Write/Begin/End call here records
// signature only and no payload bytes.
func writeEmptyElementShape(w *WriteCursor, sig []byte) {
	if len(sig) == 0 {
		return
	}
	switch sig[0] {
	case 'y':
		w.WriteByte(0)
	case 'b':
		w.WriteBoolean(false)
	case 'n':
		w.WriteInt16(0)
	case 'q':
		w.WriteUint16(0)
	case 'i':
		w.WriteInt32(0)
	case 'u':
		w.WriteUint32(0)
	case 'x':
		w.WriteInt64(0)
	case 't':
		w.WriteUint64(0)
	case 'd':
		w.WriteDouble(0)
	case 's':
		w.WriteString("")
	case 'o':
		w.WriteObjectPath("/")
	case 'g':
		w.WriteSignature("")
	case 'h':
		w.WriteUnixFd(0)
	case 'v':
		w.BeginVariant()
		w.WriteByte(0)
		w.EndVariant()
	case '(':
		w.BeginStruct()
		rest := sig[1 : len(sig)-1]
		var n nesting
		for len(rest) > 0 {
			next, ok := parseSingleCompleteType(rest, &n)
			if !ok {
				break
			}
			writeEmptyElementShape(w, rest[:len(rest)-len(next)])
			rest = next
		}
		w.EndStruct()
	case 'a':
		if len(sig) > 1 && sig[1] == '{' {
			inner := sig[2 : len(sig)-1]
			var n nesting
			afterKey, ok := parseSingleCompleteType(inner, &n)
			if !ok {
				break
			}
			keySig := inner[:len(inner)-len(afterKey)]
			w.BeginDict(true)
			writeEmptyElementShape(w, keySig)
			writeEmptyElementShape(w, afterKey)
			w.EndDict()
		} else {
			w.BeginArray(true)
			writeEmptyElementShape(w, sig[1:])
			w.EndArray()
		}
	}
}
