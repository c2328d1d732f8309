package codec

import "fmt"

// elementKind tags one entry of the Writer's intermediate
// "ElementInfo" log (spec.md §3). A plain data chunk carries a byte
// range in the scratch buffer; the three sentinel kinds defer work to
// Finish.
type elementKind int

const (
	elementData elementKind = iota
	elementArrayLengthField
	elementArrayLengthEndMark
	elementVariantSignature
)

// elementInfo is one entry of the Writer's append-only log. Unlike the
// original C++ design (which recomputes each chunk's scratch-buffer
// source offset by replaying alignment over a running cursor),
// scratchOffset is recorded explicitly at write time: it is simpler
// and removes any risk of the replay drifting out of sync with the
// densely-packed scratch buffer. The overall strategy — defer
// variant-signature inlining and array-length patching to one linear
// pass in Finish — is unchanged.
type elementInfo struct {
	kind        elementKind
	alignment   uint32
	scratchOffset int
	size        uint32 // valid only when kind == elementData
}

// maxChunkSize bounds how much of a string's bytes one elementInfo
// entry covers. The original needed this because its ElementInfo size
// field did double duty as a sentinel space; Go's explicit elementKind
// removes that constraint, but we keep the chunking because it is a
// documented part of the design (spec.md §4.4).
const maxChunkSize = 1 << 16

// writerFrame is one entry of the Writer Cursor's aggregate stack.
type writerFrame struct {
	kind                State // BeginStruct, BeginArray, BeginDict, or BeginVariant
	containedTypeBegin  int

	// Variant.
	prevSignature          []byte
	prevSignaturePosition  int
	variantSignatureIndex  int
}

// WriteCursor builds an Arguments value from scratch, buffering
// variants so the final layout can be materialised by Finish. See
// spec.md §4.4.
type WriteCursor struct {
	args  *Arguments // nil for a standalone cursor created by NewWriteCursor
	state State
	nest  nesting
	order ByteOrder

	signature         []byte // content only, grows as the signature is first written
	signaturePosition int
	data              []byte // scratch payload, densely packed in call order
	elements          []elementInfo
	stack             []writerFrame
	variantSignatures [][]byte // each entry: length-prefixed, NUL-terminated, ready to inline

	zeroLengthArrayNesting int

	pendingByte    byte
	pendingBool    bool
	pendingInt16   int16
	pendingUint16  uint16
	pendingInt32   int32
	pendingUint32  uint32
	pendingInt64   int64
	pendingUint64  uint64
	pendingDouble  float64
	pendingString  []byte
	pendingUnixFd  uint32
}

func newInvalidWriteCursor() *WriteCursor {
	return &WriteCursor{state: InvalidData}
}

func newWriteCursor(a *Arguments) *WriteCursor {
	return &WriteCursor{args: a, state: AnyData, order: orderFor(false)}
}

// NewWriteCursor creates a Writer Cursor that is not bound to any
// existing Arguments value; Finish returns a brand new one. This is
// the common case described in spec.md §6 ("Writer: no inputs beyond
// the driven API").
func NewWriteCursor() *WriteCursor {
	return &WriteCursor{state: AnyData, order: orderFor(false)}
}

// State returns the cursor's current state.
func (c *WriteCursor) State() State { return c.state }

// Err synthesizes a diagnostic error from a terminal InvalidData
// state, purely for callers that want an idiomatic Go error.
func (c *WriteCursor) Err() error {
	if c.state != InvalidData {
		return nil
	}
	return fmt.Errorf("dbus: argument writer is invalid at signature position %d", c.signaturePosition)
}

// Close abandons the cursor without finishing it, releasing any claim
// on its bound Arguments value. Safe to call more than once, and after
// Finish.
func (c *WriteCursor) Close() {
	if c.args != nil {
		c.args.releaseWriter()
		c.args = nil
	}
}

// advanceState is the central algorithm described in spec.md §4.4.
func (c *WriteCursor) advanceState(signatureFragment []byte, newState State) {
	if c.state == InvalidData {
		return
	}
	c.state = newState

	var alignment uint32 = 1
	var isPrimitive, isString bool
	if len(signatureFragment) > 0 {
		_, alignment, isPrimitive, isString = typeInfo(signatureFragment[0])
	}

	isWritingSignature := c.signaturePosition == len(c.signature)
	if isWritingSignature {
		if c.signaturePosition+len(signatureFragment) > maxSignatureLength {
			c.state = InvalidData
			return
		}
		if len(c.stack) > 0 {
			top := c.stack[len(c.stack)-1]
			switch top.kind {
			case BeginVariant:
				if c.signaturePosition > top.containedTypeBegin && c.state != EndVariant {
					c.state = InvalidData
					return
				}
			case BeginArray:
				if c.signaturePosition > top.containedTypeBegin && c.state != EndArray {
					c.state = InvalidData
					return
				}
			case BeginDict:
				if c.signaturePosition == top.containedTypeBegin && !(isPrimitive || isString) {
					c.state = InvalidData
					return
				}
				if c.signaturePosition > top.containedTypeBegin+1 && c.state != EndDict {
					c.state = InvalidData
					return
				}
			}
		}
		c.signature = append(c.signature, signatureFragment...)
		c.signaturePosition += len(signatureFragment)
	} else {
		if c.signaturePosition+len(signatureFragment) > len(c.signature) {
			c.state = InvalidData
			return
		}
		for _, b := range signatureFragment {
			if c.signature[c.signaturePosition] != b {
				c.state = InvalidData
				return
			}
			c.signaturePosition++
		}
	}

	if isPrimitive {
		c.state = c.writePrimitive(alignment)
		return
	}
	if isString {
		c.state = c.writeStringValue(alignment)
		return
	}

	switch c.state {
	case BeginStruct:
		if !c.nest.beginParen() {
			c.state = InvalidData
			return
		}
		c.stack = append(c.stack, writerFrame{kind: BeginStruct, containedTypeBegin: c.signaturePosition})
		// Below the outermost zero-length array, containers are shape
		// only and add nothing to the payload.
		if c.zeroLengthArrayNesting <= 1 {
			c.elements = append(c.elements, elementInfo{kind: elementData, alignment: 8})
		}

	case EndStruct:
		c.nest.endParen()
		if len(c.stack) == 0 {
			c.state = InvalidData
			return
		}
		top := c.stack[len(c.stack)-1]
		if top.kind != BeginStruct || c.signaturePosition <= top.containedTypeBegin+1 {
			c.state = InvalidData
			return
		}
		c.stack = c.stack[:len(c.stack)-1]

	case BeginVariant:
		if !c.nest.beginVariant() {
			c.state = InvalidData
			return
		}
		// Inside a zero-length array a variant is shape only: its
		// inline signature is not part of the payload.
		variantIndex := -1
		if c.zeroLengthArrayNesting == 0 {
			variantIndex = len(c.variantSignatures)
			c.elements = append(c.elements, elementInfo{kind: elementVariantSignature, alignment: 1})
			c.variantSignatures = append(c.variantSignatures, nil)
		}
		c.stack = append(c.stack, writerFrame{
			kind:                  BeginVariant,
			prevSignature:         c.signature,
			prevSignaturePosition: c.signaturePosition,
			variantSignatureIndex: variantIndex,
		})
		c.signature = nil
		c.signaturePosition = 0

	case EndVariant:
		c.nest.endVariant()
		if len(c.stack) == 0 {
			c.state = InvalidData
			return
		}
		top := c.stack[len(c.stack)-1]
		if top.kind != BeginVariant {
			c.state = InvalidData
			return
		}
		finalSig := make([]byte, 0, len(c.signature)+2)
		finalSig = append(finalSig, byte(len(c.signature)))
		finalSig = append(finalSig, c.signature...)
		finalSig = append(finalSig, 0)
		if top.variantSignatureIndex >= 0 {
			c.variantSignatures[top.variantSignatureIndex] = finalSig
		}

		c.signature = top.prevSignature
		c.signaturePosition = top.prevSignaturePosition
		c.stack = c.stack[:len(c.stack)-1]

	case BeginDict, BeginArray:
		// The original conflates this with m_nesting->beginVariant();
		// the correct call, matching the Reader and spec.md §9, is
		// beginArray().
		if !c.nest.beginArray() {
			c.state = InvalidData
			return
		}
		if c.state == BeginDict {
			if !c.nest.beginParen() {
				c.state = InvalidData
				return
			}
		}
		c.stack = append(c.stack, writerFrame{kind: c.state, containedTypeBegin: c.signaturePosition})
		if c.zeroLengthArrayNesting <= 1 {
			c.elements = append(c.elements, elementInfo{kind: elementArrayLengthField, alignment: 4})
			if c.state == BeginDict {
				c.elements = append(c.elements, elementInfo{kind: elementData, alignment: 8})
			}
		}
		if c.state == BeginDict {
			c.state = DictKey
			return
		}

	case EndDict:
		c.nest.endParen()
		c.nest.endArray()
		if len(c.stack) == 0 {
			c.state = InvalidData
			return
		}
		top := c.stack[len(c.stack)-1]
		if top.kind != BeginDict {
			c.state = InvalidData
			return
		}
		c.stack = c.stack[:len(c.stack)-1]
		if c.zeroLengthArrayNesting > 0 {
			c.zeroLengthArrayNesting--
		}
		if c.zeroLengthArrayNesting == 0 {
			c.elements = append(c.elements, elementInfo{kind: elementArrayLengthEndMark})
		}

	case EndArray:
		c.nest.endArray()
		if len(c.stack) == 0 {
			c.state = InvalidData
			return
		}
		top := c.stack[len(c.stack)-1]
		if top.kind != BeginArray {
			c.state = InvalidData
			return
		}
		c.stack = c.stack[:len(c.stack)-1]
		if c.zeroLengthArrayNesting > 0 {
			c.zeroLengthArrayNesting--
		}
		if c.zeroLengthArrayNesting == 0 {
			c.elements = append(c.elements, elementInfo{kind: elementArrayLengthEndMark})
		}

	default:
		c.state = InvalidData
		return
	}

	c.state = AnyData
}

func (c *WriteCursor) writePrimitive(alignment uint32) State {
	st := c.state
	if c.zeroLengthArrayNesting > 0 {
		// Type-shape-only walk: no data is recorded (spec.md §4.4
		// Empty-container protocol).
		return st
	}

	off := len(c.data)
	switch st {
	case Byte:
		c.data = append(c.data, c.pendingByte)
	case Boolean:
		var n uint32
		if c.pendingBool {
			n = 1
		}
		var buf [4]byte
		writeUint32(buf[:], c.order, n)
		c.data = append(c.data, buf[:]...)
	case Int16:
		var buf [2]byte
		writeInt16(buf[:], c.order, c.pendingInt16)
		c.data = append(c.data, buf[:]...)
	case Uint16:
		var buf [2]byte
		writeUint16(buf[:], c.order, c.pendingUint16)
		c.data = append(c.data, buf[:]...)
	case Int32:
		var buf [4]byte
		writeInt32(buf[:], c.order, c.pendingInt32)
		c.data = append(c.data, buf[:]...)
	case Uint32:
		var buf [4]byte
		writeUint32(buf[:], c.order, c.pendingUint32)
		c.data = append(c.data, buf[:]...)
	case Int64:
		var buf [8]byte
		writeInt64(buf[:], c.order, c.pendingInt64)
		c.data = append(c.data, buf[:]...)
	case Uint64:
		var buf [8]byte
		writeUint64(buf[:], c.order, c.pendingUint64)
		c.data = append(c.data, buf[:]...)
	case Double:
		var buf [8]byte
		writeDouble(buf[:], c.order, c.pendingDouble)
		c.data = append(c.data, buf[:]...)
	case UnixFd:
		// Only the index slot is written; resolving it to a real fd
		// is a collaborator concern (dbus.FDTable).
		var buf [4]byte
		writeUint32(buf[:], c.order, c.pendingUnixFd)
		c.data = append(c.data, buf[:]...)
	default:
		return InvalidData
	}
	c.elements = append(c.elements, elementInfo{kind: elementData, alignment: alignment, scratchOffset: off, size: alignment})
	return st
}

func (c *WriteCursor) writeStringValue(lengthPrefixSize uint32) State {
	st := c.state
	if c.zeroLengthArrayNesting > 0 {
		return st
	}

	content := c.pendingString
	var valid bool
	switch st {
	case String:
		valid = true
		for _, b := range content {
			if b == 0 {
				valid = false
				break
			}
		}
	case ObjectPath:
		valid = ValidateObjectPath(append(append([]byte(nil), content...), 0))
	case Signature:
		valid = ValidateSignature(append(append([]byte(nil), content...), 0), FullSignature)
	default:
		return InvalidData
	}
	if !valid {
		return InvalidData
	}

	off := len(c.data)
	if lengthPrefixSize == 1 {
		c.data = append(c.data, byte(len(content)))
	} else {
		var buf [4]byte
		writeUint32(buf[:], c.order, uint32(len(content)))
		c.data = append(c.data, buf[:]...)
	}
	c.elements = append(c.elements, elementInfo{kind: elementData, alignment: lengthPrefixSize, scratchOffset: off, size: lengthPrefixSize})

	// content plus a trailing NUL, chunked. Writing the NUL explicitly
	// (rather than relying on a subsequent element's zero-filled
	// alignment padding to supply it) avoids losing the terminator
	// when the string happens to be the very last element written.
	withNul := append(append([]byte(nil), content...), 0)
	for len(withNul) > 0 {
		chunk := withNul
		if len(chunk) > maxChunkSize {
			chunk = chunk[:maxChunkSize]
		}
		coff := len(c.data)
		c.data = append(c.data, chunk...)
		c.elements = append(c.elements, elementInfo{kind: elementData, alignment: 1, scratchOffset: coff, size: uint32(len(chunk))})
		withNul = withNul[len(chunk):]
	}
	return st
}

// WriteByte appends a byte.
func (c *WriteCursor) WriteByte(b byte) {
	c.pendingByte = b
	c.advanceState([]byte("y"), Byte)
}

// WriteBoolean appends a boolean.
func (c *WriteCursor) WriteBoolean(b bool) {
	c.pendingBool = b
	c.advanceState([]byte("b"), Boolean)
}

// WriteInt16 appends an int16.
func (c *WriteCursor) WriteInt16(v int16) {
	c.pendingInt16 = v
	c.advanceState([]byte("n"), Int16)
}

// WriteUint16 appends a uint16.
func (c *WriteCursor) WriteUint16(v uint16) {
	c.pendingUint16 = v
	c.advanceState([]byte("q"), Uint16)
}

// WriteInt32 appends an int32.
func (c *WriteCursor) WriteInt32(v int32) {
	c.pendingInt32 = v
	c.advanceState([]byte("i"), Int32)
}

// WriteUint32 appends a uint32.
func (c *WriteCursor) WriteUint32(v uint32) {
	c.pendingUint32 = v
	c.advanceState([]byte("u"), Uint32)
}

// WriteInt64 appends an int64.
func (c *WriteCursor) WriteInt64(v int64) {
	c.pendingInt64 = v
	c.advanceState([]byte("x"), Int64)
}

// WriteUint64 appends a uint64.
func (c *WriteCursor) WriteUint64(v uint64) {
	c.pendingUint64 = v
	c.advanceState([]byte("t"), Uint64)
}

// WriteDouble appends a float64.
func (c *WriteCursor) WriteDouble(v float64) {
	c.pendingDouble = v
	c.advanceState([]byte("d"), Double)
}

// WriteString appends a string. s must not contain a NUL byte.
func (c *WriteCursor) WriteString(s string) {
	c.pendingString = []byte(s)
	c.advanceState([]byte("s"), String)
}

// WriteObjectPath appends an object path. s must match the D-Bus
// object path grammar.
func (c *WriteCursor) WriteObjectPath(s string) {
	c.pendingString = []byte(s)
	c.advanceState([]byte("o"), ObjectPath)
}

// WriteSignature appends a type signature. s must be a valid D-Bus
// signature on its own.
func (c *WriteCursor) WriteSignature(s string) {
	c.pendingString = []byte(s)
	c.advanceState([]byte("g"), Signature)
}

// WriteUnixFd appends a file-descriptor index slot. Resolving the
// index a caller should use is a collaborator concern (dbus.FDTable);
// the codec never touches an fd table itself.
func (c *WriteCursor) WriteUnixFd(index uint32) {
	c.pendingUnixFd = index
	c.advanceState([]byte("h"), UnixFd)
}

// BeginStruct opens a struct.
func (c *WriteCursor) BeginStruct() { c.advanceState([]byte("("), BeginStruct) }

// EndStruct closes a struct. A struct must contain at least one field.
func (c *WriteCursor) EndStruct() { c.advanceState([]byte(")"), EndStruct) }

// BeginVariant opens a variant; the single complete type subsequently
// written becomes the variant's inline signature.
func (c *WriteCursor) BeginVariant() { c.advanceState([]byte("v"), BeginVariant) }

// EndVariant closes a variant.
func (c *WriteCursor) EndVariant() { c.advanceState(nil, EndVariant) }

func (c *WriteCursor) beginArrayOrDict(isDict, isEmpty bool) {
	if c.state == InvalidData {
		return
	}
	if c.zeroLengthArrayNesting > 0 && !isEmpty {
		c.state = InvalidData
		return
	}
	if isEmpty {
		c.zeroLengthArrayNesting++
	}
	if isDict {
		c.advanceState([]byte("a{"), BeginDict)
	} else {
		c.advanceState([]byte("a"), BeginArray)
	}
}

// BeginArray opens an array. isEmpty must be true iff the caller will
// write zero elements (and in that case must still walk the element
// type shape once before EndArray).
func (c *WriteCursor) BeginArray(isEmpty bool) { c.beginArrayOrDict(false, isEmpty) }

// BeginDict opens a dict (an array of basic-keyed entries). isEmpty
// has the same meaning as for BeginArray.
func (c *WriteCursor) BeginDict(isEmpty bool) { c.beginArrayOrDict(true, isEmpty) }

func (c *WriteCursor) nextArrayOrDictEntry(isDict bool) {
	if c.state == InvalidData {
		return
	}
	if len(c.stack) == 0 {
		c.state = InvalidData
		return
	}
	top := c.stack[len(c.stack)-1]
	wantKind := BeginArray
	if isDict {
		wantKind = BeginDict
	}
	if top.kind != wantKind {
		c.state = InvalidData
		return
	}

	if c.zeroLengthArrayNesting > 0 {
		if c.signaturePosition != top.containedTypeBegin {
			c.state = InvalidData
			return
		}
	} else {
		if c.signaturePosition != top.containedTypeBegin && isDict {
			if c.signaturePosition <= top.containedTypeBegin+1 {
				c.state = InvalidData
				return
			}
		}
		c.signaturePosition = top.containedTypeBegin
	}
}

// NextArrayEntry signals the start of another array element.
func (c *WriteCursor) NextArrayEntry() { c.nextArrayOrDictEntry(false) }

// EndArray closes an array. It must contain exactly one element type.
func (c *WriteCursor) EndArray() { c.advanceState(nil, EndArray) }

// NextDictEntry signals the start of another dict entry.
func (c *WriteCursor) NextDictEntry() { c.nextArrayOrDictEntry(true) }

// EndDict closes a dict.
func (c *WriteCursor) EndDict() { c.advanceState([]byte("}"), EndDict) }

// WritePrimitiveArray is a fast path for arrays of a single primitive
// type: it emits the element type, the length prefix, and a bulk copy
// of payload (which must hold a whole number of elemType-sized
// elements) in one go, instead of one call per element.
func (c *WriteCursor) WritePrimitiveArray(elemType byte, payload []byte) {
	if c.state == InvalidData {
		return
	}
	st, elemAlign, isPrimitive, _ := typeInfo(elemType)
	if !isPrimitive {
		c.state = InvalidData
		return
	}
	if uint32(len(payload))%elemAlign != 0 {
		c.state = InvalidData
		return
	}
	isEmpty := len(payload) == 0

	c.BeginArray(isEmpty)
	if c.state == InvalidData {
		return
	}
	// Record the element type once, exactly as one scalar write
	// would; the resulting placeholder chunk is then replaced below
	// with the full payload in a single bulk copy.
	c.advanceState([]byte{elemType}, st)
	if c.state == InvalidData {
		return
	}
	if !isEmpty {
		lastIdx := len(c.elements) - 1
		c.data = c.data[:len(c.data)-int(elemAlign)]
		off := len(c.data)
		c.data = append(c.data, payload...)
		c.elements[lastIdx] = elementInfo{kind: elementData, alignment: elemAlign, scratchOffset: off, size: uint32(len(payload))}
	}
	c.EndArray()
}

type lengthFrame struct {
	lengthPos, dataStart int
}

// Finish walks the ElementInfo log, applies alignment to the final
// buffer positions, back-patches array length fields, inlines variant
// signatures, and zero-fills alignment padding, producing the
// finalised Arguments value. See spec.md §4.4.
func (c *WriteCursor) Finish() *Arguments {
	if c.state != InvalidData && len(c.stack) != 0 {
		c.state = InvalidData
	}

	var sig, out []byte
	if c.state != InvalidData {
		sig = append(append([]byte(nil), c.signature...), 0)
		out = c.materialise()
	} else {
		sig = []byte{0}
	}

	if c.args == nil {
		return &Arguments{signature: sig, data: out}
	}
	c.args.signature = sig
	c.args.data = out
	c.args.releaseWriter()
	result := c.args
	c.args = nil
	return result
}

func (c *WriteCursor) materialise() []byte {
	var out []byte
	var lengthStack []lengthFrame
	variantIndex := 0

	for i, el := range c.elements {
		switch el.kind {
		case elementData:
			out = padTo(out, el.alignment)
			out = append(out, c.data[el.scratchOffset:el.scratchOffset+int(el.size)]...)

		case elementArrayLengthField:
			out = padTo(out, 4)
			lengthPos := len(out)
			out = append(out, 0, 0, 0, 0)
			nextAlign := uint32(1)
			if i+1 < len(c.elements) {
				nextAlign = c.elements[i+1].alignment
			}
			out = padTo(out, nextAlign)
			lengthStack = append(lengthStack, lengthFrame{lengthPos, len(out)})

		case elementArrayLengthEndMark:
			frame := lengthStack[len(lengthStack)-1]
			lengthStack = lengthStack[:len(lengthStack)-1]
			writeUint32(out[frame.lengthPos:], c.order, uint32(len(out)-frame.dataStart))

		case elementVariantSignature:
			out = padTo(out, el.alignment)
			sig := c.variantSignatures[variantIndex]
			variantIndex++
			out = append(out, sig...)
		}
	}
	return out
}

func padTo(out []byte, alignment uint32) []byte {
	newLen := align(uint32(len(out)), alignment)
	for uint32(len(out)) < newLen {
		out = append(out, 0)
	}
	return out
}
