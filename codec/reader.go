package codec

import "fmt"

// readerFrame is one entry of the Reader Cursor's aggregate stack.
type readerFrame struct {
	kind State // BeginStruct, BeginArray, BeginDict, or BeginVariant

	// Array / Dict.
	containedTypeBegin int
	dataEnd             uint32

	// Variant.
	prevSignature         []byte
	prevSignaturePosition int
}

// ReadCursor walks an existing Arguments value, advancing through the
// signature while decoding aligned fields from the payload. See
// spec.md §4.3.
type ReadCursor struct {
	args  *Arguments
	state State
	nest  nesting
	order ByteOrder

	signature         []byte // content only, does not include the trailing NUL
	signaturePosition int    // -1 before the first advance
	data              []byte
	dataPosition      uint32

	zeroLengthArrayNesting int
	stack                  []readerFrame

	byteVal   byte
	boolVal   bool
	int16Val  int16
	uint16Val uint16
	int32Val  int32
	uint32Val uint32
	int64Val  int64
	uint64Val uint64
	doubleVal float64
	stringVal []byte // content only, does not include the trailing NUL
	unixFdVal uint32
}

func newInvalidReadCursor() *ReadCursor {
	return &ReadCursor{state: InvalidData}
}

func newReadCursor(a *Arguments) *ReadCursor {
	c := &ReadCursor{
		args:              a,
		signaturePosition: -1,
		data:              a.data,
		order:             orderFor(a.isByteSwapped),
	}
	if !ValidateSignature(a.signature, FullSignature) {
		c.state = InvalidData
		return c
	}
	c.signature = a.signature[:len(a.signature)-1]
	c.advanceState()
	return c
}

// State returns the cursor's current state. If the cursor is waiting
// on more data (NeedMoreData), State retries the pending transition
// first, so a cursor resumes simply by looping on State after calling
// ReplaceData, exactly as spec.md §4.3/§4.5 describe.
func (c *ReadCursor) State() State {
	if c.state == NeedMoreData {
		c.advanceState()
	}
	return c.state
}

// Close releases the cursor's read claim on its Arguments value. It is
// safe to call more than once.
func (c *ReadCursor) Close() {
	if c.args != nil {
		c.args.releaseReader()
		c.args = nil
	}
}

// ReplaceData installs a new (larger) payload buffer without
// otherwise disturbing cursor state, then immediately retries the
// transition that was waiting on more data. Callers that drive the
// cursor through State() in a loop don't strictly need this retry (the
// next State() call would do it), but it means the cursor is correctly
// positioned even if the caller instead goes straight for a ReadX
// call after ReplaceData.
func (c *ReadCursor) ReplaceData(data []byte) {
	c.data = data
	if c.state == NeedMoreData {
		c.advanceState()
	}
}

// Err synthesizes a diagnostic error from a terminal InvalidData
// state. It never affects cursor behavior; it exists purely so
// callers that want an idiomatic Go error (to log or wrap) can get
// one instead of switching on State themselves.
func (c *ReadCursor) Err() error {
	if c.state != InvalidData {
		return nil
	}
	return fmt.Errorf("dbus: argument stream is invalid at signature position %d, data position %d",
		c.signaturePosition, c.dataPosition)
}

func (c *ReadCursor) advanceStateFrom(expected State) {
	if c.state == expected {
		c.advanceState()
	} else {
		c.state = InvalidData
	}
}

// advanceState is the central algorithm described in spec.md §4.3.
func (c *ReadCursor) advanceState() {
	if c.state == InvalidData {
		return
	}

	savedSignaturePosition := c.signaturePosition
	savedDataPosition := c.dataPosition

	c.signaturePosition++

	if len(c.stack) == 0 {
		if c.signaturePosition >= len(c.signature) {
			c.state = Finished
			return
		}
	} else {
		top := &c.stack[len(c.stack)-1]
		switch top.kind {
		case BeginStruct:
			// handled below when we see ')'
		case BeginVariant:
			if c.signaturePosition >= len(c.signature) {
				c.state = EndVariant
				c.nest.endVariant()
				c.signature = top.prevSignature
				c.signaturePosition = top.prevSignaturePosition
				c.stack = c.stack[:len(c.stack)-1]
				return
			}
		case BeginDict, BeginArray:
			isDict := top.kind == BeginDict
			var isEndOfEntry bool
			if isDict {
				isEndOfEntry = c.signature[c.signaturePosition] == '}'
			} else {
				isEndOfEntry = c.signaturePosition > top.containedTypeBegin+1
			}
			if isEndOfEntry {
				if isDict {
					c.state = NextDictEntry
				} else {
					c.state = NextArrayEntry
				}
				return
			}
			if c.dataPosition >= top.dataEnd {
				c.state = InvalidData
				return
			}
		}
	}

	state, alignment, isPrimitive, isString := typeInfo(c.signature[c.signaturePosition])
	c.state = state
	if c.state == InvalidData {
		return
	}

	if c.zeroLengthArrayNesting > 0 && (isPrimitive || isString) {
		return
	}

	c.dataPosition = align(c.dataPosition, alignment)

	if ((isPrimitive || isString) && c.dataPosition+alignment > uint32(len(c.data))) ||
		c.dataPosition > uint32(len(c.data)) {
		c.needMoreData(savedSignaturePosition, savedDataPosition)
		return
	}

	if isPrimitive {
		c.state = c.readPrimitive()
		c.dataPosition += alignment
		return
	}

	if isString {
		c.state = c.readString(alignment)
		if c.state == NeedMoreData {
			c.needMoreData(savedSignaturePosition, savedDataPosition)
		}
		return
	}

	switch c.state {
	case BeginStruct:
		if !c.nest.beginParen() {
			c.state = InvalidData
			return
		}
		c.stack = append(c.stack, readerFrame{kind: BeginStruct})

	case EndStruct:
		c.nest.endParen()
		c.stack = c.stack[:len(c.stack)-1]

	case BeginVariant:
		var sig []byte
		if c.zeroLengthArrayNesting > 0 {
			sig = nil
		} else {
			if c.dataPosition >= uint32(len(c.data)) {
				c.needMoreData(savedSignaturePosition, savedDataPosition)
				return
			}
			length := uint32(c.data[c.dataPosition])
			c.dataPosition++
			sigEnd := c.dataPosition + length + 1
			if sigEnd > uint32(len(c.data)) {
				c.needMoreData(savedSignaturePosition, savedDataPosition)
				return
			}
			candidate := c.data[c.dataPosition:sigEnd]
			c.dataPosition = sigEnd
			if !ValidateSignature(candidate, VariantSignature) {
				c.state = InvalidData
				return
			}
			sig = candidate[:length]
		}
		if !c.nest.beginVariant() {
			c.state = InvalidData
			return
		}
		c.stack = append(c.stack, readerFrame{
			kind:                  BeginVariant,
			prevSignature:         c.signature,
			prevSignaturePosition: c.signaturePosition,
		})
		c.signature = sig
		c.signaturePosition = -1

	case BeginArray:
		var arrayLength uint32
		if c.zeroLengthArrayNesting == 0 {
			if c.dataPosition+4 > uint32(len(c.data)) {
				c.needMoreData(savedSignaturePosition, savedDataPosition)
				return
			}
			arrayLength = readUint32(c.data[c.dataPosition:], c.order)
			if arrayLength > maxArrayDataLength {
				c.state = InvalidData
				return
			}
			c.dataPosition += 4
		}

		firstElementType, firstElementAlignment, _, _ := typeInfo(c.signature[c.signaturePosition+1])
		if firstElementType == BeginDict {
			c.state = BeginDict
		} else {
			c.state = BeginArray
		}

		if c.zeroLengthArrayNesting == 0 {
			c.dataPosition = align(c.dataPosition, firstElementAlignment)
		}
		dataEnd := c.dataPosition + arrayLength
		if dataEnd > uint32(len(c.data)) {
			c.needMoreData(savedSignaturePosition, savedDataPosition)
			return
		}

		nestOk := c.nest.beginArray()
		if firstElementType == BeginDict {
			c.signaturePosition++
			nestOk = nestOk && c.nest.beginParen()
		}
		if !nestOk {
			c.state = InvalidData
			return
		}

		frame := readerFrame{kind: c.state, containedTypeBegin: c.signaturePosition, dataEnd: dataEnd}
		if arrayLength == 0 {
			c.zeroLengthArrayNesting++
		}
		c.stack = append(c.stack, frame)

	default:
		panic(fmt.Sprintf("dbus: unreachable cursor state %s in advanceState", c.state))
	}
}

// needMoreData rolls the cursor back to its pre-attempt position,
// unless an active array frame had already promised its data was
// fully present, in which case truncation there means the stream is
// corrupt rather than merely incomplete (spec.md §4.3, §4.5).
func (c *ReadCursor) needMoreData(savedSignaturePosition int, savedDataPosition uint32) {
	c.state = NeedMoreData
	if c.nest.array > 0 {
		c.state = InvalidData
	}
	c.signaturePosition = savedSignaturePosition
	c.dataPosition = savedDataPosition
}

func (c *ReadCursor) readPrimitive() State {
	switch c.state {
	case Byte:
		c.byteVal = c.data[c.dataPosition]
	case Boolean:
		num := readUint32(c.data[c.dataPosition:], c.order)
		if num > 1 {
			return InvalidData
		}
		c.boolVal = num == 1
	case Int16:
		c.int16Val = readInt16(c.data[c.dataPosition:], c.order)
	case Uint16:
		c.uint16Val = readUint16(c.data[c.dataPosition:], c.order)
	case Int32:
		c.int32Val = readInt32(c.data[c.dataPosition:], c.order)
	case Uint32:
		c.uint32Val = readUint32(c.data[c.dataPosition:], c.order)
	case Int64:
		c.int64Val = readInt64(c.data[c.dataPosition:], c.order)
	case Uint64:
		c.uint64Val = readUint64(c.data[c.dataPosition:], c.order)
	case Double:
		c.doubleVal = readDouble(c.data[c.dataPosition:], c.order)
	case UnixFd:
		// The fd-table lookup for this index is a collaborator
		// concern; see dbus.FDTable.
		c.unixFdVal = readUint32(c.data[c.dataPosition:], c.order)
	default:
		panic(fmt.Sprintf("dbus: readPrimitive called in state %s", c.state))
	}
	return c.state
}

func (c *ReadCursor) readString(lengthPrefixSize uint32) State {
	var stringLength uint32 = 1 // terminating NUL
	if lengthPrefixSize == 1 {
		stringLength += uint32(c.data[c.dataPosition])
	} else {
		stringLength += readUint32(c.data[c.dataPosition:], c.order)
	}
	c.dataPosition += lengthPrefixSize
	if c.dataPosition+stringLength > uint32(len(c.data)) {
		return NeedMoreData
	}
	full := c.data[c.dataPosition : c.dataPosition+stringLength]
	c.dataPosition += stringLength

	var valid bool
	switch c.state {
	case String:
		valid = ValidateString(full)
	case ObjectPath:
		valid = ValidateObjectPath(full)
	case Signature:
		valid = ValidateSignature(full, FullSignature)
	}
	if !valid {
		return InvalidData
	}
	c.stringVal = full[:len(full)-1]
	return c.state
}

// ReadByte returns the decoded value and advances the cursor. State
// must be Byte.
func (c *ReadCursor) ReadByte() byte {
	v := c.byteVal
	c.advanceStateFrom(Byte)
	return v
}

// ReadBoolean returns the decoded value and advances the cursor.
// State must be Boolean.
func (c *ReadCursor) ReadBoolean() bool {
	v := c.boolVal
	c.advanceStateFrom(Boolean)
	return v
}

// ReadInt16 returns the decoded value and advances the cursor. State
// must be Int16.
func (c *ReadCursor) ReadInt16() int16 {
	v := c.int16Val
	c.advanceStateFrom(Int16)
	return v
}

// ReadUint16 returns the decoded value and advances the cursor. State
// must be Uint16.
func (c *ReadCursor) ReadUint16() uint16 {
	v := c.uint16Val
	c.advanceStateFrom(Uint16)
	return v
}

// ReadInt32 returns the decoded value and advances the cursor. State
// must be Int32.
func (c *ReadCursor) ReadInt32() int32 {
	v := c.int32Val
	c.advanceStateFrom(Int32)
	return v
}

// ReadUint32 returns the decoded value and advances the cursor. State
// must be Uint32.
func (c *ReadCursor) ReadUint32() uint32 {
	v := c.uint32Val
	c.advanceStateFrom(Uint32)
	return v
}

// ReadInt64 returns the decoded value and advances the cursor. State
// must be Int64.
func (c *ReadCursor) ReadInt64() int64 {
	v := c.int64Val
	c.advanceStateFrom(Int64)
	return v
}

// ReadUint64 returns the decoded value and advances the cursor. State
// must be Uint64.
func (c *ReadCursor) ReadUint64() uint64 {
	v := c.uint64Val
	c.advanceStateFrom(Uint64)
	return v
}

// ReadDouble returns the decoded value and advances the cursor. State
// must be Double.
func (c *ReadCursor) ReadDouble() float64 {
	v := c.doubleVal
	c.advanceStateFrom(Double)
	return v
}

// ReadString returns the decoded value and advances the cursor. State
// must be String.
func (c *ReadCursor) ReadString() string {
	v := string(c.stringVal)
	c.advanceStateFrom(String)
	return v
}

// ReadObjectPath returns the decoded value and advances the cursor.
// State must be ObjectPath.
func (c *ReadCursor) ReadObjectPath() string {
	v := string(c.stringVal)
	c.advanceStateFrom(ObjectPath)
	return v
}

// ReadSignature returns the decoded value and advances the cursor.
// State must be Signature.
func (c *ReadCursor) ReadSignature() string {
	v := string(c.stringVal)
	c.advanceStateFrom(Signature)
	return v
}

// ReadUnixFd returns the decoded index slot and advances the cursor.
// State must be UnixFd. Resolving the index to a file descriptor is a
// collaborator concern (see dbus.FDTable); the codec never touches an
// fd table itself.
func (c *ReadCursor) ReadUnixFd() uint32 {
	v := c.unixFdVal
	c.advanceStateFrom(UnixFd)
	return v
}

// BeginStruct consumes the BeginStruct transition. State must be
// BeginStruct.
func (c *ReadCursor) BeginStruct() { c.advanceStateFrom(BeginStruct) }

// EndStruct consumes the EndStruct transition. State must be
// EndStruct.
func (c *ReadCursor) EndStruct() { c.advanceStateFrom(EndStruct) }

// BeginVariant consumes the BeginVariant transition. State must be
// BeginVariant.
func (c *ReadCursor) BeginVariant() { c.advanceStateFrom(BeginVariant) }

// EndVariant consumes the EndVariant transition. State must be
// EndVariant.
func (c *ReadCursor) EndVariant() { c.advanceStateFrom(EndVariant) }

func (c *ReadCursor) beginArrayOrDict(isDict bool, isEmpty *bool) {
	empty := c.zeroLengthArrayNesting > 0
	if isEmpty != nil {
		*isEmpty = empty
	}

	if empty {
		// Move signaturePosition to the end of the contained type so
		// that the caller's single type-shape walk terminates
		// correctly, fixing up nesting around the re-parse exactly as
		// advanceState would have if data had been present. rest must
		// start at the 'a' (or, for a dict, the 'a' before the '{'):
		// parseSingleCompleteType does not accept a bare '{'.
		if isDict {
			c.nest.endParen()
			c.signaturePosition--
		}
		c.nest.endArray()
		rest := c.signature[c.signaturePosition:]
		var ok bool
		rest, ok = parseSingleCompleteType(rest, &c.nest)
		if !ok {
			c.state = InvalidData
			return
		}
		c.nest.beginArray()
		if isDict {
			c.nest.beginParen()
		}
		// Leave signaturePosition where a real (non-empty) last element
		// read leaves it: at rest's start (one past the element type)
		// for an array, on the closing '}' for a dict. The adjustments
		// nextArrayOrDictEntry makes on its way to EndArray/EndDict then
		// bring both paths to the same place.
		c.signaturePosition = len(c.signature) - len(rest)
		if isDict {
			c.signaturePosition--
		}
	}

	if isDict {
		c.state = NextDictEntry
	} else {
		c.state = NextArrayEntry
	}
}

// BeginArray consumes the BeginArray transition, reporting whether the
// array carries zero elements. State must be BeginArray.
func (c *ReadCursor) BeginArray(isEmpty *bool) {
	if c.state == BeginArray {
		c.beginArrayOrDict(false, isEmpty)
	} else {
		c.state = InvalidData
	}
}

// BeginDict consumes the BeginDict transition, reporting whether the
// dict carries zero entries. State must be BeginDict.
func (c *ReadCursor) BeginDict(isEmpty *bool) {
	if c.state == BeginDict {
		c.beginArrayOrDict(true, isEmpty)
	} else {
		c.state = InvalidData
	}
}

func (c *ReadCursor) nextArrayOrDictEntry(isDict bool) bool {
	top := &c.stack[len(c.stack)-1]

	if c.zeroLengthArrayNesting > 0 {
		if c.signaturePosition <= top.containedTypeBegin {
			return true
		}
		c.zeroLengthArrayNesting--
	} else {
		if c.dataPosition < top.dataEnd {
			c.signaturePosition = top.containedTypeBegin
			c.advanceState()
			return c.state != InvalidData
		}
	}

	if isDict {
		c.state = EndDict
	} else {
		c.state = EndArray
	}
	c.signaturePosition--
	if isDict {
		c.nest.endParen()
		c.signaturePosition++
	}
	c.nest.endArray()
	c.stack = c.stack[:len(c.stack)-1]
	return false
}

// NextArrayEntry returns true to enter the next element (state
// advances to the element's first type) or false to close the array
// (state becomes EndArray). State must be NextArrayEntry.
func (c *ReadCursor) NextArrayEntry() bool {
	if c.state != NextArrayEntry {
		c.state = InvalidData
		return false
	}
	return c.nextArrayOrDictEntry(false)
}

// EndArray consumes the EndArray transition. State must be EndArray.
func (c *ReadCursor) EndArray() { c.advanceStateFrom(EndArray) }

// NextDictEntry returns true to enter the next entry or false to
// close the dict (state becomes EndDict). State must be NextDictEntry.
func (c *ReadCursor) NextDictEntry() bool {
	if c.state != NextDictEntry {
		c.state = InvalidData
		return false
	}
	return c.nextArrayOrDictEntry(true)
}

// EndDict consumes the EndDict transition. State must be EndDict.
func (c *ReadCursor) EndDict() { c.advanceStateFrom(EndDict) }
