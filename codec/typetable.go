package codec

// typeInfo is the type descriptor table: a pure function from a
// signature byte to its cursor state, wire alignment, and basic
// shape. Alignment for 'a' describes the length prefix's own
// alignment (4); the element alignment used to position array data is
// looked up separately for the element's signature byte.
func typeInfo(letter byte) (state State, alignment uint32, isPrimitive, isString bool) {
	alignment = 4
	isPrimitive = true
	switch letter {
	case 'y':
		state, alignment = Byte, 1
	case 'b':
		state = Boolean
	case 'n':
		state, alignment = Int16, 2
	case 'q':
		state, alignment = Uint16, 2
	case 'i':
		state = Int32
	case 'u':
		state = Uint32
	case 'x':
		state, alignment = Int64, 8
	case 't':
		state, alignment = Uint64, 8
	case 'd':
		state, alignment = Double, 8
	case 's':
		state, isPrimitive, isString = String, false, true
	case 'o':
		state, isPrimitive, isString = ObjectPath, false, true
	case 'g':
		state, alignment, isPrimitive, isString = Signature, 1, false, true
	case 'h':
		state = UnixFd // primitive on the wire; fd-table lookup is a collaborator concern
	case 'v':
		state, alignment, isPrimitive = BeginVariant, 1, false
	case '(':
		state, alignment, isPrimitive = BeginStruct, 8, false
	case ')':
		state, alignment, isPrimitive = EndStruct, 1, false
	case 'a':
		state, isPrimitive = BeginArray, false
	case '{':
		state, alignment, isPrimitive = BeginDict, 8, false
	case '}':
		state, alignment, isPrimitive = EndDict, 1, false
	default:
		state, alignment, isPrimitive = InvalidData, 1, false
	}
	return state, alignment, isPrimitive, isString
}

func isBasicType(letter byte) bool {
	switch letter {
	case 'y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'd', 's', 'o', 'g', 'h':
		return true
	}
	return false
}

func align(offset, alignment uint32) uint32 {
	step := alignment - 1
	return (offset + step) &^ step
}
