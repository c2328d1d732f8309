package codec

// State is the cursor state. A single enum covers both structural
// positions (BeginArray, EndStruct, ...) and value-ready positions
// (Byte, String, ...), matching the wire codec's "polymorphic event
// stream" design: callers drive the cursor by switching on State and
// calling the one transition it permits.
type State int

const (
	NotStarted State = iota
	Finished
	NeedMoreData
	InvalidData
	AnyData
	DictKey
	BeginArray
	NextArrayEntry
	EndArray
	BeginDict
	NextDictEntry
	EndDict
	BeginStruct
	EndStruct
	BeginVariant
	EndVariant
	Byte
	Boolean
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Double
	String
	ObjectPath
	Signature
	UnixFd
)

var stateNames = [...]string{
	NotStarted:     "NotStarted",
	Finished:       "Finished",
	NeedMoreData:   "NeedMoreData",
	InvalidData:    "InvalidData",
	AnyData:        "AnyData",
	DictKey:        "DictKey",
	BeginArray:     "BeginArray",
	NextArrayEntry: "NextArrayEntry",
	EndArray:       "EndArray",
	BeginDict:      "BeginDict",
	NextDictEntry:  "NextDictEntry",
	EndDict:        "EndDict",
	BeginStruct:    "BeginStruct",
	EndStruct:      "EndStruct",
	BeginVariant:   "BeginVariant",
	EndVariant:     "EndVariant",
	Byte:           "Byte",
	Boolean:        "Boolean",
	Int16:          "Int16",
	Uint16:         "Uint16",
	Int32:          "Int32",
	Uint32:         "Uint32",
	Int64:          "Int64",
	Uint64:         "Uint64",
	Double:         "Double",
	String:         "String",
	ObjectPath:     "ObjectPath",
	Signature:      "Signature",
	UnixFd:         "UnixFd",
}

// String returns the diagnostic name of the state, used to
// distinguish transition-refusal (misuse) from data corruption at the
// call site, per the codec's error handling design.
func (s State) String() string {
	if s < NotStarted || int(s) >= len(stateNames) {
		return "InvalidState"
	}
	return stateNames[s]
}
