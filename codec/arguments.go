package codec

// Arguments is an immutable pair of a type signature and an aligned
// payload buffer, plus a byte-order flag, as described in spec.md §3.
// The signature and data slices are treated as value-semantic: callers
// must not mutate a slice obtained from Signature()/Data() and expect
// it to affect the Arguments it came from, and vice versa.
//
// Arguments additionally tracks reader/writer claims for the sharing
// discipline in spec.md §5: any number of ReadCursors may exist
// concurrently, but a WriteCursor requires exclusive access. Claim
// bookkeeping is not part of the value for round-trip purposes (only
// Signature() and Data() are compared by spec.md §8 invariant 2).
type Arguments struct {
	signature     []byte // includes trailing NUL
	data          []byte
	isByteSwapped bool

	readers   int
	hasWriter bool
}

// NewArguments constructs an Arguments value from a NUL-terminated
// signature and a payload buffer. isByteSwapped reports whether
// multibyte fields in data were serialised in the opposite endianness
// from this process.
func NewArguments(signature, data []byte, isByteSwapped bool) *Arguments {
	return &Arguments{signature: signature, data: data, isByteSwapped: isByteSwapped}
}

// Signature returns the NUL-terminated type signature.
func (a *Arguments) Signature() []byte { return a.signature }

// Data returns the aligned payload buffer.
func (a *Arguments) Data() []byte { return a.data }

// IsByteSwapped reports whether multibyte fields are serialised in
// the opposite endianness from this process.
func (a *Arguments) IsByteSwapped() bool { return a.isByteSwapped }

// BeginRead constructs a ReadCursor over a. It fails, returning
// ok=false, if a WriteCursor currently holds a on this Arguments
// value (spec.md §5 invariant 8). Claim arbitration is not
// synchronized internally: callers must not call BeginRead/BeginWrite
// concurrently from multiple goroutines on the same Arguments without
// their own external synchronization.
func (a *Arguments) BeginRead() (*ReadCursor, bool) {
	if a.hasWriter {
		return newInvalidReadCursor(), false
	}
	a.readers++
	return newReadCursor(a), true
}

// BeginWrite constructs a WriteCursor that will, on Finish, replace
// a's signature and data. It fails, returning ok=false, if any
// ReadCursor or WriteCursor already claims a.
func (a *Arguments) BeginWrite() (*WriteCursor, bool) {
	if a.readers > 0 || a.hasWriter {
		return newInvalidWriteCursor(), false
	}
	a.hasWriter = true
	return newWriteCursor(a), true
}

func (a *Arguments) releaseReader() {
	if a != nil {
		a.readers--
	}
}

func (a *Arguments) releaseWriter() {
	if a != nil {
		a.hasWriter = false
	}
}
