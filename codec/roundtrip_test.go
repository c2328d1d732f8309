package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// roundtripViaCopy writes a value with build, reads it back with a
// ReadCursor, copies it through Copy into a second WriteCursor, and
// asserts the two Arguments serialise identically. This exercises the
// Reader, Writer, and Copy together without hand-deriving expected
// wire bytes for every shape.
func roundtripViaCopy(t *testing.T, build func(w *WriteCursor)) (orig, copied *Arguments) {
	t.Helper()

	w := NewWriteCursor()
	build(w)
	if w.State() == InvalidData {
		t.Fatalf("build: %v", w.Err())
	}
	orig = w.Finish()

	r, ok := orig.BeginRead()
	if !ok {
		t.Fatal("BeginRead refused on a freshly-finished Arguments")
	}
	defer r.Close()

	w2 := NewWriteCursor()
	// Copy moves one complete value per call; repeat it until the
	// reader has no top-level value left.
	for s := r.State(); s != Finished && s != InvalidData && s != NeedMoreData; s = r.State() {
		Copy(w2, r)
	}
	if w2.State() == InvalidData {
		t.Fatalf("copy: %v", w2.Err())
	}
	copied = w2.Finish()

	if diff := cmp.Diff(string(orig.Signature()), string(copied.Signature())); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig.Data(), copied.Data()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	return orig, copied
}

func TestRoundtripPrimitives(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.WriteByte(9)
		w.WriteBoolean(true)
		w.WriteInt16(-5)
		w.WriteUint16(5)
		w.WriteInt32(-100000)
		w.WriteUint32(100000)
		w.WriteInt64(-1 << 40)
		w.WriteUint64(1 << 40)
		w.WriteDouble(3.5)
		w.WriteString("hello, world")
		w.WriteObjectPath("/org/example/Thing")
		w.WriteSignature("a{sv}")
		w.WriteUnixFd(3)
	})
}

func TestRoundtripStruct(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginStruct()
		w.WriteString("name")
		w.WriteInt32(42)
		w.EndStruct()
	})
}

func TestRoundtripNestedStruct(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginStruct()
		w.WriteByte(1)
		w.BeginStruct()
		w.WriteInt16(2)
		w.WriteBoolean(false)
		w.EndStruct()
		w.EndStruct()
	})
}

func TestRoundtripNonEmptyArray(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginArray(false)
		w.WriteUint32(1)
		w.NextArrayEntry()
		w.WriteUint32(2)
		w.NextArrayEntry()
		w.WriteUint32(3)
		w.EndArray()
	})
}

func TestRoundtripEmptyArray(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginArray(true)
		w.WriteString("")
		w.EndArray()
	})
}

func TestRoundtripArrayOfStruct(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginArray(false)
		for i := 0; i < 3; i++ {
			if i > 0 {
				w.NextArrayEntry()
			}
			w.BeginStruct()
			w.WriteByte(byte(i))
			w.WriteString("entry")
			w.EndStruct()
		}
		w.EndArray()
	})
}

func TestRoundtripDict(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginDict(false)
		w.WriteString("a")
		w.WriteInt32(1)
		w.NextDictEntry()
		w.WriteString("b")
		w.WriteInt32(2)
		w.EndDict()
	})
}

func TestRoundtripEmptyDict(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginDict(true)
		w.WriteString("")
		w.WriteInt32(0)
		w.EndDict()
	})
}

func TestRoundtripVariant(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginVariant()
		w.WriteString("payload")
		w.EndVariant()
	})
}

func TestRoundtripVariantHoldingStruct(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginVariant()
		w.BeginStruct()
		w.WriteByte(1)
		w.WriteUint32(2)
		w.EndStruct()
		w.EndVariant()
	})
}

func TestRoundtripStructOfArrayAndVariant(t *testing.T) {
	roundtripViaCopy(t, func(w *WriteCursor) {
		w.BeginStruct()
		w.BeginArray(false)
		w.WriteByte(1)
		w.NextArrayEntry()
		w.WriteByte(2)
		w.EndArray()
		w.BeginVariant()
		w.WriteBoolean(true)
		w.EndVariant()
		w.EndStruct()
	})
}

func TestRoundtripDeeplyNestedArrays(t *testing.T) {
	const depth = 10
	roundtripViaCopy(t, func(w *WriteCursor) {
		for i := 0; i < depth; i++ {
			w.BeginArray(false)
		}
		w.WriteByte(0xAB)
		for i := 0; i < depth; i++ {
			w.EndArray()
		}
	})
}
