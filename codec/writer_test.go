package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWritePrimitives(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w *WriteCursor)
		wantSig string
		wantOut []byte
	}{
		{
			"byte",
			func(w *WriteCursor) { w.WriteByte(0x42) },
			"y",
			[]byte{0x42},
		},
		{
			"boolean true",
			func(w *WriteCursor) { w.WriteBoolean(true) },
			"b",
			[]byte{0x01, 0x00, 0x00, 0x00},
		},
		{
			"boolean false",
			func(w *WriteCursor) { w.WriteBoolean(false) },
			"b",
			[]byte{0x00, 0x00, 0x00, 0x00},
		},
		{
			"uint32",
			func(w *WriteCursor) { w.WriteUint32(0x01020304) },
			"u",
			[]byte{0x04, 0x03, 0x02, 0x01},
		},
		{
			"int64 aligns to 8",
			func(w *WriteCursor) {
				w.WriteByte(1)
				w.WriteInt64(2)
			},
			"yx",
			[]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0x02, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			"string",
			func(w *WriteCursor) { w.WriteString("hi") },
			"s",
			[]byte{0x02, 0, 0, 0, 'h', 'i', 0},
		},
		{
			"object path",
			func(w *WriteCursor) { w.WriteObjectPath("/a") },
			"o",
			[]byte{0x02, 0, 0, 0, '/', 'a', 0},
		},
		{
			"signature",
			func(w *WriteCursor) { w.WriteSignature("ay") },
			"g",
			[]byte{0x02, 'a', 'y', 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriteCursor()
			tc.write(w)
			args := w.Finish()
			if w.State() == InvalidData {
				t.Fatalf("write failed: %v", w.Err())
			}
			if diff := cmp.Diff(tc.wantSig, string(args.Signature())); diff != "" {
				t.Errorf("signature mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantOut, args.Data()); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteStructAlignsToEight(t *testing.T) {
	w := NewWriteCursor()
	w.WriteByte(1)
	w.BeginStruct()
	w.WriteByte(2)
	w.EndStruct()

	args := w.Finish()
	if w.State() == InvalidData {
		t.Fatalf("write failed: %v", w.Err())
	}
	want := []byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0x02}
	if diff := cmp.Diff(want, args.Data()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("y(y)", string(args.Signature())); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteEmptyArray(t *testing.T) {
	w := NewWriteCursor()
	w.BeginArray(true)
	w.WriteUint32(0) // shape-only walk: value is discarded
	w.EndArray()

	args := w.Finish()
	if w.State() == InvalidData {
		t.Fatalf("write failed: %v", w.Err())
	}
	want := []byte{0x00, 0x00, 0x00, 0x00} // just the length prefix
	if diff := cmp.Diff(want, args.Data()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteNonEmptyArray(t *testing.T) {
	w := NewWriteCursor()
	w.BeginArray(false)
	w.WriteUint32(1)
	w.NextArrayEntry()
	w.WriteUint32(2)
	w.EndArray()

	args := w.Finish()
	if w.State() == InvalidData {
		t.Fatalf("write failed: %v", w.Err())
	}
	want := []byte{
		0x08, 0x00, 0x00, 0x00, // length = 8 bytes
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}
	if diff := cmp.Diff(want, args.Data()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("au", string(args.Signature())); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteVariant(t *testing.T) {
	w := NewWriteCursor()
	w.BeginVariant()
	w.WriteUint32(7)
	w.EndVariant()

	args := w.Finish()
	if w.State() == InvalidData {
		t.Fatalf("write failed: %v", w.Err())
	}
	want := []byte{
		0x01, 'u', 0x00, // inline signature "u"
		0x00,                   // pad to 4-byte alignment
		0x07, 0x00, 0x00, 0x00, // value
	}
	if diff := cmp.Diff(want, args.Data()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("v", string(args.Signature())); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePrimitiveArrayFastPath(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	slow := NewWriteCursor()
	slow.BeginArray(false)
	for i, b := range payload {
		if i > 0 {
			slow.NextArrayEntry()
		}
		slow.WriteByte(b)
	}
	slow.EndArray()
	wantArgs := slow.Finish()

	fast := NewWriteCursor()
	fast.WritePrimitiveArray('y', payload)
	gotArgs := fast.Finish()

	if diff := cmp.Diff(wantArgs.Data(), gotArgs.Data()); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(string(wantArgs.Signature()), string(gotArgs.Signature())); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteMismatchedStructIsInvalid(t *testing.T) {
	w := NewWriteCursor()
	w.EndStruct() // no struct open
	if w.State() != InvalidData {
		t.Fatalf("State() = %v, want InvalidData", w.State())
	}
}

func TestWriteExceedsArrayNestingIsInvalid(t *testing.T) {
	w := NewWriteCursor()
	for i := 0; i <= maxArrayNesting; i++ {
		w.BeginArray(false)
	}
	if w.State() != InvalidData {
		t.Fatalf("State() = %v, want InvalidData after exceeding array nesting", w.State())
	}
}
