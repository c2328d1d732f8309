package dbus

import (
	"bytes"
	"os"
	"testing"

	"github.com/dbuscore/dbus/codec"
)

// memTransport is a minimal in-memory transport.Transport, standing
// in for a real Unix socket so ReadMessage/WriteMessage can be tested
// without one.
type memTransport struct {
	bytes.Buffer
	files []*os.File
}

func (m *memTransport) Close() error { return nil }

func (m *memTransport) GetFiles(n int) ([]*os.File, error) {
	if n > len(m.files) {
		return nil, os.ErrInvalid
	}
	ret := m.files[:n]
	m.files = m.files[n:]
	return ret, nil
}

func (m *memTransport) WriteWithFiles(bs []byte, fds []*os.File) (int, error) {
	m.files = append(m.files, fds...)
	return m.Write(bs)
}

// fixedHeader builds a minimal 16-byte header prefix (no header
// fields) for a message of the given type and body length.
func fixedHeader(typ MessageType, bodyLen uint32) []byte {
	order := codec.LittleEndian
	h := make([]byte, fixedHeaderLen)
	h[0] = order.Flag()
	h[1] = byte(typ)
	h[2] = 0
	h[3] = 1
	order.PutUint32(h[4:8], bodyLen)
	order.PutUint32(h[8:12], 1)
	order.PutUint32(h[12:16], 0)
	return h
}

func TestMessageRoundTrip(t *testing.T) {
	path := ObjectPath("/org/example/Thing")
	if !path.Valid() {
		t.Fatal("object path reported invalid")
	}

	w := codec.NewWriteCursor()
	path.Write(w)
	w.WriteString("hello")
	body := w.Finish()

	tr := &memTransport{}
	sent := &Message{
		Header: fixedHeader(TypeSignal, uint32(len(body.Data()))),
		Body:   *body,
	}
	if err := WriteMessage(tr, sent); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := ReadMessage(tr, body.Signature())
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !bytes.Equal(got.Header, sent.Header) {
		t.Errorf("Header = %x, want %x", got.Header, sent.Header)
	}

	r, ok := got.Body.BeginRead()
	if !ok {
		t.Fatal("BeginRead refused on a freshly-read message body")
	}
	defer r.Close()

	gotPath := ReadObjectPath(r)
	gotStr := r.ReadString()
	if gotPath != path {
		t.Errorf("object path = %q, want %q", gotPath, path)
	}
	if gotStr != "hello" {
		t.Errorf("string = %q, want %q", gotStr, "hello")
	}
}

// TestMessageWithFDTable exercises the collaboration FDTable
// documents: a UnixFd argument in the body carries an index, and a
// table on each side of the transport resolves that index to an
// *os.File independently of the codec.
func TestMessageWithFDTable(t *testing.T) {
	r0, w0, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r0.Close()
	defer w0.Close()

	var senderFDs FDTable
	index := senderFDs.Put(w0)

	wc := codec.NewWriteCursor()
	wc.WriteUnixFd(index)
	body := wc.Finish()

	tr := &memTransport{}
	if _, err := tr.WriteWithFiles(nil, []*os.File{w0}); err != nil {
		t.Fatalf("WriteWithFiles: %v", err)
	}
	sent := &Message{
		Header: fixedHeader(TypeSignal, uint32(len(body.Data()))),
		Body:   *body,
	}
	if err := WriteMessage(tr, sent); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := ReadMessage(tr, body.Signature())
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	files, err := tr.GetFiles(1)
	if err != nil {
		t.Fatalf("GetFiles: %v", err)
	}

	var receiverFDs FDTable
	receiverIndex := receiverFDs.Put(files[0])

	rc, ok := got.Body.BeginRead()
	if !ok {
		t.Fatal("BeginRead refused")
	}
	defer rc.Close()

	gotIndex := rc.ReadUnixFd()
	if gotIndex != index {
		t.Fatalf("ReadUnixFd() = %d, want %d", gotIndex, index)
	}
	f, ok := receiverFDs.Get(receiverIndex)
	if !ok || f != files[0] {
		t.Fatalf("receiverFDs.Get(%d) = %v, %v, want %v, true", receiverIndex, f, ok, files[0])
	}
	if senderFDs.Len() != 1 {
		t.Fatalf("senderFDs.Len() = %d, want 1", senderFDs.Len())
	}
}
