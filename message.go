package dbus

import (
	"fmt"
	"io"

	"github.com/dbuscore/dbus/codec"
	"github.com/dbuscore/dbus/transport"
	"golang.org/x/sys/cpu"
)

// fixedHeaderLen is the size of a D-Bus message header up to and
// including the 4-byte length prefix of its header-fields array:
// byte-order mark, message type, flags, protocol version, body
// length, serial (6 single-byte/uint32 fields, signature "yyyyuu"),
// followed by the array-of-(byte,variant) length prefix. The array
// starts 4-byte aligned already, so no padding falls before it.
const fixedHeaderLen = 16

func align8(n int) int { return (n + 7) &^ 7 }

func nativeByteOrderFlag() byte {
	if cpu.IsBigEndian {
		return 'B'
	}
	return 'l'
}

// ReadFrame reads one message's header and body off t as opaque byte
// ranges, without decoding the header-fields array's contents (that
// decoding is this package's stated Non-goal; see Message). It reads
// just enough of the fixed prefix to learn the header-fields array's
// length and the body's length, then reads exactly that many bytes of
// each.
func ReadFrame(t transport.Transport) (header, body []byte, order codec.ByteOrder, err error) {
	prefix := make([]byte, fixedHeaderLen)
	if _, err := io.ReadFull(t, prefix); err != nil {
		return nil, nil, nil, fmt.Errorf("reading message header: %w", err)
	}
	order, ok := codec.OrderForFlag(prefix[0])
	if !ok {
		return nil, nil, nil, fmt.Errorf("invalid byte order mark %#x", prefix[0])
	}
	bodyLen := order.Uint32(prefix[4:8])
	fieldsLen := order.Uint32(prefix[12:16])

	header = make([]byte, align8(fixedHeaderLen+int(fieldsLen)))
	copy(header, prefix)
	if _, err := io.ReadFull(t, header[fixedHeaderLen:]); err != nil {
		return nil, nil, nil, fmt.Errorf("reading header fields: %w", err)
	}

	body = make([]byte, bodyLen)
	if _, err := io.ReadFull(t, body); err != nil {
		return nil, nil, nil, fmt.Errorf("reading message body: %w", err)
	}
	return header, body, order, nil
}

// WriteFrame writes an already-serialised header and body out to t.
// header must already include the trailing padding that brings the
// body to an 8-byte boundary, the way ReadFrame returns it.
func WriteFrame(t transport.Transport, header, body []byte) error {
	if _, err := t.Write(header); err != nil {
		return fmt.Errorf("writing message header: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	if _, err := t.Write(body); err != nil {
		return fmt.Errorf("writing message body: %w", err)
	}
	return nil
}

// ReadMessage reads one Message off t. bodySignature is supplied by
// the caller rather than taken from the header-fields array, since
// interpreting the SIGNATURE header field is header-field decoding
// (Message's stated Non-goal); a caller that needs to learn the
// signature from the wire does so with its own header-fields reader
// and passes the result in here.
func ReadMessage(t transport.Transport, bodySignature []byte) (*Message, error) {
	header, body, order, err := ReadFrame(t)
	if err != nil {
		return nil, err
	}
	isByteSwapped := order.Flag() != nativeByteOrderFlag()
	return &Message{
		Header: header,
		Body:   *codec.NewArguments(bodySignature, body, isByteSwapped),
	}, nil
}

// WriteMessage writes m out to t: its header verbatim, followed by
// its body's finished payload bytes.
func WriteMessage(t transport.Transport, m *Message) error {
	return WriteFrame(t, m.Header, m.Body.Data())
}
