package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/creachadair/command"

	"github.com/dbuscore/dbus/codec"
)

func runEncode(env *command.Env) error {
	if len(env.Args) == 0 {
		return fmt.Errorf("encode requires at least one token")
	}

	w := codec.NewWriteCursor()
	for _, tok := range env.Args {
		applyToken(w, tok)
		if w.State() == codec.InvalidData {
			break
		}
	}

	args := w.Finish()
	if w.State() == codec.InvalidData {
		return fmt.Errorf("invalid encoding at token near %q: %v", strings.Join(env.Args, " "), w.Err())
	}

	fmt.Printf("signature: %s\n", args.Signature())
	fmt.Printf("payload:   %s\n", hex.EncodeToString(args.Data()))
	return nil
}

// applyToken interprets one token of the mini language documented in
// main.go's "encode" command help.
func applyToken(w *codec.WriteCursor, tok string) {
	switch tok {
	case "(":
		w.BeginStruct()
		return
	case ")":
		w.EndStruct()
		return
	case "[":
		w.BeginArray(false)
		return
	case "]":
		w.EndArray()
		return
	}

	code, value, ok := strings.Cut(tok, "=")
	if !ok {
		w.EndVariant() // no token form matched; fail the cursor cleanly
		return
	}
	switch code {
	case "y":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			break
		}
		w.WriteByte(byte(n))
		return
	case "b":
		w.WriteBoolean(value == "true")
		return
	case "n":
		n, err := strconv.ParseInt(value, 10, 16)
		if err != nil {
			break
		}
		w.WriteInt16(int16(n))
		return
	case "q":
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			break
		}
		w.WriteUint16(uint16(n))
		return
	case "i":
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			break
		}
		w.WriteInt32(int32(n))
		return
	case "u":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			break
		}
		w.WriteUint32(uint32(n))
		return
	case "x":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			break
		}
		w.WriteInt64(n)
		return
	case "t":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			break
		}
		w.WriteUint64(n)
		return
	case "d":
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			break
		}
		w.WriteDouble(n)
		return
	case "s":
		w.WriteString(value)
		return
	case "o":
		w.WriteObjectPath(value)
		return
	case "g":
		w.WriteSignature(value)
		return
	}
	// Unrecognised token: drive the cursor into InvalidData by closing
	// a variant; the mini language never opens one, so this always fails.
	w.EndVariant()
}
