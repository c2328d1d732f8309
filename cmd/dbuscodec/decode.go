package main

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/creachadair/command"
	"github.com/creachadair/mds/heapq"
	"github.com/kr/pretty"

	"github.com/dbuscore/dbus/codec"
)

type decodeTarget struct {
	signature string
	data      []byte
}

func runDecode(env *command.Env) error {
	if len(env.Args) == 0 {
		return fmt.Errorf("decode requires at least one sig:hex argument")
	}

	// Order the targets deterministically by signature regardless of
	// the order they were given on the command line, so scripted runs
	// produce diffable output.
	pending := heapq.New(func(a, b decodeTarget) int {
		return cmp.Compare(a.signature, b.signature)
	})
	for _, arg := range env.Args {
		t, err := parseTarget(arg)
		if err != nil {
			return err
		}
		pending.Add(t)
	}

	for !pending.IsEmpty() {
		t, _ := pending.Pop()
		if err := decodeOne(t); err != nil {
			fmt.Printf("%s: error: %v\n", t.signature, err)
		}
	}
	return nil
}

func parseTarget(arg string) (decodeTarget, error) {
	sig, hexPayload, ok := strings.Cut(arg, ":")
	if !ok {
		return decodeTarget{}, fmt.Errorf("argument %q: expected \"signature:hexpayload\"", arg)
	}
	data, err := hex.DecodeString(hexPayload)
	if err != nil {
		return decodeTarget{}, fmt.Errorf("argument %q: decoding hex payload: %w", arg, err)
	}
	return decodeTarget{signature: sig, data: data}, nil
}

func decodeOne(t decodeTarget) error {
	sig := append([]byte(t.signature), 0)
	if !codec.ValidateSignature(sig, codec.FullSignature) {
		return fmt.Errorf("invalid signature %q", t.signature)
	}
	args := codec.NewArguments(sig, t.data, false)
	r, ok := args.BeginRead()
	if !ok {
		return fmt.Errorf("could not claim a reader")
	}
	defer r.Close()

	var values []any
	for r.State() != codec.Finished && r.State() != codec.InvalidData {
		values = append(values, decodeValue(r))
	}
	if r.State() == codec.InvalidData {
		return r.Err()
	}

	fmt.Printf("%s:\n", t.signature)
	for _, v := range values {
		pretty.Println(v)
	}
	return nil
}

// decodeValue reads exactly one complete value from r into a plain Go
// value tree, for printing. Unlike codec.Copy, it produces data
// rather than driving a WriteCursor.
func decodeValue(r *codec.ReadCursor) any {
	switch r.State() {
	case codec.Byte:
		return r.ReadByte()
	case codec.Boolean:
		return r.ReadBoolean()
	case codec.Int16:
		return r.ReadInt16()
	case codec.Uint16:
		return r.ReadUint16()
	case codec.Int32:
		return r.ReadInt32()
	case codec.Uint32:
		return r.ReadUint32()
	case codec.Int64:
		return r.ReadInt64()
	case codec.Uint64:
		return r.ReadUint64()
	case codec.Double:
		return r.ReadDouble()
	case codec.String:
		return r.ReadString()
	case codec.ObjectPath:
		return r.ReadObjectPath()
	case codec.Signature:
		return r.ReadSignature()
	case codec.UnixFd:
		return fmt.Sprintf("fd#%d", r.ReadUnixFd())

	case codec.BeginStruct:
		r.BeginStruct()
		var fields []any
		for r.State() != codec.EndStruct && r.State() != codec.InvalidData {
			fields = append(fields, decodeValue(r))
		}
		r.EndStruct()
		return fields

	case codec.BeginVariant:
		r.BeginVariant()
		v := decodeValue(r)
		r.EndVariant()
		return v

	case codec.BeginArray:
		var isEmpty bool
		r.BeginArray(&isEmpty)
		var elems []any
		for r.NextArrayEntry() {
			elems = append(elems, decodeValue(r))
		}
		r.EndArray()
		return elems

	case codec.BeginDict:
		var isEmpty bool
		r.BeginDict(&isEmpty)
		entries := map[any]any{}
		for r.NextDictEntry() {
			k, v := decodeValue(r), decodeValue(r)
			entries[k] = v
		}
		r.EndDict()
		return entries

	default:
		return nil
	}
}
