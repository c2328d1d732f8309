// Command dbuscodec drives the argument codec directly, standing in
// for the convenience marshaling layer this module deliberately does
// not provide. It decodes signature+hex payloads for inspection, and
// builds small payloads from a compact token-based mini language.
package main

import (
	"context"
	"os"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
)

var globalArgs struct {
	Verbose bool `flag:"v,Verbose output (accepted, but no command reads it)"`
}

func main() {
	root := &command.C{
		Name:     "dbuscodec",
		Usage:    "command args...",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "decode",
				Usage: "decode sig:hex ...",
				Help: `Decode one or more signature+hex-payload arguments and pretty-print
their contents.

Each argument has the form "signature:hexpayload", e.g.
"(su):04000000726f6f74000000002a000000" decodes a struct of a string
and a uint32.`,
				Run: runDecode,
			},
			{
				Name:  "encode",
				Usage: "encode value ...",
				Help: `Build an Arguments value from a small stack-machine mini language and
print its resulting signature and hex payload.

Tokens: y=N b=true|false n=N q=N i=N u=N x=N t=N d=N s=STRING
o=PATH g=SIG ( ) [ ]
Parens open/close a struct; square brackets open/close an array that
holds exactly one element: the tokens between them form that element
and set the element type, and no token starts a further element.`,
				Run: runEncode,
			},
		},
	}

	env := root.NewEnv(nil).SetContext(context.Background())
	command.RunOrFail(env, os.Args[1:])
}
