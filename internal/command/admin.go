package command

import (
	"strings"
	"time"

	"github.com/adred-codev/kvredis/internal/store"
)

func registerAdminCommands() {
	register(&Descriptor{Name: "OBJECT", Arity: -2, Handler: cmdObject})
	register(&Descriptor{Name: "DEBUG", Arity: -2, Handler: cmdDebug})
	register(&Descriptor{Name: "CONFIG", Arity: -2, Handler: cmdConfig})
	register(&Descriptor{Name: "COMMAND", Arity: -1, Handler: cmdCommand})

	// Recognized but unimplemented: the dispatcher answers with a typed
	// error instead of "unknown command" per the scripting Non-goal.
	for _, name := range []string{"EVAL", "EVALSHA", "SCRIPT", "FUNCTION"} {
		register(&Descriptor{Name: name, Arity: -1, Handler: cmdNoScript})
	}
}

func cmdNoScript(ctx *Context, args [][]byte) {
	ctx.Out.Error("NOSCRIPT scripting is not supported")
}

func cmdObject(ctx *Context, args [][]byte) {
	sub := strings.ToUpper(string(args[0]))
	if len(args) < 2 {
		ctx.Out.Error("ERR syntax error")
		return
	}
	switch sub {
	case "ENCODING":
		v, ok := ctx.Shard().Get(string(args[1]))
		if !ok {
			ctx.Out.Error(store.ErrNoSuchKey.Error())
			return
		}
		var encoding string
		switch v.Kind {
		case store.KindString:
			encoding = v.StringEncoding()
		case store.KindList:
			encoding = "quicklist"
		case store.KindHash:
			encoding = v.HashEncoding()
		case store.KindSet:
			encoding = v.SetEncoding()
		}
		ctx.Out.BulkString([]byte(encoding))
	case "REFCOUNT":
		if !ctx.Shard().Exists(string(args[1])) {
			ctx.Out.Error(store.ErrNoSuchKey.Error())
			return
		}
		// No shared-object refcounting is modeled; every live key reports
		// a refcount of 1, same as a non-shared-integer value upstream.
		ctx.Out.Integer(1)
	default:
		ctx.Out.Error("ERR syntax error")
	}
}

func cmdDebug(ctx *Context, args [][]byte) {
	switch strings.ToUpper(string(args[0])) {
	case "SLEEP":
		if len(args) < 2 {
			ctx.Out.Error("ERR syntax error")
			return
		}
		secs, ok := parseFloat(args[1])
		if !ok {
			ctx.Out.Error(store.ErrNotFloat.Error())
			return
		}
		time.Sleep(time.Duration(secs * float64(time.Second)))
		ctx.Out.SimpleString("OK")
	case "SET-ACTIVE-EXPIRE":
		ctx.Out.SimpleString("OK")
	case "JMAP":
		ctx.Out.SimpleString("OK")
	default:
		ctx.Out.Error("ERR DEBUG subcommand not supported")
	}
}

func cmdConfig(ctx *Context, args [][]byte) {
	switch strings.ToUpper(string(args[0])) {
	case "GET":
		ctx.Out.ArrayHeader(0)
	case "SET":
		ctx.Out.SimpleString("OK")
	default:
		ctx.Out.Error("ERR CONFIG subcommand not supported")
	}
}

func cmdCommand(ctx *Context, args [][]byte) {
	if len(args) > 0 && strings.ToUpper(string(args[0])) == "COUNT" {
		ctx.Out.Integer(int64(len(Table)))
		return
	}
	ctx.Out.ArrayHeader(0)
}
