package command

import (
	"strconv"
	"strings"

	"github.com/adred-codev/kvredis/internal/store"
)

func registerConnectionCommands() {
	register(&Descriptor{Name: "PING", Arity: -1, PubSubAllowed: true, Handler: cmdPing})
	register(&Descriptor{Name: "ECHO", Arity: 2, Handler: cmdEcho})
	register(&Descriptor{Name: "SELECT", Arity: 2, Handler: cmdSelect})
	register(&Descriptor{Name: "QUIT", Arity: 1, PubSubAllowed: true, Handler: cmdQuit})
	register(&Descriptor{Name: "RESET", Arity: 1, PubSubAllowed: true, Handler: cmdReset})
	register(&Descriptor{Name: "CLIENT", Arity: -2, Handler: cmdClient})
}

func cmdPing(ctx *Context, args [][]byte) {
	if ctx.subscriptionCount() > 0 {
		ctx.Out.ArrayHeader(2)
		ctx.Out.BulkString([]byte("pong"))
		if len(args) == 0 {
			ctx.Out.BulkString([]byte(""))
		} else {
			ctx.Out.BulkString(args[0])
		}
		return
	}
	if len(args) == 0 {
		ctx.Out.SimpleString("PONG")
		return
	}
	ctx.Out.BulkString(args[0])
}

func cmdEcho(ctx *Context, args [][]byte) {
	ctx.Out.BulkString(args[0])
}

func cmdSelect(ctx *Context, args [][]byte) {
	n, ok := parseIntArg(ctx, args[0])
	if !ok {
		return
	}
	if !ctx.SelectDB(int(n)) {
		writeStoreErr(ctx, store.ErrNotInteger)
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdQuit(ctx *Context, args [][]byte) {
	ctx.Quit = true
	ctx.Out.SimpleString("OK")
}

// cmdReset restores the connection to its just-accepted state: any
// in-progress MULTI/WATCH is discarded, every subscription is dropped,
// the active database reverts to 0, and the client name is cleared. It
// runs immediately even mid-transaction or mid-subscribe, which is why
// Dispatch excludes it from both the queuing gate and the subscribe-mode
// restriction.
func cmdReset(ctx *Context, args [][]byte) {
	ctx.Txn.Discard()
	ctx.Txn.Unwatch()

	if ctx.Sub != nil {
		for ch := range ctx.channels {
			ctx.Hub.Unsubscribe(ch, ctx.Sub)
		}
		for p := range ctx.patterns {
			ctx.Hub.PUnsubscribe(p, ctx.Sub)
		}
	}
	ctx.channels = make(map[string]bool)
	ctx.patterns = make(map[string]bool)

	ctx.dbIndex = 0
	ctx.clientName = ""
	ctx.Out.SimpleString("RESET")
}

func cmdClient(ctx *Context, args [][]byte) {
	switch strings.ToUpper(string(args[0])) {
	case "ID":
		ctx.Out.Integer(ctx.ConnID)
	case "GETNAME":
		ctx.Out.BulkString([]byte(ctx.clientName))
	case "SETNAME":
		if len(args) < 2 {
			ctx.Out.Error("ERR wrong number of arguments for 'client|setname' command")
			return
		}
		ctx.clientName = string(args[1])
		ctx.Out.SimpleString("OK")
	case "LIST", "INFO":
		line := "id=" + strconv.FormatInt(ctx.ConnID, 10) +
			" name=" + ctx.clientName +
			" db=" + strconv.Itoa(ctx.dbIndex) +
			" resp=2"
		ctx.Out.BulkString([]byte(line))
	case "NO-EVICT", "NO-TOUCH":
		ctx.Out.SimpleString("OK")
	default:
		ctx.Out.Error("ERR unknown CLIENT subcommand")
	}
}
