package command

import (
	"strings"

	"github.com/adred-codev/kvredis/internal/txn"
)

// Handler executes a fully-validated command, writing its reply
// through ctx.Out.
type Handler func(ctx *Context, args [][]byte)

// Descriptor is one entry in the dispatch table.
type Descriptor struct {
	Name string
	// Arity follows the Redis convention: a positive number is the
	// exact argc (including the command name); a negative number is
	// the minimum argc, for variadic commands.
	Arity int
	// IsWrite marks commands that mutate the keyspace, gating the OOM
	// guard.
	IsWrite bool
	// PubSubAllowed marks commands still permitted once a connection
	// has active subscriptions.
	PubSubAllowed bool
	Handler       Handler
}

// Table is the static name -> descriptor dispatch map, built once at
// package init.
var Table = map[string]*Descriptor{}

func register(d *Descriptor) {
	Table[d.Name] = d
}

func init() {
	registerStringCommands()
	registerListCommands()
	registerHashCommands()
	registerSetCommands()
	registerKeyCommands()
	registerConnectionCommands()
	registerTransactionCommands()
	registerPubSubCommands()
	registerAdminCommands()
}

func arityOK(d *Descriptor, argc int) bool {
	if d.Arity >= 0 {
		return argc == d.Arity
	}
	return argc >= -d.Arity
}

// Dispatch runs one command end to end: lookup, arity check,
// subscribe-mode restriction, MULTI queuing, then execution. argv[0] is
// the command name; argv[1:] are its arguments.
func Dispatch(ctx *Context, argv [][]byte) {
	if len(argv) == 0 {
		return
	}
	name := strings.ToUpper(string(argv[0]))
	d, ok := Table[name]
	if !ok {
		if ctx.Txn.State() == txn.Queuing {
			ctx.Txn.MarkDirty()
		}
		ctx.Out.Error("ERR unknown command '" + string(argv[0]) + "'")
		return
	}
	if !arityOK(d, len(argv)) {
		if ctx.Txn.State() == txn.Queuing {
			ctx.Txn.MarkDirty()
		}
		ctx.Out.Error("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
		return
	}
	if ctx.subscriptionCount() > 0 && !d.PubSubAllowed {
		ctx.Out.Error("ERR Can't execute '" + strings.ToLower(name) + "': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context")
		return
	}
	if ctx.Txn.State() == txn.Queuing && !isTransactionControl(name) {
		ctx.Txn.Queue(txn.QueuedCommand{Name: name, Args: argv[1:]})
		ctx.Out.SimpleString("QUEUED")
		return
	}
	if d.IsWrite && ctx.OOMGuard != nil && ctx.OOMGuard() {
		ctx.Out.Error("OOM command not allowed when used memory > 'maxmemory'")
		return
	}
	d.Handler(ctx, argv[1:])
}

func isTransactionControl(name string) bool {
	switch name {
	case "MULTI", "EXEC", "DISCARD", "WATCH", "UNWATCH", "RESET":
		return true
	}
	return false
}
