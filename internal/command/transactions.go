package command

import "strings"

func registerTransactionCommands() {
	register(&Descriptor{Name: "MULTI", Arity: 1, Handler: cmdMulti})
	register(&Descriptor{Name: "EXEC", Arity: 1, Handler: cmdExec})
	register(&Descriptor{Name: "DISCARD", Arity: 1, Handler: cmdDiscard})
	register(&Descriptor{Name: "WATCH", Arity: -2, Handler: cmdWatch})
	register(&Descriptor{Name: "UNWATCH", Arity: 1, Handler: cmdUnwatch})
}

func cmdMulti(ctx *Context, args [][]byte) {
	if err := ctx.Txn.Multi(); err != nil {
		ctx.Out.Error(err.Error())
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdExec(ctx *Context, args [][]byte) {
	cmds, aborted, err := ctx.Txn.Exec()
	if err != nil {
		ctx.Out.Error(err.Error())
		return
	}
	if aborted {
		ctx.Out.NilArray()
		return
	}
	ctx.Out.ArrayHeader(len(cmds))
	for _, cmd := range cmds {
		runQueued(ctx, cmd.Name, cmd.Args)
	}
}

// runQueued executes one previously-queued command directly against its
// descriptor, bypassing the queuing/subscribe-mode gate in Dispatch
// (both were already settled when the command was accepted into the
// queue).
func runQueued(ctx *Context, name string, args [][]byte) {
	d, ok := Table[strings.ToUpper(name)]
	if !ok {
		ctx.Out.Error("ERR unknown command '" + name + "'")
		return
	}
	if d.IsWrite && ctx.OOMGuard != nil && ctx.OOMGuard() {
		ctx.Out.Error("OOM command not allowed when used memory > 'maxmemory'")
		return
	}
	d.Handler(ctx, args)
}

func cmdDiscard(ctx *Context, args [][]byte) {
	if err := ctx.Txn.Discard(); err != nil {
		ctx.Out.Error(err.Error())
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdWatch(ctx *Context, args [][]byte) {
	shard := ctx.Shard()
	for _, k := range args {
		if err := ctx.Txn.Watch(shard, string(k)); err != nil {
			ctx.Out.Error(err.Error())
			return
		}
	}
	ctx.Out.SimpleString("OK")
}

func cmdUnwatch(ctx *Context, args [][]byte) {
	ctx.Txn.Unwatch()
	ctx.Out.SimpleString("OK")
}
