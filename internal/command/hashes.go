package command

import "github.com/adred-codev/kvredis/internal/store"

func registerHashCommands() {
	register(&Descriptor{Name: "HSET", Arity: -4, IsWrite: true, Handler: cmdHSet})
	register(&Descriptor{Name: "HSETNX", Arity: 4, IsWrite: true, Handler: cmdHSetNX})
	register(&Descriptor{Name: "HGET", Arity: 3, Handler: cmdHGet})
	register(&Descriptor{Name: "HDEL", Arity: -3, IsWrite: true, Handler: cmdHDel})
	register(&Descriptor{Name: "HGETALL", Arity: 2, Handler: cmdHGetAll})
	register(&Descriptor{Name: "HKEYS", Arity: 2, Handler: cmdHKeys})
	register(&Descriptor{Name: "HVALS", Arity: 2, Handler: cmdHVals})
	register(&Descriptor{Name: "HLEN", Arity: 2, Handler: cmdHLen})
	register(&Descriptor{Name: "HEXISTS", Arity: 3, Handler: cmdHExists})
	register(&Descriptor{Name: "HMGET", Arity: -3, Handler: cmdHMGet})
	register(&Descriptor{Name: "HINCRBY", Arity: 4, IsWrite: true, Handler: cmdHIncrBy})
}

func cmdHSet(ctx *Context, args [][]byte) {
	if (len(args)-1)%2 != 0 {
		writeStoreErr(ctx, store.ErrSyntax)
		return
	}
	fields := make(map[string][]byte)
	order := make([]string, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		f := string(args[i])
		if _, dup := fields[f]; !dup {
			order = append(order, f)
		}
		fields[f] = args[i+1]
	}
	n, err := ctx.Shard().HSet(string(args[0]), fields, order)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdHSetNX(ctx *Context, args [][]byte) {
	ok, err := ctx.Shard().HSetNX(string(args[0]), string(args[1]), args[2])
	if writeStoreErr(ctx, err) {
		return
	}
	if ok {
		ctx.Out.Integer(1)
	} else {
		ctx.Out.Integer(0)
	}
}

func cmdHGet(ctx *Context, args [][]byte) {
	b, exists, err := ctx.Shard().HGet(string(args[0]), string(args[1]))
	if writeStoreErr(ctx, err) {
		return
	}
	if !exists {
		ctx.Out.NilBulk()
		return
	}
	ctx.Out.BulkString(b)
}

func cmdHDel(ctx *Context, args [][]byte) {
	fields := make([]string, len(args)-1)
	for i, f := range args[1:] {
		fields[i] = string(f)
	}
	n, err := ctx.Shard().HDel(string(args[0]), fields...)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdHGetAll(ctx *Context, args [][]byte) {
	fields, vals, err := ctx.Shard().HGetAll(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.ArrayHeader(len(fields) * 2)
	for i, f := range fields {
		ctx.Out.BulkString([]byte(f))
		ctx.Out.BulkString(vals[i])
	}
}

func cmdHKeys(ctx *Context, args [][]byte) {
	fields, _, err := ctx.Shard().HGetAll(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = []byte(f)
	}
	ctx.Out.BulkStrings(out)
}

func cmdHVals(ctx *Context, args [][]byte) {
	_, vals, err := ctx.Shard().HGetAll(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.BulkStrings(vals)
}

func cmdHLen(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().HLen(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdHExists(ctx *Context, args [][]byte) {
	_, exists, err := ctx.Shard().HGet(string(args[0]), string(args[1]))
	if writeStoreErr(ctx, err) {
		return
	}
	if exists {
		ctx.Out.Integer(1)
	} else {
		ctx.Out.Integer(0)
	}
}

func cmdHMGet(ctx *Context, args [][]byte) {
	shard := ctx.Shard()
	key := string(args[0])
	out := make([][]byte, len(args)-1)
	for i, f := range args[1:] {
		b, exists, err := shard.HGet(key, string(f))
		if err != nil {
			out[i] = nil
			continue
		}
		if exists {
			out[i] = b
		}
	}
	ctx.Out.BulkStrings(out)
}

func cmdHIncrBy(ctx *Context, args [][]byte) {
	delta, ok := parseIntArg(ctx, args[2])
	if !ok {
		return
	}
	n, err := ctx.Shard().HIncrBy(string(args[0]), string(args[1]), delta)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(n)
}
