package command

import "github.com/adred-codev/kvredis/internal/store"

func registerListCommands() {
	register(&Descriptor{Name: "LPUSH", Arity: -3, IsWrite: true, Handler: cmdLPush})
	register(&Descriptor{Name: "RPUSH", Arity: -3, IsWrite: true, Handler: cmdRPush})
	register(&Descriptor{Name: "LPOP", Arity: -2, IsWrite: true, Handler: cmdLPop})
	register(&Descriptor{Name: "RPOP", Arity: -2, IsWrite: true, Handler: cmdRPop})
	register(&Descriptor{Name: "LLEN", Arity: 2, Handler: cmdLLen})
	register(&Descriptor{Name: "LRANGE", Arity: 4, Handler: cmdLRange})
	register(&Descriptor{Name: "LINDEX", Arity: 3, Handler: cmdLIndex})
	register(&Descriptor{Name: "LSET", Arity: 4, IsWrite: true, Handler: cmdLSet})
	register(&Descriptor{Name: "LINSERT", Arity: 5, IsWrite: true, Handler: cmdLInsert})
	register(&Descriptor{Name: "LTRIM", Arity: 4, IsWrite: true, Handler: cmdLTrim})
	register(&Descriptor{Name: "LREM", Arity: 4, IsWrite: true, Handler: cmdLRem})
}

func cmdLPush(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().Push(string(args[0]), true, args[1:]...)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdRPush(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().Push(string(args[0]), false, args[1:]...)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func popCount(ctx *Context, args [][]byte) (int, bool) {
	if len(args) < 2 {
		return 1, true
	}
	n, ok := parseIntArg(ctx, args[1])
	return int(n), ok
}

func cmdLPop(ctx *Context, args [][]byte) {
	count, ok := popCount(ctx, args)
	if !ok {
		return
	}
	out, err := ctx.Shard().Pop(string(args[0]), true, count)
	if writeStoreErr(ctx, err) {
		return
	}
	if len(args) < 2 {
		if len(out) == 0 {
			ctx.Out.NilBulk()
			return
		}
		ctx.Out.BulkString(out[0])
		return
	}
	if out == nil {
		ctx.Out.NilArray()
		return
	}
	ctx.Out.BulkStrings(out)
}

func cmdRPop(ctx *Context, args [][]byte) {
	count, ok := popCount(ctx, args)
	if !ok {
		return
	}
	out, err := ctx.Shard().Pop(string(args[0]), false, count)
	if writeStoreErr(ctx, err) {
		return
	}
	if len(args) < 2 {
		if len(out) == 0 {
			ctx.Out.NilBulk()
			return
		}
		ctx.Out.BulkString(out[0])
		return
	}
	if out == nil {
		ctx.Out.NilArray()
		return
	}
	ctx.Out.BulkStrings(out)
}

func cmdLLen(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().ListLen(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdLRange(ctx *Context, args [][]byte) {
	start, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	stop, ok := parseIntArg(ctx, args[2])
	if !ok {
		return
	}
	out, err := ctx.Shard().Range(string(args[0]), int(start), int(stop))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.BulkStrings(out)
}

func cmdLIndex(ctx *Context, args [][]byte) {
	idx, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	b, exists, err := ctx.Shard().Index(string(args[0]), int(idx))
	if writeStoreErr(ctx, err) {
		return
	}
	if !exists {
		ctx.Out.NilBulk()
		return
	}
	ctx.Out.BulkString(b)
}

func cmdLSet(ctx *Context, args [][]byte) {
	idx, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	err := ctx.Shard().SetAt(string(args[0]), int(idx), args[2])
	if err == store.ErrSyntax {
		ctx.Out.Error("ERR index out of range")
		return
	}
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdLInsert(ctx *Context, args [][]byte) {
	before := equalsFold(args[1], "BEFORE")
	n, err := ctx.Shard().Insert(string(args[0]), before, args[2], args[3])
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdLTrim(ctx *Context, args [][]byte) {
	start, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	stop, ok := parseIntArg(ctx, args[2])
	if !ok {
		return
	}
	err := ctx.Shard().Trim(string(args[0]), int(start), int(stop))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdLRem(ctx *Context, args [][]byte) {
	count, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	n, err := ctx.Shard().Rem(string(args[0]), int(count), args[2])
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func equalsFold(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := range b {
		c := b[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != s[i] {
			return false
		}
	}
	return true
}
