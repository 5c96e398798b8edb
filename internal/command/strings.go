package command

import (
	"strings"
	"time"

	"github.com/adred-codev/kvredis/internal/store"
)

func registerStringCommands() {
	register(&Descriptor{Name: "GET", Arity: 2, Handler: cmdGet})
	register(&Descriptor{Name: "SET", Arity: -3, IsWrite: true, Handler: cmdSet})
	register(&Descriptor{Name: "SETNX", Arity: 3, IsWrite: true, Handler: cmdSetNX})
	register(&Descriptor{Name: "SETEX", Arity: 4, IsWrite: true, Handler: cmdSetEX})
	register(&Descriptor{Name: "PSETEX", Arity: 4, IsWrite: true, Handler: cmdPSetEX})
	register(&Descriptor{Name: "GETSET", Arity: 3, IsWrite: true, Handler: cmdGetSet})
	register(&Descriptor{Name: "GETDEL", Arity: 2, IsWrite: true, Handler: cmdGetDel})
	register(&Descriptor{Name: "GETEX", Arity: -2, IsWrite: true, Handler: cmdGetEx})
	register(&Descriptor{Name: "APPEND", Arity: 3, IsWrite: true, Handler: cmdAppend})
	register(&Descriptor{Name: "STRLEN", Arity: 2, Handler: cmdStrLen})
	register(&Descriptor{Name: "INCR", Arity: 2, IsWrite: true, Handler: cmdIncr})
	register(&Descriptor{Name: "DECR", Arity: 2, IsWrite: true, Handler: cmdDecr})
	register(&Descriptor{Name: "INCRBY", Arity: 3, IsWrite: true, Handler: cmdIncrBy})
	register(&Descriptor{Name: "DECRBY", Arity: 3, IsWrite: true, Handler: cmdDecrBy})
	register(&Descriptor{Name: "INCRBYFLOAT", Arity: 3, IsWrite: true, Handler: cmdIncrByFloat})
	register(&Descriptor{Name: "GETRANGE", Arity: 4, Handler: cmdGetRange})
	register(&Descriptor{Name: "SETRANGE", Arity: 4, IsWrite: true, Handler: cmdSetRange})
	register(&Descriptor{Name: "MGET", Arity: -2, Handler: cmdMGet})
	register(&Descriptor{Name: "MSET", Arity: -3, IsWrite: true, Handler: cmdMSet})
	register(&Descriptor{Name: "MSETNX", Arity: -3, IsWrite: true, Handler: cmdMSetNX})
}

func cmdGet(ctx *Context, args [][]byte) {
	v, ok := ctx.Shard().Get(string(args[0]))
	if !ok {
		ctx.Out.NilBulk()
		return
	}
	if v.Kind != store.KindString {
		writeStoreErr(ctx, store.ErrWrongType)
		return
	}
	ctx.Out.BulkString(v.Str)
}

func cmdSet(ctx *Context, args [][]byte) {
	key, val := string(args[0]), args[1]
	var policy store.SetPolicy
	i := 2
	for i < len(args) {
		opt := strings.ToUpper(string(args[i]))
		switch opt {
		case "NX":
			policy.NX = true
		case "XX":
			policy.XX = true
		case "GET":
			policy.GetOld = true
		case "KEEPTTL":
			policy.KeepTTL = true
		case "EX", "PX", "EXAT", "PXAT":
			if i+1 >= len(args) {
				writeStoreErr(ctx, store.ErrSyntax)
				return
			}
			n, ok := parseInt(args[i+1])
			if !ok {
				writeStoreErr(ctx, store.ErrNotInteger)
				return
			}
			policy.HasTTL = true
			switch opt {
			case "EX":
				policy.Deadline = time.Now().Add(time.Duration(n) * time.Second)
			case "PX":
				policy.Deadline = time.Now().Add(time.Duration(n) * time.Millisecond)
			case "EXAT":
				policy.Deadline = time.Unix(n, 0)
			case "PXAT":
				policy.Deadline = time.UnixMilli(n)
			}
			i++
		default:
			writeStoreErr(ctx, store.ErrSyntax)
			return
		}
		i++
	}

	prev, hadPrev, applied, err := ctx.Shard().Set(key, val, policy)
	if writeStoreErr(ctx, err) {
		return
	}
	if policy.GetOld {
		if !hadPrev {
			ctx.Out.NilBulk()
			return
		}
		ctx.Out.BulkString(prev)
		return
	}
	if !applied {
		ctx.Out.NilBulk()
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdSetNX(ctx *Context, args [][]byte) {
	_, _, applied, err := ctx.Shard().Set(string(args[0]), args[1], store.SetPolicy{NX: true})
	if writeStoreErr(ctx, err) {
		return
	}
	if applied {
		ctx.Out.Integer(1)
	} else {
		ctx.Out.Integer(0)
	}
}

func cmdSetEX(ctx *Context, args [][]byte) {
	seconds, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	_, _, _, err := ctx.Shard().Set(string(args[0]), args[2], store.SetPolicy{HasTTL: true, Deadline: deadline})
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdPSetEX(ctx *Context, args [][]byte) {
	ms, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	_, _, _, err := ctx.Shard().Set(string(args[0]), args[2], store.SetPolicy{HasTTL: true, Deadline: deadline})
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdGetSet(ctx *Context, args [][]byte) {
	prev, hadPrev, _, err := ctx.Shard().Set(string(args[0]), args[1], store.SetPolicy{GetOld: true})
	if writeStoreErr(ctx, err) {
		return
	}
	if !hadPrev {
		ctx.Out.NilBulk()
		return
	}
	ctx.Out.BulkString(prev)
}

func cmdGetEx(ctx *Context, args [][]byte) {
	key := string(args[0])
	v, ok := ctx.Shard().Get(key)
	if !ok {
		ctx.Out.NilBulk()
		return
	}
	if v.Kind != store.KindString {
		writeStoreErr(ctx, store.ErrWrongType)
		return
	}
	if len(args) > 1 {
		opt := strings.ToUpper(string(args[1]))
		switch opt {
		case "PERSIST":
			ctx.Shard().Persist(key)
		case "EX", "PX", "EXAT", "PXAT":
			if len(args) < 3 {
				writeStoreErr(ctx, store.ErrSyntax)
				return
			}
			n, ok := parseIntArg(ctx, args[2])
			if !ok {
				return
			}
			var deadline time.Time
			switch opt {
			case "EX":
				deadline = time.Now().Add(time.Duration(n) * time.Second)
			case "PX":
				deadline = time.Now().Add(time.Duration(n) * time.Millisecond)
			case "EXAT":
				deadline = time.Unix(n, 0)
			case "PXAT":
				deadline = time.UnixMilli(n)
			}
			ctx.Shard().Expire(key, deadline, store.ExpireAlways)
		default:
			writeStoreErr(ctx, store.ErrSyntax)
			return
		}
	}
	ctx.Out.BulkString(v.Str)
}

func cmdGetDel(ctx *Context, args [][]byte) {
	val, ok, err := ctx.Shard().GetDel(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	if !ok {
		ctx.Out.NilBulk()
		return
	}
	ctx.Out.BulkString(val)
}

func cmdAppend(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().Append(string(args[0]), args[1])
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdStrLen(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().StrLen(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdIncr(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().IncrBy(string(args[0]), 1)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(n)
}

func cmdDecr(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().IncrBy(string(args[0]), -1)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(n)
}

func cmdIncrBy(ctx *Context, args [][]byte) {
	delta, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	n, err := ctx.Shard().IncrBy(string(args[0]), delta)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(n)
}

func cmdDecrBy(ctx *Context, args [][]byte) {
	delta, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	n, err := ctx.Shard().IncrBy(string(args[0]), -delta)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(n)
}

func cmdIncrByFloat(ctx *Context, args [][]byte) {
	delta, ok := parseFloatArg(ctx, args[1])
	if !ok {
		return
	}
	b, err := ctx.Shard().IncrByFloat(string(args[0]), delta)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.BulkString(b)
}

func cmdGetRange(ctx *Context, args [][]byte) {
	start, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	end, ok := parseIntArg(ctx, args[2])
	if !ok {
		return
	}
	b, err := ctx.Shard().GetRange(string(args[0]), int(start), int(end))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.BulkString(b)
}

func cmdSetRange(ctx *Context, args [][]byte) {
	offset, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	n, err := ctx.Shard().SetRange(string(args[0]), int(offset), args[2])
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdMGet(ctx *Context, args [][]byte) {
	out := make([][]byte, len(args))
	shard := ctx.Shard()
	for i, k := range args {
		v, ok := shard.Get(string(k))
		if ok && v.Kind == store.KindString {
			out[i] = v.Str
		}
	}
	ctx.Out.BulkStrings(out)
}

func cmdMSet(ctx *Context, args [][]byte) {
	if len(args)%2 != 0 {
		writeStoreErr(ctx, store.ErrSyntax)
		return
	}
	shard := ctx.Shard()
	for i := 0; i < len(args); i += 2 {
		shard.Set(string(args[i]), args[i+1], store.SetPolicy{})
	}
	ctx.Out.SimpleString("OK")
}

func cmdMSetNX(ctx *Context, args [][]byte) {
	if len(args)%2 != 0 {
		writeStoreErr(ctx, store.ErrSyntax)
		return
	}
	shard := ctx.Shard()
	for i := 0; i < len(args); i += 2 {
		if shard.Exists(string(args[i])) {
			ctx.Out.Integer(0)
			return
		}
	}
	for i := 0; i < len(args); i += 2 {
		shard.Set(string(args[i]), args[i+1], store.SetPolicy{NX: true})
	}
	ctx.Out.Integer(1)
}
