package command

import (
	"strings"
	"time"

	"github.com/adred-codev/kvredis/internal/store"
	"github.com/gobwas/glob"
)

func registerKeyCommands() {
	register(&Descriptor{Name: "DEL", Arity: -2, IsWrite: true, Handler: cmdDel})
	register(&Descriptor{Name: "UNLINK", Arity: -2, IsWrite: true, Handler: cmdDel})
	register(&Descriptor{Name: "EXISTS", Arity: -2, Handler: cmdExists})
	register(&Descriptor{Name: "TYPE", Arity: 2, Handler: cmdType})
	register(&Descriptor{Name: "EXPIRE", Arity: -3, IsWrite: true, Handler: cmdExpire})
	register(&Descriptor{Name: "PEXPIRE", Arity: -3, IsWrite: true, Handler: cmdPExpire})
	register(&Descriptor{Name: "EXPIREAT", Arity: -3, IsWrite: true, Handler: cmdExpireAt})
	register(&Descriptor{Name: "PEXPIREAT", Arity: -3, IsWrite: true, Handler: cmdPExpireAt})
	register(&Descriptor{Name: "TTL", Arity: 2, Handler: cmdTTL})
	register(&Descriptor{Name: "PTTL", Arity: 2, Handler: cmdPTTL})
	register(&Descriptor{Name: "PERSIST", Arity: 2, IsWrite: true, Handler: cmdPersist})
	register(&Descriptor{Name: "RENAME", Arity: 3, IsWrite: true, Handler: cmdRename})
	register(&Descriptor{Name: "RENAMENX", Arity: 3, IsWrite: true, Handler: cmdRenameNX})
	register(&Descriptor{Name: "KEYS", Arity: 2, Handler: cmdKeys})
	register(&Descriptor{Name: "SCAN", Arity: -2, Handler: cmdScan})
	register(&Descriptor{Name: "RANDOMKEY", Arity: 1, Handler: cmdRandomKey})
	register(&Descriptor{Name: "COPY", Arity: -3, IsWrite: true, Handler: cmdCopy})
	register(&Descriptor{Name: "MOVE", Arity: 3, IsWrite: true, Handler: cmdMove})
	register(&Descriptor{Name: "FLUSHDB", Arity: 1, IsWrite: true, Handler: cmdFlushDB})
	register(&Descriptor{Name: "FLUSHALL", Arity: 1, IsWrite: true, Handler: cmdFlushAll})
	register(&Descriptor{Name: "DBSIZE", Arity: 1, Handler: cmdDBSize})
}

func cmdDel(ctx *Context, args [][]byte) {
	keys := make([]string, len(args))
	for i, k := range args {
		keys[i] = string(k)
	}
	ctx.Out.Integer(int64(ctx.Shard().Del(keys...)))
}

func cmdExists(ctx *Context, args [][]byte) {
	shard := ctx.Shard()
	n := 0
	for _, k := range args {
		if shard.Exists(string(k)) {
			n++
		}
	}
	ctx.Out.Integer(int64(n))
}

func cmdType(ctx *Context, args [][]byte) {
	kind, ok := ctx.Shard().TypeOf(string(args[0]))
	if !ok {
		ctx.Out.SimpleString("none")
		return
	}
	ctx.Out.SimpleString(kind.String())
}

func parseExpireCond(ctx *Context, args [][]byte, from int) (store.ExpireCondition, bool) {
	cond := store.ExpireAlways
	if from >= len(args) {
		return cond, true
	}
	switch strings.ToUpper(string(args[from])) {
	case "NX":
		cond = store.ExpireNX
	case "XX":
		cond = store.ExpireXX
	case "GT":
		cond = store.ExpireGT
	case "LT":
		cond = store.ExpireLT
	default:
		writeStoreErr(ctx, store.ErrSyntax)
		return cond, false
	}
	return cond, true
}

func cmdExpire(ctx *Context, args [][]byte) {
	seconds, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	cond, ok := parseExpireCond(ctx, args, 2)
	if !ok {
		return
	}
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	applied := ctx.Shard().Expire(string(args[0]), deadline, cond)
	boolInt(ctx, applied)
}

func cmdPExpire(ctx *Context, args [][]byte) {
	ms, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	cond, ok := parseExpireCond(ctx, args, 2)
	if !ok {
		return
	}
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	boolInt(ctx, ctx.Shard().Expire(string(args[0]), deadline, cond))
}

func cmdExpireAt(ctx *Context, args [][]byte) {
	sec, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	cond, ok := parseExpireCond(ctx, args, 2)
	if !ok {
		return
	}
	boolInt(ctx, ctx.Shard().Expire(string(args[0]), time.Unix(sec, 0), cond))
}

func cmdPExpireAt(ctx *Context, args [][]byte) {
	ms, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	cond, ok := parseExpireCond(ctx, args, 2)
	if !ok {
		return
	}
	boolInt(ctx, ctx.Shard().Expire(string(args[0]), time.UnixMilli(ms), cond))
}

func boolInt(ctx *Context, b bool) {
	if b {
		ctx.Out.Integer(1)
	} else {
		ctx.Out.Integer(0)
	}
}

func cmdTTL(ctx *Context, args [][]byte) {
	ctx.Out.Integer(ctx.Shard().TTL(string(args[0]), store.TTLSeconds))
}

func cmdPTTL(ctx *Context, args [][]byte) {
	ctx.Out.Integer(ctx.Shard().TTL(string(args[0]), store.TTLMillis))
}

func cmdPersist(ctx *Context, args [][]byte) {
	boolInt(ctx, ctx.Shard().Persist(string(args[0])))
}

func cmdRename(ctx *Context, args [][]byte) {
	if writeStoreErr(ctx, ctx.Shard().Rename(string(args[0]), string(args[1]))) {
		return
	}
	ctx.Out.SimpleString("OK")
}

func cmdRenameNX(ctx *Context, args [][]byte) {
	ok, err := ctx.Shard().RenameNX(string(args[0]), string(args[1]))
	if writeStoreErr(ctx, err) {
		return
	}
	boolInt(ctx, ok)
}

func cmdKeys(ctx *Context, args [][]byte) {
	pattern := string(args[0])
	g, err := glob.Compile(pattern)
	if err != nil {
		writeStoreErr(ctx, store.ErrSyntax)
		return
	}
	var out [][]byte
	for _, k := range ctx.Shard().Keys() {
		if g.Match(k) {
			out = append(out, []byte(k))
		}
	}
	ctx.Out.BulkStrings(out)
}

func cmdScan(ctx *Context, args [][]byte) {
	cursor, ok := parseIntArg(ctx, args[0])
	if !ok {
		return
	}
	count := 10
	var pattern glob.Glob
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "COUNT":
			if i+1 >= len(args) {
				writeStoreErr(ctx, store.ErrSyntax)
				return
			}
			n, ok := parseIntArg(ctx, args[i+1])
			if !ok {
				return
			}
			count = int(n)
			i++
		case "MATCH":
			if i+1 >= len(args) {
				writeStoreErr(ctx, store.ErrSyntax)
				return
			}
			g, err := glob.Compile(string(args[i+1]))
			if err != nil {
				writeStoreErr(ctx, store.ErrSyntax)
				return
			}
			pattern = g
			i++
		default:
			writeStoreErr(ctx, store.ErrSyntax)
			return
		}
	}
	next, keys := ctx.Shard().Scan(uint64(cursor), count)
	var out [][]byte
	for _, k := range keys {
		if pattern == nil || pattern.Match(k) {
			out = append(out, []byte(k))
		}
	}
	ctx.Out.ArrayHeader(2)
	ctx.Out.BulkString([]byte(itoa(next)))
	ctx.Out.BulkStrings(out)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func cmdRandomKey(ctx *Context, args [][]byte) {
	k, ok := ctx.Shard().RandomKey()
	if !ok {
		ctx.Out.NilBulk()
		return
	}
	ctx.Out.BulkString([]byte(k))
}

func cmdCopy(ctx *Context, args [][]byte) {
	srcKey, dstKey := string(args[0]), string(args[1])
	replace := false
	dstDB := ctx.DBIndex()
	for i := 2; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "REPLACE":
			replace = true
		case "DB":
			if i+1 >= len(args) {
				writeStoreErr(ctx, store.ErrSyntax)
				return
			}
			n, ok := parseIntArg(ctx, args[i+1])
			if !ok {
				return
			}
			dstDB = int(n)
			i++
		default:
			writeStoreErr(ctx, store.ErrSyntax)
			return
		}
	}
	if !ctx.Registry.Valid(dstDB) {
		writeStoreErr(ctx, store.ErrNotInteger)
		return
	}
	ok := ctx.Registry.CopyCross(ctx.DBIndex(), srcKey, dstDB, dstKey, replace)
	boolInt(ctx, ok)
}

func cmdMove(ctx *Context, args [][]byte) {
	n, ok := parseIntArg(ctx, args[1])
	if !ok {
		return
	}
	if !ctx.Registry.Valid(int(n)) {
		writeStoreErr(ctx, store.ErrNotInteger)
		return
	}
	boolInt(ctx, ctx.Registry.Move(ctx.DBIndex(), int(n), string(args[0])))
}

func cmdFlushDB(ctx *Context, args [][]byte) {
	ctx.Shard().FlushDB()
	ctx.Out.SimpleString("OK")
}

func cmdFlushAll(ctx *Context, args [][]byte) {
	ctx.Registry.FlushAll()
	ctx.Out.SimpleString("OK")
}

func cmdDBSize(ctx *Context, args [][]byte) {
	ctx.Out.Integer(int64(ctx.Registry.DBSize(ctx.DBIndex())))
}
