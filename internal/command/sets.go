package command

import (
	"github.com/adred-codev/kvredis/internal/store"
)

func registerSetCommands() {
	register(&Descriptor{Name: "SADD", Arity: -3, IsWrite: true, Handler: cmdSAdd})
	register(&Descriptor{Name: "SREM", Arity: -3, IsWrite: true, Handler: cmdSRem})
	register(&Descriptor{Name: "SMEMBERS", Arity: 2, Handler: cmdSMembers})
	register(&Descriptor{Name: "SISMEMBER", Arity: 3, Handler: cmdSIsMember})
	register(&Descriptor{Name: "SCARD", Arity: 2, Handler: cmdSCard})
	register(&Descriptor{Name: "SINTER", Arity: -2, Handler: cmdSInter})
	register(&Descriptor{Name: "SUNION", Arity: -2, Handler: cmdSUnion})
	register(&Descriptor{Name: "SDIFF", Arity: -2, Handler: cmdSDiff})
}

func cmdSAdd(ctx *Context, args [][]byte) {
	members := make([]string, len(args)-1)
	for i, m := range args[1:] {
		members[i] = string(m)
	}
	n, err := ctx.Shard().SAdd(string(args[0]), members...)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdSRem(ctx *Context, args [][]byte) {
	members := make([]string, len(args)-1)
	for i, m := range args[1:] {
		members[i] = string(m)
	}
	n, err := ctx.Shard().SRem(string(args[0]), members...)
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

func cmdSMembers(ctx *Context, args [][]byte) {
	members, err := ctx.Shard().SMembers(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	out := make([][]byte, len(members))
	for i, m := range members {
		out[i] = []byte(m)
	}
	ctx.Out.BulkStrings(out)
}

func cmdSIsMember(ctx *Context, args [][]byte) {
	ok, err := ctx.Shard().SIsMember(string(args[0]), string(args[1]))
	if writeStoreErr(ctx, err) {
		return
	}
	if ok {
		ctx.Out.Integer(1)
	} else {
		ctx.Out.Integer(0)
	}
}

func cmdSCard(ctx *Context, args [][]byte) {
	n, err := ctx.Shard().SCard(string(args[0]))
	if writeStoreErr(ctx, err) {
		return
	}
	ctx.Out.Integer(int64(n))
}

// fetchMemberSets loads each key's member list, stopping early with a
// WRONGTYPE reply if any key holds a non-set value; a missing key
// contributes an empty set, matching SINTER/SUNION/SDIFF semantics.
func fetchMemberSets(ctx *Context, keys [][]byte) ([][]string, bool) {
	shard := ctx.Shard()
	sets := make([][]string, len(keys))
	for i, k := range keys {
		members, err := shard.SMembers(string(k))
		if err != nil {
			writeStoreErr(ctx, store.ErrWrongType)
			return nil, false
		}
		sets[i] = members
	}
	return sets, true
}

func writeMemberReply(ctx *Context, members []string) {
	out := make([][]byte, len(members))
	for i, m := range members {
		out[i] = []byte(m)
	}
	ctx.Out.BulkStrings(out)
}

func cmdSInter(ctx *Context, args [][]byte) {
	sets, ok := fetchMemberSets(ctx, args)
	if !ok {
		return
	}
	writeMemberReply(ctx, store.SetInter(sets...))
}

func cmdSUnion(ctx *Context, args [][]byte) {
	sets, ok := fetchMemberSets(ctx, args)
	if !ok {
		return
	}
	writeMemberReply(ctx, store.SetUnion(sets...))
}

func cmdSDiff(ctx *Context, args [][]byte) {
	sets, ok := fetchMemberSets(ctx, args)
	if !ok {
		return
	}
	writeMemberReply(ctx, store.SetDiff(sets...))
}
