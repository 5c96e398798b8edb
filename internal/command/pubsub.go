package command

import "strings"

func registerPubSubCommands() {
	register(&Descriptor{Name: "SUBSCRIBE", Arity: -2, PubSubAllowed: true, Handler: cmdSubscribe})
	register(&Descriptor{Name: "UNSUBSCRIBE", Arity: -1, PubSubAllowed: true, Handler: cmdUnsubscribe})
	register(&Descriptor{Name: "PSUBSCRIBE", Arity: -2, PubSubAllowed: true, Handler: cmdPSubscribe})
	register(&Descriptor{Name: "PUNSUBSCRIBE", Arity: -1, PubSubAllowed: true, Handler: cmdPUnsubscribe})
	register(&Descriptor{Name: "PUBLISH", Arity: 3, Handler: cmdPublish})
	register(&Descriptor{Name: "PUBSUB", Arity: -2, Handler: cmdPubSub})
}

func writeSubAck(ctx *Context, kind, channel string, count int) {
	ctx.Out.ArrayHeader(3)
	ctx.Out.BulkString([]byte(kind))
	if channel == "" {
		ctx.Out.NilBulk()
	} else {
		ctx.Out.BulkString([]byte(channel))
	}
	ctx.Out.Integer(int64(count))
}

func cmdSubscribe(ctx *Context, args [][]byte) {
	sub := ctx.ensureSubscriber()
	for _, ch := range args {
		channel := string(ch)
		ctx.Hub.Subscribe(channel, sub)
		ctx.channels[channel] = true
		writeSubAck(ctx, "subscribe", channel, ctx.subscriptionCount())
	}
}

func cmdUnsubscribe(ctx *Context, args [][]byte) {
	targets := args
	if len(targets) == 0 {
		for ch := range ctx.channels {
			targets = append(targets, []byte(ch))
		}
	}
	if len(targets) == 0 {
		writeSubAck(ctx, "unsubscribe", "", ctx.subscriptionCount())
		return
	}
	sub := ctx.ensureSubscriber()
	for _, ch := range targets {
		channel := string(ch)
		ctx.Hub.Unsubscribe(channel, sub)
		delete(ctx.channels, channel)
		writeSubAck(ctx, "unsubscribe", channel, ctx.subscriptionCount())
	}
}

func cmdPSubscribe(ctx *Context, args [][]byte) {
	sub := ctx.ensureSubscriber()
	for _, p := range args {
		pattern := string(p)
		if _, err := ctx.Hub.PSubscribe(pattern, sub); err != nil {
			ctx.Out.Error("ERR invalid pattern")
			return
		}
		ctx.patterns[pattern] = true
		writeSubAck(ctx, "psubscribe", pattern, ctx.subscriptionCount())
	}
}

func cmdPUnsubscribe(ctx *Context, args [][]byte) {
	targets := args
	if len(targets) == 0 {
		for p := range ctx.patterns {
			targets = append(targets, []byte(p))
		}
	}
	if len(targets) == 0 {
		writeSubAck(ctx, "punsubscribe", "", ctx.subscriptionCount())
		return
	}
	sub := ctx.ensureSubscriber()
	for _, p := range targets {
		pattern := string(p)
		ctx.Hub.PUnsubscribe(pattern, sub)
		delete(ctx.patterns, pattern)
		writeSubAck(ctx, "punsubscribe", pattern, ctx.subscriptionCount())
	}
}

func cmdPublish(ctx *Context, args [][]byte) {
	n := ctx.Hub.Publish(string(args[0]), args[1])
	ctx.Out.Integer(int64(n))
}

func cmdPubSub(ctx *Context, args [][]byte) {
	switch strings.ToUpper(string(args[0])) {
	case "CHANNELS":
		channels := ctx.Hub.Channels()
		out := make([][]byte, len(channels))
		for i, c := range channels {
			out[i] = []byte(c)
		}
		ctx.Out.BulkStrings(out)
	case "NUMSUB":
		counts := ctx.Hub.NumSub(bytesToStrings(args[1:]))
		ctx.Out.ArrayHeader(len(args[1:]) * 2)
		for _, ch := range args[1:] {
			ctx.Out.BulkString(ch)
			ctx.Out.Integer(int64(counts[string(ch)]))
		}
	case "NUMPAT":
		ctx.Out.Integer(int64(ctx.Hub.NumPat()))
	default:
		ctx.Out.Error("ERR Unknown PUBSUB subcommand")
	}
}

func bytesToStrings(in [][]byte) []string {
	out := make([]string, len(in))
	for i, b := range in {
		out[i] = string(b)
	}
	return out
}
